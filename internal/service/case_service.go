package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"resident-sim-be/internal/config"
	"resident-sim-be/internal/constant"
	"resident-sim-be/internal/dto"
	"resident-sim-be/internal/entity"
	"resident-sim-be/internal/pkg/logger"
)

var namespaceSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// ICaseService owns the case registry: which teaching cases exist, which
// documents back them, and which diagnosis each is graded against.
type ICaseService interface {
	List() *dto.ListCasesResponse
	// Resolve returns the case for the id, falling back to the default case
	// when the id is blank or unknown. Never an error.
	Resolve(caseID string) *entity.Case
	Create(ctx context.Context, req *dto.CreateCaseRequest) (*dto.CreateCaseResponse, error)
	// Namespace derives the index partition key for a (case, phase) pair.
	Namespace(caseID, phase string) string
	// DocForPhase returns the source document backing the phase index.
	DocForPhase(c *entity.Case, phase string) string
}

type caseService struct {
	mu        sync.RWMutex
	cases     map[string]*entity.Case
	defaultID string

	cfg       config.CasesConfig
	publisher IPublisherService
	log       logger.ILogger
}

func NewCaseService(cfg config.CasesConfig, publisher IPublisherService, log logger.ILogger) ICaseService {
	s := &caseService{
		cases:     make(map[string]*entity.Case),
		cfg:       cfg,
		publisher: publisher,
		log:       log,
	}
	s.loadCases()
	return s
}

type caseFileEntry struct {
	Label             string `json:"label"`
	HistoryDoc        string `json:"history_doc"`
	ExamDoc           string `json:"exam_doc"`
	AssignedDiagnosis string `json:"assigned_diagnosis"`
}

type caseFile struct {
	Cases map[string]caseFileEntry `json:"cases"`
}

// loadCases reads the JSON case config, falling back to the built-in default
// case when the file is missing, empty, or malformed.
func (s *caseService) loadCases() {
	raw, err := os.ReadFile(s.cfg.ConfigPath)
	if err != nil {
		s.installDefault()
		return
	}

	// Entries may be nested under a "cases" key or sit at top level. The
	// wrapped form must be tried first: parsed as a flat map, its "cases" key
	// would pass for a case id with an all-default entry.
	var payload caseFile
	if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Cases) == 0 {
		payload.Cases = nil
		if err := json.Unmarshal(raw, &payload.Cases); err != nil || len(payload.Cases) == 0 {
			s.log.Warn("cases", "case config unusable, using built-in default", map[string]interface{}{
				"path": s.cfg.ConfigPath,
			})
			s.installDefault()
			return
		}
	}

	ids := make([]string, 0, len(payload.Cases))
	for id, c := range payload.Cases {
		label := c.Label
		if label == "" {
			label = titleFromID(id)
		}
		historyDoc := c.HistoryDoc
		if historyDoc == "" {
			historyDoc = s.cfg.DefaultHistoryDoc
		}
		examDoc := c.ExamDoc
		if examDoc == "" {
			examDoc = s.cfg.DefaultExamDoc
		}
		dx := c.AssignedDiagnosis
		if dx == "" {
			dx = s.cfg.DefaultDiagnosis
		}
		s.cases[id] = &entity.Case{
			ID:                id,
			Label:             label,
			HistoryDoc:        historyDoc,
			ExamDoc:           examDoc,
			AssignedDiagnosis: dx,
		}
		ids = append(ids, id)
	}

	sort.Strings(ids)
	s.defaultID = ids[0]
}

func (s *caseService) installDefault() {
	s.cases["essential_tremor"] = &entity.Case{
		ID:                "essential_tremor",
		Label:             "Essential Tremor",
		HistoryDoc:        s.cfg.DefaultHistoryDoc,
		ExamDoc:           s.cfg.DefaultExamDoc,
		AssignedDiagnosis: s.cfg.DefaultDiagnosis,
	}
	s.defaultID = "essential_tremor"
}

func (s *caseService) List() *dto.ListCasesResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.cases))
	for id := range s.cases {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	summaries := make([]dto.CaseSummary, 0, len(ids))
	for _, id := range ids {
		summaries = append(summaries, dto.CaseSummary{ID: id, Label: s.cases[id].Label})
	}

	return &dto.ListCasesResponse{
		DefaultCaseID: s.defaultID,
		Cases:         summaries,
	}
}

func (s *caseService) Resolve(caseID string) *entity.Case {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.cases[caseID]; ok {
		return c
	}
	return s.cases[s.defaultID]
}

// Create registers a case and materializes its backing documents. The new
// case is announced on the event bus so its indexes warm in the background.
func (s *caseService) Create(ctx context.Context, req *dto.CreateCaseRequest) (*dto.CreateCaseResponse, error) {
	id := SanitizeNamespacePart(req.ID)
	label := req.Label
	if label == "" {
		label = titleFromID(id)
	}

	if err := os.MkdirAll(s.cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create case data dir: %w", err)
	}

	historyDoc := filepath.Join(s.cfg.DataDir, id+"_history.txt")
	examDoc := filepath.Join(s.cfg.DataDir, id+"_exam.txt")

	if err := os.WriteFile(historyDoc, []byte(req.HistoryText), 0o644); err != nil {
		return nil, fmt.Errorf("write history document: %w", err)
	}
	if err := os.WriteFile(examDoc, []byte(req.ExamText), 0o644); err != nil {
		return nil, fmt.Errorf("write exam document: %w", err)
	}

	s.mu.Lock()
	s.cases[id] = &entity.Case{
		ID:                id,
		Label:             label,
		HistoryDoc:        historyDoc,
		ExamDoc:           examDoc,
		AssignedDiagnosis: req.AssignedDiagnosis,
	}
	s.mu.Unlock()

	if err := s.publisher.PublishIndexWarm(id); err != nil {
		s.log.Warn("cases", "failed to publish index warm event", map[string]interface{}{
			"case_id": id,
			"error":   err.Error(),
		})
	}

	s.log.Info("cases", "case registered", map[string]interface{}{"case_id": id})

	return &dto.CreateCaseResponse{ID: id, Label: label}, nil
}

func (s *caseService) Namespace(caseID, phase string) string {
	return SanitizeNamespacePart(caseID) + "_" + phase
}

func (s *caseService) DocForPhase(c *entity.Case, phase string) string {
	if phase == constant.PhaseExam {
		return c.ExamDoc
	}
	return c.HistoryDoc
}

// SanitizeNamespacePart replaces anything outside [a-zA-Z0-9_-] so case ids
// are safe as namespace keys and file name stems.
func SanitizeNamespacePart(value string) string {
	if value == "" {
		value = "default"
	}
	return namespaceSanitizer.ReplaceAllString(value, "_")
}

func titleFromID(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
