package service

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"resident-sim-be/internal/constant"
	"resident-sim-be/internal/dto"
	"resident-sim-be/internal/pkg/logger"
	"resident-sim-be/internal/repository/memory"
	"resident-sim-be/pkg/evidence"
	"resident-sim-be/pkg/llm"
	"resident-sim-be/pkg/rag"
	"resident-sim-be/pkg/store"
)

// stageRank orders stages so no trigger can move a session backward.
var stageRank = map[string]int{
	store.StageHistory:   0,
	store.StageHxDiscuss: 1,
	store.StageExam:      2,
	store.StageDxDiscuss: 3,
	store.StageTreatment: 4,
	store.StageFinal:     5,
}

// IEncounterService owns per-encounter stage and transcript. One method per
// stage-transition trigger, plus the retrieval-backed chat exchanges.
type IEncounterService interface {
	StartSession(ctx context.Context, req *dto.StartSessionRequest) (*dto.StartSessionResponse, error)
	ResetSessions()

	PatientChat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	OpenEncounter(ctx context.Context, req *dto.TriggerRequest) (*dto.ChatResponse, error)
	HistoryDiscuss(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	ExamIntro(ctx context.Context, req *dto.TriggerRequest) (*dto.ChatResponse, error)
	ExamChat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	FinalPrompt(ctx context.Context, req *dto.TriggerRequest) (*dto.ChatResponse, error)
	SubmitDiagnosis(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	StartTreatment(ctx context.Context, req *dto.TriggerRequest) (*dto.ChatResponse, error)
	AssessTreatment(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	FinalFollowup(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	FinalizeEncounter(ctx context.Context, req *dto.TriggerRequest) (*dto.ChatResponse, error)
}

type encounterService struct {
	sessions  *memory.SessionRepository
	cases     ICaseService
	retriever *rag.Retriever
	provider  llm.LLMProvider
	finder    *evidence.Finder
	log       logger.ILogger

	// Guards the lookup-or-create window so two concurrent requests for the
	// same unknown session id cannot both create it.
	createMu sync.Mutex
}

func NewEncounterService(
	sessions *memory.SessionRepository,
	cases ICaseService,
	retriever *rag.Retriever,
	provider llm.LLMProvider,
	finder *evidence.Finder,
	log logger.ILogger,
) IEncounterService {
	return &encounterService{
		sessions:  sessions,
		cases:     cases,
		retriever: retriever,
		provider:  provider,
		finder:    finder,
		log:       log,
	}
}

// getOrCreate resolves a session by id, silently creating one when the id is
// unknown or blank. The created flag lets callers distinguish resumed from
// new. Supplying a case id rebinds an existing session without clearing its
// transcript.
func (s *encounterService) getOrCreate(sessionID, caseID string) (*store.Session, bool) {
	resolved := s.cases.Resolve(caseID)

	s.createMu.Lock()
	defer s.createMu.Unlock()

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if sess, found := s.sessions.Get(sessionID); found {
		if caseID != "" {
			sess.Lock()
			sess.CaseID = resolved.ID
			sess.Unlock()
		}
		return sess, false
	}

	sess := &store.Session{
		ID:     sessionID,
		CaseID: resolved.ID,
		Stage:  store.StageHistory,
	}
	s.sessions.Save(sess)
	return sess, true
}

// advance moves the stage forward only; a trigger arriving out of order never
// rewinds an encounter.
func advance(sess *store.Session, target string) {
	if stageRank[target] > stageRank[sess.Stage] {
		sess.Stage = target
	}
}

func (s *encounterService) StartSession(ctx context.Context, req *dto.StartSessionRequest) (*dto.StartSessionResponse, error) {
	sess, created := s.getOrCreate(req.SessionID, req.CaseID)

	sess.Lock()
	caseID := sess.CaseID
	sess.Unlock()

	c := s.cases.Resolve(caseID)

	s.log.Info("encounter", "session started", map[string]interface{}{
		"session_id": sess.ID,
		"case_id":    c.ID,
		"resumed":    !created,
	})

	return &dto.StartSessionResponse{
		SessionID: sess.ID,
		CaseID:    c.ID,
		CaseLabel: c.Label,
		Resumed:   !created,
	}, nil
}

func (s *encounterService) ResetSessions() {
	s.sessions.Clear()
	s.log.Info("encounter", "all sessions cleared", nil)
}

// PatientChat is the HISTORY-phase exchange: the standardized patient answers
// from history context only, in first person.
func (s *encounterService) PatientChat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	sess, _ := s.getOrCreate(req.SessionID, req.CaseID)
	sess.Lock()
	defer sess.Unlock()

	caseCtx, err := s.caseContext(ctx, sess.CaseID, constant.PhaseHistory, req.Message)
	if err != nil {
		return nil, err
	}

	system := constant.PatientSystemPrompt + "\n\nCASE CONTEXT (history):\n" + caseCtx
	reply, err := s.chat(ctx, system, sess, req.Message, constant.TempPatientChat)
	if err != nil {
		return nil, err
	}

	s.appendExchange(sess, req.Message, reply, store.SpeakerPatient)

	return &dto.ChatResponse{
		SessionID: sess.ID,
		Reply:     reply,
		Role:      store.SpeakerPatient,
		CaseID:    sess.CaseID,
		Stage:     sess.Stage,
	}, nil
}

// OpenEncounter brings the attending in and moves the session to HX_DISCUSS.
// The coaching prompt is fixed; no generation, no transcript append.
func (s *encounterService) OpenEncounter(ctx context.Context, req *dto.TriggerRequest) (*dto.ChatResponse, error) {
	sess, _ := s.getOrCreate(req.SessionID, req.CaseID)
	sess.Lock()
	defer sess.Unlock()

	advance(sess, store.StageHxDiscuss)

	return &dto.ChatResponse{
		SessionID: sess.ID,
		Reply:     constant.AttendingOpenLine,
		Role:      store.SpeakerAttending,
		Stage:     sess.Stage,
	}, nil
}

func (s *encounterService) HistoryDiscuss(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	sess, _ := s.getOrCreate(req.SessionID, req.CaseID)
	sess.Lock()
	defer sess.Unlock()

	caseCtx, err := s.caseContext(ctx, sess.CaseID, constant.PhaseHistory, req.Message)
	if err != nil {
		return nil, err
	}

	system := constant.AttendingSystemPrompt +
		"\nYou are discussing the resident's initial differential based on HISTORY only." +
		"\n\nCASE CONTEXT (history):\n" + caseCtx
	reply, err := s.chat(ctx, system, sess, req.Message, constant.TempHistoryDiscuss)
	if err != nil {
		return nil, err
	}

	s.appendExchange(sess, req.Message, reply, store.SpeakerAttending)

	return &dto.ChatResponse{
		SessionID: sess.ID,
		Reply:     reply,
		Role:      store.SpeakerAttending,
		Stage:     sess.Stage,
	}, nil
}

func (s *encounterService) ExamIntro(ctx context.Context, req *dto.TriggerRequest) (*dto.ChatResponse, error) {
	sess, _ := s.getOrCreate(req.SessionID, req.CaseID)
	sess.Lock()
	defer sess.Unlock()

	advance(sess, store.StageExam)

	return &dto.ChatResponse{
		SessionID: sess.ID,
		Reply:     constant.ExamIntroLine,
		Role:      store.SpeakerAttending,
		Stage:     sess.Stage,
	}, nil
}

func (s *encounterService) ExamChat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	sess, _ := s.getOrCreate(req.SessionID, req.CaseID)
	sess.Lock()
	defer sess.Unlock()

	caseCtx, err := s.caseContext(ctx, sess.CaseID, constant.PhaseExam, req.Message)
	if err != nil {
		return nil, err
	}

	system := constant.AttendingSystemPrompt + "\n\nCASE CONTEXT (exam):\n" + caseCtx
	reply, err := s.chat(ctx, system, sess, req.Message, constant.TempExamChat)
	if err != nil {
		return nil, err
	}

	s.appendExchange(sess, req.Message, reply, store.SpeakerAttending)

	return &dto.ChatResponse{
		SessionID: sess.ID,
		Reply:     reply,
		Role:      store.SpeakerAttending,
		Stage:     sess.Stage,
	}, nil
}

func (s *encounterService) FinalPrompt(ctx context.Context, req *dto.TriggerRequest) (*dto.ChatResponse, error) {
	sess, _ := s.getOrCreate(req.SessionID, req.CaseID)
	sess.Lock()
	defer sess.Unlock()

	advance(sess, store.StageDxDiscuss)

	return &dto.ChatResponse{
		SessionID: sess.ID,
		Reply:     constant.FinalPromptLine,
		Role:      store.SpeakerAttending,
		Stage:     sess.Stage,
	}, nil
}

// SubmitDiagnosis stores the resident's candidate, recaps the transcript,
// gathers evidence for the assigned diagnosis, and delivers the comparison
// verdict. Accepted from any stage; lands the session in FINAL.
func (s *encounterService) SubmitDiagnosis(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	sess, _ := s.getOrCreate(req.SessionID, req.CaseID)
	sess.Lock()
	defer sess.Unlock()

	sess.DxCandidate = req.Message

	var contents []string
	for _, t := range sess.Transcript {
		contents = append(contents, t.Content)
	}
	recap, err := s.provider.Chat(ctx,
		[]llm.Message{
			{Role: "system", Content: constant.RecapSystemPrompt},
			{Role: "user", Content: strings.Join(contents, "\n\n")},
		},
		llm.WithTemperature(constant.TempRecap),
	)
	if err != nil {
		return nil, err
	}

	c := s.cases.Resolve(sess.CaseID)
	items := s.finder.FindForDiagnosis(ctx, c.AssignedDiagnosis, constant.DiagnosisEvidenceMax)

	reply, err := s.provider.Chat(ctx,
		[]llm.Message{
			{Role: "system", Content: constant.FinalSystemPrompt},
			{Role: "user", Content: "Resident final note: " + req.Message},
			{Role: "user", Content: "Assigned correct diagnosis: " + c.AssignedDiagnosis},
			{Role: "user", Content: "Case recap (history+exam):\n" + recap},
			{Role: "user", Content: "External evidence (title + url each line):\n" + evidence.FormatBlock(items)},
		},
		llm.WithTemperature(constant.TempFinalAssessment),
	)
	if err != nil {
		return nil, err
	}

	advance(sess, store.StageFinal)
	s.appendExchange(sess, req.Message, reply, store.SpeakerAttending)

	return &dto.ChatResponse{
		SessionID: sess.ID,
		Reply:     reply,
		Role:      store.SpeakerAttending,
		Stage:     sess.Stage,
		AdvanceTo: store.StageFinal,
	}, nil
}

// StartTreatment asks the resident for an initial treatment plan and moves
// the session to TREATMENT. The kickoff is generated from the transcript so
// it can reference the specific patient.
func (s *encounterService) StartTreatment(ctx context.Context, req *dto.TriggerRequest) (*dto.ChatResponse, error) {
	sess, _ := s.getOrCreate(req.SessionID, req.CaseID)
	sess.Lock()
	defer sess.Unlock()

	history := append(
		[]llm.Message{{Role: "system", Content: constant.TreatmentKickoffPrompt}},
		turnsToMessages(sess.Transcript)...,
	)
	reply, err := s.provider.Chat(ctx, history, llm.WithTemperature(constant.TempTreatment))
	if err != nil {
		return nil, err
	}

	sess.Append(store.Turn{Role: "assistant", Content: reply, Speaker: store.SpeakerAttending})
	advance(sess, store.StageTreatment)

	return &dto.ChatResponse{
		SessionID: sess.ID,
		Reply:     reply,
		Role:      store.SpeakerAttending,
		Stage:     sess.Stage,
		AdvanceTo: store.StageTreatment,
	}, nil
}

// AssessTreatment appends the plan, gathers evidence for the plan text (not
// the diagnosis), and produces an evidence-bounded assessment. Lands in FINAL.
func (s *encounterService) AssessTreatment(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	sess, _ := s.getOrCreate(req.SessionID, req.CaseID)
	sess.Lock()
	defer sess.Unlock()

	plan := strings.TrimSpace(req.Message)
	sess.Append(store.Turn{Role: "user", Content: plan})

	var spoken []string
	for _, t := range sess.Transcript {
		if t.Speaker == store.SpeakerPatient || t.Speaker == store.SpeakerAttending {
			spoken = append(spoken, t.Content)
		}
	}
	if len(spoken) > constant.TreatmentContextTurns {
		spoken = spoken[len(spoken)-constant.TreatmentContextTurns:]
	}

	items := s.finder.Gather(ctx, plan, constant.TreatmentEvidenceMax)

	system := constant.TreatmentAssessSystemPrompt +
		"\n\n--- CASE CONTEXT ---\n" + strings.Join(spoken, "\n\n") +
		"\n\n--- EVIDENCE (trusted only) ---\n" + evidence.FormatBlock(items) + "\n"

	reply, err := s.provider.Chat(ctx,
		[]llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: plan},
		},
		llm.WithTemperature(constant.TempTreatment),
	)
	if err != nil {
		return nil, err
	}

	sess.Append(store.Turn{Role: "assistant", Content: reply, Speaker: store.SpeakerAttending})
	sess.TreatmentPlan = plan
	sess.TreatmentAssessment = reply
	advance(sess, store.StageFinal)

	return &dto.ChatResponse{
		SessionID: sess.ID,
		Reply:     reply,
		Role:      store.SpeakerAttending,
		Stage:     sess.Stage,
		AdvanceTo: store.StageFinal,
	}, nil
}

// FinalFollowup answers open-ended teaching questions after the final
// assessment without changing stage.
func (s *encounterService) FinalFollowup(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	sess, _ := s.getOrCreate(req.SessionID, req.CaseID)
	sess.Lock()
	defer sess.Unlock()

	system := constant.AttendingSystemPrompt +
		" You are now answering follow-up teaching questions after the final assessment."
	reply, err := s.chat(ctx, system, sess, req.Message, constant.TempFollowup)
	if err != nil {
		return nil, err
	}

	s.appendExchange(sess, req.Message, reply, store.SpeakerAttending)

	return &dto.ChatResponse{
		SessionID: sess.ID,
		Reply:     reply,
		Role:      store.SpeakerAttending,
		Stage:     sess.Stage,
	}, nil
}

// FinalizeEncounter produces the closing teaching summary. Stage unchanged.
func (s *encounterService) FinalizeEncounter(ctx context.Context, req *dto.TriggerRequest) (*dto.ChatResponse, error) {
	sess, _ := s.getOrCreate(req.SessionID, req.CaseID)
	sess.Lock()
	defer sess.Unlock()

	history := append(
		[]llm.Message{{Role: "system", Content: constant.SummarySystemPrompt}},
		turnsToMessages(sess.Transcript)...,
	)
	summary, err := s.provider.Chat(ctx, history, llm.WithTemperature(constant.TempSummary))
	if err != nil {
		return nil, err
	}

	sess.Append(store.Turn{Role: "assistant", Content: summary, Speaker: store.SpeakerAttending})

	return &dto.ChatResponse{
		SessionID: sess.ID,
		Reply:     summary,
		Role:      store.SpeakerAttending,
		Stage:     sess.Stage,
	}, nil
}

// caseContext lazily indexes the phase document and retrieves the top-k
// snippets for the user's message.
func (s *encounterService) caseContext(ctx context.Context, caseID, phase, query string) (string, error) {
	c := s.cases.Resolve(caseID)
	ns := s.cases.Namespace(c.ID, phase)

	if err := s.retriever.EnsureIndex(ctx, ns, s.cases.DocForPhase(c, phase)); err != nil {
		return "", err
	}

	snippets, err := s.retriever.Search(ctx, ns, query, constant.RetrievalTopK)
	if err != nil {
		return "", err
	}
	return rag.FormatContext(snippets), nil
}

// chat sends system + transcript + the pending user message to the provider.
// The pending message is not yet part of the transcript; appendExchange
// commits it together with the reply after generation succeeds.
func (s *encounterService) chat(ctx context.Context, system string, sess *store.Session, userMsg string, temp float64) (string, error) {
	history := append(
		[]llm.Message{{Role: "system", Content: system}},
		turnsToMessages(sess.Transcript)...,
	)
	history = append(history, llm.Message{Role: "user", Content: userMsg})

	return s.provider.Chat(ctx, history, llm.WithTemperature(temp))
}

// appendExchange commits exactly one user turn followed by one assistant
// turn, in that order.
func (s *encounterService) appendExchange(sess *store.Session, userMsg, reply, speaker string) {
	sess.Append(store.Turn{Role: "user", Content: userMsg})
	sess.Append(store.Turn{Role: "assistant", Content: reply, Speaker: speaker})
}

func turnsToMessages(turns []store.Turn) []llm.Message {
	msgs := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Content})
	}
	return msgs
}
