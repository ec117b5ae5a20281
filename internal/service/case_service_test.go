package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resident-sim-be/internal/config"
	"resident-sim-be/internal/dto"
	"resident-sim-be/internal/pkg/logger"
)

type recordingPublisher struct {
	warmed []string
}

func (p *recordingPublisher) PublishIndexWarm(caseID string) error {
	p.warmed = append(p.warmed, caseID)
	return nil
}

func casesConfig(t *testing.T) (config.CasesConfig, string) {
	t.Helper()
	dir := t.TempDir()
	return config.CasesConfig{
		ConfigPath:        filepath.Join(dir, "cases.json"),
		DataDir:           dir,
		DefaultHistoryDoc: filepath.Join(dir, "case_history.txt"),
		DefaultExamDoc:    filepath.Join(dir, "case_exam.txt"),
		DefaultDiagnosis:  "Essential Tremor",
	}, dir
}

func TestMissingConfigInstallsDefaultCase(t *testing.T) {
	cfg, _ := casesConfig(t)
	s := NewCaseService(cfg, &recordingPublisher{}, logger.NewNopLogger())

	list := s.List()
	assert.Equal(t, "essential_tremor", list.DefaultCaseID)
	require.Len(t, list.Cases, 1)
	assert.Equal(t, "Essential Tremor", list.Cases[0].Label)

	c := s.Resolve("")
	assert.Equal(t, "essential_tremor", c.ID)
	assert.Equal(t, "Essential Tremor", c.AssignedDiagnosis)
}

func TestLoadCasesFromConfigFile(t *testing.T) {
	cfg, _ := casesConfig(t)
	payload := `{
		"afib": {"label": "Atrial Fibrillation", "assigned_diagnosis": "Atrial Fibrillation"},
		"copd": {"history_doc": "/docs/copd_history.txt"}
	}`
	require.NoError(t, os.WriteFile(cfg.ConfigPath, []byte(payload), 0o644))

	s := NewCaseService(cfg, &recordingPublisher{}, logger.NewNopLogger())

	list := s.List()
	require.Len(t, list.Cases, 2)
	assert.Equal(t, "afib", list.DefaultCaseID, "default is the first id in sorted order")

	copd := s.Resolve("copd")
	assert.Equal(t, "Copd", copd.Label, "missing label derived from id")
	assert.Equal(t, "/docs/copd_history.txt", copd.HistoryDoc)
	assert.Equal(t, cfg.DefaultExamDoc, copd.ExamDoc, "missing doc falls back to default")
	assert.Equal(t, cfg.DefaultDiagnosis, copd.AssignedDiagnosis)
}

func TestLoadCasesNestedKey(t *testing.T) {
	cfg, _ := casesConfig(t)
	payload := `{"cases": {"afib": {"label": "Atrial Fibrillation"}}}`
	require.NoError(t, os.WriteFile(cfg.ConfigPath, []byte(payload), 0o644))

	s := NewCaseService(cfg, &recordingPublisher{}, logger.NewNopLogger())

	// The wrapper key must not be mistaken for a case id.
	list := s.List()
	require.Len(t, list.Cases, 1)
	assert.Equal(t, "afib", list.DefaultCaseID)
	assert.Equal(t, "Atrial Fibrillation", list.Cases[0].Label)
	assert.Equal(t, "afib", s.Resolve("cases").ID)
}

func TestLoadCasesUnicodeLabel(t *testing.T) {
	cfg, _ := casesConfig(t)
	payload := `{"édème_aigu": {}}`
	require.NoError(t, os.WriteFile(cfg.ConfigPath, []byte(payload), 0o644))

	s := NewCaseService(cfg, &recordingPublisher{}, logger.NewNopLogger())

	assert.Equal(t, "Édème Aigu", s.Resolve("édème_aigu").Label)
}

func TestMalformedConfigFallsBack(t *testing.T) {
	cfg, _ := casesConfig(t)
	require.NoError(t, os.WriteFile(cfg.ConfigPath, []byte("not json"), 0o644))

	s := NewCaseService(cfg, &recordingPublisher{}, logger.NewNopLogger())

	assert.Equal(t, "essential_tremor", s.List().DefaultCaseID)
}

func TestResolveUnknownFallsBackToDefault(t *testing.T) {
	cfg, _ := casesConfig(t)
	s := NewCaseService(cfg, &recordingPublisher{}, logger.NewNopLogger())

	assert.Equal(t, "essential_tremor", s.Resolve("no_such_case").ID)
}

func TestCreateMaterializesDocumentsAndWarms(t *testing.T) {
	cfg, dir := casesConfig(t)
	pub := &recordingPublisher{}
	s := NewCaseService(cfg, pub, logger.NewNopLogger())

	resp, err := s.Create(context.Background(), &dto.CreateCaseRequest{
		ID:                "knee pain!",
		HistoryText:       "Three weeks of anterior knee pain.",
		ExamText:          "Tenderness over the patellar tendon.",
		AssignedDiagnosis: "Patellar Tendinopathy",
	})
	require.NoError(t, err)

	assert.Equal(t, "knee_pain_", resp.ID, "id sanitized for namespace and file use")
	assert.Equal(t, "Knee Pain", resp.Label)

	history, err := os.ReadFile(filepath.Join(dir, "knee_pain__history.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Three weeks of anterior knee pain.", string(history))

	exam, err := os.ReadFile(filepath.Join(dir, "knee_pain__exam.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Tenderness over the patellar tendon.", string(exam))

	c := s.Resolve("knee_pain_")
	assert.Equal(t, "Patellar Tendinopathy", c.AssignedDiagnosis)

	assert.Equal(t, []string{"knee_pain_"}, pub.warmed)
}

func TestNamespaceDerivation(t *testing.T) {
	cfg, _ := casesConfig(t)
	s := NewCaseService(cfg, &recordingPublisher{}, logger.NewNopLogger())

	assert.Equal(t, "essential_tremor_history", s.Namespace("essential_tremor", "history"))
	assert.Equal(t, "bad_id__exam", s.Namespace("bad id!", "exam"))
	assert.Equal(t, "default_history", s.Namespace("", "history"))
}

func TestSanitizeNamespacePart(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"essential_tremor", "essential_tremor"},
		{"knee pain!", "knee_pain_"},
		{"a/b\\c", "a_b_c"},
		{"", "default"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeNamespacePart(tt.in), "input %q", tt.in)
	}
}
