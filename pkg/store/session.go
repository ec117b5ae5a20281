package store

import "sync"

// Encounter stages, in order. A session never moves backward.
const (
	StageHistory   = "HISTORY"
	StageHxDiscuss = "HX_DISCUSS"
	StageExam      = "EXAM"
	StageDxDiscuss = "DX_DISCUSS"
	StageTreatment = "TREATMENT"
	StageFinal     = "FINAL"
)

// Speaker tags for assistant turns.
const (
	SpeakerPatient   = "patient"
	SpeakerAttending = "attending"
)

// Turn is a single transcript entry. The transcript is append-only; insertion
// order is the chat history handed to the LLM.
type Turn struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
	Speaker string `json:"speaker,omitempty"` // set on assistant turns
}

// Session holds the in-memory state of one teaching encounter.
//
// The embedded mutex serializes access per session: two concurrent requests
// against the same session id must not interleave transcript appends. Callers
// hold Lock around every read-modify cycle.
type Session struct {
	mu sync.Mutex

	ID     string `json:"id"`
	CaseID string `json:"case_id"`
	Stage  string `json:"stage"`

	Transcript []Turn `json:"transcript"`

	// Scratch state collected on the way to the final assessment.
	DxCandidate         string `json:"dx_candidate"`
	TreatmentPlan       string `json:"treatment_plan"`
	TreatmentAssessment string `json:"treatment_assessment"`
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Append adds a turn to the transcript. Prior turns are never mutated.
func (s *Session) Append(turn Turn) {
	s.Transcript = append(s.Transcript, turn)
}

// History returns a copy of the transcript, safe to hand to a provider after
// the session lock is released.
func (s *Session) History() []Turn {
	out := make([]Turn, len(s.Transcript))
	copy(out, s.Transcript)
	return out
}
