package dto

// StartSessionRequest opens (or resumes) an encounter. Both fields are
// optional: a blank session id mints a fresh one, a blank case id falls back
// to the default case.
type StartSessionRequest struct {
	SessionID string `json:"session_id"`
	CaseID    string `json:"case_id"`
}

type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	CaseID    string `json:"case_id"`
	CaseLabel string `json:"case_label"`
	Resumed   bool   `json:"resumed"`
}

// ChatRequest is shared by every message-carrying exchange (patient chat,
// history discussion, exam chat, diagnosis submission, treatment plan,
// follow-ups).
type ChatRequest struct {
	SessionID string `json:"session_id"`
	CaseID    string `json:"case_id"`
	Message   string `json:"message" validate:"required"`
}

// TriggerRequest is shared by message-less stage triggers (open encounter,
// exam intro, final prompt, treatment kickoff, finalize).
type TriggerRequest struct {
	SessionID string `json:"session_id"`
	CaseID    string `json:"case_id"`
}

type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Role      string `json:"role"` // "patient" | "attending"
	CaseID    string `json:"case_id,omitempty"`
	Stage     string `json:"stage"`
	AdvanceTo string `json:"advance_to,omitempty"`
}
