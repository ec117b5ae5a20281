package dto

type CaseSummary struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type ListCasesResponse struct {
	DefaultCaseID string        `json:"default_case_id"`
	Cases         []CaseSummary `json:"cases"`
}

// CreateCaseRequest registers a new teaching case and materializes its
// backing documents from the supplied text.
type CreateCaseRequest struct {
	ID                string `json:"id" validate:"required"`
	Label             string `json:"label"`
	HistoryText       string `json:"history_text" validate:"required"`
	ExamText          string `json:"exam_text" validate:"required"`
	AssignedDiagnosis string `json:"assigned_diagnosis" validate:"required"`
}

type CreateCaseResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
