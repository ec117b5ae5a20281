package entity

// Case is a teaching case: a labelled pair of source documents plus the
// diagnosis the encounter is graded against. Immutable once registered except
// through the authoring operation; the id doubles as the index namespace key.
type Case struct {
	ID                string `json:"id"`
	Label             string `json:"label"`
	HistoryDoc        string `json:"history_doc"`
	ExamDoc           string `json:"exam_doc"`
	AssignedDiagnosis string `json:"assigned_diagnosis"`
}
