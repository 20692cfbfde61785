package models

// Assessment statuses counted by the teacher dashboard.
const (
	AssessmentStatusPending   = "Pending"
	AssessmentStatusSubmitted = "Submitted"
)

// Assessment is the document stored in the assessments collection.
type Assessment struct {
	ID         string `json:"id"`
	Title      string `json:"title" validate:"required"`
	DateShared string `json:"dateShared"`
	Contact    string `json:"contact"`
	Email      string `json:"email"`
	Status     string `json:"status"`
}

// AssessmentSummary aggregates assessment counts by status.
type AssessmentSummary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// SummarizeAssessments counts Pending and Submitted assessments.
func SummarizeAssessments(items []Assessment) AssessmentSummary {
	summary := AssessmentSummary{Total: len(items)}
	for _, item := range items {
		switch item.Status {
		case AssessmentStatusPending:
			summary.Pending++
		case AssessmentStatusSubmitted:
			summary.Completed++
		}
	}
	return summary
}
