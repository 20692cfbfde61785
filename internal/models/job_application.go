package models

// JobApplication is a student's entry in the jobsApplied collection.
type JobApplication struct {
	ID      string `json:"id"`
	Title   string `json:"title" validate:"required"`
	Company string `json:"company"`
	Status  string `json:"status"`
}
