package models

// ProjectStatusPending is the status given to new projects.
const ProjectStatusPending = "Pending"

// Project is the document stored in the projects collection. Status is free-form.
type Project struct {
	ID            string `json:"id"`
	Name          string `json:"name" validate:"required"`
	Description   string `json:"description" validate:"required"`
	Category      string `json:"category"`
	Status        string `json:"status"`
	CoverImageURL string `json:"coverImageUrl"`
}
