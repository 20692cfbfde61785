package models

// Section is one ordered entry in a course curriculum.
type Section struct {
	Title string `json:"title"`
}

// Course is the document stored in the courses collection.
type Course struct {
	ID            string    `json:"id"`
	Name          string    `json:"name" validate:"required"`
	Description   string    `json:"description"`
	Lessons       int       `json:"lessons" validate:"gte=0"`
	CoverImageURL string    `json:"coverImageUrl"`
	Category      string    `json:"category"`
	Level         string    `json:"level"`
	VideoLink     string    `json:"videoLink"`
	Sections      []Section `json:"sections"`
	Requirements  string    `json:"requirements"`
}
