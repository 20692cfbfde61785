package dto

import (
	"github.com/noah-isme/wisdomwork-api/internal/models"
	"github.com/noah-isme/wisdomwork-api/internal/viewstate"
)

// ProfileCard is the header block shown on every dashboard.
type ProfileCard struct {
	Name      string          `json:"name"`
	Location  string          `json:"location"`
	AvatarURL string          `json:"avatarUrl"`
	Role      models.UserRole `json:"role"`
}

// NewProfileCard applies the display fallbacks to profile. fallbackName replaces a blank name.
func NewProfileCard(profile *models.UserProfile, fallbackName string) ProfileCard {
	if profile == nil {
		return ProfileCard{Name: fallbackName, Location: models.DefaultLocation, AvatarURL: models.DefaultAvatarURL}
	}
	return ProfileCard{
		Name:      profile.DisplayName(fallbackName),
		Location:  profile.DisplayLocation(),
		AvatarURL: profile.DisplayAvatar(),
		Role:      profile.Role,
	}
}

// CategoryCount is one summary tile.
type CategoryCount struct {
	Category    string `json:"category"`
	Label       string `json:"label"`
	Count       int    `json:"count"`
	Highlighted bool   `json:"highlighted"`
}

// StudentDashboardResponse renders only the subset selected by the active panel:
// tiles for Summary, Items for List, Item for Detail.
type StudentDashboardResponse struct {
	Profile    ProfileCard     `json:"profile"`
	View       viewstate.State `json:"view"`
	Categories []CategoryCount `json:"categories"`
	Items      interface{}     `json:"items,omitempty"`
	Item       interface{}     `json:"item,omitempty"`
}

// TeacherDashboardResponse is the teacher landing page.
type TeacherDashboardResponse struct {
	Profile      ProfileCard `json:"profile"`
	StudentCount int         `json:"studentCount"`
	CourseCount  int         `json:"courseCount"`
}

// AssessmentsPageResponse lists assessments with status counts.
type AssessmentsPageResponse struct {
	Items   []models.Assessment      `json:"items"`
	Summary models.AssessmentSummary `json:"summary"`
}

// AdminDashboardResponse captures platform-wide counts.
type AdminDashboardResponse struct {
	Profile     ProfileCard             `json:"profile"`
	Roles       map[models.UserRole]int `json:"roles"`
	Collections map[string]int          `json:"collections"`
	Metrics     models.SystemMetrics    `json:"metrics"`
}

// EntryPageResponse describes the unauthenticated login and signup pages.
type EntryPageResponse struct {
	Page      string   `json:"page"`
	Action    string   `json:"action"`
	Fields    []string `json:"fields"`
	Providers []string `json:"providers"`
}
