package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLandingRoute(t *testing.T) {
	for role, want := range map[UserRole]string{
		RoleStudent: "/dashboard/student",
		RoleTeacher: "/dashboard/teacher",
		RoleAdmin:   "/dashboard/admin",
	} {
		got, ok := LandingRoute(role)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := LandingRoute("parent")
	assert.False(t, ok)
}

func TestSummarizeAssessments(t *testing.T) {
	summary := SummarizeAssessments([]Assessment{
		{Title: "a", Status: "Pending"},
		{Title: "b", Status: "Submitted"},
		{Title: "c", Status: "Pending"},
	})

	assert.Equal(t, AssessmentSummary{Total: 3, Pending: 2, Completed: 1}, summary)
}

func TestProfileDisplayDefaults(t *testing.T) {
	p := UserProfile{Role: RoleTeacher}
	assert.Equal(t, DefaultTeacherHeader, p.DisplayName(DefaultTeacherHeader))
	assert.Equal(t, DefaultLocation, p.DisplayLocation())
	assert.Equal(t, DefaultAvatarURL, p.DisplayAvatar())

	p.Name = "Ada"
	assert.Equal(t, "Ada", p.DisplayName(DefaultDisplayName))
}
