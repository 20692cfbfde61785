package viewstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialStateIsSummary(t *testing.T) {
	s := New()
	assert.Equal(t, PanelSummary, s.Active.Kind)
	assert.Empty(t, s.Highlighted)
}

func TestTransitions(t *testing.T) {
	s := New().SelectCategory("courses")
	assert.Equal(t, Panel{Kind: PanelList, Category: "courses"}, s.Active)
	assert.Equal(t, "courses", s.Highlighted)

	s = s.SelectItem("c1")
	assert.Equal(t, Panel{Kind: PanelDetail, Category: "courses", ItemID: "c1"}, s.Active)

	s = s.Back()
	assert.Equal(t, PanelSummary, s.Active.Kind)
	assert.Equal(t, "courses", s.Highlighted)
}

func TestFromQuery(t *testing.T) {
	assert.Equal(t, New(), FromQuery("", "", false))
	assert.Equal(t, PanelList, FromQuery("projects", "", false).Active.Kind)
	assert.Equal(t, "p1", FromQuery("projects", "p1", false).Active.ItemID)
	back := FromQuery("jobs", "", true)
	assert.Equal(t, PanelSummary, back.Active.Kind)
	assert.Equal(t, "jobs", back.Highlighted)
}

func TestGenerationSupersedes(t *testing.T) {
	var g Generation
	first := g.Next()
	assert.True(t, g.Current(first))

	second := g.Next()
	assert.False(t, g.Current(first))
	assert.True(t, g.Current(second))
}
