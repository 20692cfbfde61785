// Package viewstate models which dashboard panel is active and guards
// against applying the results of superseded loads.
package viewstate

import "sync/atomic"

// PanelKind names the dashboard panels.
type PanelKind string

const (
	PanelSummary PanelKind = "summary"
	PanelList    PanelKind = "list"
	PanelDetail  PanelKind = "detail"
)

// Panel is the active panel. Category is set for List, ItemID for Detail.
type Panel struct {
	Kind     PanelKind `json:"kind"`
	Category string    `json:"category,omitempty"`
	ItemID   string    `json:"itemId,omitempty"`
}

// State is the view state of one dashboard.
type State struct {
	Active      Panel  `json:"active"`
	Highlighted string `json:"highlighted,omitempty"`
}

// New returns the initial Summary state.
func New() State {
	return State{Active: Panel{Kind: PanelSummary}}
}

// SelectCategory opens the list for category and highlights it.
func (s State) SelectCategory(category string) State {
	return State{Active: Panel{Kind: PanelList, Category: category}, Highlighted: category}
}

// SelectItem opens the detail panel for id within the highlighted category.
func (s State) SelectItem(id string) State {
	return State{Active: Panel{Kind: PanelDetail, Category: s.Highlighted, ItemID: id}, Highlighted: s.Highlighted}
}

// Back returns to Summary, keeping the highlight.
func (s State) Back() State {
	return State{Active: Panel{Kind: PanelSummary}, Highlighted: s.Highlighted}
}

// FromQuery replays the events implied by request parameters onto the initial state.
func FromQuery(category, item string, back bool) State {
	state := New()
	if category != "" {
		state = state.SelectCategory(category)
	}
	if item != "" {
		state = state.SelectItem(item)
	}
	if back {
		state = state.Back()
	}
	return state
}

// Generation hands out monotonically increasing tokens. A holder of an older
// token must discard its result once a newer one has been issued.
type Generation struct {
	n atomic.Uint64
}

// Next issues a new token, superseding every earlier one.
func (g *Generation) Next() uint64 {
	return g.n.Add(1)
}

// Current reports whether token is still the latest issued.
func (g *Generation) Current(token uint64) bool {
	return g.n.Load() == token
}
