package dto

import (
	"github.com/noah-isme/wisdomwork-api/internal/editor"
)

// PendingFileView describes an attached file without its bytes.
type PendingFileView struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Size        int    `json:"size"`
}

// EditorView is the JSON view of an open draft.
type EditorView struct {
	Kind   editor.Kind      `json:"kind"`
	Tab    editor.Tab       `json:"tab"`
	Tabs   []editor.Tab     `json:"tabs"`
	Entity interface{}      `json:"entity"`
	File   *PendingFileView `json:"file,omitempty"`
}

// NewEditorView renders d.
func NewEditorView(d *editor.Draft) EditorView {
	view := EditorView{Kind: d.Kind, Tab: d.Tab, Tabs: editor.Tabs(), Entity: d.Entity()}
	if d.File != nil {
		view.File = &PendingFileView{Name: d.File.Name, ContentType: d.File.ContentType, Size: len(d.File.Data)}
	}
	return view
}

// EditorFieldRequest sets one field of a draft.
type EditorFieldRequest struct {
	Path  string      `json:"path" validate:"required"`
	Value interface{} `json:"value"`
}

// EditorTabRequest moves a draft to another tab.
type EditorTabRequest struct {
	Tab string `json:"tab" validate:"required"`
}

// EditorSectionRequest sets a section title.
type EditorSectionRequest struct {
	Title string `json:"title"`
}

// EditorOpenRequest opens an editor, optionally on an existing entity.
type EditorOpenRequest struct {
	ID string `json:"id"`
}
