// Package editor holds the multi-step entity editor: a Draft that accumulates
// edits across free-form tabs and is persisted only on save.
package editor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/wisdomwork-api/internal/models"
)

var (
	ErrUnknownKind     = errors.New("unknown editor kind")
	ErrUnknownTab      = errors.New("unknown editor tab")
	ErrUnknownField    = errors.New("unknown field")
	ErrInvalidValue    = errors.New("invalid field value")
	ErrSectionIndex    = errors.New("section index out of range")
	ErrNotSupported    = errors.New("operation not supported for this kind")
	ErrEmptyFile       = errors.New("file is empty")
	ErrMissingFileName = errors.New("file name required")
)

// Kind is the entity type an editor instance edits.
type Kind string

const (
	KindCourse     Kind = "course"
	KindProject    Kind = "project"
	KindAssessment Kind = "assessment"
)

// ParseKind validates a kind from a route parameter.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(raw)); k {
	case KindCourse, KindProject, KindAssessment:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

// Collection returns the collection drafts of this kind are saved to.
func (k Kind) Collection() string {
	switch k {
	case KindCourse:
		return models.CollectionCourses
	case KindProject:
		return models.CollectionProjects
	case KindAssessment:
		return models.CollectionAssessments
	}
	return ""
}

// PathHint returns the blob namespace for cover images, empty when the kind takes no file.
func (k Kind) PathHint() string {
	switch k {
	case KindCourse:
		return "course_images/"
	case KindProject:
		return "project_images/"
	}
	return ""
}

// AcceptsFile reports whether drafts of this kind carry a cover image.
func (k Kind) AcceptsFile() bool {
	return k.PathHint() != ""
}

// Tab is one step of the wizard.
type Tab string

const (
	TabBasicInfo      Tab = "basic-info"
	TabMedia          Tab = "media"
	TabCurriculum     Tab = "curriculum"
	TabRequirements   Tab = "requirements"
	TabPreviewPublish Tab = "preview-publish"
)

// Tabs lists the wizard steps in display order.
func Tabs() []Tab {
	return []Tab{TabBasicInfo, TabMedia, TabCurriculum, TabRequirements, TabPreviewPublish}
}

// ParseTab validates a tab name.
func ParseTab(raw string) (Tab, error) {
	for _, tab := range Tabs() {
		if string(tab) == raw {
			return tab, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTab, raw)
}

// PendingFile is a selected file that has not been uploaded yet.
type PendingFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Draft is the unpersisted copy of an entity under edit. Exactly one of
// Course, Project or Assessment is set, matching Kind.
type Draft struct {
	Kind       Kind
	Tab        Tab
	Course     *models.Course
	Project    *models.Project
	Assessment *models.Assessment
	File       *PendingFile
}

// New returns an empty template draft for kind.
func New(kind Kind) *Draft {
	d := &Draft{Kind: kind, Tab: TabBasicInfo}
	switch kind {
	case KindCourse:
		d.Course = &models.Course{Sections: []models.Section{}}
	case KindProject:
		d.Project = &models.Project{Status: models.ProjectStatusPending}
	case KindAssessment:
		d.Assessment = &models.Assessment{Status: models.AssessmentStatusPending}
	}
	return d
}

// FromCourse starts a draft as a copy of an existing course.
func FromCourse(c models.Course) *Draft {
	c.Sections = append([]models.Section{}, c.Sections...)
	return &Draft{Kind: KindCourse, Tab: TabBasicInfo, Course: &c}
}

// FromProject starts a draft as a copy of an existing project.
func FromProject(p models.Project) *Draft {
	return &Draft{Kind: KindProject, Tab: TabBasicInfo, Project: &p}
}

// FromAssessment starts a draft as a copy of an existing assessment.
func FromAssessment(a models.Assessment) *Draft {
	return &Draft{Kind: KindAssessment, Tab: TabBasicInfo, Assessment: &a}
}

// ID returns the id of the entity being edited, empty for new entities.
func (d *Draft) ID() string {
	switch {
	case d.Course != nil:
		return d.Course.ID
	case d.Project != nil:
		return d.Project.ID
	case d.Assessment != nil:
		return d.Assessment.ID
	}
	return ""
}

// AdoptID records the id assigned by the store after create.
func (d *Draft) AdoptID(id string) {
	switch {
	case d.Course != nil:
		d.Course.ID = id
	case d.Project != nil:
		d.Project.ID = id
	case d.Assessment != nil:
		d.Assessment.ID = id
	}
}

// SetImageURL overwrites the cover image URL.
func (d *Draft) SetImageURL(url string) {
	switch {
	case d.Course != nil:
		d.Course.CoverImageURL = url
	case d.Project != nil:
		d.Project.CoverImageURL = url
	}
}

// Entity returns the draft's entity value.
func (d *Draft) Entity() interface{} {
	switch {
	case d.Course != nil:
		return *d.Course
	case d.Project != nil:
		return *d.Project
	case d.Assessment != nil:
		return *d.Assessment
	}
	return nil
}

// Navigate moves to tab. Tabs are free-form; no completeness checks apply.
func (d *Draft) Navigate(tab Tab) {
	d.Tab = tab
}

// Attach stores file as the pending cover image, replacing any previous one.
func (d *Draft) Attach(file PendingFile) error {
	if !d.Kind.AcceptsFile() {
		return ErrNotSupported
	}
	if file.Name == "" {
		return ErrMissingFileName
	}
	if len(file.Data) == 0 {
		return ErrEmptyFile
	}
	d.File = &PendingFile{Name: file.Name, ContentType: file.ContentType, Data: append([]byte(nil), file.Data...)}
	return nil
}

// AddSection appends an empty section to a course draft.
func (d *Draft) AddSection() error {
	if d.Course == nil {
		return ErrNotSupported
	}
	d.Course.Sections = append(d.Course.Sections, models.Section{})
	return nil
}

// SetSection sets the title of the section at index.
func (d *Draft) SetSection(index int, title string) error {
	if d.Course == nil {
		return ErrNotSupported
	}
	if index < 0 || index >= len(d.Course.Sections) {
		return fmt.Errorf("%w: %d", ErrSectionIndex, index)
	}
	d.Course.Sections[index].Title = title
	return nil
}

// Clone returns a deep copy of the draft.
func (d *Draft) Clone() *Draft {
	out := &Draft{Kind: d.Kind, Tab: d.Tab}
	if d.Course != nil {
		course := *d.Course
		course.Sections = append([]models.Section{}, d.Course.Sections...)
		out.Course = &course
	}
	if d.Project != nil {
		project := *d.Project
		out.Project = &project
	}
	if d.Assessment != nil {
		assessment := *d.Assessment
		out.Assessment = &assessment
	}
	if d.File != nil {
		file := *d.File
		file.Data = append([]byte(nil), d.File.Data...)
		out.File = &file
	}
	return out
}

// SetField updates one field addressed by its document key. Course sections
// may be addressed as sections.<index>.title.
func (d *Draft) SetField(path string, value interface{}) error {
	if strings.HasPrefix(path, "sections.") {
		return d.setSectionPath(path, value)
	}

	var target *string
	switch {
	case d.Course != nil:
		if path == "lessons" {
			n, err := asNonNegativeInt(value)
			if err != nil {
				return err
			}
			d.Course.Lessons = n
			return nil
		}
		target = courseStringField(d.Course, path)
	case d.Project != nil:
		target = projectStringField(d.Project, path)
	case d.Assessment != nil:
		target = assessmentStringField(d.Assessment, path)
	}
	if target == nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, path)
	}

	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: %s expects a string", ErrInvalidValue, path)
	}
	*target = s
	return nil
}

func (d *Draft) setSectionPath(path string, value interface{}) error {
	parts := strings.Split(path, ".")
	if d.Course == nil || len(parts) != 3 || parts[2] != "title" {
		return fmt.Errorf("%w: %q", ErrUnknownField, path)
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, path)
	}
	title, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: %s expects a string", ErrInvalidValue, path)
	}
	return d.SetSection(index, title)
}

func courseStringField(c *models.Course, path string) *string {
	switch path {
	case "name":
		return &c.Name
	case "description":
		return &c.Description
	case "category":
		return &c.Category
	case "level":
		return &c.Level
	case "videoLink":
		return &c.VideoLink
	case "requirements":
		return &c.Requirements
	case "coverImageUrl":
		return &c.CoverImageURL
	}
	return nil
}

func projectStringField(p *models.Project, path string) *string {
	switch path {
	case "name":
		return &p.Name
	case "description":
		return &p.Description
	case "category":
		return &p.Category
	case "status":
		return &p.Status
	case "coverImageUrl":
		return &p.CoverImageURL
	}
	return nil
}

func assessmentStringField(a *models.Assessment, path string) *string {
	switch path {
	case "title":
		return &a.Title
	case "dateShared":
		return &a.DateShared
	case "contact":
		return &a.Contact
	case "email":
		return &a.Email
	case "status":
		return &a.Status
	}
	return nil
}

// asNonNegativeInt accepts the numeric shapes produced by JSON decoding and form input.
func asNonNegativeInt(value interface{}) (int, error) {
	var n int
	switch v := value.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: lessons must be a whole number", ErrInvalidValue)
		}
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: lessons must be a number", ErrInvalidValue)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("%w: lessons must be a number", ErrInvalidValue)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: lessons must not be negative", ErrInvalidValue)
	}
	return n, nil
}
