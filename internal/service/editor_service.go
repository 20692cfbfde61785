package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/wisdomwork-api/internal/editor"
	"github.com/noah-isme/wisdomwork-api/internal/models"
	"github.com/noah-isme/wisdomwork-api/internal/viewstate"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
)

type entityStore[T any] interface {
	entityReader[T]
	Create(ctx context.Context, entity T) (string, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}

type blobUploader interface {
	UploadBinary(ctx context.Context, pathHint, filename string, data []byte, contentType string) (*UploadResult, error)
	DiscardOrphan(key string)
}

// draftBackend loads and persists drafts of one kind.
type draftBackend interface {
	load(ctx context.Context, id string) (*editor.Draft, error)
	persist(ctx context.Context, draft *editor.Draft) (string, error)
	list(ctx context.Context) (interface{}, error)
}

type entityBackend[T any] struct {
	repo      entityStore[T]
	fromModel func(T) *editor.Draft
}

func (b entityBackend[T]) load(ctx context.Context, id string) (*editor.Draft, error) {
	entity, err := b.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return b.fromModel(*entity), nil
}

func (b entityBackend[T]) persist(ctx context.Context, draft *editor.Draft) (string, error) {
	entity, ok := draft.Entity().(T)
	if !ok {
		return "", fmt.Errorf("draft of kind %s holds %T", draft.Kind, draft.Entity())
	}
	if id := draft.ID(); id != "" {
		fields, err := toFields(entity)
		if err != nil {
			return "", err
		}
		return id, b.repo.Update(ctx, id, fields)
	}
	return b.repo.Create(ctx, entity)
}

func (b entityBackend[T]) list(ctx context.Context) (interface{}, error) {
	return b.repo.ListAll(ctx, models.Filter[T]{})
}

func toFields(entity interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

type editorKey struct {
	user string
	kind editor.Kind
}

type editorSlot struct {
	token  uint64
	draft  *editor.Draft
	saving bool
}

// SaveResult is returned by a successful save. Items is the refreshed
// collection listing; it is nil when the save was superseded.
type SaveResult struct {
	ID    string      `json:"id"`
	Kind  editor.Kind `json:"kind"`
	Stale bool        `json:"stale"`
	Items interface{} `json:"items,omitempty"`
}

// EditorService keeps one in-memory Draft per (user, kind) and persists it on save.
type EditorService struct {
	mu          sync.Mutex
	slots       map[editorKey]*editorSlot
	generations map[editorKey]*viewstate.Generation

	backends map[editor.Kind]draftBackend
	uploads  blobUploader
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewEditorService constructs an EditorService.
func NewEditorService(courses entityStore[models.Course], projects entityStore[models.Project], assessments entityStore[models.Assessment], uploads blobUploader, metrics *MetricsService, logger *zap.Logger) *EditorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditorService{
		slots:       make(map[editorKey]*editorSlot),
		generations: make(map[editorKey]*viewstate.Generation),
		backends: map[editor.Kind]draftBackend{
			editor.KindCourse:     entityBackend[models.Course]{repo: courses, fromModel: editor.FromCourse},
			editor.KindProject:    entityBackend[models.Project]{repo: projects, fromModel: editor.FromProject},
			editor.KindAssessment: entityBackend[models.Assessment]{repo: assessments, fromModel: editor.FromAssessment},
		},
		uploads: uploads,
		metrics: metrics,
		logger:  logger,
	}
}

// Open starts an editor for kind, copying entity id when given or starting from an empty template.
func (s *EditorService) Open(ctx context.Context, user string, kind editor.Kind, id string) (*editor.Draft, error) {
	key := editorKey{user: user, kind: kind}
	backend, ok := s.backends[kind]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, editor.ErrUnknownKind.Error())
	}

	s.mu.Lock()
	_, open := s.slots[key]
	s.mu.Unlock()
	if open {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("a %s draft is already open", kind))
	}

	draft := editor.New(kind)
	if id != "" {
		loaded, err := backend.load(ctx, id)
		if err != nil {
			return nil, err
		}
		draft = loaded
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, open := s.slots[key]; open {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("a %s draft is already open", kind))
	}
	s.slots[key] = &editorSlot{token: s.generation(key).Next(), draft: draft}
	return draft.Clone(), nil
}

// Get returns a copy of the open draft.
func (s *EditorService) Get(user string, kind editor.Kind) (*editor.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, err := s.slot(editorKey{user: user, kind: kind})
	if err != nil {
		return nil, err
	}
	return slot.draft.Clone(), nil
}

// MutateField sets one field of the draft. Nothing is persisted.
func (s *EditorService) MutateField(user string, kind editor.Kind, path string, value interface{}) (*editor.Draft, error) {
	return s.mutate(user, kind, func(d *editor.Draft) error {
		return d.SetField(path, value)
	})
}

// Navigate moves the draft to tab.
func (s *EditorService) Navigate(user string, kind editor.Kind, tab string) (*editor.Draft, error) {
	parsed, err := editor.ParseTab(tab)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return s.mutate(user, kind, func(d *editor.Draft) error {
		d.Navigate(parsed)
		return nil
	})
}

// AddSection appends an empty curriculum section.
func (s *EditorService) AddSection(user string, kind editor.Kind) (*editor.Draft, error) {
	return s.mutate(user, kind, func(d *editor.Draft) error {
		return d.AddSection()
	})
}

// MutateSection sets the title of the section at index.
func (s *EditorService) MutateSection(user string, kind editor.Kind, index int, title string) (*editor.Draft, error) {
	return s.mutate(user, kind, func(d *editor.Draft) error {
		return d.SetSection(index, title)
	})
}

// AttachFile stores file as the pending cover image. It is uploaded on save.
func (s *EditorService) AttachFile(user string, kind editor.Kind, file editor.PendingFile) (*editor.Draft, error) {
	return s.mutate(user, kind, func(d *editor.Draft) error {
		return d.Attach(file)
	})
}

// Cancel discards the draft. A save still in flight will not touch a later draft.
func (s *EditorService) Cancel(user string, kind editor.Kind) error {
	key := editorKey{user: user, kind: kind}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.slot(key); err != nil {
		return err
	}
	delete(s.slots, key)
	s.generation(key).Next()
	return nil
}

// Save uploads the pending file, writes the entity and closes the editor. On
// failure the draft stays open and unchanged.
func (s *EditorService) Save(ctx context.Context, user string, kind editor.Kind) (*SaveResult, error) {
	res, err := s.save(ctx, editorKey{user: user, kind: kind})
	s.metrics.RecordEditorSave(string(kind), err)
	return res, err
}

func (s *EditorService) save(ctx context.Context, key editorKey) (*SaveResult, error) {
	s.mu.Lock()
	slot, err := s.slot(key)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if slot.saving {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrConflict, "save already in progress")
	}
	slot.saving = true
	token := slot.token
	work := slot.draft.Clone()
	s.mu.Unlock()

	backend := s.backends[key.kind]

	var uploaded *UploadResult
	if work.File != nil {
		uploaded, err = s.uploads.UploadBinary(ctx, key.kind.PathHint(), work.File.Name, work.File.Data, work.File.ContentType)
		if err != nil {
			s.release(key, token)
			return nil, appErrors.As(err, appErrors.ErrUpload, appErrors.FromError(err).Message)
		}
		work.SetImageURL(uploaded.URL)
		work.File = nil
	}

	id, err := backend.persist(ctx, work)
	if err != nil {
		s.release(key, token)
		if uploaded != nil {
			s.logger.Warn("blob orphaned by failed save", zap.String("key", uploaded.Key), zap.String("kind", string(key.kind)))
			s.uploads.DiscardOrphan(uploaded.Key)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrSave.Code, appErrors.ErrSave.Status, fmt.Sprintf("failed to save %s: %s", key.kind, appErrors.FromError(err).Message))
	}
	work.AdoptID(id)

	result := &SaveResult{ID: id, Kind: key.kind}

	s.mu.Lock()
	current, open := s.slots[key]
	if open && current.token == token && s.generation(key).Current(token) {
		delete(s.slots, key)
	} else {
		result.Stale = true
	}
	s.mu.Unlock()

	if result.Stale {
		s.logger.Info("superseded save committed", zap.String("kind", string(key.kind)), zap.String("id", id))
		return result, nil
	}

	items, err := backend.list(ctx)
	if err != nil {
		s.logger.Warn("list refresh after save failed", zap.String("kind", string(key.kind)), zap.Error(err))
		return result, nil
	}
	result.Items = items
	return result, nil
}

func (s *EditorService) mutate(user string, kind editor.Kind, fn func(*editor.Draft) error) (*editor.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, err := s.slot(editorKey{user: user, kind: kind})
	if err != nil {
		return nil, err
	}
	if slot.saving {
		return nil, appErrors.Clone(appErrors.ErrConflict, "save in progress")
	}
	if err := fn(slot.draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return slot.draft.Clone(), nil
}

// release clears the saving flag when the slot still belongs to token.
func (s *EditorService) release(key editorKey, token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok := s.slots[key]; ok && slot.token == token {
		slot.saving = false
	}
}

// slot must be called with mu held.
func (s *EditorService) slot(key editorKey) (*editorSlot, error) {
	slot, ok := s.slots[key]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no %s draft open", key.kind))
	}
	return slot, nil
}

// generation must be called with mu held.
func (s *EditorService) generation(key editorKey) *viewstate.Generation {
	g, ok := s.generations[key]
	if !ok {
		g = &viewstate.Generation{}
		s.generations[key] = g
	}
	return g
}
