package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/noah-isme/wisdomwork-api/internal/editor"
	"github.com/noah-isme/wisdomwork-api/internal/models"
	"github.com/noah-isme/wisdomwork-api/internal/repository"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
)

type editorFixture struct {
	svc         *EditorService
	courses     *repository.EntityRepository[models.Course]
	projects    *repository.EntityRepository[models.Project]
	assessments *repository.EntityRepository[models.Assessment]
	uploads     *mockUploader
}

type mockUploader struct {
	mu        sync.Mutex
	err       error
	uploaded  []string
	discarded []string
	// block, when set, is received from before the upload returns.
	block chan struct{}
}

func (m *mockUploader) UploadBinary(ctx context.Context, pathHint, filename string, data []byte, contentType string) (*UploadResult, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	key := pathHint + filename
	m.uploaded = append(m.uploaded, key)
	return &UploadResult{Key: key, URL: "https://cdn.example.com/" + key}, nil
}

func (m *mockUploader) DiscardOrphan(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discarded = append(m.discarded, key)
}

// failingCourses fails every write while reads go to the real repository.
type failingCourses struct {
	*repository.EntityRepository[models.Course]
}

func (failingCourses) Create(context.Context, models.Course) (string, error) {
	return "", appErrors.Clone(appErrors.ErrWrite, "store unavailable")
}

func (failingCourses) Update(context.Context, string, map[string]interface{}) error {
	return appErrors.Clone(appErrors.ErrWrite, "store unavailable")
}

func newEditorFixture(t *testing.T) *editorFixture {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "editor.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := repository.NewBoltDocumentStore(db, nil)
	validate := validator.New()
	f := &editorFixture{
		courses:     repository.NewEntityRepository[models.Course](store, models.CollectionCourses, validate, nil),
		projects:    repository.NewEntityRepository[models.Project](store, models.CollectionProjects, validate, nil),
		assessments: repository.NewEntityRepository[models.Assessment](store, models.CollectionAssessments, validate, nil),
		uploads:     &mockUploader{},
	}
	f.svc = NewEditorService(f.courses, f.projects, f.assessments, f.uploads, NewMetricsService(), nil)
	return f
}

func TestEditorServiceOpenEmptyTemplate(t *testing.T) {
	f := newEditorFixture(t)

	draft, err := f.svc.Open(context.Background(), "u1", editor.KindCourse, "")
	require.NoError(t, err)
	require.NotNil(t, draft.Course)
	assert.Equal(t, 0, draft.Course.Lessons)
	assert.Empty(t, draft.Course.Sections)
	assert.Empty(t, draft.Course.Name)
	assert.Equal(t, editor.TabBasicInfo, draft.Tab)

	_, err = f.svc.Open(context.Background(), "u1", editor.KindCourse, "")
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	// Another user or kind is a separate editor instance.
	_, err = f.svc.Open(context.Background(), "u2", editor.KindCourse, "")
	assert.NoError(t, err)
	_, err = f.svc.Open(context.Background(), "u1", editor.KindProject, "")
	assert.NoError(t, err)
}

func TestEditorServiceAddSectionTwice(t *testing.T) {
	f := newEditorFixture(t)
	_, err := f.svc.Open(context.Background(), "u1", editor.KindCourse, "")
	require.NoError(t, err)

	_, err = f.svc.AddSection("u1", editor.KindCourse)
	require.NoError(t, err)
	_, err = f.svc.AddSection("u1", editor.KindCourse)
	require.NoError(t, err)
	_, err = f.svc.MutateSection("u1", editor.KindCourse, 1, "Second")
	require.NoError(t, err)

	draft, err := f.svc.Get("u1", editor.KindCourse)
	require.NoError(t, err)
	require.Len(t, draft.Course.Sections, 2)
	assert.Equal(t, "", draft.Course.Sections[0].Title)
	assert.Equal(t, "Second", draft.Course.Sections[1].Title)

	_, err = f.svc.MutateSection("u1", editor.KindCourse, 5, "Nope")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestEditorServiceSaveCourseWithoutFile(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	_, err := f.svc.Open(ctx, "u1", editor.KindCourse, "")
	require.NoError(t, err)

	_, err = f.svc.MutateField("u1", editor.KindCourse, "name", "Intro to X")
	require.NoError(t, err)
	_, err = f.svc.MutateField("u1", editor.KindCourse, "description", "...")
	require.NoError(t, err)
	_, err = f.svc.MutateField("u1", editor.KindCourse, "lessons", 5)
	require.NoError(t, err)

	res, err := f.svc.Save(ctx, "u1", editor.KindCourse)
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.False(t, res.Stale)

	items, ok := res.Items.([]models.Course)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "Intro to X", items[0].Name)
	assert.Equal(t, 5, items[0].Lessons)
	assert.Empty(t, items[0].CoverImageURL)
	assert.Empty(t, f.uploads.uploaded)

	_, err = f.svc.Get("u1", editor.KindCourse)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound), "editor closes after save")
}

func TestEditorServiceSaveUploadsFileFirst(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	_, err := f.svc.Open(ctx, "u1", editor.KindProject, "")
	require.NoError(t, err)
	_, err = f.svc.MutateField("u1", editor.KindProject, "name", "Robot")
	require.NoError(t, err)
	_, err = f.svc.MutateField("u1", editor.KindProject, "description", "Line follower")
	require.NoError(t, err)
	_, err = f.svc.AttachFile("u1", editor.KindProject, editor.PendingFile{Name: "robot.png", Data: pngHeader})
	require.NoError(t, err)

	res, err := f.svc.Save(ctx, "u1", editor.KindProject)
	require.NoError(t, err)

	saved, err := f.projects.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/project_images/robot.png", saved.CoverImageURL)
	assert.Equal(t, models.ProjectStatusPending, saved.Status)
}

func TestEditorServiceSaveUploadFailureKeepsDraft(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	f.uploads.err = appErrors.Clone(appErrors.ErrUpload, "bucket offline")

	_, err := f.svc.Open(ctx, "u1", editor.KindCourse, "")
	require.NoError(t, err)
	_, err = f.svc.MutateField("u1", editor.KindCourse, "name", "Intro")
	require.NoError(t, err)
	_, err = f.svc.AttachFile("u1", editor.KindCourse, editor.PendingFile{Name: "cover.png", Data: pngHeader})
	require.NoError(t, err)

	_, err = f.svc.Save(ctx, "u1", editor.KindCourse)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUpload))

	draft, err := f.svc.Get("u1", editor.KindCourse)
	require.NoError(t, err)
	assert.Equal(t, "Intro", draft.Course.Name)
	require.NotNil(t, draft.File)
	assert.Equal(t, "cover.png", draft.File.Name)
	assert.Empty(t, draft.Course.CoverImageURL)

	items, err := f.courses.ListAll(ctx, models.Filter[models.Course]{})
	require.NoError(t, err)
	assert.Empty(t, items)

	// The draft stays editable after the failure.
	_, err = f.svc.MutateField("u1", editor.KindCourse, "name", "Intro again")
	assert.NoError(t, err)
}

func TestEditorServiceSaveWriteFailureKeepsDraftAndDiscardsBlob(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	svc := NewEditorService(failingCourses{f.courses}, f.projects, f.assessments, f.uploads, nil, nil)

	_, err := svc.Open(ctx, "u1", editor.KindCourse, "")
	require.NoError(t, err)
	_, err = svc.MutateField("u1", editor.KindCourse, "name", "Intro")
	require.NoError(t, err)
	_, err = svc.AttachFile("u1", editor.KindCourse, editor.PendingFile{Name: "cover.png", Data: pngHeader})
	require.NoError(t, err)

	_, err = svc.Save(ctx, "u1", editor.KindCourse)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSave))
	assert.Equal(t, []string{"course_images/cover.png"}, f.uploads.discarded)

	draft, err := svc.Get("u1", editor.KindCourse)
	require.NoError(t, err)
	require.NotNil(t, draft.File)
	assert.Empty(t, draft.Course.CoverImageURL)
}

func TestEditorServiceSaveValidationFailureIsSaveError(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	_, err := f.svc.Open(ctx, "u1", editor.KindAssessment, "")
	require.NoError(t, err)

	_, err = f.svc.Save(ctx, "u1", editor.KindAssessment)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSave))

	_, err = f.svc.Get("u1", editor.KindAssessment)
	assert.NoError(t, err)
}

func TestEditorServiceOpenExistingAndUpdate(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	id, err := f.courses.Create(ctx, models.Course{Name: "Old", Description: "Keep me", Lessons: 3, Sections: []models.Section{{Title: "One"}}})
	require.NoError(t, err)

	draft, err := f.svc.Open(ctx, "u1", editor.KindCourse, id)
	require.NoError(t, err)
	assert.Equal(t, "Old", draft.Course.Name)

	_, err = f.svc.MutateField("u1", editor.KindCourse, "name", "New")
	require.NoError(t, err)

	res, err := f.svc.Save(ctx, "u1", editor.KindCourse)
	require.NoError(t, err)
	assert.Equal(t, id, res.ID)

	saved, err := f.courses.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "New", saved.Name)
	assert.Equal(t, "Keep me", saved.Description)
	assert.Equal(t, 3, saved.Lessons)
	assert.Equal(t, []models.Section{{Title: "One"}}, saved.Sections)
}

func TestEditorServiceOpenMissingEntity(t *testing.T) {
	f := newEditorFixture(t)

	_, err := f.svc.Open(context.Background(), "u1", editor.KindCourse, "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = f.svc.Open(context.Background(), "u1", editor.KindCourse, "")
	assert.NoError(t, err, "failed open leaves no draft behind")
}

func TestEditorServiceAssessmentRejectsFile(t *testing.T) {
	f := newEditorFixture(t)
	_, err := f.svc.Open(context.Background(), "u1", editor.KindAssessment, "")
	require.NoError(t, err)

	_, err = f.svc.AttachFile("u1", editor.KindAssessment, editor.PendingFile{Name: "a.png", Data: pngHeader})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestEditorServiceNavigateFreeForm(t *testing.T) {
	f := newEditorFixture(t)
	_, err := f.svc.Open(context.Background(), "u1", editor.KindCourse, "")
	require.NoError(t, err)

	draft, err := f.svc.Navigate("u1", editor.KindCourse, string(editor.TabPreviewPublish))
	require.NoError(t, err)
	assert.Equal(t, editor.TabPreviewPublish, draft.Tab)

	_, err = f.svc.Navigate("u1", editor.KindCourse, "settings")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestEditorServiceCancel(t *testing.T) {
	f := newEditorFixture(t)
	_, err := f.svc.Open(context.Background(), "u1", editor.KindCourse, "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel("u1", editor.KindCourse))
	_, err = f.svc.Get("u1", editor.KindCourse)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.True(t, errors.Is(f.svc.Cancel("u1", editor.KindCourse), appErrors.ErrNotFound))
}

func TestEditorServiceStaleSaveLeavesNewerDraft(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	f.uploads.block = make(chan struct{})

	_, err := f.svc.Open(ctx, "u1", editor.KindCourse, "")
	require.NoError(t, err)
	_, err = f.svc.MutateField("u1", editor.KindCourse, "name", "First")
	require.NoError(t, err)
	_, err = f.svc.AttachFile("u1", editor.KindCourse, editor.PendingFile{Name: "cover.png", Data: pngHeader})
	require.NoError(t, err)

	type outcome struct {
		res *SaveResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := f.svc.Save(ctx, "u1", editor.KindCourse)
		done <- outcome{res, err}
	}()

	// Mutations are refused while the save holds the draft.
	require.Eventually(t, func() bool {
		_, err := f.svc.MutateField("u1", editor.KindCourse, "name", "x")
		return errors.Is(err, appErrors.ErrConflict)
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, f.svc.Cancel("u1", editor.KindCourse))
	_, err = f.svc.Open(ctx, "u1", editor.KindCourse, "")
	require.NoError(t, err)
	_, err = f.svc.MutateField("u1", editor.KindCourse, "name", "Second")
	require.NoError(t, err)

	close(f.uploads.block)
	out := <-done
	require.NoError(t, out.err)
	assert.True(t, out.res.Stale)
	assert.Nil(t, out.res.Items)

	draft, err := f.svc.Get("u1", editor.KindCourse)
	require.NoError(t, err)
	assert.Equal(t, "Second", draft.Course.Name)
	assert.Nil(t, draft.File)
}
