package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/wisdomwork-api/internal/dto"
	"github.com/noah-isme/wisdomwork-api/internal/editor"
	"github.com/noah-isme/wisdomwork-api/internal/middleware"
	"github.com/noah-isme/wisdomwork-api/internal/service"
	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
	"github.com/noah-isme/wisdomwork-api/pkg/response"
)

type editorService interface {
	Open(ctx context.Context, user string, kind editor.Kind, id string) (*editor.Draft, error)
	Get(user string, kind editor.Kind) (*editor.Draft, error)
	MutateField(user string, kind editor.Kind, path string, value interface{}) (*editor.Draft, error)
	Navigate(user string, kind editor.Kind, tab string) (*editor.Draft, error)
	AddSection(user string, kind editor.Kind) (*editor.Draft, error)
	MutateSection(user string, kind editor.Kind, index int, title string) (*editor.Draft, error)
	AttachFile(user string, kind editor.Kind, file editor.PendingFile) (*editor.Draft, error)
	Cancel(user string, kind editor.Kind) error
	Save(ctx context.Context, user string, kind editor.Kind) (*service.SaveResult, error)
}

// EditorHandler exposes the multi-step entity editor.
type EditorHandler struct {
	service  editorService
	validate *validator.Validate
	maxBytes int64
}

// NewEditorHandler constructs an editor handler. maxBytes caps the multipart file read.
func NewEditorHandler(svc editorService, validate *validator.Validate, maxBytes int64) *EditorHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &EditorHandler{service: svc, validate: validate, maxBytes: maxBytes}
}

// target resolves the caller and the kind route parameter.
func target(c *gin.Context) (string, editor.Kind, error) {
	user, err := userID(c)
	if err != nil {
		return "", "", err
	}
	kind, err := editor.ParseKind(c.Param("kind"))
	if err != nil {
		return "", "", appErrors.As(err, appErrors.ErrValidation, err.Error())
	}
	return user, kind, nil
}

func (h *EditorHandler) bind(c *gin.Context, dst interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, msg))
		return false
	}
	return h.check(c, dst, msg)
}

// bindOptional binds a JSON body when one is sent, whatever its declared
// length. An empty body leaves dst untouched.
func (h *EditorHandler) bindOptional(c *gin.Context, dst interface{}, msg string) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, msg))
		return false
	}
	return h.check(c, dst, msg)
}

func (h *EditorHandler) check(c *gin.Context, dst interface{}, msg string) bool {
	if err := h.validate.Struct(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, msg))
		return false
	}
	return true
}

func renderDraft(c *gin.Context, status int, draft *editor.Draft, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, status, dto.NewEditorView(draft), middleware.ExtractMeta(c))
}

// Open godoc
// @Summary Open an editor
// @Description Starts from an empty template, or from a copy of the entity when id is given
// @Tags Editor
// @Accept json
// @Produce json
// @Param kind path string true "course, project or assessment"
// @Param payload body dto.EditorOpenRequest false "Entity to edit"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /editors/{kind} [post]
func (h *EditorHandler) Open(c *gin.Context) {
	user, kind, err := target(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.EditorOpenRequest
	if !h.bindOptional(c, &req, "invalid editor payload") {
		return
	}

	draft, err := h.service.Open(c.Request.Context(), user, kind, req.ID)
	renderDraft(c, http.StatusCreated, draft, err)
}

// Get godoc
// @Summary Current draft
// @Tags Editor
// @Produce json
// @Param kind path string true "course, project or assessment"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /editors/{kind} [get]
func (h *EditorHandler) Get(c *gin.Context) {
	user, kind, err := target(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	draft, err := h.service.Get(user, kind)
	renderDraft(c, http.StatusOK, draft, err)
}

// SetField godoc
// @Summary Set a draft field
// @Description path is dotted, e.g. sections.0.title
// @Tags Editor
// @Accept json
// @Produce json
// @Param kind path string true "course, project or assessment"
// @Param payload body dto.EditorFieldRequest true "Field update"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /editors/{kind}/fields [patch]
func (h *EditorHandler) SetField(c *gin.Context) {
	user, kind, err := target(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.EditorFieldRequest
	if !h.bind(c, &req, "invalid field payload") {
		return
	}
	draft, err := h.service.MutateField(user, kind, req.Path, req.Value)
	renderDraft(c, http.StatusOK, draft, err)
}

// Navigate godoc
// @Summary Select a tab
// @Tags Editor
// @Accept json
// @Produce json
// @Param kind path string true "course, project or assessment"
// @Param payload body dto.EditorTabRequest true "Tab"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /editors/{kind}/tab [put]
func (h *EditorHandler) Navigate(c *gin.Context) {
	user, kind, err := target(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.EditorTabRequest
	if !h.bind(c, &req, "invalid tab payload") {
		return
	}
	draft, err := h.service.Navigate(user, kind, req.Tab)
	renderDraft(c, http.StatusOK, draft, err)
}

// AddSection godoc
// @Summary Append an empty curriculum section
// @Tags Editor
// @Produce json
// @Param kind path string true "course"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /editors/{kind}/sections [post]
func (h *EditorHandler) AddSection(c *gin.Context) {
	user, kind, err := target(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	draft, err := h.service.AddSection(user, kind)
	renderDraft(c, http.StatusOK, draft, err)
}

// SetSection godoc
// @Summary Rename a curriculum section
// @Tags Editor
// @Accept json
// @Produce json
// @Param kind path string true "course"
// @Param index path int true "Section index"
// @Param payload body dto.EditorSectionRequest true "Section"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /editors/{kind}/sections/{index} [put]
func (h *EditorHandler) SetSection(c *gin.Context) {
	user, kind, err := target(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid section index"))
		return
	}
	var req dto.EditorSectionRequest
	if !h.bind(c, &req, "invalid section payload") {
		return
	}
	draft, err := h.service.MutateSection(user, kind, index, req.Title)
	renderDraft(c, http.StatusOK, draft, err)
}

// AttachFile godoc
// @Summary Select a cover image
// @Description The file is held in the draft and uploaded on save
// @Tags Editor
// @Accept multipart/form-data
// @Produce json
// @Param kind path string true "course or project"
// @Param file formData file true "Cover image"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /editors/{kind}/file [post]
func (h *EditorHandler) AttachFile(c *gin.Context) {
	user, kind, err := target(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	if h.maxBytes > 0 && header.Size > h.maxBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds upload limit"))
		return
	}
	f, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file"))
		return
	}
	defer f.Close()

	var reader io.Reader = f
	if h.maxBytes > 0 {
		reader = io.LimitReader(f, h.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file"))
		return
	}
	if h.maxBytes > 0 && int64(len(data)) > h.maxBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds upload limit"))
		return
	}

	draft, err := h.service.AttachFile(user, kind, editor.PendingFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	renderDraft(c, http.StatusOK, draft, err)
}

// Save godoc
// @Summary Save the draft
// @Description Uploads the pending file first, then writes the entity
// @Tags Editor
// @Produce json
// @Param kind path string true "course, project or assessment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /editors/{kind}/save [post]
func (h *EditorHandler) Save(c *gin.Context) {
	user, kind, err := target(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.Save(c.Request.Context(), user, kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}

// Cancel godoc
// @Summary Discard the draft
// @Tags Editor
// @Param kind path string true "course, project or assessment"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /editors/{kind} [delete]
func (h *EditorHandler) Cancel(c *gin.Context) {
	user, kind, err := target(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Cancel(user, kind); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
