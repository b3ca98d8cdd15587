package api

import (
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/reelsight/ar-target/pkg/artarget"
)

// multipartMemoryLimit bounds the in-memory portion of a parsed form;
// larger file parts spill to disk.
const multipartMemoryLimit = 32 << 20

// TargetResponse is the response body for a target
type TargetResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url"`
	VideoURL    string    `json:"video_url"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toTargetResponse(t *artarget.Target) TargetResponse {
	return TargetResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		ImageURL:    assetURL(t.ImageKey),
		VideoURL:    assetURL(t.VideoKey),
		Active:      t.Active,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func assetURL(key string) string {
	return path.Join("/uploads", key)
}

// TargetHandler handles HTTP requests for target lifecycle operations
type TargetHandler struct {
	service artarget.Service
}

// NewTargetHandler creates a new target handler
func NewTargetHandler(service artarget.Service) *TargetHandler {
	return &TargetHandler{service: service}
}

// Routes returns the routes for targets. Mutating routes are wrapped with
// the supplied authorization middleware.
func (h *TargetHandler) Routes(auth ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListTargets)
	r.Get("/{id}", h.GetTarget)

	r.Group(func(r chi.Router) {
		r.Use(auth...)
		r.Post("/", h.CreateTarget)
		r.Put("/{id}", h.UpdateTarget)
		r.Delete("/{id}", h.DeleteTarget)
		r.Post("/{id}/compile", h.CompileTarget)
	})

	return r
}

// ListTargets returns the active targets, newest first
func (h *TargetHandler) ListTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.service.ListActiveTargets(r.Context(), artarget.SortDesc)
	if err != nil {
		renderError(w, r, err)
		return
	}

	responses := make([]TargetResponse, 0, len(targets))
	for _, target := range targets {
		responses = append(responses, toTargetResponse(target))
	}
	render.JSON(w, r, responses)
}

// GetTarget returns a single target by id
func (h *TargetHandler) GetTarget(w http.ResponseWriter, r *http.Request) {
	id, ok := targetID(w, r)
	if !ok {
		return
	}

	target, err := h.service.GetTarget(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, toTargetResponse(target))
}

// CreateTarget creates a new target from a multipart form with name,
// description, image and video fields
func (h *TargetHandler) CreateTarget(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrResponse{Error: "multipart form required"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := artarget.CreateTargetRequest{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
	}

	image, closeImage, err := formUpload(r, "image")
	if err != nil {
		renderError(w, r, err)
		return
	}
	if closeImage != nil {
		defer closeImage()
	}
	req.Image = image

	video, closeVideo, err := formUpload(r, "video")
	if err != nil {
		renderError(w, r, err)
		return
	}
	if closeVideo != nil {
		defer closeVideo()
	}
	req.Video = video

	target, err := h.service.CreateTarget(r.Context(), req)
	if err != nil {
		renderError(w, r, err)
		return
	}

	slog.Info("target created", "target_id", target.ID, "name", target.Name)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toTargetResponse(target))
}

// UpdateTarget applies a partial update; any subset of name, description,
// is_active, image and video may be supplied
func (h *TargetHandler) UpdateTarget(w http.ResponseWriter, r *http.Request) {
	id, ok := targetID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrResponse{Error: "multipart form required"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := artarget.UpdateTargetRequest{
		Name:        formValue(r, "name"),
		Description: formValue(r, "description"),
	}

	if raw := formValue(r, "is_active"); raw != nil {
		active, err := strconv.ParseBool(*raw)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrResponse{Error: "is_active must be a boolean"})
			return
		}
		req.Active = &active
	}

	image, closeImage, err := formUpload(r, "image")
	if err != nil {
		renderError(w, r, err)
		return
	}
	if closeImage != nil {
		defer closeImage()
	}
	req.Image = image

	video, closeVideo, err := formUpload(r, "video")
	if err != nil {
		renderError(w, r, err)
		return
	}
	if closeVideo != nil {
		defer closeVideo()
	}
	req.Video = video

	target, err := h.service.UpdateTarget(r.Context(), id, req)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, toTargetResponse(target))
}

// DeleteTarget removes a target, its asset files and its cached marker
func (h *TargetHandler) DeleteTarget(w http.ResponseWriter, r *http.Request) {
	id, ok := targetID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTarget(r.Context(), id); err != nil {
		renderError(w, r, err)
		return
	}

	slog.Info("target deleted", "target_id", id)
	render.JSON(w, r, map[string]string{"message": "target deleted"})
}

// CompileTarget precomputes the per-target marker artifact
func (h *TargetHandler) CompileTarget(w http.ResponseWriter, r *http.Request) {
	id, ok := targetID(w, r)
	if !ok {
		return
	}

	artifactPath, err := h.service.CompileTarget(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	slog.Info("target marker compiled", "target_id", id, "artifact", artifactPath)
	render.JSON(w, r, map[string]string{"marker": filepath.Base(artifactPath)})
}

// Helper methods

func targetID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrResponse{Error: "invalid target id"})
		return 0, false
	}
	return id, true
}

// formUpload returns the named file part, or nil when the part is absent.
func formUpload(r *http.Request, field string) (*artarget.Upload, func() error, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &artarget.Upload{Filename: header.Filename, Reader: file}, file.Close, nil
}

// formValue distinguishes an absent field from an empty one.
func formValue(r *http.Request, field string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[field]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}
