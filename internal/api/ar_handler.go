package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/reelsight/ar-target/pkg/artarget"
)

// TargetInfoResponse describes an active target for an AR session.
type TargetInfoResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	VideoURL string `json:"video_url"`
}

// ARHandler serves the compiled recognition artifact and session metadata
// consumed by the AR front-end.
type ARHandler struct {
	service artarget.Service
}

// NewARHandler creates a new AR handler
func NewARHandler(service artarget.Service) *ARHandler {
	return &ARHandler{service: service}
}

// Routes returns the routes for AR sessions
func (h *ARHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/mind-targets", h.MindTargets)
	r.Get("/targets-info", h.TargetsInfo)

	return r
}

// MindTargets recompiles and serves the combined marker artifact. The
// artifact is regenerated from the current active set on every request, so
// the bytes served always belong to this request's own compilation.
func (h *ARHandler) MindTargets(w http.ResponseWriter, r *http.Request) {
	artifactPath, err := h.service.CompiledArtifact(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, artifactPath)
}

// TargetsInfo lists active targets in enrollment order, matching the index
// order of the compiled artifact.
func (h *ARHandler) TargetsInfo(w http.ResponseWriter, r *http.Request) {
	targets, err := h.service.ListActiveTargets(r.Context(), artarget.SortAsc)
	if err != nil {
		renderError(w, r, err)
		return
	}

	responses := make([]TargetInfoResponse, 0, len(targets))
	for _, target := range targets {
		responses = append(responses, TargetInfoResponse{
			ID:       target.ID,
			Name:     target.Name,
			VideoURL: assetURL(target.VideoKey),
		})
	}
	render.JSON(w, r, responses)
}
