package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/reelsight/ar-target/pkg/artarget"
)

// ErrResponse is the JSON body for error replies
type ErrResponse struct {
	Error string `json:"error"`
}

// renderError maps service errors onto HTTP status codes. Unrecognized
// errors are logged and reported as opaque 500s.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, artarget.ErrInvalidTarget):
		status = http.StatusBadRequest
	case errors.Is(err, artarget.ErrUnsupportedType):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, artarget.ErrAssetTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, artarget.ErrTargetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, artarget.ErrNoActiveTargets):
		status = http.StatusNotFound
	case errors.Is(err, artarget.ErrCompilerUnavailable):
		status = http.StatusServiceUnavailable
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		message = "internal server error"
	}

	render.Status(r, status)
	render.JSON(w, r, ErrResponse{Error: message})
}
