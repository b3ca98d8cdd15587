package api

import (
	"errors"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/reelsight/ar-target/pkg/artarget"
)

// AssetHandler streams stored asset files (uploaded images and videos).
type AssetHandler struct {
	service artarget.Service
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(service artarget.Service) *AssetHandler {
	return &AssetHandler{service: service}
}

// Routes returns the asset serving routes
func (h *AssetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{key}", h.ServeAsset)
	return r
}

// ServeAsset streams the asset identified by key. Keys are generated names;
// anything else is rejected by the store before touching the filesystem.
func (h *AssetHandler) ServeAsset(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	rc, err := h.service.OpenAsset(r.Context(), key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrResponse{Error: "asset not found"})
			return
		}
		renderError(w, r, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)

	io.Copy(w, rc)
}
