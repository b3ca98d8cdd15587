package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupARAPI(t *testing.T) (chi.Router, chi.Router) {
	t.Helper()

	svc, targetRouter := setupTargetAPI(t)

	arRouter := chi.NewRouter()
	arRouter.Mount("/api/ar", NewARHandler(svc).Routes())
	return arRouter, targetRouter
}

func TestARHandler_MindTargets(t *testing.T) {
	t.Run("serves a freshly compiled artifact", func(t *testing.T) {
		arRouter, targetRouter := setupARAPI(t)
		postTarget(t, targetRouter, "Poster")

		w := doRequest(arRouter, http.MethodGet, "/api/ar/mind-targets", nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
		assert.NotZero(t, w.Body.Len())
	})

	t.Run("no active targets", func(t *testing.T) {
		arRouter, _ := setupARAPI(t)

		w := doRequest(arRouter, http.MethodGet, "/api/ar/mind-targets", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestARHandler_TargetsInfo(t *testing.T) {
	arRouter, targetRouter := setupARAPI(t)

	first := postTarget(t, targetRouter, "First")
	second := postTarget(t, targetRouter, "Second")

	w := doRequest(arRouter, http.MethodGet, "/api/ar/targets-info", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var infos []TargetInfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 2)

	// Enrollment order matches the compiled artifact's index order.
	assert.Equal(t, first.ID, infos[0].ID)
	assert.Equal(t, second.ID, infos[1].ID)
	assert.Equal(t, first.VideoURL, infos[0].VideoURL)
}
