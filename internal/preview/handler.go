// Package preview renders stored projects to PNG on the server.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/linebaby/linebaby/internal/auth"
	"github.com/linebaby/linebaby/internal/document"
	"github.com/linebaby/linebaby/internal/engine"
	"github.com/linebaby/linebaby/internal/project"
	"github.com/linebaby/linebaby/internal/raster"
)

// MaxSize bounds either edge of a rendered image.
const MaxSize = 4096

// SceneSource loads stored scenes. *project.Service satisfies it.
type SceneSource interface {
	CanView(ctx context.Context, projectID, userID string) error
	LoadScene(ctx context.Context, projectID string) (*document.Scene, error)
}

// Handler serves rendered frames of a project.
type Handler struct {
	source        SceneSource
	width, height int
}

// NewHandler renders at width×height unless the request asks otherwise.
func NewHandler(source SceneSource, width, height int) *Handler {
	return &Handler{source: source, width: width, height: height}
}

// Frame handles GET /api/projects/{projectId}/preview.png?t=&w=&h=&overlay=.
func (h *Handler) Frame(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	q := r.URL.Query()

	t, err := floatParam(q.Get("t"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid t")
		return
	}
	width, height, err := h.size(q.Get("w"), q.Get("h"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	overlay := q.Get("overlay") == "1" || q.Get("overlay") == "true"

	scene, ok := h.load(w, r, projectID)
	if !ok {
		return
	}

	e := engine.New(engine.WithScene(scene))
	e.SetPlayhead(t)
	e.SetView(raster.FitView(raster.ContentBounds(scene), width, height))
	c, err := raster.Render(e, width, height, overlay)
	if err != nil {
		slog.Error("render preview", "error", err, "project", projectID)
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := c.EncodePNG(w); err != nil {
		slog.Error("write preview", "error", err, "project", projectID)
	}
}

// load authorizes the request and loads the scene, writing the error
// response itself when it fails.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, projectID string) (*document.Scene, bool) {
	ctx := r.Context()
	if err := h.source.CanView(ctx, projectID, auth.UserIDFromContext(ctx)); err != nil {
		handleSourceError(w, err)
		return nil, false
	}
	scene, err := h.source.LoadScene(ctx, projectID)
	if err != nil {
		handleSourceError(w, err)
		return nil, false
	}
	return scene, true
}

func (h *Handler) size(ws, hs string) (int, int, error) {
	width, err := intParam(ws, h.width)
	if err != nil || width < 1 || width > MaxSize {
		return 0, 0, errors.New("invalid w")
	}
	height, err := intParam(hs, h.height)
	if err != nil || height < 1 || height > MaxSize {
		return 0, 0, errors.New("invalid h")
	}
	return width, height, nil
}

func floatParam(s string, def float32) (float32, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 32)
	return float32(v), err
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func handleSourceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, project.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, project.ErrNotMember), errors.Is(err, project.ErrForbidden):
		writeError(w, http.StatusForbidden, "not a project member")
	default:
		slog.Error("load scene", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
