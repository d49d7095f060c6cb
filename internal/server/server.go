// Package server is the HTTP side of the pack: the JSON endpoints the
// browser preview widget calls to export files, request extra analyses
// and resolve location queries against cached meshes, plus the node and
// asset listings the host UI builds its widgets from.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/geomnodes/geomnodes/internal/catalog"
	"github.com/geomnodes/geomnodes/internal/geom"
	"github.com/geomnodes/geomnodes/internal/logger"
	"github.com/geomnodes/geomnodes/internal/meshio"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
)

var log = logger.ForComponent("server")

type Server struct {
	addr          string
	registry      *nodes.Registry
	store         *preview.Cache
	cat           *catalog.Store
	previewFolder string
	httpServer    *http.Server
	listener      net.Listener
}

// New builds the preview server. cat may be nil when the catalog is
// disabled; the assets endpoint then serves an empty list.
func New(addr string, registry *nodes.Registry, store *preview.Cache, cat *catalog.Store, previewFolder string) *Server {
	s := &Server{
		addr:          addr,
		registry:      registry,
		store:         store,
		cat:           cat,
		previewFolder: previewFolder,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/geomnodes/save-preview", s.handleSavePreview)
	mux.HandleFunc("/geomnodes/analyze", s.handleAnalyze)
	mux.HandleFunc("/geomnodes/find-location", s.handleFindLocation)
	mux.HandleFunc("/geomnodes/nodes", s.handleNodes)
	mux.HandleFunc("/geomnodes/assets", s.handleAssets)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	return s
}

// Start begins serving in the background. The listener is opened
// synchronously so address conflicts surface to the caller.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("preview server failed", "error", err)
		}
	}()

	log.Info("preview server listening", "addr", s.addr)
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr reports the bound address once Start has succeeded. With an
// ":0" config this is where the ephemeral port shows up.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Debug("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, format string, args ...interface{}) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return false
	}
	return true
}

type savePreviewRequest struct {
	MeshID   string `json:"mesh_id"`
	Filename string `json:"filename"`
}

func (s *Server) handleSavePreview(w http.ResponseWriter, r *http.Request) {
	var req savePreviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	mesh, ok := s.store.Get(req.MeshID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown mesh id: %s", req.MeshID)
		return
	}

	// The filename comes from the browser; keep it inside the preview
	// folder.
	filename := filepath.Base(strings.TrimSpace(req.Filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		writeError(w, http.StatusBadRequest, "filename is required")
		return
	}

	if err := os.MkdirAll(s.previewFolder, 0755); err != nil {
		writeError(w, http.StatusInternalServerError, "create preview dir: %v", err)
		return
	}

	path := filepath.Join(s.previewFolder, filename)
	if err := meshio.Save(path, mesh); err != nil {
		writeError(w, http.StatusBadRequest, "export failed: %v", err)
		return
	}

	if err := s.store.SetFilename(req.MeshID, filename); err != nil {
		writeError(w, http.StatusNotFound, "%v", err)
		return
	}

	log.Info("saved preview file", "mesh_id", req.MeshID, "file", filename)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mesh_id":   req.MeshID,
		"mesh_file": filename,
	})
}

type analyzeRequest struct {
	MeshID   string `json:"mesh_id"`
	Analysis string `json:"analysis"`
}

type analyzeResponse struct {
	MeshID     string   `json:"mesh_id"`
	MeshFile   string   `json:"mesh_file"`
	Analysis   string   `json:"analysis"`
	Count      int      `json:"count"`
	FieldNames []string `json:"field_names"`
}

// handleAnalyze computes one quality field on a cached mesh and
// re-exports its preview file so the viewer can recolor without a new
// node execution. Cached meshes are immutable, so the field goes onto a
// clone that replaces the entry once complete; a concurrent request on
// the same id sees either the old mesh or the new one, never a
// half-written field map.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	entry, ok := s.store.Entry(req.MeshID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown mesh id: %s", req.MeshID)
		return
	}
	mesh := entry.Mesh.Clone()

	var count int
	switch req.Analysis {
	case "boundary":
		info := mesh.Boundary()
		if err := mesh.SetVertexField("boundary_vertex", info.VertexFlags); err != nil {
			writeError(w, http.StatusInternalServerError, "%v", err)
			return
		}
		count = info.VertexCount
	case "components":
		field, n := mesh.ComponentField()
		if err := mesh.SetFaceField("part_id", field); err != nil {
			writeError(w, http.StatusInternalServerError, "%v", err)
			return
		}
		count = n
	case "self_intersections":
		flags, n := mesh.SelfIntersections()
		if err := mesh.SetFaceField("self_intersect", flags); err != nil {
			writeError(w, http.StatusInternalServerError, "%v", err)
			return
		}
		count = n
	default:
		writeError(w, http.StatusBadRequest,
			"unknown analysis %q (want boundary, components or self_intersections)", req.Analysis)
		return
	}

	if err := s.store.Replace(req.MeshID, mesh); err != nil {
		writeError(w, http.StatusNotFound, "%v", err)
		return
	}

	filename := entry.Filename
	if filename == "" {
		filename = fmt.Sprintf("analysis_%s.vtp", req.MeshID)
	}
	if err := os.MkdirAll(s.previewFolder, 0755); err != nil {
		writeError(w, http.StatusInternalServerError, "create preview dir: %v", err)
		return
	}
	path := filepath.Join(s.previewFolder, filename)
	if err := meshio.Save(path, mesh); err != nil {
		writeError(w, http.StatusInternalServerError, "re-export failed: %v", err)
		return
	}
	if err := s.store.SetFilename(req.MeshID, filename); err != nil {
		writeError(w, http.StatusNotFound, "%v", err)
		return
	}

	log.Info("analysis computed", "mesh_id", req.MeshID, "analysis", req.Analysis, "count", count)
	writeJSON(w, http.StatusOK, analyzeResponse{
		MeshID:     req.MeshID,
		MeshFile:   filename,
		Analysis:   req.Analysis,
		Count:      count,
		FieldNames: mesh.FieldNames(),
	})
}

type findLocationRequest struct {
	MeshID string `json:"mesh_id"`
	Query  string `json:"query"`
}

type findLocationResponse struct {
	Kind           string     `json:"kind"`
	Index          int        `json:"index,omitempty"`
	Position       [3]float64 `json:"position"`
	CameraDistance float64    `json:"camera_distance"`
}

func (s *Server) handleFindLocation(w http.ResponseWriter, r *http.Request) {
	var req findLocationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	mesh, ok := s.store.Get(req.MeshID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown mesh id: %s", req.MeshID)
		return
	}

	loc, err := ResolveLocation(mesh, req.Query)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	writeJSON(w, http.StatusOK, findLocationResponse{
		Kind:           loc.Kind,
		Index:          loc.Index,
		Position:       [3]float64{loc.Position.X(), loc.Position.Y(), loc.Position.Z()},
		CameraDistance: cameraDistance(mesh),
	})
}

// cameraDistance suggests how far the viewer camera should sit from the
// resolved point. A fraction of the bounds diagonal reads well for
// meshes of any scale.
func cameraDistance(m *geom.Mesh) float64 {
	d := m.BoundsDiagonal() * 0.25
	if d < 0.1 {
		d = 0.1
	}
	return d
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"nodes": s.registry.Definitions(),
	})
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	if s.cat == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"assets": []interface{}{}})
		return
	}

	assets, err := s.cat.ListAssets(500)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog unavailable: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assets": assets})
}
