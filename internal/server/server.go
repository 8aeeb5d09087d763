// Package server exposes a loaded scene over HTTP so a browser renderer
// can fetch the vertex buffers and per-frame camera uniform.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/signalsfoundry/beamscene/camera"
	"github.com/signalsfoundry/beamscene/core"
	"github.com/signalsfoundry/beamscene/internal/logging"
	"github.com/signalsfoundry/beamscene/internal/observability"
	"github.com/signalsfoundry/beamscene/kb"
	"github.com/signalsfoundry/beamscene/render"
)

const (
	requestIDHeader = "X-Request-Id"
	contentBinary   = "application/octet-stream"
	contentJSON     = "application/json"
)

// Server routes scene requests to the store.
type Server struct {
	store     *kb.SceneStore
	orbit     camera.Orbit
	log       logging.Logger
	collector *observability.SceneCollector
	mux       *http.ServeMux
}

// Option customises a Server.
type Option func(*Server)

// WithCollector counts requests and mounts /metrics.
func WithCollector(c *observability.SceneCollector) Option {
	return func(s *Server) { s.collector = c }
}

// WithOrbit overrides the camera used by /camera.
func WithOrbit(o camera.Orbit) Option {
	return func(s *Server) { s.orbit = o }
}

// New builds the HTTP handler tree.
func New(store *kb.SceneStore, log logging.Logger, opts ...Option) *Server {
	if log == nil {
		log = logging.Noop()
	}
	s := &Server{
		store: store,
		orbit: camera.DefaultOrbit(),
		log:   log,
		mux:   http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handle("GET /healthz", "healthz", s.handleHealth)
	s.handle("GET /scene/points", "points", s.handlePoints)
	s.handle("GET /scene/lines", "lines", s.handleLines)
	s.handle("GET /scene/summary", "summary", s.handleSummary)
	s.handle("GET /scene/layout", "layout", s.handleLayout)
	s.handle("GET /camera", "camera", s.handleCamera)
	if s.collector != nil {
		s.mux.Handle("GET /metrics", s.collector.Handler())
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// handle wraps h with request-id propagation, access logging and metrics.
func (s *Server) handle(pattern, route string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		if id := r.Header.Get(requestIDHeader); id != "" {
			ctx = logging.ContextWithRequestID(ctx, id)
		}
		ctx, id := logging.EnsureRequestID(ctx)
		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r.WithContext(ctx))

		s.collector.ObserveHTTP(route, rec.code)
		s.log.Debug(ctx, "http request",
			logging.String("route", route),
			logging.Int("code", rec.code),
			logging.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) currentScene(w http.ResponseWriter, r *http.Request) (*core.Scene, bool) {
	scene, err := s.store.Scene()
	if err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, err)
		return nil, false
	}
	return scene, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Scene(); err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	scene, ok := s.currentScene(w, r)
	if !ok {
		return
	}
	s.writeVertices(w, scene.PointVertices, scene.PointCount())
}

func (s *Server) handleLines(w http.ResponseWriter, r *http.Request) {
	scene, ok := s.currentScene(w, r)
	if !ok {
		return
	}
	s.writeVertices(w, scene.LineVertices, scene.LineVertexCount())
}

func (s *Server) writeVertices(w http.ResponseWriter, v []float32, count int) {
	body := render.Float32Bytes(v)
	w.Header().Set("Content-Type", contentBinary)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("X-Vertex-Count", strconv.Itoa(count))
	w.Header().Set("X-Vertex-Stride", strconv.Itoa(core.VertexStride))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.store.Summary()
	if err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, err)
		return
	}
	s.writeJSON(w, r, sum)
}

// LayoutResponse tells a renderer how to bind the buffers.
type LayoutResponse struct {
	Stride      int             `json:"stride"`
	Attributes  []AttributeJSON `json:"attributes"`
	Blocks      []BlockJSON     `json:"blocks"`
	Pipelines   []PipelineJSON  `json:"pipelines"`
	UniformSize int             `json:"uniform_size"`
}

// AttributeJSON is one vertex attribute.
type AttributeJSON struct {
	Location int    `json:"location"`
	Offset   int    `json:"offset"`
	Format   string `json:"format"`
}

// BlockJSON locates one entity kind in the point buffer.
type BlockJSON struct {
	Kind  string `json:"kind"`
	First int    `json:"first"`
	Count int    `json:"count"`
}

// PipelineJSON is one of the two fixed draws.
type PipelineJSON struct {
	Name        string `json:"name"`
	Topology    string `json:"topology"`
	VertexCount int    `json:"vertex_count"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	scene, ok := s.currentScene(w, r)
	if !ok {
		return
	}
	layout := render.VertexLayout()
	resp := LayoutResponse{
		Stride:      int(layout.ArrayStride),
		UniformSize: render.UniformSize,
	}
	for _, a := range layout.Attributes {
		resp.Attributes = append(resp.Attributes, AttributeJSON{
			Location: int(a.ShaderLocation),
			Offset:   int(a.Offset),
			Format:   "float32x3",
		})
	}
	for _, b := range scene.Blocks() {
		resp.Blocks = append(resp.Blocks, BlockJSON{Kind: b.Kind.String(), First: b.First, Count: b.Count})
	}
	for _, p := range render.Pipelines(scene) {
		resp.Pipelines = append(resp.Pipelines, PipelineJSON{
			Name:        p.Name,
			Topology:    p.TopologyName,
			VertexCount: int(p.VertexCount),
		})
	}
	s.writeJSON(w, r, resp)
}

// handleCamera returns the 64-byte view-projection uniform for animation
// time t (milliseconds) and canvas aspect.
func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ms, err := parseFloatParam(q.Get("t"), 0)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, errors.New("t must be a number of milliseconds"))
		return
	}
	aspect, err := parseFloatParam(q.Get("aspect"), 1)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, errors.New("aspect must be a number"))
		return
	}
	elapsed := time.Duration(ms * float64(time.Millisecond))
	body := render.UniformBytes(s.orbit.ViewProjection(elapsed, float32(aspect)))

	w.Header().Set("Content-Type", contentBinary)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func parseFloatParam(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", contentJSON)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn(r.Context(), "encode response failed", logging.Err(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, code int, err error) {
	if code >= http.StatusInternalServerError {
		s.log.Warn(r.Context(), "request failed", logging.Int("code", code), logging.Err(err))
	}
	w.Header().Set("Content-Type", contentJSON)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
