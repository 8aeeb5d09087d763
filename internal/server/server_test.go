package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/beamscene/camera"
	"github.com/signalsfoundry/beamscene/core"
	"github.com/signalsfoundry/beamscene/internal/logging"
	"github.com/signalsfoundry/beamscene/internal/observability"
	"github.com/signalsfoundry/beamscene/kb"
	"github.com/signalsfoundry/beamscene/render"
)

func loadedStore(t *testing.T) *kb.SceneStore {
	t.Helper()
	scene, err := core.LoadScene(context.Background(),
		strings.NewReader("user 1 6378 0 0\nsat 1 0 6378 0\n"),
		strings.NewReader("sat 1 0 0 0 1\n"))
	require.NoError(t, err)

	store := kb.NewSceneStore()
	require.NoError(t, store.SetScene(scene))
	return store
}

func get(t *testing.T, h http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPointsAndLines(t *testing.T) {
	srv := New(loadedStore(t), logging.Noop())

	rr := get(t, srv, "/scene/points", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/octet-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "2", rr.Header().Get("X-Vertex-Count"))
	assert.Equal(t, "24", rr.Header().Get("X-Vertex-Stride"))

	points, err := render.BytesToFloat32(rr.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 0, 1, 0, 0, 1, 0, 0, 1, 1}, points)

	rr = get(t, srv, "/scene/lines", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	lines, err := render.BytesToFloat32(rr.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 1, 1, 1, 0, 1, 0, 1, 1, 1}, lines)
}

func TestNoSceneIsUnavailable(t *testing.T) {
	srv := New(kb.NewSceneStore(), nil)
	for _, target := range []string{"/healthz", "/scene/points", "/scene/lines", "/scene/summary", "/scene/layout"} {
		rr := get(t, srv, target, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, target)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), target)
		assert.Equal(t, kb.ErrNoScene.Error(), body["error"], target)
	}
}

func TestHealthz(t *testing.T) {
	rr := get(t, New(loadedStore(t), nil), "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok\n", rr.Body.String())
}

func TestSummary(t *testing.T) {
	rr := get(t, New(loadedStore(t), nil), "/scene/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var sum core.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sum))
	assert.Equal(t, 1, sum.Users)
	assert.Equal(t, 1, sum.ServedUsers)
	require.Len(t, sum.Beams, 1)
	assert.Len(t, sum.Entities, 2)
}

func TestLayout(t *testing.T) {
	rr := get(t, New(loadedStore(t), nil), "/scene/layout", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var layout LayoutResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &layout))
	assert.Equal(t, 24, layout.Stride)
	assert.Equal(t, 64, layout.UniformSize)
	assert.Equal(t, []AttributeJSON{
		{Location: 0, Offset: 0, Format: "float32x3"},
		{Location: 1, Offset: 12, Format: "float32x3"},
	}, layout.Attributes)
	assert.Equal(t, []BlockJSON{
		{Kind: "USER", First: 0, Count: 1},
		{Kind: "SATELLITE", First: 1, Count: 1},
		{Kind: "INTERFERER", First: 2, Count: 0},
	}, layout.Blocks)
	assert.Equal(t, []PipelineJSON{
		{Name: "points", Topology: "point-list", VertexCount: 2},
		{Name: "lines", Topology: "line-list", VertexCount: 2},
	}, layout.Pipelines)
}

func TestCamera(t *testing.T) {
	srv := New(loadedStore(t), nil)

	rr := get(t, srv, "/camera?t=2000&aspect=1.5", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, rr.Body.Bytes(), render.UniformSize)

	got, err := render.BytesToFloat32(rr.Body.Bytes())
	require.NoError(t, err)
	want := camera.DefaultOrbit().ViewProjection(2_000_000_000, 1.5)
	assert.Equal(t, want.Floats(), got)

	for _, target := range []string{"/camera?t=soon", "/camera?aspect=wide"} {
		assert.Equal(t, http.StatusBadRequest, get(t, srv, target, nil).Code, target)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	srv := New(loadedStore(t), nil)

	rr := get(t, srv, "/healthz", http.Header{"X-Request-Id": []string{"abc123"}})
	assert.Equal(t, "abc123", rr.Header().Get("X-Request-Id"))

	rr = get(t, srv, "/healthz", nil)
	assert.Len(t, rr.Header().Get("X-Request-Id"), 32)
}

func TestMetricsRouteAndCounting(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := observability.NewSceneCollector(reg)
	require.NoError(t, err)

	srv := New(loadedStore(t), nil, WithCollector(collector))
	get(t, srv, "/scene/points", nil)
	get(t, srv, "/camera?t=bad", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("points", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("camera", "400")))

	rr := get(t, srv, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body, _ := io.ReadAll(rr.Body)
	assert.Contains(t, string(body), "beamscene_http_requests_total")
}

func TestMetricsRouteAbsentWithoutCollector(t *testing.T) {
	rr := get(t, New(loadedStore(t), nil), "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWrongMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/scene/points", nil)
	rr := httptest.NewRecorder()
	New(loadedStore(t), nil).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
