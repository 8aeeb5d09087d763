package core

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/signalsfoundry/beamscene/model"
)

const (
	scenarioPositions = "user 1 6378 0 0\nsat 1 0 6378 0\n"
	scenarioBeams     = "sat 1 0 0 0 1\n"
)

func TestLoadScene_SingleBeamScenario(t *testing.T) {
	scene, err := LoadScene(context.Background(),
		strings.NewReader(scenarioPositions),
		strings.NewReader(scenarioBeams))
	if err != nil {
		t.Fatalf("LoadScene returned error: %v", err)
	}

	if len(scene.Users) != 1 || len(scene.Satellites) != 1 || len(scene.Interferers) != 0 {
		t.Fatalf("counts = %d/%d/%d, want 1/1/0", len(scene.Users), len(scene.Satellites), len(scene.Interferers))
	}
	if got := scene.Users[0]; got.Position != (model.Position{X: 1}) || got.Color != (model.Color{0, 1, 0}) {
		t.Errorf("user = %+v, want (1,0,0) green", got)
	}
	if got := scene.Satellites[0]; got.Position != (model.Position{Y: 1}) || got.Color != (model.Color{0, 1, 1}) {
		t.Errorf("satellite = %+v, want (0,1,0) cyan", got)
	}
	if len(scene.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(scene.Lines))
	}
	if l := scene.Lines[0]; l.Start != (model.Position{X: 1}) || l.End != (model.Position{Y: 1}) || l.Color != (model.Color{1, 1, 1}) {
		t.Errorf("line = %+v, want (1,0,0)->(0,1,0) white", l)
	}

	wantPoints := []float32{1, 0, 0, 0, 1, 0, 0, 1, 0, 0, 1, 1}
	if diff := cmp.Diff(wantPoints, scene.PointVertices); diff != "" {
		t.Errorf("PointVertices mismatch (-want +got):\n%s", diff)
	}
	wantLines := []float32{1, 0, 0, 1, 1, 1, 0, 1, 0, 1, 1, 1}
	if diff := cmp.Diff(wantLines, scene.LineVertices); diff != "" {
		t.Errorf("LineVertices mismatch (-want +got):\n%s", diff)
	}
	if scene.PointCount() != 2 || scene.LineVertexCount() != 2 {
		t.Errorf("PointCount=%d LineVertexCount=%d, want 2 and 2", scene.PointCount(), scene.LineVertexCount())
	}
}

func TestLoadScene_ServedColourIndependentOfBeamCount(t *testing.T) {
	beams := strings.Repeat("sat 1 0 0 0 1\n", 5)
	scene, err := LoadScene(context.Background(), strings.NewReader(scenarioPositions), strings.NewReader(beams))
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	if scene.Users[0].Color != model.ColorUserServed {
		t.Fatalf("user color = %v, want green", scene.Users[0].Color)
	}
	if len(scene.Lines) != 5 || len(scene.LineVertices) != 5*FloatsPerLine {
		t.Fatalf("lines=%d vertices=%d", len(scene.Lines), len(scene.LineVertices))
	}
	if got := scene.Stats().ServedUsers; got != 1 {
		t.Fatalf("ServedUsers = %d, want 1", got)
	}
}

func TestLoadScene_CoordinatesWithinOneULP(t *testing.T) {
	scene, err := LoadScene(context.Background(), strings.NewReader("interferer 7 -12345 6789 4321\n"), strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	want := []float32{float32(-12345.0 / 6378.0), float32(6789.0 / 6378.0), float32(4321.0 / 6378.0)}
	for i, w := range want {
		got := scene.PointVertices[i]
		if got != w && math.Nextafter32(got, w) != w {
			t.Errorf("coordinate %d = %v, want %v", i, got, w)
		}
	}
}

func TestLoadScene_DanglingReferenceYieldsNoScene(t *testing.T) {
	scene, err := LoadScene(context.Background(),
		strings.NewReader(scenarioPositions),
		strings.NewReader("sat 1 0 0 0 2\n"))
	if scene != nil {
		t.Fatalf("expected no scene, got %+v", scene)
	}
	if !errors.Is(err, ErrDanglingReference) {
		t.Fatalf("error %v is not ErrDanglingReference", err)
	}
}

func TestLoadScene_MalformedPositionYieldsNoScene(t *testing.T) {
	scene, err := LoadScene(context.Background(),
		strings.NewReader("user 1 x 0 0\n"),
		strings.NewReader(scenarioBeams))
	if scene != nil || !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("LoadScene = %v, %v; want nil, ErrMalformedRecord", scene, err)
	}
}

func TestLoadScene_EmptyInputs(t *testing.T) {
	scene, err := LoadScene(context.Background(), strings.NewReader(""), strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	if len(scene.PointVertices) != 0 || len(scene.LineVertices) != 0 {
		t.Fatalf("expected empty buffers, got %d and %d", len(scene.PointVertices), len(scene.LineVertices))
	}
	for _, b := range scene.Blocks() {
		if b.Count != 0 || b.First != 0 {
			t.Errorf("block %v = %+v, want empty", b.Kind, b)
		}
	}
}

func TestSceneBlocks(t *testing.T) {
	input := "user 1 1 1 1\nuser 2 1 1 1\nsat 1 2 2 2\ninterferer 1 3 3 3\ninterferer 2 3 3 3\ninterferer 3 3 3 3\n"
	scene, err := LoadScene(context.Background(), strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	want := []Block{
		{Kind: model.KindUser, First: 0, Count: 2},
		{Kind: model.KindSatellite, First: 2, Count: 1},
		{Kind: model.KindInterferer, First: 3, Count: 3},
	}
	if diff := cmp.Diff(want, scene.Blocks()); diff != "" {
		t.Fatalf("Blocks mismatch (-want +got):\n%s", diff)
	}
}

type recordingMetrics struct {
	stats LoadStats
	err   error
	calls int
}

func (r *recordingMetrics) ObserveSceneLoad(stats LoadStats, _ time.Duration, err error) {
	r.stats, r.err = stats, err
	r.calls++
}

func TestLoadScene_ReportsMetrics(t *testing.T) {
	rec := &recordingMetrics{}
	if _, err := LoadScene(context.Background(),
		strings.NewReader(scenarioPositions),
		strings.NewReader(scenarioBeams),
		WithMetrics(rec)); err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	want := LoadStats{Users: 1, Satellites: 1, Beams: 1, ServedUsers: 1}
	if rec.calls != 1 || rec.err != nil || rec.stats != want {
		t.Fatalf("recorded %+v (calls=%d err=%v), want %+v", rec.stats, rec.calls, rec.err, want)
	}

	_, _ = LoadScene(context.Background(), strings.NewReader("sat 1 a 0 0"), nil, WithMetrics(rec))
	if rec.calls != 2 || !errors.Is(rec.err, ErrMalformedRecord) {
		t.Fatalf("failed load recorded err=%v calls=%d", rec.err, rec.calls)
	}
}

func TestLoadScene_EmitsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	if _, err := LoadScene(context.Background(), strings.NewReader(scenarioPositions), strings.NewReader(scenarioBeams)); err != nil {
		t.Fatalf("LoadScene: %v", err)
	}

	names := map[string]bool{}
	for _, s := range exp.GetSpans() {
		names[s.Name] = true
	}
	for _, want := range []string{"scene.Load", "scene.ParsePositions", "scene.ParseBeams", "scene.Pack"} {
		if !names[want] {
			t.Errorf("missing span %q; got %v", want, names)
		}
	}
}

func TestLoadSceneFiles(t *testing.T) {
	dir := t.TempDir()
	posPath := filepath.Join(dir, "input.txt")
	beamPath := filepath.Join(dir, "output.txt")
	if err := os.WriteFile(posPath, []byte(scenarioPositions), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(beamPath, []byte(scenarioBeams), 0o644); err != nil {
		t.Fatal(err)
	}

	scene, err := LoadSceneFiles(context.Background(), posPath, beamPath)
	if err != nil {
		t.Fatalf("LoadSceneFiles: %v", err)
	}
	if len(scene.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(scene.Lines))
	}

	if _, err := LoadSceneFiles(context.Background(), filepath.Join(dir, "missing.txt"), beamPath); err == nil {
		t.Fatalf("expected error for missing positions file")
	}
}
