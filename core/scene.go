package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/beamscene/internal/logging"
	"github.com/signalsfoundry/beamscene/model"
)

const tracerName = "github.com/signalsfoundry/beamscene/core"

// Scene is the immutable result of one load: the entity lists and the
// two vertex buffers derived from them.
type Scene struct {
	Users       []model.Point
	Satellites  []model.Point
	Interferers []model.Point
	Lines       []model.Line

	PointVertices []float32
	LineVertices  []float32
}

// Block locates one kind inside PointVertices, in vertex units.
type Block struct {
	Kind  model.Kind
	First int
	Count int
}

// Blocks returns the user, satellite and interferer ranges of the point
// buffer. Packed vertices carry no kind tag; these boundaries are the
// only way to tell kinds apart after packing.
func (s *Scene) Blocks() []Block {
	counts := []int{len(s.Users), len(s.Satellites), len(s.Interferers)}
	out := make([]Block, 0, len(counts))
	first := 0
	for i, k := range model.Kinds {
		out = append(out, Block{Kind: k, First: first, Count: counts[i]})
		first += counts[i]
	}
	return out
}

// PointCount is the number of vertices in PointVertices.
func (s *Scene) PointCount() int { return len(s.PointVertices) / FloatsPerVertex }

// LineVertexCount is the number of vertices in LineVertices (two per beam).
func (s *Scene) LineVertexCount() int { return len(s.LineVertices) / FloatsPerVertex }

// Stats summarises the scene for logs and metrics.
func (s *Scene) Stats() LoadStats {
	if s == nil {
		return LoadStats{}
	}
	served := 0
	for _, u := range s.Users {
		if u.Color == model.ColorUserServed {
			served++
		}
	}
	return LoadStats{
		Users:       len(s.Users),
		Satellites:  len(s.Satellites),
		Interferers: len(s.Interferers),
		Beams:       len(s.Lines),
		ServedUsers: served,
	}
}

// LoadStats counts what a scene load produced.
type LoadStats struct {
	Users       int
	Satellites  int
	Interferers int
	Beams       int
	ServedUsers int
}

// MetricsRecorder receives the outcome of every LoadScene call.
type MetricsRecorder interface {
	ObserveSceneLoad(stats LoadStats, dur time.Duration, err error)
}

type loadOptions struct {
	log     logging.Logger
	metrics MetricsRecorder
}

// LoadOption customises LoadScene.
type LoadOption func(*loadOptions)

// WithLogger attaches a logger to the load.
func WithLogger(l logging.Logger) LoadOption {
	return func(o *loadOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics reports the load outcome to m.
func WithMetrics(m MetricsRecorder) LoadOption {
	return func(o *loadOptions) { o.metrics = m }
}

// LoadScene parses both inputs and packs the vertex buffers. It has no
// side effects beyond the optional logger and metrics; on any error no
// Scene is returned.
func LoadScene(ctx context.Context, positions, beams io.Reader, opts ...LoadOption) (*Scene, error) {
	o := loadOptions{log: logging.Noop()}
	for _, opt := range opts {
		opt(&o)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "scene.Load")
	defer span.End()

	scene, err := loadScene(ctx, positions, beams)
	stats := scene.Stats()
	if o.metrics != nil {
		o.metrics.ObserveSceneLoad(stats, time.Since(start), err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.log.Error(ctx, "scene load failed", logging.Err(err))
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("scene.users", stats.Users),
		attribute.Int("scene.satellites", stats.Satellites),
		attribute.Int("scene.interferers", stats.Interferers),
		attribute.Int("scene.beams", stats.Beams),
	)
	o.log.Info(ctx, "scene loaded",
		logging.Int("users", stats.Users),
		logging.Int("served_users", stats.ServedUsers),
		logging.Int("satellites", stats.Satellites),
		logging.Int("interferers", stats.Interferers),
		logging.Int("beams", stats.Beams),
		logging.Duration("elapsed", time.Since(start)),
	)
	return scene, nil
}

func loadScene(ctx context.Context, positions, beams io.Reader) (*Scene, error) {
	tracer := otel.Tracer(tracerName)

	_, span := tracer.Start(ctx, "scene.ParsePositions")
	pos, err := ParsePositions(positions)
	endSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("parse positions: %w", err)
	}

	_, span = tracer.Start(ctx, "scene.ParseBeams", trace.WithAttributes(
		attribute.Int("scene.users", len(pos.Users)),
		attribute.Int("scene.satellites", len(pos.Satellites)),
	))
	lines, err := ParseBeams(beams, pos)
	endSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("parse beams: %w", err)
	}

	_, span = tracer.Start(ctx, "scene.Pack")
	scene := &Scene{
		Users:         pos.Users,
		Satellites:    pos.Satellites,
		Interferers:   pos.Interferers,
		Lines:         lines,
		PointVertices: PackPoints(pos.Users, pos.Satellites, pos.Interferers),
		LineVertices:  PackLines(lines),
	}
	endSpan(span, nil)
	return scene, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// LoadSceneFiles opens both files and calls LoadScene.
func LoadSceneFiles(ctx context.Context, positionPath, beamPath string, opts ...LoadOption) (*Scene, error) {
	pf, err := os.Open(positionPath)
	if err != nil {
		return nil, fmt.Errorf("open positions %q: %w", positionPath, err)
	}
	defer pf.Close()

	bf, err := os.Open(beamPath)
	if err != nil {
		return nil, fmt.Errorf("open beams %q: %w", beamPath, err)
	}
	defer bf.Close()

	scene, err := LoadScene(ctx, pf, bf, opts...)
	if err != nil {
		return nil, fmt.Errorf("load scene from %q and %q: %w", positionPath, beamPath, err)
	}
	return scene, nil
}
