package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/beamscene/camera"
	"github.com/signalsfoundry/beamscene/core"
	"github.com/signalsfoundry/beamscene/internal/config"
	"github.com/signalsfoundry/beamscene/internal/logging"
	"github.com/signalsfoundry/beamscene/internal/observability"
	"github.com/signalsfoundry/beamscene/render"
	"github.com/signalsfoundry/beamscene/timectrl"
)

func main() {
	configPath := flag.String("config", "", "optional config file (yaml, json or toml)")
	positions := flag.String("positions", "", "position records file (overrides scene.positions)")
	beams := flag.String("beams", "", "beam assignment file (overrides scene.beams)")
	outDir := flag.String("out", "", "directory to write points.bin and lines.bin into")
	describe := flag.Bool("describe", false, "print a JSON summary with per-beam geometry")
	animate := flag.Duration("animate", 0, "run the orbit camera clock for this long and log the matrices")
	animateStart := flag.Duration("animate-start", 0, "animation time to resume the orbit camera from (overrides animate.start)")
	flag.Parse()

	cfg, err := config.Load(viper.New(), *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(&cfg, *positions, *beams, *outDir, *describe, *animate)
	if *animateStart != 0 {
		cfg.Animate.Start = *animateStart
	}

	log := logging.New(cfg.Logging())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdown, err := observability.InitTracing(ctx, cfg.TracingOptions(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	if err := run(ctx, cfg, log, os.Stdout); err != nil {
		log.Error(ctx, "beamscene failed", logging.Err(err))
		observability.ShutdownWithTimeout(context.Background(), shutdown, log)
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config, positions, beams, outDir string, describe bool, animate time.Duration) {
	if positions != "" {
		cfg.Scene.Positions = positions
	}
	if beams != "" {
		cfg.Scene.Beams = beams
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if describe {
		cfg.Output.Describe = true
	}
	if animate > 0 {
		cfg.Animate.Duration = animate
	}
}

// run loads the scene, reports it, optionally writes the buffers and
// optionally runs the camera clock. Any load error aborts before output.
func run(ctx context.Context, cfg config.Config, log logging.Logger, stdout io.Writer) error {
	scene, err := core.LoadSceneFiles(ctx, cfg.Scene.Positions, cfg.Scene.Beams, core.WithLogger(log))
	if err != nil {
		return err
	}

	summary := core.Summarize(scene, cfg.Output.Describe)
	for _, b := range summary.Obstructed() {
		log.Warn(ctx, "beam has no clear line of sight",
			logging.Int("beam", b.Index),
			logging.Int("satellite", b.SatelliteIndex+1),
			logging.Int("user", b.UserIndex+1),
			logging.Float("elevation_deg", b.ElevationDeg),
		)
	}
	if len(summary.Beams) > 0 {
		log.Info(ctx, "beam slant ranges",
			logging.Float("min_km", summary.Ranges.MinKm),
			logging.Float("max_km", summary.Ranges.MaxKm),
			logging.Float("mean_km", summary.Ranges.MeanKm),
		)
	}

	if cfg.Output.Describe {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	if cfg.Output.Dir != "" {
		if err := writeBuffers(cfg.Output.Dir, scene); err != nil {
			return err
		}
		log.Info(ctx, "wrote vertex buffers",
			logging.String("dir", cfg.Output.Dir),
			logging.Int("point_vertices", scene.PointCount()),
			logging.Int("line_vertices", scene.LineVertexCount()),
		)
	}

	if cfg.Animate.Duration > 0 {
		animateCamera(ctx, cfg.Animate, log)
	}
	return nil
}

func writeBuffers(dir string, scene *core.Scene) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, p := range render.Pipelines(scene) {
		path := filepath.Join(dir, p.Name+".bin")
		if err := os.WriteFile(path, render.Float32Bytes(p.Vertices), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// animateCamera drives the orbit camera from the animation clock. The
// scene buffers are not touched; only the per-frame matrix changes.
func animateCamera(ctx context.Context, cfg config.AnimateConfig, log logging.Logger) {
	mode := timectrl.RealTime
	if cfg.Accelerated {
		mode = timectrl.Accelerated
	}
	orbit := camera.DefaultOrbit()
	tc := timectrl.NewTimeController(time.Now().UTC(), cfg.Frame, mode)
	if cfg.Start != 0 {
		tc.SetTime(tc.StartTime.Add(cfg.Start))
	}
	aspect := float32(cfg.Aspect)

	tc.AddListener(func(f timectrl.Frame) {
		m := orbit.ViewProjection(f.Elapsed, aspect)
		log.Debug(ctx, "frame",
			logging.Int("frame", f.Index),
			logging.Duration("elapsed", f.Elapsed),
			logging.Any("view_projection", m.Floats()),
		)
	})

	log.Info(ctx, "animating camera", append(orbitFields(orbit, tc),
		logging.Duration("duration", cfg.Duration),
		logging.Duration("frame", tc.Tick),
		logging.String("mode", mode.String()),
	)...)
	<-tc.Start(ctx, cfg.Duration)
	log.Info(ctx, "animation complete", orbitFields(orbit, tc)...)
}

// orbitFields reports where the camera sits at the clock's current time.
func orbitFields(orbit camera.Orbit, clock timectrl.Clock) []logging.Field {
	elapsed := clock.Elapsed()
	return []logging.Field{
		logging.Duration("elapsed", elapsed),
		logging.Float("angle_rad", float64(orbit.Angle(elapsed))),
	}
}
