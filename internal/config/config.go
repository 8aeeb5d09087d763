package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/beamscene/internal/logging"
	"github.com/signalsfoundry/beamscene/internal/observability"
)

// EnvPrefix namespaces environment overrides, e.g. BEAMSCENE_SCENE_POSITIONS.
const EnvPrefix = "BEAMSCENE"

// Config is the merged configuration for both binaries.
type Config struct {
	Scene   SceneConfig   `mapstructure:"scene"`
	Output  OutputConfig  `mapstructure:"output"`
	Animate AnimateConfig `mapstructure:"animate"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// SceneConfig locates the two input files.
type SceneConfig struct {
	Positions string `mapstructure:"positions"`
	Beams     string `mapstructure:"beams"`
}

// OutputConfig controls the batch CLI's buffer dump.
type OutputConfig struct {
	Dir      string `mapstructure:"dir"`
	Describe bool   `mapstructure:"describe"`
}

// AnimateConfig drives the orbit camera clock. Start is the animation time
// the clock resumes from, which fixes the first frame's orbit angle.
type AnimateConfig struct {
	Duration    time.Duration `mapstructure:"duration"`
	Start       time.Duration `mapstructure:"start"`
	Frame       time.Duration `mapstructure:"frame"`
	Accelerated bool          `mapstructure:"accelerated"`
	Aspect      float64       `mapstructure:"aspect"`
}

// ServerConfig holds the scene-server listen addresses.
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// LogConfig mirrors logging.Config.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig mirrors observability.TracingConfig.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("scene.positions", "data/input.txt")
	v.SetDefault("scene.beams", "data/output.txt")

	v.SetDefault("output.dir", "")
	v.SetDefault("output.describe", false)

	v.SetDefault("animate.duration", time.Duration(0))
	v.SetDefault("animate.start", time.Duration(0))
	v.SetDefault("animate.frame", 16*time.Millisecond)
	v.SetDefault("animate.accelerated", true)
	v.SetDefault("animate.aspect", 16.0/9.0)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_addr", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "beamscene")
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// Load reads defaults, an optional config file and BEAMSCENE_* env vars.
// An empty path searches for beamscene.yaml in the working directory and
// tolerates its absence; an explicit path must exist.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
	} else {
		v.SetConfigName("beamscene")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Logging converts the log section to a logging.Config.
func (c Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}

// TracingOptions converts the tracing section.
func (c Config) TracingOptions() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		ServiceName: c.Tracing.ServiceName,
		Exporter:    c.Tracing.Exporter,
		Endpoint:    c.Tracing.Endpoint,
		SampleRatio: c.Tracing.SampleRatio,
	}
}
