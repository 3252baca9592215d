package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hupe1980/bico"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration of the CLI. Flags override file values.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Engine  EngineConfig  `yaml:"engine"`
	Fit     FitConfig     `yaml:"fit"`
	Store   StoreConfig   `yaml:"store"`
	Export  ExportConfig  `yaml:"export"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type InputConfig struct {
	Path         string `yaml:"path"`
	Format       string `yaml:"format"`
	Header       bool   `yaml:"header"`
	Comma        string `yaml:"comma"`
	WeightColumn int    `yaml:"weight_column"`
	SkipInvalid  bool   `yaml:"skip_invalid"`
}

type EngineConfig struct {
	Dimension  int     `yaml:"dimension"` // 0 infers it from the first record
	K          int     `yaml:"k"`
	Candidates int     `yaml:"candidates"` // 0 means dimension
	MaxNodes   int     `yaml:"max_nodes"`  // 0 means 200*k
	Seed       *uint64 `yaml:"seed"`       // nil means time-based
	Metric     string  `yaml:"metric"`
}

type FitConfig struct {
	Enabled       bool    `yaml:"enabled"`
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`
}

type StoreConfig struct {
	Type      string `yaml:"type"` // local, s3, minio or memory
	Path      string `yaml:"path"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
	PathStyle bool   `yaml:"path_style"`
}

type ExportConfig struct {
	Prefix      string `yaml:"prefix"`
	Codec       string `yaml:"codec"`
	Compression string `yaml:"compression"`
	Keep        int    `yaml:"keep"` // exports retained after a build; 0 keeps all
}

type LogConfig struct {
	Format string `yaml:"format"` // text or json
	Level  string `yaml:"level"`
}

type MetricsConfig struct {
	Addr      string `yaml:"addr"` // empty disables the Prometheus endpoint
	Namespace string `yaml:"namespace"`
}

func defaultConfig() Config {
	return Config{
		Input:   InputConfig{Comma: ",", WeightColumn: -1},
		Store:   StoreConfig{Type: "local", Path: "coresets"},
		Export:  ExportConfig{Codec: "go-json", Compression: "zstd"},
		Log:     LogConfig{Format: "text", Level: "info"},
		Metrics: MetricsConfig{Namespace: "bico"},
	}
}

// loadConfig overlays the YAML file at path on the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// overlay copies a flag value into the config when the flag was set.
type overlay struct {
	flag  string
	apply func(*Config)
}

func resolveConfig(cmd *cobra.Command, overlays []overlay) (Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(path)
	if err != nil {
		return cfg, err
	}
	for _, o := range overlays {
		if cmd.Flags().Changed(o.flag) {
			o.apply(&cfg)
		}
	}
	return cfg, nil
}

func newLogger(cfg LogConfig, w io.Writer) (*bico.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return bico.NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
	case "json":
		return bico.NewJSONLoggerTo(w, level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}
