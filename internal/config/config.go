// Package config loads wecomguard configuration.
// Priority: defaults < YAML file < environment variables < flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvTemplateRoot    = "TEMPLATE_ROOT"
	EnvMaxAndTopDir    = "SCREEN_MAX_AND_TOP"
	EnvSendMsgAfterDir = "SCREEN_SEND_MSG_AFTER"
	EnvArtifactsDir    = "WECOMGUARD_ARTIFACTS"
)

// Matcher backends.
const (
	MatcherOpenCV = "opencv"
	MatcherNative = "native"
)

// Server transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds all resolved configuration values.
type Config struct {
	App          string `yaml:"app"` // Policy ID of the target application
	TemplateRoot string `yaml:"template_root"`
	ArtifactsDir string `yaml:"artifacts_dir"`

	Screenshots ScreenshotConfig `yaml:"screenshots"`
	Window      WindowConfig     `yaml:"window"`
	Matcher     MatcherConfig    `yaml:"matcher"`
	Guard       GuardConfig      `yaml:"guard"`
	Server      ServerConfig     `yaml:"server"`
	Log         LogConfig        `yaml:"log"`
}

// ScreenshotConfig holds per-action screenshot directories. Empty values
// are derived from ArtifactsDir.
type ScreenshotConfig struct {
	MaxAndTop   string `yaml:"max_and_top"`
	SendMessage string `yaml:"send_message"`
	EnvCheck    string `yaml:"env_check"`
}

// WindowConfig overrides the target application's identifiers.
type WindowConfig struct {
	ProcessNames    []string      `yaml:"process_names"`
	TitleSubstrings []string      `yaml:"title_substrings"`
	SettleDelay     time.Duration `yaml:"settle_delay"`
}

// MatcherConfig selects and tunes template matching.
type MatcherConfig struct {
	Backend    string             `yaml:"backend"`
	Threshold  float64            `yaml:"threshold"`
	Thresholds map[string]float64 `yaml:"thresholds"` // Per canonical target
}

// GuardConfig configures the guard daemon.
type GuardConfig struct {
	Enabled               bool          `yaml:"enabled"` // Start with the server
	TickInterval          time.Duration `yaml:"tick_interval"`
	LocateRefreshInterval time.Duration `yaml:"locate_refresh_interval"`
	StopTimeout           time.Duration `yaml:"stop_timeout"`
}

// ServerConfig configures the MCP request layer.
type ServerConfig struct {
	Transport string `yaml:"transport"`
	Addr      string `yaml:"addr"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // Empty means <artifacts>/logs/wecomguard.log
}

// FlagOverrides holds values explicitly set via command-line flags.
// Nil pointer means the flag was not set.
type FlagOverrides struct {
	TemplateRoot   *string
	ArtifactsDir   *string
	MatcherBackend *string
	LogLevel       *string
	Transport      *string
	Addr           *string
}

// Default returns the base configuration.
func Default() Config {
	return Config{
		App:          "wecom",
		TemplateRoot: "templates",
		ArtifactsDir: "artifacts",
		Window: WindowConfig{
			SettleDelay: 50 * time.Millisecond,
		},
		Matcher: MatcherConfig{
			Backend:   MatcherOpenCV,
			Threshold: 0.8,
		},
		Guard: GuardConfig{
			Enabled:               true,
			TickInterval:          time.Second,
			LocateRefreshInterval: 15 * time.Second,
			StopTimeout:           5 * time.Second,
		},
		Server: ServerConfig{
			Transport: TransportStdio,
			Addr:      "127.0.0.1:8765",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty), the environment and flags. A missing file is an error
// only when explicit is true.
func Load(path string, explicit bool, getenv func(string) string, flags *FlagOverrides) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadYAMLFile(&cfg, path); err != nil {
			if !explicit && errors.Is(err, os.ErrNotExist) {
				err = nil
			}
			if err != nil {
				return cfg, err
			}
		}
	}

	if getenv == nil {
		getenv = os.Getenv
	}
	cfg.ApplyEnv(getenv)
	if flags != nil {
		cfg.applyFlags(flags)
	}
	cfg.Resolve()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// loadYAMLFile merges the keys present in the file into cfg.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnv applies the environment overrides that are set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvArtifactsDir); v != "" {
		c.ArtifactsDir = v
	}
	if v := getenv(EnvTemplateRoot); v != "" {
		c.TemplateRoot = v
	}
	if v := getenv(EnvMaxAndTopDir); v != "" {
		c.Screenshots.MaxAndTop = v
	}
	if v := getenv(EnvSendMsgAfterDir); v != "" {
		c.Screenshots.SendMessage = v
	}
}

func (c *Config) applyFlags(f *FlagOverrides) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.TemplateRoot, f.TemplateRoot)
	set(&c.ArtifactsDir, f.ArtifactsDir)
	set(&c.Matcher.Backend, f.MatcherBackend)
	set(&c.Log.Level, f.LogLevel)
	set(&c.Server.Transport, f.Transport)
	set(&c.Server.Addr, f.Addr)
}

// Resolve fills derived paths.
func (c *Config) Resolve() {
	if c.Screenshots.MaxAndTop == "" {
		c.Screenshots.MaxAndTop = filepath.Join(c.ArtifactsDir, "max_and_top")
	}
	if c.Screenshots.SendMessage == "" {
		c.Screenshots.SendMessage = filepath.Join(c.ArtifactsDir, "send_message")
	}
	if c.Screenshots.EnvCheck == "" {
		c.Screenshots.EnvCheck = filepath.Join(c.ArtifactsDir, "env_check")
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(c.ArtifactsDir, "logs", "wecomguard.log")
	}
}

// Validate checks the final configuration. Guard intervals are clamped by
// the guard itself and are not rejected here.
func (c Config) Validate() error {
	if c.App == "" {
		return errors.New("app must be set")
	}
	if c.TemplateRoot == "" {
		return errors.New("template_root must be set")
	}
	if c.ArtifactsDir == "" {
		return errors.New("artifacts_dir must be set")
	}
	switch c.Matcher.Backend {
	case MatcherOpenCV, MatcherNative:
	default:
		return fmt.Errorf("matcher.backend must be %q or %q, got %q", MatcherOpenCV, MatcherNative, c.Matcher.Backend)
	}
	if c.Matcher.Threshold <= 0 || c.Matcher.Threshold > 1 {
		return fmt.Errorf("matcher.threshold must be in (0, 1], got %v", c.Matcher.Threshold)
	}
	for target, th := range c.Matcher.Thresholds {
		if th <= 0 || th > 1 {
			return fmt.Errorf("matcher.thresholds[%s] must be in (0, 1], got %v", target, th)
		}
	}
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("server.transport must be %q or %q, got %q", TransportStdio, TransportHTTP, c.Server.Transport)
	}
	if c.Server.Transport == TransportHTTP && c.Server.Addr == "" {
		return errors.New("server.addr must be set for http transport")
	}
	return nil
}
