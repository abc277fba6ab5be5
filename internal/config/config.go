// Package config provides configuration management for the ReelForge agent.
// Defaults are overridden by an optional YAML file, then by environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort      = 8790
	DefaultLogLevel  = "info"
	DefaultDataDir   = ".reelforge"
	DefaultFrameRate = 30.0

	// Environment variable names
	EnvPort      = "REELFORGE_PORT"
	EnvLogLevel  = "REELFORGE_LOG_LEVEL"
	EnvDataDir   = "REELFORGE_DATA_DIR"
	EnvFrameRate = "REELFORGE_FRAME_RATE"
	EnvHeadless  = "REELFORGE_HEADLESS"
	EnvFile      = "REELFORGE_CONFIG"

	// Media tool environment variable names
	EnvFFmpegPath  = "REELFORGE_FFMPEG"
	EnvFFprobePath = "REELFORGE_FFPROBE"

	// Cloud publishing environment variable names
	EnvCloudEnabled = "REELFORGE_CLOUD_ENABLED"
	EnvCloudBaseURL = "REELFORGE_CLOUD_BASE_URL"
	EnvCloudToken   = "REELFORGE_CLOUD_TOKEN"
	EnvCloudOrgSlug = "REELFORGE_CLOUD_ORG"

	// Database filename
	DBFilename = "reelforge.db"

	// Media tool defaults
	DefaultProbeTimeout     = 30 // seconds
	DefaultThumbnailTimeout = 60 // seconds
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ExportDir() string
	FrameRate() float64
	Headless() bool
	FFmpegPath() string
	FFprobePath() string
	ProbeTimeout() time.Duration
	ThumbnailTimeout() time.Duration
	CloudEnabled() bool
	CloudBaseURL() string
	CloudToken() string
	CloudOrgSlug() string
}

// fileConfig is the YAML overlay read from EnvFile (or
// <data dir>/reelforge.yaml when present).
type fileConfig struct {
	Port      int     `yaml:"port"`
	LogLevel  string  `yaml:"log_level"`
	DataDir   string  `yaml:"data_dir"`
	FrameRate float64 `yaml:"frame_rate"`
	Headless  *bool   `yaml:"headless"`
	FFmpeg    string  `yaml:"ffmpeg"`
	FFprobe   string  `yaml:"ffprobe"`
	Cloud     struct {
		Enabled bool   `yaml:"enabled"`
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
		OrgSlug string `yaml:"org_slug"`
	} `yaml:"cloud"`
}

// EnvConfig resolves configuration from defaults, the YAML overlay, and
// environment variables, in that order.
type EnvConfig struct {
	port      int
	logLevel  string
	dataDir   string
	frameRate float64
	headless  bool

	ffmpegPath  string
	ffprobePath string

	cloudEnabled bool
	cloudBaseURL string
	cloudToken   string
	cloudOrgSlug string
}

// New creates a new EnvConfig with defaults, YAML file, and environment
// variable overrides applied.
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:      DefaultPort,
		logLevel:  DefaultLogLevel,
		dataDir:   defaultDataDir(),
		frameRate: DefaultFrameRate,
	}

	if err := cfg.applyFile(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.frameRate <= 0 {
		return nil, fmt.Errorf("frame rate must be positive, got %v", cfg.frameRate)
	}

	return cfg, nil
}

func (c *EnvConfig) applyFile() error {
	path := os.Getenv(EnvFile)
	if path == "" {
		path = filepath.Join(c.dataDir, "reelforge.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Port != 0 {
		c.port = fc.Port
	}
	if fc.LogLevel != "" {
		c.logLevel = fc.LogLevel
	}
	if fc.DataDir != "" {
		c.dataDir = fc.DataDir
	}
	if fc.FrameRate != 0 {
		c.frameRate = fc.FrameRate
	}
	if fc.Headless != nil {
		c.headless = *fc.Headless
	}
	if fc.FFmpeg != "" {
		c.ffmpegPath = fc.FFmpeg
	}
	if fc.FFprobe != "" {
		c.ffprobePath = fc.FFprobe
	}
	if fc.Cloud.Enabled {
		c.cloudEnabled = true
	}
	if fc.Cloud.BaseURL != "" {
		c.cloudBaseURL = fc.Cloud.BaseURL
	}
	if fc.Cloud.Token != "" {
		c.cloudToken = fc.Cloud.Token
	}
	if fc.Cloud.OrgSlug != "" {
		c.cloudOrgSlug = fc.Cloud.OrgSlug
	}
	return nil
}

func (c *EnvConfig) applyEnv() error {
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		c.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		c.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		c.dataDir = dd
	}

	if fr := os.Getenv(EnvFrameRate); fr != "" {
		rate, err := strconv.ParseFloat(fr, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvFrameRate, err)
		}
		c.frameRate = rate
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		c.headless = h == "1" || h == "true"
	}

	if p := os.Getenv(EnvFFmpegPath); p != "" {
		c.ffmpegPath = p
	}
	if p := os.Getenv(EnvFFprobePath); p != "" {
		c.ffprobePath = p
	}

	if e := os.Getenv(EnvCloudEnabled); e != "" {
		c.cloudEnabled = e == "1" || e == "true"
	}
	if u := os.Getenv(EnvCloudBaseURL); u != "" {
		c.cloudBaseURL = u
	}
	if t := os.Getenv(EnvCloudToken); t != "" {
		c.cloudToken = t
	}
	if s := os.Getenv(EnvCloudOrgSlug); s != "" {
		c.cloudOrgSlug = s
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ExportDir returns the default directory for rendered exports
func (c *EnvConfig) ExportDir() string {
	return filepath.Join(c.dataDir, "exports")
}

// FrameRate returns the default project frame rate
func (c *EnvConfig) FrameRate() float64 {
	return c.frameRate
}

// Headless reports whether the system tray should be skipped
func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobePath
}

func (c *EnvConfig) ProbeTimeout() time.Duration {
	return time.Duration(DefaultProbeTimeout) * time.Second
}

func (c *EnvConfig) ThumbnailTimeout() time.Duration {
	return time.Duration(DefaultThumbnailTimeout) * time.Second
}

func (c *EnvConfig) CloudEnabled() bool {
	return c.cloudEnabled
}

func (c *EnvConfig) CloudBaseURL() string {
	return c.cloudBaseURL
}

func (c *EnvConfig) CloudToken() string {
	return c.cloudToken
}

func (c *EnvConfig) CloudOrgSlug() string {
	return c.cloudOrgSlug
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
