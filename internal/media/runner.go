package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	maxStderrBytes = 8 * 1024 // 8 KB tail of stderr kept for diagnostics
)

// Runner executes ffprobe and ffmpeg commands as subprocesses.
// It is the single implementation of the media inspection contract
// used throughout the service.
type Runner interface {
	// Doctor probes the local ffmpeg installation and returns capabilities.
	Doctor(ctx context.Context) (*Capabilities, error)

	// Probe runs ffprobe on a source file and parses its stream metadata.
	Probe(ctx context.Context, path string) (*ProbeResult, error)

	// Thumbnail extracts a single frame at the given offset as a JPEG.
	Thumbnail(ctx context.Context, videoPath, outPath string, offsetMs int) (RunResult, error)

	// ThumbnailsDir returns the base directory for generated thumbnails.
	ThumbnailsDir() string
}

// Config holds the runner's configuration.
type Config struct {
	FFmpegPath       string        // path to ffmpeg binary; empty = look up on PATH
	FFprobePath      string        // path to ffprobe binary; empty = look up on PATH
	ThumbnailsBase   string        // base dir for thumbnails, e.g. ~/.reelforge/thumbnails
	ProbeTimeout     time.Duration // timeout for ffprobe
	ThumbnailTimeout time.Duration // timeout for frame extraction
	Logger           *slog.Logger
	DebugPaths       bool // if true, log full file paths; otherwise sanitise
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig(dataDir string, logger *slog.Logger) Config {
	return Config{
		FFmpegPath:       "",
		FFprobePath:      "",
		ThumbnailsBase:   filepath.Join(dataDir, "thumbnails"),
		ProbeTimeout:     30 * time.Second,
		ThumbnailTimeout: 60 * time.Second,
		Logger:           logger,
		DebugPaths:       false,
	}
}

// SubprocessRunner is the production implementation of Runner.
type SubprocessRunner struct {
	cfg     Config
	ffmpeg  string // resolved ffmpeg path
	ffprobe string // resolved ffprobe path
}

// NewRunner creates a SubprocessRunner, resolving the ffmpeg binary paths.
func NewRunner(cfg Config) (*SubprocessRunner, error) {
	ffprobe, err := resolveTool(cfg.FFprobePath, "ffprobe")
	if err != nil {
		return nil, fmt.Errorf("cannot locate ffprobe: %w", err)
	}
	ffmpeg, err := resolveTool(cfg.FFmpegPath, "ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("cannot locate ffmpeg: %w", err)
	}

	if err := os.MkdirAll(cfg.ThumbnailsBase, 0755); err != nil {
		return nil, fmt.Errorf("cannot create thumbnails dir: %w", err)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("media runner initialised",
			"ffmpeg", ffmpeg,
			"ffprobe", ffprobe,
			"thumbnails_dir", cfg.ThumbnailsBase,
		)
	}

	return &SubprocessRunner{cfg: cfg, ffmpeg: ffmpeg, ffprobe: ffprobe}, nil
}

func (r *SubprocessRunner) ThumbnailsDir() string {
	return r.cfg.ThumbnailsBase
}

// Doctor checks that ffmpeg and ffprobe run and reports their versions.
func (r *SubprocessRunner) Doctor(ctx context.Context) (*Capabilities, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ProbeTimeout)
	defer cancel()

	caps := &Capabilities{
		FFmpeg:  toolVersion(ctx, r.ffmpeg),
		FFprobe: toolVersion(ctx, r.ffprobe),
	}
	caps.HasProbe = caps.FFprobe.Available
	caps.HasThumbnails = caps.FFmpeg.Available
	caps.ProbedAt = time.Now()

	if r.cfg.Logger != nil {
		r.cfg.Logger.Info("doctor probe complete",
			"probe", caps.HasProbe,
			"thumbnails", caps.HasThumbnails,
			"ffmpeg_version", caps.FFmpeg.Version,
			"ffprobe_version", caps.FFprobe.Version,
		)
	}

	return caps, nil
}

// ffprobeOutput mirrors the subset of `ffprobe -print_format json` we consume.
type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

// Probe runs ffprobe and parses duration, streams, and frame rate.
func (r *SubprocessRunner) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ProbeTimeout)
	defer cancel()

	var stdout bytes.Buffer
	result := r.exec(ctx, r.ffprobe, &stdout, "",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if !result.IsSuccess() {
		return nil, fmt.Errorf("ffprobe exited %d: %s", result.ExitCode, result.StderrTail)
	}

	var raw ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		return nil, fmt.Errorf("cannot parse ffprobe JSON: %w", err)
	}

	probe := &ProbeResult{ContainerFm: raw.Format.FormatName}

	if raw.Format.Duration != "" {
		secs, err := strconv.ParseFloat(raw.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse duration %q: %w", raw.Format.Duration, err)
		}
		probe.DurationMs = int(math.Round(secs * 1000))
	}
	if raw.Format.BitRate != "" {
		if br, err := strconv.ParseInt(raw.Format.BitRate, 10, 64); err == nil {
			probe.BitRate = br
		}
	}

	for _, s := range raw.Streams {
		switch s.CodecType {
		case "video":
			// Keep the first video stream only; attached cover art and
			// secondary angles are not timeline sources.
			if probe.HasVideo {
				continue
			}
			probe.HasVideo = true
			probe.VideoCodec = s.CodecName
			probe.Width = s.Width
			probe.Height = s.Height
			probe.FrameRate = parseFrameRate(s.RFrameRate)
		case "audio":
			if probe.HasAudio {
				continue
			}
			probe.HasAudio = true
			probe.AudioCodec = s.CodecName
		}
	}

	if r.cfg.Logger != nil {
		r.cfg.Logger.Info("probe complete",
			"path", r.safePath(path),
			"duration_ms", probe.DurationMs,
			"frame_rate", probe.FrameRate,
			"has_audio", probe.HasAudio,
		)
	}

	return probe, nil
}

// Thumbnail extracts a single frame at offsetMs as a JPEG.
func (r *SubprocessRunner) Thumbnail(ctx context.Context, videoPath, outPath string, offsetMs int) (RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ThumbnailTimeout)
	defer cancel()

	offset := fmt.Sprintf("%d.%03d", offsetMs/1000, offsetMs%1000)
	result := r.exec(ctx, r.ffmpeg, io.Discard, outPath,
		"-y",
		"-ss", offset,
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "3",
		outPath,
	)
	return result, nil
}

// exec is the core subprocess execution helper.
func (r *SubprocessRunner) exec(ctx context.Context, bin string, stdout io.Writer, outPath string, args ...string) RunResult {
	start := time.Now()

	if outPath != "" {
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			if r.cfg.Logger != nil {
				r.cfg.Logger.Error("cannot create output dir", "error", err)
			}
			return RunResult{ExitCode: -1, StderrTail: err.Error(), Duration: time.Since(start)}
		}
	}

	cmd := exec.CommandContext(ctx, bin, args...)

	// Capture stderr with bounded buffer
	var stderrBuf bytes.Buffer
	cmd.Stderr = io.Writer(&limitedWriter{w: &stderrBuf, limit: maxStderrBytes})
	cmd.Stdout = stdout

	err := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	stderrTail := stderrBuf.String()

	if r.cfg.Logger != nil {
		if exitCode != 0 {
			r.cfg.Logger.Warn("media command failed",
				"bin", filepath.Base(bin),
				"exit_code", exitCode,
				"duration_ms", elapsed.Milliseconds(),
				"stderr_tail", truncate(stderrTail, 512),
			)
		} else {
			r.cfg.Logger.Debug("media command succeeded",
				"bin", filepath.Base(bin),
				"duration_ms", elapsed.Milliseconds(),
			)
		}
	}

	return RunResult{
		ExitCode:   exitCode,
		OutputPath: outPath,
		StderrTail: stderrTail,
		Duration:   elapsed,
	}
}

func (r *SubprocessRunner) safePath(path string) string {
	if r.cfg.DebugPaths {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Base(path)
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return filepath.Base(path)
}

// resolveTool finds a usable binary, preferring an explicit configured path.
func resolveTool(preferred, name string) (string, error) {
	if preferred != "" {
		if p, err := exec.LookPath(preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured %s %q not found", name, preferred)
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("no %s binary found on PATH", name)
}

// toolVersion runs `<bin> -version` and parses the banner line.
func toolVersion(ctx context.Context, bin string) ToolInfo {
	cmd := exec.CommandContext(ctx, bin, "-version")
	out, err := cmd.Output()
	if err != nil {
		return ToolInfo{Available: false, Path: bin, Error: err.Error()}
	}

	// Banner looks like "ffmpeg version 7.1 Copyright ...".
	version := ""
	line, _, _ := strings.Cut(string(out), "\n")
	fields := strings.Fields(line)
	if len(fields) >= 3 && fields[1] == "version" {
		version = fields[2]
	}

	return ToolInfo{Available: true, Version: version, Path: bin}
}

// parseFrameRate converts ffprobe's fractional rate ("30000/1001") to a float.
func parseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		// Keep only the tail
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}
