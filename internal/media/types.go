// Package media provides subprocess-based execution of ffprobe and ffmpeg
// (probe, thumbnail) with structured result parsing.
package media

import "time"

// ProbeResult holds the metadata extracted from a source file by ffprobe.
type ProbeResult struct {
	DurationMs  int     `json:"duration_ms"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	VideoCodec  string  `json:"video_codec,omitempty"`
	AudioCodec  string  `json:"audio_codec,omitempty"`
	FrameRate   float64 `json:"frame_rate,omitempty"`
	BitRate     int64   `json:"bit_rate,omitempty"`
	HasAudio    bool    `json:"has_audio"`
	HasVideo    bool    `json:"has_video"`
	ContainerFm string  `json:"container,omitempty"`
}

// ToolInfo represents the availability status of a single external tool.
type ToolInfo struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Path      string `json:"path,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Capabilities reports what the local ffmpeg installation can do.
type Capabilities struct {
	FFmpeg  ToolInfo `json:"ffmpeg"`
	FFprobe ToolInfo `json:"ffprobe"`

	HasProbe      bool      `json:"-"`
	HasThumbnails bool      `json:"-"`
	ProbedAt      time.Time `json:"-"`
}

// RunResult is the structured outcome of executing an ffmpeg subprocess.
type RunResult struct {
	ExitCode   int           `json:"exit_code"`
	OutputPath string        `json:"output_path,omitempty"`
	StderrTail string        `json:"stderr_tail,omitempty"` // last N bytes of stderr
	Duration   time.Duration `json:"duration"`
}

// IsSuccess returns true when the subprocess exited cleanly.
func (r RunResult) IsSuccess() bool { return r.ExitCode == 0 }
