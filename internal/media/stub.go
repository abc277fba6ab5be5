package media

import (
	"context"
	"log/slog"
	"time"
)

// StubRunner satisfies Runner without touching ffmpeg. Used when the host
// has no ffmpeg installed and in tests.
type StubRunner struct {
	logger *slog.Logger

	// ProbeFn overrides Probe when set.
	ProbeFn func(ctx context.Context, path string) (*ProbeResult, error)
}

func NewStubRunner(logger *slog.Logger) *StubRunner {
	return &StubRunner{logger: logger}
}

func (s *StubRunner) Doctor(ctx context.Context) (*Capabilities, error) {
	return &Capabilities{
		FFmpeg:   ToolInfo{Available: false, Error: "stub runner"},
		FFprobe:  ToolInfo{Available: false, Error: "stub runner"},
		ProbedAt: time.Now(),
	}, nil
}

func (s *StubRunner) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	if s.ProbeFn != nil {
		return s.ProbeFn(ctx, path)
	}
	if s.logger != nil {
		s.logger.Info("media stub: probe requested", "path", path)
	}
	return &ProbeResult{}, nil
}

func (s *StubRunner) Thumbnail(ctx context.Context, videoPath, outPath string, offsetMs int) (RunResult, error) {
	if s.logger != nil {
		s.logger.Info("media stub: thumbnail requested",
			"input", videoPath, "output", outPath, "offset_ms", offsetMs)
	}
	return RunResult{ExitCode: 0, OutputPath: outPath}, nil
}

func (s *StubRunner) ThumbnailsDir() string {
	return ""
}
