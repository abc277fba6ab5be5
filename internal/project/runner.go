package project

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/pedro199288/reelforge-sub004/internal/cutmap"
	"github.com/pedro199288/reelforge-sub004/internal/export"
	"github.com/pedro199288/reelforge-sub004/internal/media"
)

type Runner struct {
	service      *Service
	repo         Repository
	mediaRunner  media.Runner
	doctor       *media.CachedDoctor
	logger       *slog.Logger
	exportDir    string
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(service *Service, repo Repository, mediaRunner media.Runner, doctor *media.CachedDoctor, exportDir string, logger *slog.Logger) *Runner {
	return &Runner{
		service:      service,
		repo:         repo,
		mediaRunner:  mediaRunner,
		doctor:       doctor,
		logger:       logger,
		exportDir:    exportDir,
		pollInterval: 5 * time.Second,
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) processNextJob(ctx context.Context) {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}

	if len(jobs) == 0 {
		return
	}

	job := jobs[0]
	r.logger.Info("processing job", "job_id", job.ID, "type", job.Type)

	switch job.Type {
	case JobTypeProbe:
		r.processProbeJob(ctx, job)

	case JobTypeExportEDL:
		r.processExportJob(ctx, job)

	default:
		r.logger.Warn("unknown job type", "type", job.Type)
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "unknown job type")
	}
}

func (r *Runner) processProbeJob(ctx context.Context, job *Job) {
	if r.mediaRunner == nil || r.doctor == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "media runner not configured")
		return
	}

	p, err := r.repo.GetProject(ctx, job.ProjectID)
	if err != nil || p == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "project not found")
		return
	}
	if p.SourcePath == "" {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "project has no source media")
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")

	caps, err := r.doctor.Get(ctx)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("doctor probe failed: %v", err))
		return
	}
	if !caps.HasProbe {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "ffprobe not available")
		return
	}

	probe, err := r.mediaRunner.Probe(ctx, p.SourcePath)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("probe error: %v", err))
		return
	}

	frameRate := p.FrameRate
	if probe.FrameRate > 0 {
		frameRate = probe.FrameRate
	}
	if err := r.repo.UpdateProjectMedia(ctx, p.ID, probe.DurationMs, frameRate); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("cannot store probe result: %v", err))
		return
	}

	if caps.HasThumbnails {
		r.generatePoster(ctx, p, probe.DurationMs)
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	r.logger.Info("probe job completed",
		"job_id", job.ID,
		"project_id", p.ID,
		"duration_ms", probe.DurationMs,
		"frame_rate", frameRate,
	)
}

// generatePoster extracts a single frame a tenth of the way in as the
// project's preview image. Failures are logged, never fatal to the job.
func (r *Runner) generatePoster(ctx context.Context, p *Project, durationMs int) {
	thumbPath := filepath.Join(r.mediaRunner.ThumbnailsDir(), p.ID+".jpg")
	res, err := r.mediaRunner.Thumbnail(ctx, p.SourcePath, thumbPath, durationMs/10)
	if err != nil {
		r.logger.Warn("poster generation failed", "project_id", p.ID, "error", err)
		return
	}
	if !res.IsSuccess() {
		r.logger.Warn("poster generation failed", "project_id", p.ID, "stderr", res.StderrTail)
		return
	}
	r.logger.Debug("poster generated", "project_id", p.ID, "path", thumbPath)
}

// processExportJob renders an EDL for the project's first video track into
// the configured export directory.
func (r *Runner) processExportJob(ctx context.Context, job *Job) {
	p, err := r.repo.GetProject(ctx, job.ProjectID)
	if err != nil || p == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "project not found")
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")

	tracks, err := r.repo.ListTracks(ctx, p.ID)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("cannot list tracks: %v", err))
		return
	}

	var videoTrack *Track
	for _, t := range tracks {
		if t.Kind == TrackKindVideo {
			videoTrack = t
			break
		}
	}
	if videoTrack == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "project has no video track")
		return
	}

	items, err := r.repo.GetItems(ctx, videoTrack.ID)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("cannot load items: %v", err))
		return
	}
	if len(items) == 0 {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "video track is empty")
		return
	}

	mapper, err := r.service.Mapper(ctx, p.ID, cutmap.SpaceOriginal)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("cannot build cut map: %v", err))
		return
	}
	if len(mapper.Entries()) == 0 {
		mapper = nil
	}

	clips, unresolved := export.BuildCutClips(items, mapper, p.FrameRate, p.SourcePath)
	if len(clips) == 0 {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed,
			fmt.Sprintf("no exportable clips (%d unresolved)", len(unresolved)))
		return
	}
	r.repo.UpdateJobProgress(ctx, job.ID, 50)

	r.verifyClipSources(ctx, clips)

	if err := os.MkdirAll(r.exportDir, 0755); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("cannot create export dir: %v", err))
		return
	}

	name := export.SanitizeName(p.Name, 64)
	if name == "" {
		name = p.ID
	}
	outPath := filepath.Join(r.exportDir, name+".edl")

	edl := export.GenerateEDL(clips, p.Name, p.FrameRate)
	if err := os.WriteFile(outPath, []byte(edl), 0644); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("cannot write EDL: %v", err))
		return
	}

	r.repo.UpdateJobOutput(ctx, job.ID, outPath)
	r.repo.UpdateJobProgress(ctx, job.ID, 100)
	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	r.logger.Info("export job completed",
		"job_id", job.ID,
		"project_id", p.ID,
		"clips", len(clips),
		"unresolved", len(unresolved),
		"output", outPath,
	)
}

// verifyClipSources probes every distinct media file the export references
// so broken sources surface in the log before the EDL reaches an editor.
// Advisory only: the export proceeds either way.
func (r *Runner) verifyClipSources(ctx context.Context, clips []export.ResolvedClip) {
	if r.mediaRunner == nil {
		return
	}

	seen := make(map[string]struct{}, len(clips))
	var paths []string
	for _, c := range clips {
		if c.MediaPath == "" {
			continue
		}
		if _, ok := seen[c.MediaPath]; ok {
			continue
		}
		seen[c.MediaPath] = struct{}{}
		paths = append(paths, c.MediaPath)
	}
	if len(paths) == 0 {
		return
	}

	if _, err := media.ProbeAll(ctx, r.mediaRunner, paths, 4); err != nil {
		r.logger.Warn("export references unreadable media", "error", err)
	}
}

func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == JobStatusRunning {
			count++
		}
	}
	return count
}
