package project

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pedro199288/reelforge-sub004/internal/cutmap"
	"github.com/pedro199288/reelforge-sub004/internal/timeline"
)

// ProjectService is the surface the API and tray consume. The placement
// engine itself stays in internal/timeline; this layer owns loading a
// track's items, running the resolver, and committing the replacement list.
type ProjectService interface {
	CreateProject(ctx context.Context, name, sourcePath string) (*Project, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	GetProjects(ctx context.Context) ([]*Project, error)
	RemoveProject(ctx context.Context, id string) error

	AddTrack(ctx context.Context, projectID, name, kind string) (*Track, error)
	GetTracks(ctx context.Context, projectID string) ([]*Track, error)
	GetTrack(ctx context.Context, id string) (*Track, error)

	TrackItems(ctx context.Context, trackID string) ([]timeline.Item, error)
	PlaceItem(ctx context.Context, trackID string, incoming timeline.Item) ([]timeline.Item, error)
	MoveItem(ctx context.Context, trackID, itemID string, newFrom int) ([]timeline.Item, error)
	RemoveItem(ctx context.Context, trackID, itemID string) error

	SetCutEntries(ctx context.Context, projectID string, entries []cutmap.Entry) error
	CutEntries(ctx context.Context, projectID string) ([]cutmap.Entry, error)
	Mapper(ctx context.Context, projectID string, active cutmap.Space) (*cutmap.Mapper, error)

	CreateProbeJob(ctx context.Context, projectID string) (*Job, error)
	CreateExportJob(ctx context.Context, projectID string) (*Job, error)

	CountProjects(ctx context.Context) (int, error)
	CountItems(ctx context.Context) (int, error)
}

type Service struct {
	repo      Repository
	logger    *slog.Logger
	frameRate float64
}

func NewService(repo Repository, logger *slog.Logger, defaultFrameRate float64) *Service {
	if defaultFrameRate <= 0 {
		defaultFrameRate = 30
	}
	return &Service{repo: repo, logger: logger, frameRate: defaultFrameRate}
}

func (s *Service) CreateProject(ctx context.Context, name, sourcePath string) (*Project, error) {
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}

	if sourcePath != "" {
		abs, err := filepath.Abs(sourcePath)
		if err != nil {
			return nil, fmt.Errorf("invalid source path: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("source does not exist: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("source path is a directory")
		}
		sourcePath = abs
	}

	p := &Project{
		ID:         NewID(),
		Name:       name,
		SourcePath: sourcePath,
		FrameRate:  s.frameRate,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	if sourcePath != "" {
		if _, err := s.CreateProbeJob(ctx, p.ID); err != nil && s.logger != nil {
			s.logger.Warn("failed to create probe job", "project_id", p.ID, "error", err)
		}
	}

	if s.logger != nil {
		s.logger.Info("project created", "project_id", p.ID, "name", name)
	}
	return p, nil
}

func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	return s.repo.GetProject(ctx, id)
}

func (s *Service) GetProjects(ctx context.Context) ([]*Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *Service) RemoveProject(ctx context.Context, id string) error {
	return s.repo.DeleteProject(ctx, id)
}

func (s *Service) AddTrack(ctx context.Context, projectID, name, kind string) (*Track, error) {
	switch kind {
	case TrackKindVideo, TrackKindAudio, TrackKindCaption:
	default:
		return nil, fmt.Errorf("unknown track kind %q", kind)
	}

	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project not found")
	}

	existing, err := s.repo.ListTracks(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = fmt.Sprintf("%s %d", kind, len(existing)+1)
	}

	t := &Track{
		ID:        NewID(),
		ProjectID: projectID,
		Name:      name,
		Kind:      kind,
		Position:  len(existing),
		CreatedAt: time.Now(),
	}

	if err := s.repo.CreateTrack(ctx, t); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("track added", "project_id", projectID, "track_id", t.ID, "kind", kind)
	}
	return t, nil
}

func (s *Service) GetTracks(ctx context.Context, projectID string) ([]*Track, error) {
	return s.repo.ListTracks(ctx, projectID)
}

func (s *Service) GetTrack(ctx context.Context, id string) (*Track, error) {
	return s.repo.GetTrack(ctx, id)
}

func (s *Service) TrackItems(ctx context.Context, trackID string) ([]timeline.Item, error) {
	return s.repo.GetItems(ctx, trackID)
}

// PlaceItem runs the overlap resolver for one insertion and commits the
// replacement list. Callers must not overlap calls for the same track; the
// resolver's output is only valid against the item set it was given.
func (s *Service) PlaceItem(ctx context.Context, trackID string, incoming timeline.Item) ([]timeline.Item, error) {
	track, err := s.repo.GetTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, fmt.Errorf("track not found")
	}
	if !kindAllowed(track.Kind, incoming.Kind) {
		return nil, fmt.Errorf("item kind %q not allowed on %s track", incoming.Kind, track.Kind)
	}

	items, err := s.repo.GetItems(ctx, trackID)
	if err != nil {
		return nil, err
	}

	// A non-positive duration is an invalid insertion request, not an
	// insertion; the stored list stays as it is.
	if incoming.DurationInFrames <= 0 {
		return items, nil
	}

	if incoming.ID == "" {
		incoming.ID = NewID()
	}
	incoming.TrackID = trackID

	resolved := timeline.Resolve(items, incoming, NewID)
	if err := timeline.Validate(resolved); err != nil {
		return nil, fmt.Errorf("placement produced an invalid track: %w", err)
	}

	if err := s.repo.ReplaceItems(ctx, trackID, resolved); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("item placed", "track_id", trackID, "item_id", incoming.ID,
			"from", incoming.From, "duration", incoming.DurationInFrames, "items", len(resolved))
	}
	return resolved, nil
}

// MoveItem re-places an existing item at a new start frame, running it back
// through the resolver against the rest of the track.
func (s *Service) MoveItem(ctx context.Context, trackID, itemID string, newFrom int) ([]timeline.Item, error) {
	items, err := s.repo.GetItems(ctx, trackID)
	if err != nil {
		return nil, err
	}

	moved, ok := timeline.FindByID(items, itemID)
	if !ok {
		return nil, fmt.Errorf("item not found")
	}
	rest := timeline.RemoveByID(items, itemID)

	if newFrom < 0 {
		newFrom = 0
	}
	moved.From = newFrom

	resolved := timeline.Resolve(rest, moved, NewID)
	if err := timeline.Validate(resolved); err != nil {
		return nil, fmt.Errorf("move produced an invalid track: %w", err)
	}

	if err := s.repo.ReplaceItems(ctx, trackID, resolved); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("item moved", "track_id", trackID, "item_id", itemID, "from", newFrom)
	}
	return resolved, nil
}

func (s *Service) RemoveItem(ctx context.Context, trackID, itemID string) error {
	items, err := s.repo.GetItems(ctx, trackID)
	if err != nil {
		return err
	}
	if _, ok := timeline.FindByID(items, itemID); !ok {
		return fmt.Errorf("item not found")
	}
	return s.repo.ReplaceItems(ctx, trackID, timeline.RemoveByID(items, itemID))
}

// SetCutEntries replaces a project's cut map wholesale. The mapper itself
// trusts its input, so the contract with the cutting stage is checked here,
// at the boundary where the map enters the system.
func (s *Service) SetCutEntries(ctx context.Context, projectID string, entries []cutmap.Entry) error {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("project not found")
	}

	if err := validateCutEntries(entries); err != nil {
		return err
	}

	if err := s.repo.ReplaceCutEntries(ctx, projectID, entries); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("cut map replaced", "project_id", projectID, "segments", len(entries))
	}
	return nil
}

func (s *Service) CutEntries(ctx context.Context, projectID string) ([]cutmap.Entry, error) {
	return s.repo.GetCutEntries(ctx, projectID)
}

// Mapper builds a coordinate space mapper over the project's stored cut map.
func (s *Service) Mapper(ctx context.Context, projectID string, active cutmap.Space) (*cutmap.Mapper, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project not found")
	}

	entries, err := s.repo.GetCutEntries(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return cutmap.New(entries, p.TotalDurationMs, active), nil
}

func (s *Service) CreateProbeJob(ctx context.Context, projectID string) (*Job, error) {
	return s.createJob(ctx, JobTypeProbe, projectID)
}

func (s *Service) CreateExportJob(ctx context.Context, projectID string) (*Job, error) {
	return s.createJob(ctx, JobTypeExportEDL, projectID)
}

func (s *Service) createJob(ctx context.Context, jobType, projectID string) (*Job, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project not found")
	}

	now := time.Now()
	job := &Job{
		ID:        NewID(),
		Type:      jobType,
		Status:    JobStatusPending,
		ProjectID: projectID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("job created", "job_id", job.ID, "type", jobType, "project_id", projectID)
	}
	return job, nil
}

func (s *Service) CountProjects(ctx context.Context) (int, error) {
	return s.repo.CountProjects(ctx)
}

func (s *Service) CountItems(ctx context.Context) (int, error) {
	return s.repo.CountItems(ctx)
}

func kindAllowed(trackKind string, itemKind timeline.Kind) bool {
	switch trackKind {
	case TrackKindVideo:
		switch itemKind {
		case timeline.KindVideo, timeline.KindImage, timeline.KindSolid, timeline.KindText:
			return true
		}
	case TrackKindAudio:
		return itemKind == timeline.KindAudio
	case TrackKindCaption:
		return itemKind == timeline.KindCaption
	}
	return false
}

func validateCutEntries(entries []cutmap.Entry) error {
	for i, e := range entries {
		if e.OriginalEndMs < e.OriginalStartMs || e.FinalEndMs < e.FinalStartMs {
			return fmt.Errorf("cut entry %d has inverted bounds", i)
		}
		if i == 0 {
			continue
		}
		prev := entries[i-1]
		if e.OriginalStartMs < prev.OriginalEndMs || e.FinalStartMs < prev.FinalEndMs {
			return fmt.Errorf("cut entries %d and %d overlap or are out of order", i-1, i)
		}
	}
	return nil
}
