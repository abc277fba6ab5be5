package api

import (
	"time"

	"github.com/pedro199288/reelforge-sub004/internal/cutmap"
	"github.com/pedro199288/reelforge-sub004/internal/project"
	"github.com/pedro199288/reelforge-sub004/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State         string               `json:"state"`
	LastError     string               `json:"last_error,omitempty"`
	ProjectsCount int                  `json:"projects_count"`
	ItemsCount    int                  `json:"items_count"`
	JobsRunning   int                  `json:"jobs_running"`
	ActiveJob     *JobResponse         `json:"active_job,omitempty"`
	Media         *MediaStatusResponse `json:"media,omitempty"`
}

type MediaStatusResponse struct {
	HasProbe       bool   `json:"has_probe"`
	HasThumbnails  bool   `json:"has_thumbnails"`
	FFmpegVersion  string `json:"ffmpeg_version,omitempty"`
	FFprobeVersion string `json:"ffprobe_version,omitempty"`
	LastProbeAt    string `json:"last_probe_at,omitempty"`
}

type CreateProjectRequest struct {
	Name       string `json:"name"`
	SourcePath string `json:"source_path,omitempty"`
}

type ProjectResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	SourcePath      string  `json:"source_path,omitempty"`
	TotalDurationMs int     `json:"total_duration_ms"`
	FrameRate       float64 `json:"frame_rate"`
	CreatedAt       string  `json:"created_at"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type CreateTrackRequest struct {
	Name string `json:"name,omitempty"`
	Kind string `json:"kind"`
}

type TrackResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Position  int    `json:"position"`
	CreatedAt string `json:"created_at"`
}

type TracksResponse struct {
	Tracks []TrackResponse `json:"tracks"`
}

// PlaceItemRequest carries the incoming item; the id is optional and minted
// server side when absent.
type PlaceItemRequest struct {
	ID               string  `json:"id,omitempty"`
	Kind             string  `json:"kind"`
	From             int     `json:"from"`
	DurationInFrames int     `json:"duration_in_frames"`
	Src              string  `json:"src,omitempty"`
	TrimStartFrame   int     `json:"trim_start_frame,omitempty"`
	TrimEndFrame     int     `json:"trim_end_frame,omitempty"`
	Text             string  `json:"text,omitempty"`
	Color            string  `json:"color,omitempty"`
	Scale            float64 `json:"scale,omitempty"`
	PosX             int     `json:"pos_x,omitempty"`
	PosY             int     `json:"pos_y,omitempty"`
}

type ItemsResponse struct {
	Items []timeline.Item `json:"items"`
}

type MoveItemRequest struct {
	From int `json:"from"`
}

type CutMapRequest struct {
	Entries []cutmap.Entry `json:"entries"`
}

type CutMapResponse struct {
	Entries []cutmap.Entry `json:"entries"`
}

// PositionResponse reports a playhead translation. Mapped is null when the
// queried moment has no representation in the target space.
type PositionResponse struct {
	Space  string `json:"space"`
	Ms     int    `json:"ms"`
	Mapped *int   `json:"mapped"`
}

type MapSegmentsRequest struct {
	Segments []cutmap.Segment `json:"segments"`
}

// MapSegmentsResponse reports translated segments plus any whose bounds
// fell outside kept material and were coerced to zero.
type MapSegmentsResponse struct {
	Segments []cutmap.Segment `json:"segments"`
	Unmapped []cutmap.Segment `json:"unmapped"`
}

type MapCaptionsRequest struct {
	Captions []cutmap.Caption `json:"captions"`
}

type MapCaptionsResponse struct {
	Captions []cutmap.Caption `json:"captions"`
	Dropped  int              `json:"dropped"`
}

type ProbeRequest struct {
	ProjectID string `json:"project_id,omitempty"`
}

type ProbeResponse struct {
	JobID string `json:"job_id"`
}

type JobResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	ProjectID  string `json:"project_id,omitempty"`
	Progress   int    `json:"progress"`
	Error      string `json:"error,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ProjectToResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:              p.ID,
		Name:            p.Name,
		SourcePath:      p.SourcePath,
		TotalDurationMs: p.TotalDurationMs,
		FrameRate:       p.FrameRate,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
}

func TrackToResponse(t *project.Track) TrackResponse {
	return TrackResponse{
		ID:        t.ID,
		ProjectID: t.ProjectID,
		Name:      t.Name,
		Kind:      t.Kind,
		Position:  t.Position,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *project.Job) JobResponse {
	return JobResponse{
		ID:         j.ID,
		Type:       j.Type,
		Status:     j.Status,
		ProjectID:  j.ProjectID,
		Progress:   j.Progress,
		Error:      j.Error,
		OutputPath: j.OutputPath,
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt.Format(time.RFC3339),
	}
}

func (r PlaceItemRequest) ToItem() timeline.Item {
	return timeline.Item{
		ID:               r.ID,
		Kind:             timeline.Kind(r.Kind),
		From:             r.From,
		DurationInFrames: r.DurationInFrames,
		Src:              r.Src,
		TrimStartFrame:   r.TrimStartFrame,
		TrimEndFrame:     r.TrimEndFrame,
		Text:             r.Text,
		Color:            r.Color,
		Scale:            r.Scale,
		PosX:             r.PosX,
		PosY:             r.PosY,
	}
}
