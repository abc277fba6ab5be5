package project

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Project is one edited composition: a single source recording, its cut
// map, and a set of tracks holding placed items.
type Project struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	SourcePath      string    `json:"source_path,omitempty"`
	TotalDurationMs int       `json:"total_duration_ms"`
	FrameRate       float64   `json:"frame_rate"`
	CreatedAt       time.Time `json:"created_at"`
}

const (
	TrackKindVideo   = "video"
	TrackKindAudio   = "audio"
	TrackKindCaption = "caption"
)

// Track is the stored identity of one timeline track. Its items live in
// their own table and are loaded separately.
type Track struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	JobTypeProbe     = "probe"
	JobTypeExportEDL = "export_edl"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type Job struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	ProjectID  string    `json:"project_id,omitempty"`
	Progress   int       `json:"progress"`
	Error      string    `json:"error,omitempty"`
	OutputPath string    `json:"output_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
