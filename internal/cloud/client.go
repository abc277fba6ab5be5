// Package cloud publishes finished exports to the ReelForge SaaS.
package cloud

import (
	"context"
	"log/slog"
)

// ExportPayload is the document sent to the export ingest endpoint.
type ExportPayload struct {
	ProjectID   string          `json:"project_id"`
	ProjectName string          `json:"project_name"`
	Format      string          `json:"format"`
	EDL         string          `json:"edl"`
	SRT         string          `json:"srt,omitempty"`
	Clips       []ExportClipDoc `json:"clips"`
}

type ExportClipDoc struct {
	ItemID   string `json:"item_id"`
	ClipName string `json:"clip_name"`
	StartMs  int    `json:"start_ms"`
	EndMs    int    `json:"end_ms"`
}

// ExportIngestResponse is the SaaS acknowledgement.
type ExportIngestResponse struct {
	ExportID      string `json:"export_id"`
	ReceivedClips int    `json:"received_clips"`
}

type Client interface {
	RegisterDevice(ctx context.Context, deviceID string) error
	PublishExport(ctx context.Context, payload ExportPayload) error
}

// StubClient satisfies Client when no cloud backend is configured.
type StubClient struct {
	logger *slog.Logger
}

func NewStubClient(logger *slog.Logger) *StubClient {
	return &StubClient{logger: logger}
}

func (c *StubClient) RegisterDevice(ctx context.Context, deviceID string) error {
	if c.logger != nil {
		c.logger.Info("cloud stub: device registration requested", "device_id", deviceID)
	}
	return nil
}

func (c *StubClient) PublishExport(ctx context.Context, payload ExportPayload) error {
	if c.logger != nil {
		c.logger.Info("cloud stub: export publish requested",
			"project_id", payload.ProjectID, "clips", len(payload.Clips))
	}
	return nil
}
