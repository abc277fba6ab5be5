package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testPayload() ExportPayload {
	return ExportPayload{
		ProjectID:   "proj123",
		ProjectName: "Demo Reel",
		Format:      "edl",
		EDL:         "TITLE: Demo Reel\n",
		Clips: []ExportClipDoc{
			{ItemID: "item-1", ClipName: "Clip 001", StartMs: 0, EndMs: 5000},
			{ItemID: "item-2", ClipName: "Clip 002", StartMs: 5000, EndMs: 10000},
		},
	}
}

func TestHTTPClient_PublishExport_Success(t *testing.T) {
	var receivedPayload ExportPayload
	var receivedAuth string
	var receivedHost string
	var receivedDevice string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ingest/exports" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}

		receivedAuth = r.Header.Get("Authorization")
		receivedHost = r.Host
		receivedDevice = r.Header.Get("X-Reelforge-Device-Id")

		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &receivedPayload)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(ExportIngestResponse{
			ExportID:      "exp-1",
			ReceivedClips: 2,
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", "devorg", testLogger())
	client.SetDeviceID("device-9")

	if err := client.PublishExport(context.Background(), testPayload()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receivedAuth != "Bearer test-token" {
		t.Errorf("auth = %q, want %q", receivedAuth, "Bearer test-token")
	}
	if receivedHost != "devorg.app.reelforge.local" {
		t.Errorf("host = %q, want %q", receivedHost, "devorg.app.reelforge.local")
	}
	if receivedDevice != "device-9" {
		t.Errorf("device header = %q, want %q", receivedDevice, "device-9")
	}
	if receivedPayload.ProjectID != "proj123" {
		t.Errorf("project_id = %q, want %q", receivedPayload.ProjectID, "proj123")
	}
	if len(receivedPayload.Clips) != 2 {
		t.Errorf("clips count = %d, want 2", len(receivedPayload.Clips))
	}
	if !strings.HasPrefix(receivedPayload.EDL, "TITLE:") {
		t.Errorf("EDL body missing: %q", receivedPayload.EDL)
	}
}

func TestHTTPClient_PublishExport_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"internal server error"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", "devorg", testLogger())

	err := client.PublishExport(context.Background(), testPayload())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}

	var pubErr *PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("expected *PublishError, got %T", err)
	}
	if !pubErr.IsRetryable() {
		t.Error("expected 5xx publish error to be retryable")
	}
}

func TestHTTPClient_PublishExport_ClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"invalid project"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", "devorg", testLogger())

	err := client.PublishExport(context.Background(), testPayload())

	var pubErr *PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("expected *PublishError, got %T", err)
	}
	if pubErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", pubErr.StatusCode, http.StatusBadRequest)
	}
	if pubErr.IsRetryable() {
		t.Error("expected 4xx publish error to be permanent")
	}
	if !strings.Contains(pubErr.Body, "invalid project") {
		t.Errorf("error body = %q, want server detail", pubErr.Body)
	}
}

func TestHTTPClient_PublishExport_NoOrgSlugKeepsHost(t *testing.T) {
	var receivedHost string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHost = r.Host
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", "", testLogger())

	if err := client.PublishExport(context.Background(), testPayload()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(receivedHost, "app.reelforge.local") {
		t.Errorf("host = %q, want server default when org slug is empty", receivedHost)
	}
}

func TestHTTPClient_PublishExport_CancelledContext(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:0", "tok", "", testLogger())
	// Drain the burst so Wait has to block, then cancel.
	client.limiter.AllowN(time.Now(), 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.PublishExport(ctx, testPayload()); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestStubClient_PublishExport(t *testing.T) {
	client := NewStubClient(testLogger())

	if err := client.RegisterDevice(context.Background(), "dev-1"); err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}
	if err := client.PublishExport(context.Background(), testPayload()); err != nil {
		t.Fatalf("PublishExport() error = %v", err)
	}
}
