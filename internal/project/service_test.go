package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pedro199288/reelforge-sub004/internal/cutmap"
	"github.com/pedro199288/reelforge-sub004/internal/db"
	"github.com/pedro199288/reelforge-sub004/internal/timeline"
)

func setupTestDB(t *testing.T) (*db.DB, Repository) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := db.New(dbPath, nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	repo := NewRepository(database.Conn())
	return database, repo
}

func newTestService(t *testing.T) (*Service, *db.DB) {
	database, repo := setupTestDB(t)
	return NewService(repo, nil, 30), database
}

func createTestProject(t *testing.T, svc *Service) *Project {
	p, err := svc.CreateProject(context.Background(), "Test Project", "")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	return p
}

func createTestTrack(t *testing.T, svc *Service, projectID, kind string) *Track {
	track, err := svc.AddTrack(context.Background(), projectID, "", kind)
	if err != nil {
		t.Fatalf("AddTrack() error = %v", err)
	}
	return track
}

func TestService_CreateProject(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	p := createTestProject(t, svc)

	if p.ID == "" {
		t.Error("project.ID is empty")
	}
	if p.Name != "Test Project" {
		t.Errorf("project.Name = %s, want Test Project", p.Name)
	}
	if p.FrameRate != 30 {
		t.Errorf("project.FrameRate = %v, want 30", p.FrameRate)
	}
}

func TestService_CreateProject_EmptyName(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	if _, err := svc.CreateProject(context.Background(), "", ""); err == nil {
		t.Error("CreateProject() should return error for empty name")
	}
}

func TestService_CreateProject_MissingSource(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	_, err := svc.CreateProject(context.Background(), "P", "/nonexistent/clip.mp4")
	if err == nil {
		t.Error("CreateProject() should return error for nonexistent source")
	}
}

func TestService_CreateProject_WithSourceQueuesProbe(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	src := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(src, []byte("fake"), 0644); err != nil {
		t.Fatalf("failed to write source file: %v", err)
	}

	p, err := svc.CreateProject(context.Background(), "P", src)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	jobs, err := svc.repo.ListPendingJobs(context.Background())
	if err != nil {
		t.Fatalf("ListPendingJobs() error = %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 pending job, got %d", len(jobs))
	}
	if jobs[0].Type != JobTypeProbe || jobs[0].ProjectID != p.ID {
		t.Errorf("job = %+v, want probe job for project %s", jobs[0], p.ID)
	}
}

func TestService_AddTrack(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	p := createTestProject(t, svc)

	v := createTestTrack(t, svc, p.ID, TrackKindVideo)
	if v.Position != 0 {
		t.Errorf("first track position = %d, want 0", v.Position)
	}
	if v.Name != "video 1" {
		t.Errorf("default track name = %q, want %q", v.Name, "video 1")
	}

	a := createTestTrack(t, svc, p.ID, TrackKindAudio)
	if a.Position != 1 {
		t.Errorf("second track position = %d, want 1", a.Position)
	}
}

func TestService_AddTrack_UnknownKind(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	p := createTestProject(t, svc)

	if _, err := svc.AddTrack(context.Background(), p.ID, "x", "subtitle"); err == nil {
		t.Error("AddTrack() should reject unknown kind")
	}
}

func TestService_PlaceItem_PersistsResolvedList(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	p := createTestProject(t, svc)
	track := createTestTrack(t, svc, p.ID, TrackKindVideo)
	ctx := context.Background()

	first := timeline.NewVideoItem("", "", "/media/a.mp4", 0, 30)
	if _, err := svc.PlaceItem(ctx, track.ID, first); err != nil {
		t.Fatalf("PlaceItem() error = %v", err)
	}

	// Second item lands on top of the first; the resolver must rearrange.
	second := timeline.NewVideoItem("", "", "/media/b.mp4", 10, 30)
	resolved, err := svc.PlaceItem(ctx, track.ID, second)
	if err != nil {
		t.Fatalf("PlaceItem() error = %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("got %d items, want 2", len(resolved))
	}
	if err := timeline.Validate(resolved); err != nil {
		t.Errorf("resolved track is invalid: %v", err)
	}

	stored, err := svc.TrackItems(ctx, track.ID)
	if err != nil {
		t.Fatalf("TrackItems() error = %v", err)
	}
	if len(stored) != len(resolved) {
		t.Errorf("stored %d items, resolver returned %d", len(stored), len(resolved))
	}
	for i := range stored {
		if stored[i].ID != resolved[i].ID || stored[i].From != resolved[i].From {
			t.Errorf("stored[%d] = %+v, want %+v", i, stored[i], resolved[i])
		}
	}
}

func TestService_PlaceItem_ZeroDurationLeavesTrackAlone(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	p := createTestProject(t, svc)
	track := createTestTrack(t, svc, p.ID, TrackKindVideo)
	ctx := context.Background()

	if _, err := svc.PlaceItem(ctx, track.ID, timeline.NewVideoItem("a", "", "/a.mp4", 0, 30)); err != nil {
		t.Fatalf("PlaceItem() error = %v", err)
	}

	got, err := svc.PlaceItem(ctx, track.ID, timeline.NewVideoItem("z", "", "/z.mp4", 5, 0))
	if err != nil {
		t.Fatalf("PlaceItem() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("zero-duration insert changed the track: %+v", got)
	}
}

func TestService_PlaceItem_KindMismatch(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	p := createTestProject(t, svc)
	track := createTestTrack(t, svc, p.ID, TrackKindAudio)

	_, err := svc.PlaceItem(context.Background(), track.ID, timeline.NewVideoItem("", "", "/a.mp4", 0, 30))
	if err == nil {
		t.Error("PlaceItem() should reject video item on audio track")
	}
}

func TestService_MoveItem(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	p := createTestProject(t, svc)
	track := createTestTrack(t, svc, p.ID, TrackKindVideo)
	ctx := context.Background()

	svc.PlaceItem(ctx, track.ID, timeline.NewVideoItem("a", "", "/a.mp4", 0, 30))
	svc.PlaceItem(ctx, track.ID, timeline.NewVideoItem("b", "", "/b.mp4", 30, 30))

	resolved, err := svc.MoveItem(ctx, track.ID, "a", 100)
	if err != nil {
		t.Fatalf("MoveItem() error = %v", err)
	}

	moved, ok := timeline.FindByID(resolved, "a")
	if !ok {
		t.Fatal("moved item missing from resolved list")
	}
	if moved.From != 100 {
		t.Errorf("moved.From = %d, want 100", moved.From)
	}
	if err := timeline.Validate(resolved); err != nil {
		t.Errorf("resolved track is invalid: %v", err)
	}
}

func TestService_MoveItem_NotFound(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	p := createTestProject(t, svc)
	track := createTestTrack(t, svc, p.ID, TrackKindVideo)

	if _, err := svc.MoveItem(context.Background(), track.ID, "ghost", 10); err == nil {
		t.Error("MoveItem() should return error for unknown item")
	}
}

func TestService_RemoveItem(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	p := createTestProject(t, svc)
	track := createTestTrack(t, svc, p.ID, TrackKindVideo)
	ctx := context.Background()

	svc.PlaceItem(ctx, track.ID, timeline.NewVideoItem("a", "", "/a.mp4", 0, 30))

	if err := svc.RemoveItem(ctx, track.ID, "a"); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}

	items, _ := svc.TrackItems(ctx, track.ID)
	if len(items) != 0 {
		t.Errorf("expected empty track, got %d items", len(items))
	}

	if err := svc.RemoveItem(ctx, track.ID, "a"); err == nil {
		t.Error("RemoveItem() should return error for missing item")
	}
}

func TestService_SetCutEntries_RoundTrip(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	p := createTestProject(t, svc)
	ctx := context.Background()

	entries := []cutmap.Entry{
		{OriginalStartMs: 0, OriginalEndMs: 1000, FinalStartMs: 0, FinalEndMs: 1000},
		{OriginalStartMs: 2000, OriginalEndMs: 3000, FinalStartMs: 1000, FinalEndMs: 2000},
	}
	if err := svc.SetCutEntries(ctx, p.ID, entries); err != nil {
		t.Fatalf("SetCutEntries() error = %v", err)
	}

	got, err := svc.CutEntries(ctx, p.ID)
	if err != nil {
		t.Fatalf("CutEntries() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[1].FinalStartMs != 1000 {
		t.Errorf("entries[1].FinalStartMs = %d, want 1000", got[1].FinalStartMs)
	}

	// Replacement is wholesale, not additive.
	if err := svc.SetCutEntries(ctx, p.ID, entries[:1]); err != nil {
		t.Fatalf("SetCutEntries() error = %v", err)
	}
	got, _ = svc.CutEntries(ctx, p.ID)
	if len(got) != 1 {
		t.Errorf("after replacement got %d entries, want 1", len(got))
	}
}

func TestService_SetCutEntries_RejectsOverlap(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	p := createTestProject(t, svc)

	entries := []cutmap.Entry{
		{OriginalStartMs: 0, OriginalEndMs: 2000, FinalStartMs: 0, FinalEndMs: 2000},
		{OriginalStartMs: 1000, OriginalEndMs: 3000, FinalStartMs: 2000, FinalEndMs: 4000},
	}
	if err := svc.SetCutEntries(context.Background(), p.ID, entries); err == nil {
		t.Error("SetCutEntries() should reject overlapping entries")
	}
}

func TestService_SetCutEntries_RejectsInvertedBounds(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	p := createTestProject(t, svc)

	entries := []cutmap.Entry{
		{OriginalStartMs: 1000, OriginalEndMs: 500, FinalStartMs: 0, FinalEndMs: 500},
	}
	if err := svc.SetCutEntries(context.Background(), p.ID, entries); err == nil {
		t.Error("SetCutEntries() should reject inverted bounds")
	}
}

func TestService_Mapper(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	p := createTestProject(t, svc)
	ctx := context.Background()

	entries := []cutmap.Entry{
		{OriginalStartMs: 0, OriginalEndMs: 1000, FinalStartMs: 0, FinalEndMs: 1000},
		{OriginalStartMs: 2000, OriginalEndMs: 3000, FinalStartMs: 1000, FinalEndMs: 2000},
	}
	if err := svc.SetCutEntries(ctx, p.ID, entries); err != nil {
		t.Fatalf("SetCutEntries() error = %v", err)
	}

	mapper, err := svc.Mapper(ctx, p.ID, cutmap.SpaceOriginal)
	if err != nil {
		t.Fatalf("Mapper() error = %v", err)
	}

	got, ok := mapper.ToCut(2500)
	if !ok || got != 1500 {
		t.Errorf("ToCut(2500) = %d, %v; want 1500, true", got, ok)
	}
	if _, ok := mapper.ToCut(1500); ok {
		t.Error("ToCut(1500) should report the moment as cut")
	}
}

func TestService_CreateJobs(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	p := createTestProject(t, svc)
	ctx := context.Background()

	job, err := svc.CreateExportJob(ctx, p.ID)
	if err != nil {
		t.Fatalf("CreateExportJob() error = %v", err)
	}
	if job.Type != JobTypeExportEDL || job.Status != JobStatusPending {
		t.Errorf("job = %+v, want pending export_edl", job)
	}

	if _, err := svc.CreateProbeJob(ctx, "nonexistent"); err == nil {
		t.Error("CreateProbeJob() should fail for unknown project")
	}
}

func TestService_RemoveProject_CascadesTracks(t *testing.T) {
	svc, database := newTestService(t)
	defer database.Close()

	p := createTestProject(t, svc)
	track := createTestTrack(t, svc, p.ID, TrackKindVideo)
	ctx := context.Background()

	svc.PlaceItem(ctx, track.ID, timeline.NewVideoItem("a", "", "/a.mp4", 0, 30))

	if err := svc.RemoveProject(ctx, p.ID); err != nil {
		t.Fatalf("RemoveProject() error = %v", err)
	}

	gotTrack, err := svc.GetTrack(ctx, track.ID)
	if err != nil {
		t.Fatalf("GetTrack() error = %v", err)
	}
	if gotTrack != nil {
		t.Error("track should be deleted with its project")
	}
}
