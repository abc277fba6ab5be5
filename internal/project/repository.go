package project

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pedro199288/reelforge-sub004/internal/cutmap"
	"github.com/pedro199288/reelforge-sub004/internal/timeline"
)

type Repository interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	DeleteProject(ctx context.Context, id string) error
	UpdateProjectMedia(ctx context.Context, id string, totalDurationMs int, frameRate float64) error
	CountProjects(ctx context.Context) (int, error)

	CreateTrack(ctx context.Context, t *Track) error
	GetTrack(ctx context.Context, id string) (*Track, error)
	ListTracks(ctx context.Context, projectID string) ([]*Track, error)
	DeleteTrack(ctx context.Context, id string) error

	GetItems(ctx context.Context, trackID string) ([]timeline.Item, error)
	ReplaceItems(ctx context.Context, trackID string, items []timeline.Item) error
	CountItems(ctx context.Context) (int, error)

	ReplaceCutEntries(ctx context.Context, projectID string, entries []cutmap.Entry) error
	GetCutEntries(ctx context.Context, projectID string) ([]cutmap.Entry, error)

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error
	UpdateJobOutput(ctx context.Context, id, outputPath string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, p *Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, source_path, total_duration_ms, frame_rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.SourcePath, p.TotalDurationMs, p.FrameRate, p.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, source_path, total_duration_ms, frame_rate, created_at
		FROM projects WHERE id = ?
	`, id)

	var p Project
	var createdAt string
	err := row.Scan(&p.ID, &p.Name, &p.SourcePath, &p.TotalDurationMs, &p.FrameRate, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, source_path, total_duration_ms, frame_rate, created_at
		FROM projects ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.SourcePath, &p.TotalDurationMs, &p.FrameRate, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) UpdateProjectMedia(ctx context.Context, id string, totalDurationMs int, frameRate float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE projects SET total_duration_ms = ?, frame_rate = ? WHERE id = ?
	`, totalDurationMs, frameRate, id)
	return err
}

func (r *SQLiteRepository) CountProjects(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&count)
	return count, err
}

func (r *SQLiteRepository) CreateTrack(ctx context.Context, t *Track) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tracks (id, project_id, name, kind, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.ProjectID, t.Name, t.Kind, t.Position, t.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetTrack(ctx context.Context, id string) (*Track, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, kind, position, created_at
		FROM tracks WHERE id = ?
	`, id)

	var t Track
	var createdAt string
	err := row.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Kind, &t.Position, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &t, nil
}

func (r *SQLiteRepository) ListTracks(ctx context.Context, projectID string) ([]*Track, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, name, kind, position, created_at
		FROM tracks WHERE project_id = ? ORDER BY position ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []*Track
	for rows.Next() {
		var t Track
		var createdAt string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Kind, &t.Position, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		tracks = append(tracks, &t)
	}
	return tracks, rows.Err()
}

func (r *SQLiteRepository) DeleteTrack(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM tracks WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) GetItems(ctx context.Context, trackID string) ([]timeline.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, track_id, kind, from_frame, duration_frames, src,
		       trim_start_frame, trim_end_frame, text, color, scale, pos_x, pos_y
		FROM items WHERE track_id = ? ORDER BY from_frame ASC
	`, trackID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []timeline.Item
	for rows.Next() {
		var it timeline.Item
		var kind string
		if err := rows.Scan(&it.ID, &it.TrackID, &kind, &it.From, &it.DurationInFrames, &it.Src,
			&it.TrimStartFrame, &it.TrimEndFrame, &it.Text, &it.Color, &it.Scale, &it.PosX, &it.PosY); err != nil {
			return nil, err
		}
		it.Kind = timeline.Kind(kind)
		items = append(items, it)
	}
	return items, rows.Err()
}

// ReplaceItems swaps a track's item list wholesale inside one transaction.
// The resolver's output replaces whatever was stored; partial application
// is never visible to readers.
func (r *SQLiteRepository) ReplaceItems(ctx context.Context, trackID string, items []timeline.Item) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE track_id = ?", trackID); err != nil {
		return err
	}

	for _, it := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO items (id, track_id, kind, from_frame, duration_frames, src,
			                   trim_start_frame, trim_end_frame, text, color, scale, pos_x, pos_y)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, it.ID, trackID, string(it.Kind), it.From, it.DurationInFrames, it.Src,
			it.TrimStartFrame, it.TrimEndFrame, it.Text, it.Color, it.Scale, it.PosX, it.PosY); err != nil {
			return fmt.Errorf("insert item %s: %w", it.ID, err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) CountItems(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&count)
	return count, err
}

// ReplaceCutEntries swaps a project's cut map wholesale; the cutting stage
// regenerates the map rather than editing it in place.
func (r *SQLiteRepository) ReplaceCutEntries(ctx context.Context, projectID string, entries []cutmap.Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cut_entries WHERE project_id = ?", projectID); err != nil {
		return err
	}

	for i, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cut_entries (project_id, position, original_start_ms, original_end_ms, final_start_ms, final_end_ms)
			VALUES (?, ?, ?, ?, ?, ?)
		`, projectID, i, e.OriginalStartMs, e.OriginalEndMs, e.FinalStartMs, e.FinalEndMs); err != nil {
			return fmt.Errorf("insert cut entry %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GetCutEntries(ctx context.Context, projectID string) ([]cutmap.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT original_start_ms, original_end_ms, final_start_ms, final_end_ms
		FROM cut_entries WHERE project_id = ? ORDER BY position ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []cutmap.Entry
	for rows.Next() {
		var e cutmap.Entry
		if err := rows.Scan(&e.OriginalStartMs, &e.OriginalEndMs, &e.FinalStartMs, &e.FinalEndMs); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, type, status, project_id, progress, error, output_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, j.Status, j.ProjectID, j.Progress, j.Error, j.OutputPath,
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, status, project_id, progress, error, output_path, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id)

	var j Job
	var createdAt, updatedAt string
	err := row.Scan(&j.ID, &j.Type, &j.Status, &j.ProjectID, &j.Progress, &j.Error, &j.OutputPath, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, status, project_id, progress, error, output_path, created_at, updated_at
		FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, status, project_id, progress, error, output_path, created_at, updated_at
		FROM jobs WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		var j Job
		var createdAt, updatedAt string
		if err := rows.Scan(&j.ID, &j.Type, &j.Status, &j.ProjectID, &j.Progress, &j.Error, &j.OutputPath, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, errorMsg, id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = datetime('now') WHERE id = ?
	`, progress, id)
	return err
}

func (r *SQLiteRepository) UpdateJobOutput(ctx context.Context, id, outputPath string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET output_path = ?, updated_at = datetime('now') WHERE id = ?
	`, outputPath, id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
