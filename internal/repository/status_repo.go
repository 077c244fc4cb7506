package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vidrag-backend/internal/models"
)

type StatusRepo struct {
	pool *pgxpool.Pool
}

func NewStatusRepo(pool *pgxpool.Pool) *StatusRepo {
	return &StatusRepo{pool: pool}
}

// Get returns the current status for a video, or "" when no record exists.
func (r *StatusRepo) Get(ctx context.Context, videoID string) (string, error) {
	var status string
	err := r.pool.QueryRow(ctx,
		"SELECT status FROM video_status WHERE video_id = $1", videoID,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

// TryMarkProcessing atomically claims a video for ingestion. The conditional
// insert makes the absent→processing transition race-free: of two concurrent
// callers, exactly one sees true.
func (r *StatusRepo) TryMarkProcessing(ctx context.Context, videoID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO video_status (video_id, status) VALUES ($1, $2)
		 ON CONFLICT (video_id) DO NOTHING`,
		videoID, models.StatusProcessing,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkActive flips a processing video to active once all chunks are persisted.
func (r *StatusRepo) MarkActive(ctx context.Context, videoID string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE video_status SET status = $1, updated_at = NOW() WHERE video_id = $2",
		models.StatusActive, videoID,
	)
	return err
}

// Delete rolls a video back to absent so a retry is always possible.
func (r *StatusRepo) Delete(ctx context.Context, videoID string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM video_status WHERE video_id = $1", videoID)
	return err
}

// List returns every status record, newest first.
func (r *StatusRepo) List(ctx context.Context) ([]models.VideoStatusRecord, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT video_id, status, created_at, updated_at FROM video_status ORDER BY updated_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.VideoStatusRecord
	for rows.Next() {
		var rec models.VideoStatusRecord
		if err := rows.Scan(&rec.VideoID, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// DeleteExpiredActive removes status rows for active videos whose chunks have
// all expired, so expiry reads back as "never ingested".
func (r *StatusRepo) DeleteExpiredActive(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM video_status vs
		WHERE vs.status = $1
		  AND NOT EXISTS (
			SELECT 1 FROM video_embeddings ve
			WHERE ve.video_id = vs.video_id AND ve.expiry_date > NOW()
		  )`,
		models.StatusActive,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteStaleProcessing clears processing rows older than maxAge. A crashed
// process can leave a video stuck in processing; the janitor makes it
// retry-eligible again.
func (r *StatusRepo) DeleteStaleProcessing(ctx context.Context, maxAge string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM video_status WHERE status = $1 AND updated_at < NOW() - $2::interval`,
		models.StatusProcessing, maxAge,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
