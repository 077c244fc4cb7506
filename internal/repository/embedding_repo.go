package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"vidrag-backend/internal/models"
)

type EmbeddingRepo struct {
	pool *pgxpool.Pool
}

func NewEmbeddingRepo(pool *pgxpool.Pool) *EmbeddingRepo {
	return &EmbeddingRepo{pool: pool}
}

// InsertChunks persists all chunk records for a video in one batch.
func (r *EmbeddingRepo) InsertChunks(ctx context.Context, records []models.ChunkRecord) error {
	batch := &pgx.Batch{}
	for _, rec := range records {
		metaBytes, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for chunk %d: %w", rec.ChunkIndex, err)
		}

		batch.Queue(
			`INSERT INTO video_embeddings (video_id, chunk_index, chunk_text, embedding, metadata, expiry_date)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			rec.VideoID, rec.ChunkIndex, rec.ChunkText,
			pgvector.NewVector(rec.Embedding), metaBytes, rec.ExpiryDate,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	return nil
}

// ListByVideo returns a video's non-expired chunks ordered by chunk index.
// The expiry filter runs in the database so expired rows are never loaded.
func (r *EmbeddingRepo) ListByVideo(ctx context.Context, videoID string) ([]models.ChunkRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT video_id, chunk_index, chunk_text, embedding, metadata, expiry_date
		 FROM video_embeddings
		 WHERE video_id = $1 AND expiry_date > NOW()
		 ORDER BY chunk_index`,
		videoID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ChunkRecord
	for rows.Next() {
		var rec models.ChunkRecord
		var vec pgvector.Vector
		var metaBytes []byte

		if err := rows.Scan(&rec.VideoID, &rec.ChunkIndex, &rec.ChunkText, &vec, &metaBytes, &rec.ExpiryDate); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metaBytes, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("malformed metadata for chunk %d: %w", rec.ChunkIndex, err)
		}

		rec.Embedding = vec.Slice()
		records = append(records, rec)
	}

	return records, rows.Err()
}

// DeleteVideo removes every chunk for a video.
func (r *EmbeddingRepo) DeleteVideo(ctx context.Context, videoID string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM video_embeddings WHERE video_id = $1", videoID)
	return err
}

// DeleteExpired removes chunks past their expiry date and reports the count.
func (r *EmbeddingRepo) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM video_embeddings WHERE expiry_date <= NOW()")
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Stats reports the surviving chunk count and expiry stamp for a video.
func (r *EmbeddingRepo) Stats(ctx context.Context, videoID string) (int, *time.Time, error) {
	var count int
	var expiry *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(expiry_date) FROM video_embeddings
		 WHERE video_id = $1 AND expiry_date > NOW()`,
		videoID,
	).Scan(&count, &expiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	return count, expiry, nil
}
