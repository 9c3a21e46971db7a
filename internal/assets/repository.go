// Package assets maintains the catalog of playable video files: a postgres
// repository fed by a filesystem scanner, exposed to the UI as the asset
// listing source.
package assets

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drivestudy/annotator/internal/models"
)

// Repository handles video catalog persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an assets repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert inserts a video or refreshes its metadata when the file name is
// already known.
func (r *Repository) Upsert(ctx context.Context, v *models.Video) error {
	const query = `INSERT INTO videos (file_name, path, begin_time, end_time, type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (file_name) DO UPDATE SET path = EXCLUDED.path,
			begin_time = EXCLUDED.begin_time, end_time = EXCLUDED.end_time, type = EXCLUDED.type
		RETURNING created_at`
	return r.pool.QueryRow(ctx, query, v.FileName, v.Path, v.BeginTime, v.EndTime, v.Type).
		Scan(&v.CreatedAt)
}

// List returns the full catalog ordered by begin time, then name. An empty
// catalog returns an empty (non-nil) slice.
func (r *Repository) List(ctx context.Context) ([]models.Video, error) {
	const query = `SELECT file_name, path, begin_time, end_time, type, created_at
		FROM videos ORDER BY begin_time, file_name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos := make([]models.Video, 0)
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.FileName, &v.Path, &v.BeginTime, &v.EndTime, &v.Type, &v.CreatedAt); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}
