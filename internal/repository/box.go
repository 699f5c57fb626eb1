package repository

import (
	"context"
	"errors"
	"fmt"

	"dtp-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrBoxNotFound is returned when no archived box has the requested id
var ErrBoxNotFound = errors.New("box not found")

const schema = `
	CREATE TABLE IF NOT EXISTS boxes (
		id                TEXT PRIMARY KEY,
		lat               DOUBLE PRECISION NOT NULL,
		lng               DOUBLE PRECISION NOT NULL,
		note              TEXT NOT NULL,
		photo_url         TEXT NOT NULL,
		creator_id        TEXT NOT NULL,
		creator_name      TEXT NOT NULL,
		creator_age       INTEGER NOT NULL,
		creator_gender    TEXT NOT NULL,
		creator_bio       TEXT NOT NULL DEFAULT '',
		creator_photo_url TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL,
		expires_at        TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS boxes_created_at_idx ON boxes (created_at DESC);
`

const boxColumns = `id, lat, lng, note, photo_url,
	creator_id, creator_name, creator_age, creator_gender, creator_bio, creator_photo_url,
	created_at, expires_at`

// BoxRepository archives user dropped boxes in PostgreSQL. Synthetic
// boxes are never stored.
type BoxRepository struct {
	db *pgxpool.Pool
}

// NewBoxRepository creates a new box repository
func NewBoxRepository(db *pgxpool.Pool) *BoxRepository {
	return &BoxRepository{db: db}
}

// EnsureSchema creates the boxes table when it does not exist
func (r *BoxRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create boxes schema: %w", err)
	}
	return nil
}

// Save stores a box. Saving the same box twice is a no-op.
func (r *BoxRepository) Save(ctx context.Context, box *models.PhotoBox) error {
	if box.IsFake {
		return nil
	}

	query := `
		INSERT INTO boxes (` + boxColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		box.ID, box.Lat, box.Lng, box.Note, box.PhotoURL,
		box.Creator.ID, box.Creator.Name, box.Creator.Age, string(box.Creator.Gender),
		box.Creator.Bio, box.Creator.PhotoURL,
		box.CreatedAt, box.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save box: %w", err)
	}
	return nil
}

// GetByID retrieves an archived box
func (r *BoxRepository) GetByID(ctx context.Context, id string) (*models.PhotoBox, error) {
	query := `SELECT ` + boxColumns + ` FROM boxes WHERE id = $1`

	box, err := scanBox(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBoxNotFound
		}
		return nil, fmt.Errorf("failed to get box: %w", err)
	}
	return box, nil
}

// Recent returns up to limit archived boxes, newest first
func (r *BoxRepository) Recent(ctx context.Context, limit int) ([]*models.PhotoBox, error) {
	query := `
		SELECT ` + boxColumns + `
		FROM boxes
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get boxes: %w", err)
	}
	defer rows.Close()

	var boxes []*models.PhotoBox
	for rows.Next() {
		box, err := scanBox(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan box: %w", err)
		}
		boxes = append(boxes, box)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating boxes: %w", err)
	}

	return boxes, nil
}

func scanBox(row pgx.Row) (*models.PhotoBox, error) {
	var (
		box    models.PhotoBox
		gender string
	)
	err := row.Scan(
		&box.ID, &box.Lat, &box.Lng, &box.Note, &box.PhotoURL,
		&box.Creator.ID, &box.Creator.Name, &box.Creator.Age, &gender,
		&box.Creator.Bio, &box.Creator.PhotoURL,
		&box.CreatedAt, &box.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	box.Creator.Gender = models.Gender(gender)
	return &box, nil
}
