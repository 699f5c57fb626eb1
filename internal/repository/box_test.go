package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"dtp-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepository connects to DTP_TEST_DATABASE_DSN and skips when it is
// not set
func newTestRepository(t *testing.T) *BoxRepository {
	t.Helper()
	dsn := os.Getenv("DTP_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("DTP_TEST_DATABASE_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewBoxRepository(pool)
	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func testBox(createdAt time.Time) *models.PhotoBox {
	return &models.PhotoBox{
		ID:       uuid.New().String(),
		Lat:      41.0082,
		Lng:      28.9784,
		Note:     "under the bridge",
		PhotoURL: "https://picsum.photos/seed/x/400/600",
		Creator: models.Profile{
			ID:     uuid.New().String(),
			Name:   "Cyber_Wanderer",
			Age:    24,
			Gender: models.GenderMale,
			Bio:    "Leaving traces in the dark streets...",
		},
		CreatedAt: createdAt.UTC().Truncate(time.Microsecond),
		ExpiresAt: createdAt.Add(24 * time.Hour).UTC().Truncate(time.Microsecond),
	}
}

func TestBoxRepository_SaveAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	box := testBox(time.Now())

	require.NoError(t, repo.Save(ctx, box))
	require.NoError(t, repo.Save(ctx, box))

	got, err := repo.GetByID(ctx, box.ID)
	require.NoError(t, err)
	assert.Equal(t, box.Creator, got.Creator)
	assert.Equal(t, box.Note, got.Note)
	assert.True(t, box.CreatedAt.Equal(got.CreatedAt))

	_, err = repo.GetByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, ErrBoxNotFound)
}

func TestBoxRepository_SkipsSyntheticBoxes(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	box := testBox(time.Now())
	box.IsFake = true

	require.NoError(t, repo.Save(ctx, box))
	_, err := repo.GetByID(ctx, box.ID)
	assert.ErrorIs(t, err, ErrBoxNotFound)
}

func TestBoxRepository_RecentNewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Now().Add(time.Hour)
	older := testBox(base)
	newer := testBox(base.Add(time.Minute))

	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	boxes, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, boxes, 2)
	assert.Equal(t, newer.ID, boxes[0].ID)
	assert.Equal(t, older.ID, boxes[1].ID)
}
