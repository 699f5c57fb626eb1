package services

import (
	"context"
	"sync"
	"testing"

	"dtp-backend/internal/generator"
	"dtp-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLore(t *testing.T) {
	want := models.LoreData{Summary: "s", Vibe: "v", Status: "ok", DangerLevel: models.DangerHigh}
	gen := &fakeGenerator{lore: generator.Success(want)}

	res, err := NewLoreService(gen).Lore(context.Background(), "Galata Tower")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, want, res.Data)
}

func TestLore_FailureIsNotAnError(t *testing.T) {
	gen := &fakeGenerator{lore: generator.Failure[models.LoreData]("schema violation")}

	res, err := NewLoreService(gen).Lore(context.Background(), "Galata Tower")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "schema violation", res.Reason)
}

func TestLore_EmptyLocation(t *testing.T) {
	_, err := NewLoreService(&fakeGenerator{}).Lore(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLore_CoalescesConcurrentRequests(t *testing.T) {
	gen := &fakeGenerator{
		lore:    generator.Success(models.LoreData{Summary: "s", DangerLevel: models.DangerLow}),
		release: make(chan struct{}),
	}
	svc := NewLoreService(gen)

	const callers = 5
	var (
		wg      sync.WaitGroup
		started sync.WaitGroup
	)
	results := make([]generator.Result[models.LoreData], callers)
	wg.Add(callers)
	started.Add(callers)
	for i := range callers {
		go func() {
			defer wg.Done()
			started.Done()
			results[i], _ = svc.Lore(context.Background(), "Karakoy")
		}()
	}
	started.Wait()
	close(gen.release)
	wg.Wait()

	for _, r := range results {
		assert.True(t, r.OK)
	}
	gen.mu.Lock()
	defer gen.mu.Unlock()
	assert.GreaterOrEqual(t, gen.loreCalls, 1)
	assert.LessOrEqual(t, gen.loreCalls, callers)
}
