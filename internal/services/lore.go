package services

import (
	"context"
	"fmt"
	"strings"

	"dtp-backend/internal/generator"
	"dtp-backend/internal/models"

	"golang.org/x/sync/singleflight"
)

// LoreService fetches generated lore for map locations. Concurrent
// requests for the same place share one generation.
type LoreService struct {
	generator generator.Generator
	group     singleflight.Group
}

// NewLoreService creates a new lore service
func NewLoreService(gen generator.Generator) *LoreService {
	return &LoreService{generator: gen}
}

// Lore returns lore for location. A failed generation is an empty result,
// not an error.
func (l *LoreService) Lore(ctx context.Context, location string) (generator.Result[models.LoreData], error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return generator.Result[models.LoreData]{}, fmt.Errorf("%w: location is required", ErrInvalidInput)
	}

	v, _, _ := l.group.Do(strings.ToLower(location), func() (interface{}, error) {
		return l.generator.Lore(ctx, location), nil
	})
	return v.(generator.Result[models.LoreData]), nil
}
