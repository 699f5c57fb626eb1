// Package generator produces synthetic boxes, chat replies and location
// lore through an external text generation API. Failures never surface as
// errors: every call returns a Result that callers branch on.
package generator

import (
	"context"

	"dtp-backend/internal/geo"
	"dtp-backend/internal/models"
)

// Generator is the content generator used by the services
type Generator interface {
	FakeDrops(ctx context.Context, near geo.Point, n int) Result[[]FakeDrop]
	Reply(ctx context.Context, participant models.Profile, history []models.ChatMessage, message string) Result[string]
	Lore(ctx context.Context, location string) Result[models.LoreData]
}

// Result is either data or the reason there is none
type Result[T any] struct {
	Data   T
	OK     bool
	Reason string
}

// Success wraps generated data
func Success[T any](v T) Result[T] {
	return Result[T]{Data: v, OK: true}
}

// Failure reports that nothing usable was generated
func Failure[T any](reason string) Result[T] {
	return Result[T]{Reason: reason}
}

// FakeDrop is one generated profile and note
type FakeDrop struct {
	Name   string        `json:"name"`
	Age    int           `json:"age"`
	Gender models.Gender `json:"gender"`
	Bio    string        `json:"bio"`
	Note   string        `json:"note"`
}

// Disabled is used when no API key is configured
type Disabled struct{}

const disabledReason = "generator disabled"

func (Disabled) FakeDrops(context.Context, geo.Point, int) Result[[]FakeDrop] {
	return Failure[[]FakeDrop](disabledReason)
}

func (Disabled) Reply(context.Context, models.Profile, []models.ChatMessage, string) Result[string] {
	return Failure[string](disabledReason)
}

func (Disabled) Lore(context.Context, string) Result[models.LoreData] {
	return Failure[models.LoreData](disabledReason)
}
