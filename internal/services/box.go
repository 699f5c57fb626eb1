package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"dtp-backend/internal/generator"
	"dtp-backend/internal/geo"
	"dtp-backend/internal/models"
	"dtp-backend/internal/repository"
	"dtp-backend/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// BoxArchive keeps dropped boxes beyond the session that created them
type BoxArchive interface {
	Save(ctx context.Context, box *models.PhotoBox) error
	Recent(ctx context.Context, limit int) ([]*models.PhotoBox, error)
	GetByID(ctx context.Context, id string) (*models.PhotoBox, error)
}

// BoxConfig holds drop and synthetic box settings
type BoxConfig struct {
	BoxTTL         time.Duration
	FakeBoxCount   int
	FakeBoxMinimum int
	FakeBoxJitter  float64
	Fallback       geo.Point
	SeedLimit      int
}

// BoxService handles dropping, viewing and generating boxes
type BoxService struct {
	eval      geo.Evaluator
	generator generator.Generator
	archive   BoxArchive
	notifier  Notifier
	cfg       BoxConfig
	rand      func() float64
	now       func() time.Time
}

// NewBoxService creates a new box service. archive and notifier may be nil.
func NewBoxService(eval geo.Evaluator, gen generator.Generator, archive BoxArchive, notifier Notifier, cfg BoxConfig) *BoxService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if cfg.SeedLimit == 0 {
		cfg.SeedLimit = 50
	}
	return &BoxService{
		eval:      eval,
		generator: gen,
		archive:   archive,
		notifier:  notifier,
		cfg:       cfg,
		rand:      rand.Float64,
		now:       time.Now,
	}
}

// DropRequest represents a request to drop a box
type DropRequest struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Note     string  `json:"note"`
	PhotoURL string  `json:"photo_url"`
}

func (r DropRequest) validate() error {
	if r.Lat < -90 || r.Lat > 90 || r.Lng < -180 || r.Lng > 180 {
		return fmt.Errorf("%w: coordinates out of bounds", ErrInvalidInput)
	}
	if strings.TrimSpace(r.Note) == "" {
		return fmt.Errorf("%w: note is required", ErrInvalidInput)
	}
	return nil
}

// SubmitDrop creates a box at the requested point. Non-premium users must
// be within the drop radius and have drops left. Failed drops change
// nothing.
func (b *BoxService) SubmitDrop(ctx context.Context, s *session.Store, req DropRequest) (*models.PhotoBox, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	target := geo.Point{Lat: req.Lat, Lng: req.Lng}

	var box models.PhotoBox
	err := s.Update(func(st *session.State) error {
		if !st.User.IsPremium && !b.eval.WithinDropRadius(st.Position, target) {
			return ErrOutOfRange
		}
		if !st.User.IsPremium && st.User.DropsRemaining <= 0 {
			return ErrQuotaExceeded
		}

		now := b.now()
		photoURL := req.PhotoURL
		if photoURL == "" {
			photoURL = fmt.Sprintf("https://picsum.photos/seed/%d/400/600", now.UnixNano())
		}
		box = models.PhotoBox{
			ID:        uuid.New().String(),
			Lat:       target.Lat,
			Lng:       target.Lng,
			Note:      strings.TrimSpace(req.Note),
			PhotoURL:  photoURL,
			Creator:   st.User.Profile,
			CreatedAt: now,
			ExpiresAt: now.Add(b.cfg.BoxTTL),
		}

		st.Boxes = append([]models.PhotoBox{box}, st.Boxes...)
		if !st.User.IsPremium {
			st.User.DropsRemaining--
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", s.ID()).
		Str("box_id", box.ID).
		Float64("lat", box.Lat).
		Float64("lng", box.Lng).
		Msg("Box dropped")

	if b.archive != nil {
		if err := b.archive.Save(ctx, &box); err != nil {
			log.Error().Err(err).Str("box_id", box.ID).Msg("Failed to archive box")
		}
	}

	return &box, nil
}

func (b *BoxService) view(viewer *geo.Point, box models.PhotoBox) models.BoxView {
	v := models.BoxView{
		ID:        box.ID,
		Lat:       box.Lat,
		Lng:       box.Lng,
		Note:      box.Note,
		PhotoURL:  box.PhotoURL,
		InReach:   b.eval.InReach(viewer, geo.Point{Lat: box.Lat, Lng: box.Lng}),
		CreatedAt: box.CreatedAt,
		ExpiresAt: box.ExpiresAt,
		IsFake:    box.IsFake,
	}
	if v.InReach {
		creator := box.Creator
		v.Creator = &creator
	}
	v.Locked = !v.InReach
	return v
}

// ListBoxes returns every box as seen from the viewer position
func (b *BoxService) ListBoxes(s *session.Store) []models.BoxView {
	var views []models.BoxView
	s.View(func(st *session.State) {
		views = make([]models.BoxView, 0, len(st.Boxes))
		for _, box := range st.Boxes {
			views = append(views, b.view(st.Position, box))
		}
	})
	return views
}

// ViewBox returns one box as seen from the viewer position. Boxes that
// are not on the session map are looked up in the archive.
func (b *BoxService) ViewBox(ctx context.Context, s *session.Store, boxID string) (models.BoxView, error) {
	var (
		view     models.BoxView
		found    bool
		position *geo.Point
	)
	s.View(func(st *session.State) {
		if i := st.FindBox(boxID); i >= 0 {
			view = b.view(st.Position, st.Boxes[i])
			found = true
		}
		position = st.Position
	})
	if found {
		return view, nil
	}
	if b.archive == nil {
		return models.BoxView{}, ErrBoxNotFound
	}

	box, err := b.archive.GetByID(ctx, boxID)
	if errors.Is(err, repository.ErrBoxNotFound) {
		return models.BoxView{}, ErrBoxNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("box_id", boxID).Msg("Failed to load archived box")
		return models.BoxView{}, fmt.Errorf("load archived box: %w", err)
	}
	return b.view(position, *box), nil
}

// UpdatePosition records the viewer position and tops up synthetic boxes
// in the background when the map is sparse
func (b *BoxService) UpdatePosition(s *session.Store, p geo.Point) error {
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: coordinates out of bounds", ErrInvalidInput)
	}

	var startLoad bool
	err := s.Update(func(st *session.State) error {
		st.Position = &p
		if len(st.Boxes) < b.cfg.FakeBoxMinimum && !st.LoadingBoxes {
			st.LoadingBoxes = true
			startLoad = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	if startLoad {
		go b.loadSynthetic(s, p)
	}
	return nil
}

// PositionUnavailable stores the fallback coordinate as the viewer
// position when the client cannot locate itself. The fallback is then
// treated like a real fix.
func (b *BoxService) PositionUnavailable(s *session.Store) error {
	log.Warn().
		Str("session_id", s.ID()).
		Float64("lat", b.cfg.Fallback.Lat).
		Float64("lng", b.cfg.Fallback.Lng).
		Msg("Geolocation unavailable, using fallback position")
	return b.UpdatePosition(s, b.cfg.Fallback)
}

func (b *BoxService) loadSynthetic(s *session.Store, p geo.Point) {
	added, err := b.LoadSyntheticBoxes(s.Context(), s, p)
	_ = s.Update(func(st *session.State) error {
		st.LoadingBoxes = false
		return nil
	})
	if err != nil {
		if !errors.Is(err, session.ErrClosed) {
			log.Warn().Err(err).Str("session_id", s.ID()).Msg("Synthetic boxes not loaded")
		}
		return
	}
	if added > 0 {
		b.notifier.Notify(s.Context(), s, WSMessage{Type: EventBoxesUpdated, Data: map[string]int{"added": added}})
	}
}

// LoadSyntheticBoxes asks the generator for profiles near p and appends
// them as fake boxes scattered around it. It returns how many were added.
func (b *BoxService) LoadSyntheticBoxes(ctx context.Context, s *session.Store, p geo.Point) (int, error) {
	res := b.generator.FakeDrops(ctx, p, b.cfg.FakeBoxCount)
	if !res.OK {
		return 0, fmt.Errorf("generation failed: %s", res.Reason)
	}

	now := b.now()
	boxes := make([]models.PhotoBox, 0, len(res.Data))
	for i, f := range res.Data {
		seed := fmt.Sprintf("%s%d", f.Name, i)
		boxes = append(boxes, models.PhotoBox{
			ID:       uuid.New().String(),
			Lat:      p.Lat + (b.rand()-0.5)*2*b.cfg.FakeBoxJitter,
			Lng:      p.Lng + (b.rand()-0.5)*2*b.cfg.FakeBoxJitter,
			Note:     f.Note,
			PhotoURL: fmt.Sprintf("https://picsum.photos/seed/%s/400/600", seed),
			Creator: models.Profile{
				ID:       uuid.New().String(),
				Name:     f.Name,
				Age:      f.Age,
				Gender:   f.Gender,
				Bio:      f.Bio,
				PhotoURL: fmt.Sprintf("https://picsum.photos/seed/%s_prof/400/400", seed),
			},
			CreatedAt: now,
			ExpiresAt: now.Add(b.cfg.BoxTTL),
			IsFake:    true,
		})
	}

	err := s.Update(func(st *session.State) error {
		st.Boxes = append(st.Boxes, boxes...)
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Debug().Str("session_id", s.ID()).Int("count", len(boxes)).Msg("Synthetic boxes loaded")
	return len(boxes), nil
}

// SeedFromArchive appends recently archived boxes to a new session
func (b *BoxService) SeedFromArchive(ctx context.Context, s *session.Store) int {
	if b.archive == nil {
		return 0
	}

	recent, err := b.archive.Recent(ctx, b.cfg.SeedLimit)
	if err != nil {
		log.Error().Err(err).Str("session_id", s.ID()).Msg("Failed to load archived boxes")
		return 0
	}

	err = s.Update(func(st *session.State) error {
		for _, box := range recent {
			if st.FindBox(box.ID) < 0 {
				st.Boxes = append(st.Boxes, *box)
			}
		}
		return nil
	})
	if err != nil {
		return 0
	}
	return len(recent)
}
