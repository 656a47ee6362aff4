package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kohakume/livegate/internal/domain"
	"github.com/kohakume/livegate/internal/repository"
	postgresrepo "github.com/kohakume/livegate/internal/repository/postgres"
	redisrepo "github.com/kohakume/livegate/internal/repository/redis"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type Config struct {
	// CacheTTL bounds how stale the public catalog may be after an admin
	// edit that missed invalidation.
	CacheTTL time.Duration
}

// Service serves the public storefront reads: the event list and single
// event pages. Responses are cacheable and never include playback URLs.
type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// List returns published events, newest first. The default first page is
// served from cache.
func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	const op = "service.catalog.List"

	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	load := func(ctx context.Context) ([]domain.Event, error) {
		return s.store.Events().ListPublished(ctx, limit, offset)
	}

	if s.cache == nil || limit != defaultLimit || offset != 0 {
		events, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		return events, nil
	}

	events, err := redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyEventsList(), s.cfg.CacheTTL, load)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return events, nil
}

// GetBySlug returns one published event with its active tickets.
//
// Returns:
//   - error: catalog.ErrEventNotFound for unknown slugs and for drafts,
//     which are indistinguishable to the storefront.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*domain.EventWithTickets, error) {
	const op = "service.catalog.GetBySlug"

	load := func(ctx context.Context) (*domain.EventWithTickets, error) {
		event, err := s.store.Events().GetBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}

		if event.Status == domain.EventDraft {
			return nil, repository.ErrNotFound
		}

		tickets, err := s.store.Tickets().ListForEvent(ctx, event.ID, true)
		if err != nil {
			return nil, err
		}

		return &domain.EventWithTickets{Event: *event, Tickets: tickets}, nil
	}

	var (
		out *domain.EventWithTickets
		err error
	)

	if s.cache == nil {
		out, err = load(ctx)
	} else {
		out, err = redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyEventSummary(slug), s.cfg.CacheTTL, load)
	}

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// ListArtists returns all artists, newest first. The list is small and
// changes rarely, so it is read straight from the database.
func (s *Service) ListArtists(ctx context.Context) ([]domain.Artist, error) {
	const op = "service.catalog.ListArtists"

	artists, err := s.store.Artists().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return artists, nil
}

// GetArtistBySlug returns one artist profile.
//
// Returns:
//   - error: catalog.ErrArtistNotFound for unknown slugs.
func (s *Service) GetArtistBySlug(ctx context.Context, slug string) (*domain.Artist, error) {
	const op = "service.catalog.GetArtistBySlug"

	artist, err := s.store.Artists().GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrArtistNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return artist, nil
}
