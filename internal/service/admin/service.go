package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/kohakume/livegate/internal/domain"
	"github.com/kohakume/livegate/internal/repository"
	postgresrepo "github.com/kohakume/livegate/internal/repository/postgres"
	redisrepo "github.com/kohakume/livegate/internal/repository/redis"
	"github.com/kohakume/livegate/internal/uow"
)

// Actor is the authenticated back-office account performing an operation.
// Artist-scoped admins may only touch their own artist's events.
type Actor struct {
	AdminID  int64
	Role     domain.AdminRole
	ArtistID *int64
}

func (a Actor) canManageArtist(artistID int64) bool {
	if a.Role == domain.RoleSuperAdmin {
		return true
	}

	return a.ArtistID != nil && *a.ArtistID == artistID
}

type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	uow   *uow.UoW
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache) *Service {
	return &Service{
		store: store,
		cache: cache,
		uow:   uow.NewUoW(store),
	}
}

// CreateEvent creates an event in the actor's artist scope.
//
// Returns:
//   - int64: the created event id.
//   - error: admin.ErrSlugConflict if the slug is already taken.
//   - error: admin.ErrForbidden if the actor cannot manage the artist.
func (s *Service) CreateEvent(ctx context.Context, actor Actor, e *domain.Event) (int64, error) {
	const op = "service.admin.CreateEvent"

	if !actor.canManageArtist(e.ArtistID) {
		return 0, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	var id int64
	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		var err error
		id, err = s.store.Events().With(tx).Insert(ctx, e)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrSlugConflict)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateCatalog(ctx, e.Slug)
		})
		return nil
	})

	return id, err
}

// UpdateEvent rewrites an event. When the slug changes, both the old and
// the new catalog entries are invalidated.
//
// Returns:
//   - error: admin.ErrEventNotFound if the event does not exist.
//   - error: admin.ErrSlugConflict if the new slug is already taken.
//   - error: admin.ErrForbidden if the actor cannot manage the artist.
func (s *Service) UpdateEvent(ctx context.Context, actor Actor, e *domain.Event) error {
	const op = "service.admin.UpdateEvent"

	return s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		current, err := s.store.Events().With(tx).GetByID(ctx, e.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEventNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if !actor.canManageArtist(current.ArtistID) {
			return fmt.Errorf("%s: %w", op, ErrForbidden)
		}

		if err := s.store.Events().With(tx).Update(ctx, e); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEventNotFound)
			}
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrSlugConflict)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		oldSlug := current.Slug
		after(func(ctx context.Context) {
			_ = s.cache.InvalidateCatalog(ctx, oldSlug)
			if e.Slug != oldSlug {
				_ = s.cache.InvalidateCatalog(ctx, e.Slug)
			}
		})
		return nil
	})
}

// CreateTicket adds a ticket to an event in the actor's scope.
//
// Returns:
//   - int64: the created ticket id.
func (s *Service) CreateTicket(ctx context.Context, actor Actor, t *domain.Ticket) (int64, error) {
	const op = "service.admin.CreateTicket"

	var id int64
	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		event, err := s.store.Events().With(tx).GetByID(ctx, t.EventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEventNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if !actor.canManageArtist(event.ArtistID) {
			return fmt.Errorf("%s: %w", op, ErrForbidden)
		}

		id, err = s.store.Tickets().With(tx).Insert(ctx, t)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		slug := event.Slug
		after(func(ctx context.Context) {
			_ = s.cache.InvalidateCatalog(ctx, slug)
		})
		return nil
	})

	return id, err
}

// UpdateTicket rewrites a ticket's mutable fields. The sold counter is
// untouched.
func (s *Service) UpdateTicket(ctx context.Context, actor Actor, t *domain.Ticket) error {
	const op = "service.admin.UpdateTicket"

	return s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		event, err := s.store.Events().With(tx).GetByID(ctx, t.EventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEventNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if !actor.canManageArtist(event.ArtistID) {
			return fmt.Errorf("%s: %w", op, ErrForbidden)
		}

		if err := s.store.Tickets().With(tx).Update(ctx, t); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrTicketNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		slug := event.Slug
		after(func(ctx context.Context) {
			_ = s.cache.InvalidateCatalog(ctx, slug)
		})
		return nil
	})
}

// ListPurchases lists recent purchases for back-office screens.
func (s *Service) ListPurchases(ctx context.Context, limit, offset int) ([]domain.PurchaseWithDetails, error) {
	const op = "service.admin.ListPurchases"

	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	out, err := s.store.Purchases().ListAll(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
