package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kohakume/livegate/internal/domain"
	"github.com/kohakume/livegate/internal/repository"
	"github.com/kohakume/livegate/internal/token"
)

// Verifier checks access-token signature, expiry and scope.
type Verifier interface {
	VerifyAccess(tokenStr string) (*token.AccessClaims, error)
}

// EventGetter resolves the event a viewer is asking to watch.
type EventGetter interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Event, error)
}

// PurchaseGetter loads a purchase only when both id and stored token match.
type PurchaseGetter interface {
	GetByIDAndToken(ctx context.Context, id int64, tokenStr string) (*domain.Purchase, error)
}

// URLSigner signs playback URLs for the CDN. Optional.
type URLSigner interface {
	SignURL(rawURL string, ttl time.Duration) (string, error)
}

// Grant is a successful access decision: the playback URL the viewer may
// use plus the context the player page renders.
type Grant struct {
	Event     *domain.Event
	Purchase  *domain.Purchase
	StreamURL string
	ExpiresAt time.Time
}

type Service struct {
	verifier  Verifier
	events    EventGetter
	purchases PurchaseGetter
	signer    URLSigner
	signTTL   time.Duration
	log       *slog.Logger
}

func New(
	verifier Verifier,
	events EventGetter,
	purchases PurchaseGetter,
	signer URLSigner,
	signTTL time.Duration,
	log *slog.Logger,
) *Service {
	if signTTL <= 0 {
		signTTL = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		verifier:  verifier,
		events:    events,
		purchases: purchases,
		signer:    signer,
		signTTL:   signTTL,
		log:       log,
	}
}

// Authorize decides whether tokenStr unlocks the event at slug and, when it
// does, which playback URL to hand out.
//
// The token must verify, name this exact event, and match a stored purchase
// row that is still in completed status. A refunded purchase keeps its
// syntactically valid token but is denied here permanently.
//
// Returns:
//   - error: access.ErrTokenExpired, ErrInvalidToken, ErrEventNotFound,
//     ErrEventMismatch, ErrPurchaseNotFound, ErrPurchaseNotCompleted or
//     ErrContentUnavailable.
func (s *Service) Authorize(ctx context.Context, slug, tokenStr string) (*Grant, error) {
	const op = "service.access.Authorize"

	event, purchase, claims, err := s.check(ctx, slug, tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	rawURL := ResolveStreamURL(event)
	if rawURL == "" {
		return nil, fmt.Errorf("%s:%w", op, ErrContentUnavailable)
	}

	streamURL := rawURL
	if s.signer != nil {
		signed, err := s.signer.SignURL(rawURL, s.signTTL)
		if err != nil {
			// Serve the unsigned URL rather than lock out a paying viewer.
			s.log.Warn("stream url signing failed", "event_id", event.ID, "error", err)
		} else {
			streamURL = signed
		}
	}

	return &Grant{
		Event:     event,
		Purchase:  purchase,
		StreamURL: streamURL,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify runs the same access decision as Authorize but stops before URL
// resolution. Player pages call it to validate a stored token without
// consuming a playback URL.
func (s *Service) Verify(ctx context.Context, slug, tokenStr string) (*domain.Event, error) {
	const op = "service.access.Verify"

	event, _, _, err := s.check(ctx, slug, tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return event, nil
}

// check is the shared decision chain: token, event, event/token match,
// purchase row, purchase status. It returns bare sentinels; callers wrap
// with their own op.
func (s *Service) check(ctx context.Context, slug, tokenStr string) (*domain.Event, *domain.Purchase, *token.AccessClaims, error) {
	claims, err := s.verifier.VerifyAccess(tokenStr)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, nil, nil, ErrTokenExpired
		}
		return nil, nil, nil, ErrInvalidToken
	}

	event, err := s.events.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, nil, ErrEventNotFound
		}
		return nil, nil, nil, err
	}

	if claims.EventID != event.ID {
		return nil, nil, nil, ErrEventMismatch
	}

	purchase, err := s.purchases.GetByIDAndToken(ctx, claims.PurchaseID, tokenStr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, nil, ErrPurchaseNotFound
		}
		return nil, nil, nil, err
	}

	if purchase.Status != domain.PurchaseCompleted {
		return nil, nil, nil, ErrPurchaseNotCompleted
	}

	return event, purchase, claims, nil
}

// ResolveStreamURL picks the playback URL for an event based on its status:
// running or upcoming events prefer the live stream, finished ones prefer
// the archive, and either side falls back to the other when its preferred
// URL is absent.
func ResolveStreamURL(e *domain.Event) string {
	first, second := e.StreamURL, e.ArchiveURL
	switch e.Status {
	case domain.EventArchived, domain.EventEnded:
		first, second = e.ArchiveURL, e.StreamURL
	}

	if first != nil && *first != "" {
		return *first
	}
	if second != nil && *second != "" {
		return *second
	}

	return ""
}
