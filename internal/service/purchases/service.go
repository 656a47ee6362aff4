package purchases

import (
	"context"
	"errors"
	"fmt"

	"github.com/kohakume/livegate/internal/domain"
	"github.com/kohakume/livegate/internal/repository"
	postgresrepo "github.com/kohakume/livegate/internal/repository/postgres"
)

// Service serves purchase reads for logged-in users and the post-payment
// success page.
type Service struct {
	store *postgresrepo.Store
}

func New(store *postgresrepo.Store) *Service {
	return &Service{store: store}
}

// ListForUser lists the caller's purchases with event and ticket names.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]domain.PurchaseWithDetails, error) {
	const op = "service.purchases.ListForUser"

	out, err := s.store.Purchases().ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// GetBySession resolves a purchase by its checkout-session id. The success
// page polls this until the webhook has ledgered the payment.
//
// Returns:
//   - error: purchases.ErrPurchaseNotFound while the webhook has not landed
//     yet, or for a session id that never belonged to a purchase.
func (s *Service) GetBySession(ctx context.Context, sessionID string) (*domain.Purchase, error) {
	const op = "service.purchases.GetBySession"

	p, err := s.store.Purchases().GetBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrPurchaseNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return p, nil
}
