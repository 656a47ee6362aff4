package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
	}
}

// txRetries bounds how many times a serialization failure (40001/40P01)
// restarts the transaction before the error is surfaced.
const txRetries = 3

func (s *Store) RunTx(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx DB) error,
) error {
	txOpts := pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	}

	if opts != nil {
		txOpts.IsoLevel = opts.IsoLevel
		txOpts.AccessMode = opts.AccessMode
		txOpts.DeferrableMode = opts.DeferrableMode
	}

	var err error
	for attempt := 0; attempt < txRetries; attempt++ {
		err = s.runTxOnce(ctx, txOpts, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
	}

	return err
}

func (s *Store) runTxOnce(
	ctx context.Context,
	txOpts pgx.TxOptions,
	fn func(ctx context.Context, tx DB) error,
) error {
	tx, err := s.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (s *Store) Events() *EventRepo       { return &EventRepo{pool: s.pool} }
func (s *Store) Artists() *ArtistRepo     { return &ArtistRepo{pool: s.pool} }
func (s *Store) Tickets() *TicketRepo     { return &TicketRepo{pool: s.pool} }
func (s *Store) Purchases() *PurchaseRepo { return &PurchaseRepo{pool: s.pool} }
func (s *Store) Users() *UserRepo         { return &UserRepo{pool: s.pool} }
func (s *Store) Admins() *AdminRepo       { return &AdminRepo{pool: s.pool} }
