package ledger

import (
	"context"
	"errors"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// advisoryLockKey is the transaction-scoped advisory lock every unit of work
// takes first, so units of work are totally ordered across processes.
const advisoryLockKey int64 = 0x6d61726b6574 // "market"

// PostgresStore persists listings and proceeds in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// WithinTx runs fn inside a database transaction that holds the marketplace
// advisory lock. The transaction commits only if fn returns nil. A commit
// failure is returned as is; work fn did outside the transaction is not undone.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if InTx(ctx) {
		return ErrReentrantCall
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryLockKey); err != nil {
		return err
	}

	pgTx := &postgresTx{tx: tx}
	if err := fn(withActiveTx(ctx, s, pgTx), pgTx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Listing returns the active listing for key, if any.
func (s *PostgresStore) Listing(ctx context.Context, key AssetKey) (Listing, bool, error) {
	if tx, ok := activeTxFor(ctx, s); ok {
		return tx.Listing(ctx, key)
	}
	return queryListing(ctx, s.db, key)
}

// Proceeds returns the withdrawable balance of seller.
func (s *PostgresStore) Proceeds(ctx context.Context, seller string) (int64, error) {
	if tx, ok := activeTxFor(ctx, s); ok {
		return tx.Proceeds(ctx, seller)
	}
	return queryProceeds(ctx, s.db, seller, false)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func queryListing(ctx context.Context, q querier, key AssetKey) (Listing, bool, error) {
	const query = `SELECT seller, price FROM listings WHERE collection = $1 AND token_id = $2`
	var listing Listing
	if err := q.QueryRow(ctx, query, key.Collection, key.TokenID).Scan(&listing.Seller, &listing.Price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Listing{}, false, nil
		}
		return Listing{}, false, err
	}
	return listing, true, nil
}

func queryProceeds(ctx context.Context, q querier, seller string, forUpdate bool) (int64, error) {
	query := `SELECT amount FROM proceeds WHERE seller = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var amount int64
	if err := q.QueryRow(ctx, query, seller).Scan(&amount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return amount, nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Listing(ctx context.Context, key AssetKey) (Listing, bool, error) {
	return queryListing(ctx, t.tx, key)
}

func (t *postgresTx) PutListing(ctx context.Context, key AssetKey, listing Listing) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO listings (collection, token_id, seller, price, updated_at)
        VALUES ($1, $2, $3, $4, now())
        ON CONFLICT (collection, token_id) DO UPDATE SET seller = EXCLUDED.seller, price = EXCLUDED.price, updated_at = now()`,
		key.Collection, key.TokenID, listing.Seller, listing.Price)
	return err
}

func (t *postgresTx) DeleteListing(ctx context.Context, key AssetKey) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM listings WHERE collection = $1 AND token_id = $2`, key.Collection, key.TokenID)
	return err
}

func (t *postgresTx) Proceeds(ctx context.Context, seller string) (int64, error) {
	return queryProceeds(ctx, t.tx, seller, false)
}

func (t *postgresTx) Credit(ctx context.Context, seller string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	balance, err := queryProceeds(ctx, t.tx, seller, true)
	if err != nil {
		return 0, err
	}
	if balance > math.MaxInt64-amount {
		return 0, ErrBalanceOverflow
	}
	balance += amount
	if _, err := t.tx.Exec(ctx, `INSERT INTO proceeds (seller, amount) VALUES ($1, $2)
        ON CONFLICT (seller) DO UPDATE SET amount = EXCLUDED.amount`, seller, balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func (t *postgresTx) ClearProceeds(ctx context.Context, seller string) (int64, error) {
	balance, err := queryProceeds(ctx, t.tx, seller, true)
	if err != nil {
		return 0, err
	}
	if balance == 0 {
		return 0, nil
	}
	if _, err := t.tx.Exec(ctx, `UPDATE proceeds SET amount = 0 WHERE seller = $1`, seller); err != nil {
		return 0, err
	}
	return balance, nil
}
