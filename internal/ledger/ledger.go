package ledger

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrReentrantCall is returned when a collaborator invoked from inside a unit
	// of work tries to open another unit of work on the same store.
	ErrReentrantCall = errors.New("reentrant ledger call")

	// ErrBalanceOverflow signals that crediting proceeds would exceed the
	// representable balance. It is an invariant violation and aborts the
	// enclosing unit of work.
	ErrBalanceOverflow = errors.New("proceeds balance overflow")

	// ErrInvalidAmount is returned for negative credits.
	ErrInvalidAmount = errors.New("amount must not be negative")
)

// AssetKey identifies one asset: the collection it belongs to and its token id.
type AssetKey struct {
	Collection string
	TokenID    int64
}

func (k AssetKey) String() string {
	return fmt.Sprintf("%s/%d", k.Collection, k.TokenID)
}

// Listing is an active offer to sell one asset at a fixed price.
type Listing struct {
	Seller string
	Price  int64
}

// Tx exposes ledger state inside a unit of work. Writes made through a Tx are
// discarded when the unit of work returns an error.
type Tx interface {
	Listing(ctx context.Context, key AssetKey) (Listing, bool, error)
	PutListing(ctx context.Context, key AssetKey, listing Listing) error
	DeleteListing(ctx context.Context, key AssetKey) error
	Proceeds(ctx context.Context, seller string) (int64, error)
	// Credit adds amount to the seller's proceeds and returns the new balance.
	Credit(ctx context.Context, seller string, amount int64) (int64, error)
	// ClearProceeds zeroes the seller's proceeds and returns the previous balance.
	ClearProceeds(ctx context.Context, seller string) (int64, error)
}

// Store defines the contract implemented by ledger backends (in-memory, Postgres).
//
// WithinTx runs fn as one indivisible unit: units of work never interleave, and
// fn's writes are all kept when it returns nil or all rolled back otherwise.
// Reads made with a context handed out by WithinTx observe the writes made so
// far by that unit of work.
//
// Reentrancy is detected through the context: a WithinTx call on a context
// derived from one handed out by WithinTx returns ErrReentrantCall. A
// collaborator that calls back on an unrelated context (context.Background)
// is not recognised and blocks until the outer unit of work finishes, which
// never happens for the in-memory store. Collaborators must propagate the
// context they are given.
//
// Only ledger writes are rolled back. Effects a collaborator makes outside the
// store, such as a registry transfer, survive a failed commit and must be
// compensated by the caller.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Listing(ctx context.Context, key AssetKey) (Listing, bool, error)
	Proceeds(ctx context.Context, seller string) (int64, error)
}

type activeTxKey struct{}

type activeTx struct {
	store Store
	tx    Tx
}

func withActiveTx(ctx context.Context, store Store, tx Tx) context.Context {
	return context.WithValue(ctx, activeTxKey{}, activeTx{store: store, tx: tx})
}

// activeTxFor returns the open unit of work of store carried by ctx, if any.
func activeTxFor(ctx context.Context, store Store) (Tx, bool) {
	active, ok := ctx.Value(activeTxKey{}).(activeTx)
	if !ok || active.store != store {
		return nil, false
	}
	return active.tx, true
}

// InTx reports whether ctx belongs to an open unit of work of any store.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(activeTxKey{}).(activeTx)
	return ok
}
