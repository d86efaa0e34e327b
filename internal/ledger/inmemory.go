package ledger

import (
	"context"
	"math"
	"sync"
)

type inMemoryStore struct {
	mu       sync.Mutex
	listings map[AssetKey]Listing
	proceeds map[string]int64
}

// NewInMemory creates an in-memory ledger store. One mutex serializes every
// unit of work, which gives the total ordering the marketplace relies on.
func NewInMemory() Store {
	return &inMemoryStore{
		listings: make(map[AssetKey]Listing),
		proceeds: make(map[string]int64),
	}
}

func (s *inMemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if InTx(ctx) {
		return ErrReentrantCall
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &inMemoryTx{store: s}
	if err := fn(withActiveTx(ctx, s, tx), tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *inMemoryStore) Listing(ctx context.Context, key AssetKey) (Listing, bool, error) {
	if tx, ok := activeTxFor(ctx, s); ok {
		return tx.Listing(ctx, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[key]
	return listing, ok, nil
}

func (s *inMemoryStore) Proceeds(ctx context.Context, seller string) (int64, error) {
	if tx, ok := activeTxFor(ctx, s); ok {
		return tx.Proceeds(ctx, seller)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proceeds[seller], nil
}

// inMemoryTx mutates the store directly and journals the inverse of every
// write so a failed unit of work can be undone. The store mutex is held for
// the whole lifetime of the tx.
type inMemoryTx struct {
	store *inMemoryStore
	undo  []func()
}

func (t *inMemoryTx) Listing(_ context.Context, key AssetKey) (Listing, bool, error) {
	listing, ok := t.store.listings[key]
	return listing, ok, nil
}

func (t *inMemoryTx) PutListing(_ context.Context, key AssetKey, listing Listing) error {
	t.journalListing(key)
	t.store.listings[key] = listing
	return nil
}

func (t *inMemoryTx) DeleteListing(_ context.Context, key AssetKey) error {
	t.journalListing(key)
	delete(t.store.listings, key)
	return nil
}

func (t *inMemoryTx) Proceeds(_ context.Context, seller string) (int64, error) {
	return t.store.proceeds[seller], nil
}

func (t *inMemoryTx) Credit(_ context.Context, seller string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	balance := t.store.proceeds[seller]
	if balance > math.MaxInt64-amount {
		return 0, ErrBalanceOverflow
	}
	t.journalProceeds(seller)
	balance += amount
	t.store.proceeds[seller] = balance
	return balance, nil
}

func (t *inMemoryTx) ClearProceeds(_ context.Context, seller string) (int64, error) {
	balance, ok := t.store.proceeds[seller]
	if !ok {
		return 0, nil
	}
	t.journalProceeds(seller)
	delete(t.store.proceeds, seller)
	return balance, nil
}

func (t *inMemoryTx) journalListing(key AssetKey) {
	prev, had := t.store.listings[key]
	t.undo = append(t.undo, func() {
		if had {
			t.store.listings[key] = prev
		} else {
			delete(t.store.listings, key)
		}
	})
}

func (t *inMemoryTx) journalProceeds(seller string) {
	prev, had := t.store.proceeds[seller]
	t.undo = append(t.undo, func() {
		if had {
			t.store.proceeds[seller] = prev
		} else {
			delete(t.store.proceeds, seller)
		}
	})
}

func (t *inMemoryTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}
