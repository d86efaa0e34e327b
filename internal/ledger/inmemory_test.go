package ledger

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

var testKey = AssetKey{Collection: "dogs", TokenID: 0}

func TestInMemoryStore_CommitKeepsWrites(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.PutListing(ctx, testKey, Listing{Seller: "alice", Price: 100}); err != nil {
			return err
		}
		_, err := tx.Credit(ctx, "alice", 250)
		return err
	})
	if err != nil {
		t.Fatalf("within tx: %v", err)
	}

	listing, ok, err := s.Listing(ctx, testKey)
	if err != nil || !ok {
		t.Fatalf("expected listing, ok=%v err=%v", ok, err)
	}
	if listing.Seller != "alice" || listing.Price != 100 {
		t.Fatalf("unexpected listing: %+v", listing)
	}
	if bal, _ := s.Proceeds(ctx, "alice"); bal != 250 {
		t.Fatalf("expected proceeds 250, got %d", bal)
	}
}

func TestInMemoryStore_RollbackRestoresState(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	SeedListing(s, testKey, Listing{Seller: "alice", Price: 100})
	SeedProceeds(s, "alice", 40)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.DeleteListing(ctx, testKey); err != nil {
			return err
		}
		if _, err := tx.Credit(ctx, "alice", 100); err != nil {
			return err
		}
		if _, err := tx.ClearProceeds(ctx, "alice"); err != nil {
			return err
		}
		if _, err := tx.Credit(ctx, "bob", 5); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	listing, ok, _ := s.Listing(ctx, testKey)
	if !ok || listing.Price != 100 || listing.Seller != "alice" {
		t.Fatalf("listing not restored: ok=%v %+v", ok, listing)
	}
	if bal, _ := s.Proceeds(ctx, "alice"); bal != 40 {
		t.Fatalf("expected alice proceeds 40, got %d", bal)
	}
	if bal, _ := s.Proceeds(ctx, "bob"); bal != 0 {
		t.Fatalf("expected bob proceeds 0, got %d", bal)
	}
}

func TestInMemoryStore_ReadsInsideTxSeeUncommittedWrites(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	SeedListing(s, testKey, Listing{Seller: "alice", Price: 100})

	err := s.WithinTx(ctx, func(txCtx context.Context, tx Tx) error {
		if err := tx.DeleteListing(txCtx, testKey); err != nil {
			return err
		}
		if _, ok, _ := s.Listing(txCtx, testKey); ok {
			t.Errorf("expected listing to be gone inside tx")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("within tx: %v", err)
	}
}

func TestInMemoryStore_RejectsReentrantTx(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	err := s.WithinTx(ctx, func(txCtx context.Context, _ Tx) error {
		return s.WithinTx(txCtx, func(context.Context, Tx) error { return nil })
	})
	if !errors.Is(err, ErrReentrantCall) {
		t.Fatalf("expected reentrant error, got %v", err)
	}
}

func TestInMemoryStore_RejectsReentrantTxOnDerivedContext(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	err := s.WithinTx(ctx, func(txCtx context.Context, _ Tx) error {
		derived, cancel := context.WithTimeout(txCtx, time.Second)
		defer cancel()
		return s.WithinTx(derived, func(context.Context, Tx) error { return nil })
	})
	if !errors.Is(err, ErrReentrantCall) {
		t.Fatalf("expected reentrant error, got %v", err)
	}
}

func TestInMemoryStore_CreditOverflow(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	SeedProceeds(s, "alice", math.MaxInt64-10)

	err := s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		_, err := tx.Credit(ctx, "alice", 11)
		return err
	})
	if !errors.Is(err, ErrBalanceOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if bal, _ := s.Proceeds(ctx, "alice"); bal != math.MaxInt64-10 {
		t.Fatalf("balance changed after overflow: %d", bal)
	}
}

func TestInMemoryStore_ClearProceedsReturnsPrevious(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	SeedProceeds(s, "alice", 700)

	var cleared int64
	err := s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		cleared, err = tx.ClearProceeds(ctx, "alice")
		return err
	})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared != 700 {
		t.Fatalf("expected 700 cleared, got %d", cleared)
	}
	if bal, _ := s.Proceeds(ctx, "alice"); bal != 0 {
		t.Fatalf("expected zero balance, got %d", bal)
	}
}

func TestInMemoryStore_ConcurrentCredits(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	const workers = 20
	const amount = int64(500)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
				_, err := tx.Credit(ctx, "alice", amount)
				return err
			})
			if err != nil {
				t.Errorf("credit %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if bal, _ := s.Proceeds(ctx, "alice"); bal != workers*amount {
		t.Fatalf("expected %d, got %d", workers*amount, bal)
	}
}
