package proceeds

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/nft-bazaar/bazaar/internal/ledger"
	"github.com/nft-bazaar/bazaar/internal/logging"
	"github.com/nft-bazaar/bazaar/internal/market"
	"github.com/nft-bazaar/bazaar/internal/payout"
	"github.com/nft-bazaar/bazaar/internal/registry"
)

type recordingPayer struct {
	paid []payout.Payment
	err  error
}

func (p *recordingPayer) Pay(_ context.Context, payment payout.Payment) (payout.Receipt, error) {
	if p.err != nil {
		return payout.Receipt{}, p.err
	}
	p.paid = append(p.paid, payment)
	return payout.Receipt{Reference: "ref-1", Status: payout.StatusSettled}, nil
}

func TestWithdrawWithoutProceeds(t *testing.T) {
	store := ledger.NewInMemory()
	payer := &recordingPayer{}
	svc := NewService(store, payer, logging.Discard())

	if _, err := svc.Withdraw(context.Background(), "0xalice"); !errors.Is(err, ErrNoProceeds) {
		t.Fatalf("expected no proceeds, got %v", err)
	}
	if len(payer.paid) != 0 {
		t.Fatalf("expected no payout, got %+v", payer.paid)
	}
}

func TestWithdrawPaysFullBalanceOnce(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewInMemory()
	payer := &recordingPayer{}
	svc := NewService(store, payer, logging.Discard())
	ledger.SeedProceeds(store, "0xalice", 1_250)

	w, err := svc.Withdraw(ctx, "0xalice")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if w.Amount != 1_250 || w.Reference != "ref-1" {
		t.Fatalf("unexpected withdrawal: %+v", w)
	}
	if len(payer.paid) != 1 || payer.paid[0] != (payout.Payment{To: "0xalice", Amount: 1_250}) {
		t.Fatalf("unexpected payouts: %+v", payer.paid)
	}

	bal, err := svc.Balance(ctx, "0xalice")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.Amount != 0 {
		t.Fatalf("expected zero balance, got %d", bal.Amount)
	}

	if _, err := svc.Withdraw(ctx, "0xalice"); !errors.Is(err, ErrNoProceeds) {
		t.Fatalf("expected no proceeds on second withdraw, got %v", err)
	}
	if len(payer.paid) != 1 {
		t.Fatalf("expected a single payout, got %d", len(payer.paid))
	}
}

func TestWithdrawPayoutFailureRestoresBalance(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewInMemory()
	svc := NewService(store, &recordingPayer{err: errors.New("rail down")}, logging.Discard())
	ledger.SeedProceeds(store, "0xalice", 900)

	if _, err := svc.Withdraw(ctx, "0xalice"); !errors.Is(err, ErrPayoutFailed) {
		t.Fatalf("expected payout failure, got %v", err)
	}
	bal, _ := svc.Balance(ctx, "0xalice")
	if bal.Amount != 900 {
		t.Fatalf("expected balance restored to 900, got %d", bal.Amount)
	}
}

func TestWithdrawReentrantPayerIsRejected(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewInMemory()
	ledger.SeedProceeds(store, "0xalice", 500)

	var svc *Service
	var seen int64 = -1
	var reentryErr error
	payer := payout.PayerFunc(func(ctx context.Context, payment payout.Payment) (payout.Receipt, error) {
		bal, _ := svc.Balance(ctx, payment.To)
		seen = bal.Amount
		_, reentryErr = svc.Withdraw(ctx, payment.To)
		return payout.Receipt{Reference: "ref"}, nil
	})
	svc = NewService(store, payer, logging.Discard())

	w, err := svc.Withdraw(ctx, "0xalice")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if w.Amount != 500 {
		t.Fatalf("expected 500 withdrawn, got %d", w.Amount)
	}
	if seen != 0 {
		t.Fatalf("balance must be zero before payout runs, saw %d", seen)
	}
	if !errors.Is(reentryErr, ledger.ErrReentrantCall) {
		t.Fatalf("expected reentrant call error, got %v", reentryErr)
	}
}

// TestProceedsConservation drives random marketplace traffic and checks that
// outstanding proceeds always equal the value paid in minus the value paid out.
func TestProceedsConservation(t *testing.T) {
	ctx := context.Background()
	const operator = "bazaar"
	const collection = "dogs"
	people := []string{"0xa", "0xb", "0xc", "0xd"}

	store := ledger.NewInMemory()
	reg := registry.NewMemory()
	markets := market.NewService(store, reg.As(operator), nil, operator, logging.Discard())
	payer := &recordingPayer{}
	svc := NewService(store, payer, logging.Discard())

	var tokens []int64
	for i := 0; i < 6; i++ {
		owner := people[i%len(people)]
		id, err := reg.Mint(ctx, collection, owner)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		if err := reg.SetApprovalForAll(ctx, collection, owner, operator, true); err != nil {
			t.Fatalf("approve: %v", err)
		}
		tokens = append(tokens, id)
	}

	rng := rand.New(rand.NewSource(7))
	var paidIn, paidOut int64
	for step := 0; step < 2_000; step++ {
		who := people[rng.Intn(len(people))]
		tokenID := tokens[rng.Intn(len(tokens))]
		amount := int64(rng.Intn(50))

		switch rng.Intn(5) {
		case 0:
			owner, _ := reg.OwnerOf(ctx, collection, tokenID)
			if err := reg.SetApprovalForAll(ctx, collection, owner, operator, true); err != nil {
				t.Fatalf("approve: %v", err)
			}
			_, _ = markets.ListItem(ctx, market.ListInput{Collection: collection, TokenID: tokenID, Price: amount, Caller: owner})
		case 1:
			_, _ = markets.UpdateListing(ctx, market.UpdateInput{Collection: collection, TokenID: tokenID, NewPrice: amount, Caller: who})
		case 2:
			_ = markets.CancelItem(ctx, market.CancelInput{Collection: collection, TokenID: tokenID, Caller: who})
		case 3:
			if _, err := markets.BuyItem(ctx, market.BuyInput{Collection: collection, TokenID: tokenID, Paid: amount, Buyer: who}); err == nil {
				paidIn += amount
			}
		case 4:
			if w, err := svc.Withdraw(ctx, who); err == nil {
				paidOut += w.Amount
			}
		}

		var outstanding int64
		for _, p := range people {
			bal, err := store.Proceeds(ctx, p)
			if err != nil {
				t.Fatalf("proceeds: %v", err)
			}
			if bal < 0 {
				t.Fatalf("negative balance for %s: %d", p, bal)
			}
			outstanding += bal
		}
		if outstanding != paidIn-paidOut {
			t.Fatalf("step %d: outstanding %d != paid in %d - paid out %d", step, outstanding, paidIn, paidOut)
		}
	}
}
