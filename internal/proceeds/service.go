// Package proceeds exposes sellers' withdrawable balances and pays them out.
package proceeds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nft-bazaar/bazaar/internal/ledger"
	"github.com/nft-bazaar/bazaar/internal/payout"
)

var (
	// ErrNoProceeds is returned when withdrawing with a zero balance.
	ErrNoProceeds = errors.New("no proceeds")
	// ErrPayoutFailed wraps errors returned by the payout rail.
	ErrPayoutFailed = errors.New("payout failed")
)

// Service reads and withdraws proceeds held in the ledger store.
type Service struct {
	store  ledger.Store
	payer  payout.Payer
	logger *slog.Logger
}

// NewService builds a proceeds service. A nil payer falls back to payout.StaticPayer.
func NewService(store ledger.Store, payer payout.Payer, logger *slog.Logger) *Service {
	if payer == nil {
		payer = payout.StaticPayer{Logger: logger}
	}
	return &Service{store: store, payer: payer, logger: logger}
}

// Balance is the withdrawable amount of one identity at a point in time.
type Balance struct {
	Address string
	Amount  int64
	AsOf    time.Time
}

// Withdrawal describes a completed payout of proceeds.
type Withdrawal struct {
	Address     string
	Amount      int64
	Reference   string
	CompletedAt time.Time
}

// Balance returns the proceeds owed to address. Unknown addresses have a zero balance.
func (s *Service) Balance(ctx context.Context, address string) (Balance, error) {
	amount, err := s.store.Proceeds(ctx, address)
	if err != nil {
		return Balance{}, err
	}
	return Balance{Address: address, Amount: amount, AsOf: time.Now().UTC()}, nil
}

// Withdraw zeroes the caller's proceeds and pays out the full amount. The
// balance is cleared before the payer runs; a payout failure restores it.
func (s *Service) Withdraw(ctx context.Context, caller string) (Withdrawal, error) {
	var withdrawal Withdrawal

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		amount, err := tx.Proceeds(ctx, caller)
		if err != nil {
			return err
		}
		if amount <= 0 {
			return ErrNoProceeds
		}

		cleared, err := tx.ClearProceeds(ctx, caller)
		if err != nil {
			return err
		}

		receipt, err := s.payer.Pay(ctx, payout.Payment{To: caller, Amount: cleared})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPayoutFailed, err)
		}

		withdrawal = Withdrawal{
			Address:     caller,
			Amount:      cleared,
			Reference:   receipt.Reference,
			CompletedAt: time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return Withdrawal{}, err
	}

	s.logger.Info("proceeds withdrawn",
		slog.String("address", withdrawal.Address),
		slog.Int64("amount", withdrawal.Amount),
		slog.String("reference", withdrawal.Reference),
	)
	return withdrawal, nil
}
