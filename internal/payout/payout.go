// Package payout moves withdrawn proceeds out of the marketplace.
package payout

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// StatusSettled marks a payout the rail has accepted.
const StatusSettled = "settled"

// ErrInvalidPayment is returned for empty recipients or non-positive amounts.
var ErrInvalidPayment = errors.New("invalid payment")

// Payment is a value transfer to a recipient, in base units.
type Payment struct {
	To     string
	Amount int64
}

// Receipt captures the rail's answer for an accepted payment.
type Receipt struct {
	Reference string
	Status    string
}

// Payer represents the rail that transfers value to a participant. A returned
// error means no value left the marketplace.
type Payer interface {
	Pay(ctx context.Context, payment Payment) (Receipt, error)
}

// StaticPayer simulates a rail that accepts every valid payment.
type StaticPayer struct {
	Logger *slog.Logger
}

// Pay accepts the payment with a synthetic reference.
func (p StaticPayer) Pay(_ context.Context, payment Payment) (Receipt, error) {
	if payment.To == "" || payment.Amount <= 0 {
		return Receipt{}, ErrInvalidPayment
	}
	receipt := Receipt{Reference: uuid.NewString(), Status: StatusSettled}
	if p.Logger != nil {
		p.Logger.Info("payout settled",
			slog.String("to", payment.To),
			slog.Int64("amount", payment.Amount),
			slog.String("reference", receipt.Reference),
		)
	}
	return receipt, nil
}

// PayerFunc adapts a function to the Payer interface.
type PayerFunc func(ctx context.Context, payment Payment) (Receipt, error)

// Pay calls f.
func (f PayerFunc) Pay(ctx context.Context, payment Payment) (Receipt, error) {
	return f(ctx, payment)
}
