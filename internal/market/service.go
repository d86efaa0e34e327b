package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nft-bazaar/bazaar/internal/ledger"
	"github.com/nft-bazaar/bazaar/internal/notification"
	"github.com/nft-bazaar/bazaar/internal/registry"
)

var (
	// ErrAlreadyListed is returned when listing an asset that already has an active listing.
	ErrAlreadyListed = errors.New("already listed")
	// ErrNotListed is returned when buying, canceling or updating an asset with no active listing.
	ErrNotListed = errors.New("not listed")
	// ErrNotOwner indicates the caller is not the asset owner (listing) or the recorded seller (cancel, update).
	ErrNotOwner = errors.New("not owner")
	// ErrPriceMustBeAboveZero is returned for non-positive prices.
	ErrPriceMustBeAboveZero = errors.New("price must be above zero")
	// ErrPriceNotMet is returned when the payment is below the listed price.
	ErrPriceNotMet = errors.New("price not met")
	// ErrNotApprovedForMarketplace indicates the owner has not authorized the marketplace to move the asset.
	ErrNotApprovedForMarketplace = errors.New("not approved for marketplace")
)

// Service runs the listing lifecycle against the ledger store and the asset registry.
type Service struct {
	store     ledger.Store
	registry  registry.Registry
	publisher notification.Publisher
	operator  string
	logger    *slog.Logger
}

// NewService builds a marketplace service. operator is the identity the
// registry must report as approved before an asset can be listed.
func NewService(store ledger.Store, reg registry.Registry, publisher notification.Publisher, operator string, logger *slog.Logger) *Service {
	operator = strings.ToLower(strings.TrimSpace(operator))
	return &Service{store: store, registry: reg, publisher: publisher, operator: operator, logger: logger}
}

// ListInput captures a request to list an asset.
type ListInput struct {
	Collection string
	TokenID    int64
	Price      int64
	Caller     string
}

// UpdateInput captures a price change on an existing listing.
type UpdateInput struct {
	Collection string
	TokenID    int64
	NewPrice   int64
	Caller     string
}

// CancelInput captures a listing cancellation.
type CancelInput struct {
	Collection string
	TokenID    int64
	Caller     string
}

// BuyInput captures a purchase. Paid is the full amount supplied by the buyer.
type BuyInput struct {
	Collection string
	TokenID    int64
	Paid       int64
	Buyer      string
}

// Purchase describes a completed sale.
type Purchase struct {
	Reference   string
	Collection  string
	TokenID     int64
	Seller      string
	Buyer       string
	ListedPrice int64
	Paid        int64
	CompletedAt time.Time
}

// ListItem creates a listing for an asset the caller owns and has approved the marketplace to move.
func (s *Service) ListItem(ctx context.Context, input ListInput) (ledger.Listing, error) {
	key := ledger.AssetKey{Collection: input.Collection, TokenID: input.TokenID}
	listing := ledger.Listing{Seller: input.Caller, Price: input.Price}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if _, listed, err := tx.Listing(ctx, key); err != nil {
			return err
		} else if listed {
			return ErrAlreadyListed
		}
		if input.Price <= 0 {
			return ErrPriceMustBeAboveZero
		}

		owner, err := s.registry.OwnerOf(ctx, input.Collection, input.TokenID)
		if err != nil {
			return fmt.Errorf("owner of %s: %w", key, err)
		}
		if owner != input.Caller {
			return ErrNotOwner
		}
		approved, err := s.registry.IsApprovedForTransferBy(ctx, input.Collection, input.TokenID, s.operator)
		if err != nil {
			return fmt.Errorf("approval of %s: %w", key, err)
		}
		if !approved {
			return ErrNotApprovedForMarketplace
		}

		return tx.PutListing(ctx, key, listing)
	})
	if err != nil {
		return ledger.Listing{}, err
	}

	s.publish(ctx, notification.Event{
		Kind:       notification.KindListed,
		Collection: input.Collection,
		TokenID:    input.TokenID,
		Seller:     listing.Seller,
		Price:      listing.Price,
	})
	return listing, nil
}

// UpdateListing changes the price of the caller's listing. Authority comes
// from the listing record, not from the registry.
func (s *Service) UpdateListing(ctx context.Context, input UpdateInput) (ledger.Listing, error) {
	key := ledger.AssetKey{Collection: input.Collection, TokenID: input.TokenID}
	var updated ledger.Listing

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		listing, listed, err := tx.Listing(ctx, key)
		if err != nil {
			return err
		}
		if !listed {
			return ErrNotListed
		}
		if listing.Seller != input.Caller {
			return ErrNotOwner
		}
		if input.NewPrice <= 0 {
			return ErrPriceMustBeAboveZero
		}
		listing.Price = input.NewPrice
		updated = listing
		return tx.PutListing(ctx, key, listing)
	})
	if err != nil {
		return ledger.Listing{}, err
	}

	s.publish(ctx, notification.Event{
		Kind:       notification.KindListed,
		Collection: input.Collection,
		TokenID:    input.TokenID,
		Seller:     updated.Seller,
		Price:      updated.Price,
	})
	return updated, nil
}

// CancelItem removes the caller's listing.
func (s *Service) CancelItem(ctx context.Context, input CancelInput) error {
	key := ledger.AssetKey{Collection: input.Collection, TokenID: input.TokenID}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		listing, listed, err := tx.Listing(ctx, key)
		if err != nil {
			return err
		}
		if !listed {
			return ErrNotListed
		}
		if listing.Seller != input.Caller {
			return ErrNotOwner
		}
		return tx.DeleteListing(ctx, key)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, notification.Event{
		Kind:       notification.KindCanceled,
		Collection: input.Collection,
		TokenID:    input.TokenID,
		Seller:     input.Caller,
	})
	return nil
}

// BuyItem sells a listed asset to the buyer. The listing is removed and the
// seller credited with the full payment before the registry transfer runs;
// if the transfer fails the whole purchase is rolled back.
func (s *Service) BuyItem(ctx context.Context, input BuyInput) (Purchase, error) {
	key := ledger.AssetKey{Collection: input.Collection, TokenID: input.TokenID}
	var purchase Purchase
	var transferredFrom string

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		listing, listed, err := tx.Listing(ctx, key)
		if err != nil {
			return err
		}
		if !listed {
			return ErrNotListed
		}
		if input.Paid < listing.Price {
			return ErrPriceNotMet
		}

		if err := tx.DeleteListing(ctx, key); err != nil {
			return err
		}
		if _, err := tx.Credit(ctx, listing.Seller, input.Paid); err != nil {
			if errors.Is(err, ledger.ErrBalanceOverflow) {
				s.logger.Error("proceeds invariant violated",
					slog.String("seller", listing.Seller),
					slog.String("asset", key.String()),
					slog.Int64("paid", input.Paid),
				)
			}
			return err
		}
		if err := s.registry.TransferOwnership(ctx, input.Collection, input.TokenID, listing.Seller, input.Buyer); err != nil {
			return fmt.Errorf("transfer %s: %w", key, err)
		}
		transferredFrom = listing.Seller

		purchase = Purchase{
			Reference:   uuid.NewString(),
			Collection:  input.Collection,
			TokenID:     input.TokenID,
			Seller:      listing.Seller,
			Buyer:       input.Buyer,
			ListedPrice: listing.Price,
			Paid:        input.Paid,
			CompletedAt: time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		if transferredFrom != "" {
			s.revertTransfer(ctx, key, transferredFrom, input.Buyer, err)
		}
		return Purchase{}, err
	}

	s.publish(ctx, notification.Event{
		Kind:       notification.KindBought,
		Collection: input.Collection,
		TokenID:    input.TokenID,
		Buyer:      input.Buyer,
		Price:      input.Paid,
	})
	return purchase, nil
}

// GetListing returns the active listing for the asset, if any.
func (s *Service) GetListing(ctx context.Context, collection string, tokenID int64) (ledger.Listing, bool, error) {
	return s.store.Listing(ctx, ledger.AssetKey{Collection: collection, TokenID: tokenID})
}

// revertTransfer moves the asset back to the seller when the unit of work
// failed to commit after the registry transfer had already happened.
func (s *Service) revertTransfer(ctx context.Context, key ledger.AssetKey, seller, buyer string, cause error) {
	attrs := []any{
		slog.String("asset", key.String()),
		slog.String("seller", seller),
		slog.String("buyer", buyer),
		slog.Any("cause", cause),
	}
	compensator, ok := s.registry.(registry.Compensator)
	if !ok {
		s.logger.Error("purchase rolled back after transfer, registry cannot revert", attrs...)
		return
	}
	if err := compensator.RevertTransfer(context.WithoutCancel(ctx), key.Collection, key.TokenID, seller, buyer); err != nil {
		s.logger.Error("revert transfer after failed purchase", append(attrs, slog.Any("error", err))...)
		return
	}
	s.logger.Warn("purchase rolled back, transfer reverted", attrs...)
}

func (s *Service) publish(ctx context.Context, event notification.Event) {
	if s.publisher == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish marketplace event",
			slog.String("kind", event.Kind),
			slog.Any("error", err),
		)
	}
}
