// Package registry defines the asset registry the marketplace consults for
// ownership and transfer authorization, and an in-memory collection used for
// development and tests.
package registry

import (
	"context"
	"errors"
)

var (
	// ErrAssetNotFound is returned when the token has not been minted.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrNotTokenOwner is returned when a transfer names a from address that does not own the token.
	ErrNotTokenOwner = errors.New("from is not the token owner")
	// ErrTransferNotAuthorized is returned when the caller may not move the token.
	ErrTransferNotAuthorized = errors.New("caller is not owner nor approved")
	// ErrInvalidRecipient is returned for empty recipients.
	ErrInvalidRecipient = errors.New("invalid recipient")
)

// Registry is the view of the asset registry available to the marketplace.
// TransferOwnership is performed on behalf of the identity the Registry is bound to.
type Registry interface {
	OwnerOf(ctx context.Context, collection string, tokenID int64) (string, error)
	IsApprovedForTransferBy(ctx context.Context, collection string, tokenID int64, operator string) (bool, error)
	TransferOwnership(ctx context.Context, collection string, tokenID int64, from, to string) error
}

// Compensator is implemented by registries that can undo a TransferOwnership
// when the surrounding purchase fails to commit. RevertTransfer moves the token
// from to back to from and restores the bound identity's authority over it.
type Compensator interface {
	RevertTransfer(ctx context.Context, collection string, tokenID int64, from, to string) error
}
