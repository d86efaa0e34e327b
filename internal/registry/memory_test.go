package registry

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryMintAssignsSequentialIDs(t *testing.T) {
	reg := NewMemory()
	ctx := context.Background()

	for want := int64(0); want < 3; want++ {
		id, err := reg.Mint(ctx, "dogs", "alice")
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		if id != want {
			t.Fatalf("expected id %d got %d", want, id)
		}
	}
	if id, _ := reg.Mint(ctx, "cats", "bob"); id != 0 {
		t.Fatalf("expected ids per collection, got %d", id)
	}
	if _, err := reg.Mint(ctx, "dogs", ""); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}
}

func TestMemoryApproveAndTransfer(t *testing.T) {
	reg := NewMemory()
	ctx := context.Background()
	id, _ := reg.Mint(ctx, "dogs", "alice")

	if err := reg.Approve(ctx, "dogs", id, "mallory", "mallory"); !errors.Is(err, ErrTransferNotAuthorized) {
		t.Fatalf("expected non-owner approve to fail, got %v", err)
	}
	if err := reg.Approve(ctx, "dogs", id, "alice", "market"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	ok, err := reg.IsApprovedForTransferBy(ctx, "dogs", id, "market")
	if err != nil || !ok {
		t.Fatalf("expected market approved, ok=%v err=%v", ok, err)
	}

	market := reg.As("market")
	if err := market.TransferOwnership(ctx, "dogs", id, "bob", "carol"); !errors.Is(err, ErrNotTokenOwner) {
		t.Fatalf("expected wrong-from transfer to fail, got %v", err)
	}
	if err := market.TransferOwnership(ctx, "dogs", id, "alice", "bob"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if owner, _ := reg.OwnerOf(ctx, "dogs", id); owner != "bob" {
		t.Fatalf("expected bob to own token, got %q", owner)
	}
	if ok, _ := reg.IsApprovedForTransferBy(ctx, "dogs", id, "market"); ok {
		t.Fatalf("expected approval cleared by transfer")
	}
	if err := market.TransferOwnership(ctx, "dogs", id, "bob", "alice"); !errors.Is(err, ErrTransferNotAuthorized) {
		t.Fatalf("expected unapproved transfer to fail, got %v", err)
	}
}

func TestMemoryOperatorApproval(t *testing.T) {
	reg := NewMemory()
	ctx := context.Background()
	first, _ := reg.Mint(ctx, "dogs", "alice")
	second, _ := reg.Mint(ctx, "dogs", "alice")

	if err := reg.SetApprovalForAll(ctx, "dogs", "alice", "alice", true); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("expected self-operator to fail, got %v", err)
	}
	if err := reg.SetApprovalForAll(ctx, "dogs", "alice", "market", true); err != nil {
		t.Fatalf("set operator: %v", err)
	}
	for _, id := range []int64{first, second} {
		if ok, _ := reg.IsApprovedForTransferBy(ctx, "dogs", id, "market"); !ok {
			t.Fatalf("expected operator approval for token %d", id)
		}
	}
	if err := reg.Approve(ctx, "dogs", first, "market", "carol"); err != nil {
		t.Fatalf("operator should be able to approve: %v", err)
	}

	if err := reg.SetApprovalForAll(ctx, "dogs", "alice", "market", false); err != nil {
		t.Fatalf("revoke operator: %v", err)
	}
	if ok, _ := reg.IsApprovedForTransferBy(ctx, "dogs", second, "market"); ok {
		t.Fatalf("expected operator approval revoked")
	}
}

func TestMemoryUnknownAsset(t *testing.T) {
	reg := NewMemory()
	ctx := context.Background()
	if _, err := reg.OwnerOf(ctx, "dogs", 7); !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
	if _, err := reg.IsApprovedForTransferBy(ctx, "dogs", 7, "market"); !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestBoundMemoryRevertTransfer(t *testing.T) {
	reg := NewMemory()
	ctx := context.Background()
	id, _ := reg.Mint(ctx, "dogs", "alice")
	if err := reg.Approve(ctx, "dogs", id, "alice", "market"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	market := reg.As("market")
	if err := market.TransferOwnership(ctx, "dogs", id, "alice", "bob"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	compensator, ok := market.(Compensator)
	if !ok {
		t.Fatalf("bound registry should support reverting transfers")
	}
	if err := compensator.RevertTransfer(ctx, "dogs", id, "alice", "carol"); !errors.Is(err, ErrNotTokenOwner) {
		t.Fatalf("expected revert from non-owner to fail, got %v", err)
	}
	if err := compensator.RevertTransfer(ctx, "dogs", id, "alice", "bob"); err != nil {
		t.Fatalf("revert: %v", err)
	}
	if owner, _ := reg.OwnerOf(ctx, "dogs", id); owner != "alice" {
		t.Fatalf("expected alice to own token again, got %q", owner)
	}
	if ok, _ := reg.IsApprovedForTransferBy(ctx, "dogs", id, "market"); !ok {
		t.Fatalf("expected market approval restored")
	}
}
