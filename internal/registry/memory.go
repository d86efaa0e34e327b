package registry

import (
	"context"
	"sync"

	"github.com/nft-bazaar/bazaar/internal/ledger"
)

type token struct {
	owner    string
	approved string
}

// Memory is a concurrency-safe in-memory asset registry with per-collection
// sequential token ids, per-token approvals and operator approvals.
type Memory struct {
	mu        sync.RWMutex
	tokens    map[ledger.AssetKey]*token
	nextID    map[string]int64
	operators map[string]map[string]map[string]bool // collection -> owner -> operator
}

// NewMemory creates an empty registry.
func NewMemory() *Memory {
	return &Memory{
		tokens:    make(map[ledger.AssetKey]*token),
		nextID:    make(map[string]int64),
		operators: make(map[string]map[string]map[string]bool),
	}
}

// Mint creates the next token of collection owned by to and returns its id.
func (m *Memory) Mint(_ context.Context, collection, to string) (int64, error) {
	if to == "" {
		return 0, ErrInvalidRecipient
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID[collection]
	m.nextID[collection] = id + 1
	m.tokens[ledger.AssetKey{Collection: collection, TokenID: id}] = &token{owner: to}
	return id, nil
}

// Approve lets approved move a single token. caller must be the owner or one of its operators.
func (m *Memory) Approve(_ context.Context, collection string, tokenID int64, caller, approved string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[ledger.AssetKey{Collection: collection, TokenID: tokenID}]
	if !ok {
		return ErrAssetNotFound
	}
	if caller != tok.owner && !m.operators[collection][tok.owner][caller] {
		return ErrTransferNotAuthorized
	}
	tok.approved = approved
	return nil
}

// SetApprovalForAll grants or revokes operator over every token owner holds in collection.
func (m *Memory) SetApprovalForAll(_ context.Context, collection, owner, operator string, approved bool) error {
	if operator == "" || operator == owner {
		return ErrInvalidRecipient
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	owners, ok := m.operators[collection]
	if !ok {
		owners = make(map[string]map[string]bool)
		m.operators[collection] = owners
	}
	ops, ok := owners[owner]
	if !ok {
		ops = make(map[string]bool)
		owners[owner] = ops
	}
	if approved {
		ops[operator] = true
	} else {
		delete(ops, operator)
	}
	return nil
}

// OwnerOf returns the current owner of the token.
func (m *Memory) OwnerOf(_ context.Context, collection string, tokenID int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tok, ok := m.tokens[ledger.AssetKey{Collection: collection, TokenID: tokenID}]
	if !ok {
		return "", ErrAssetNotFound
	}
	return tok.owner, nil
}

// IsApprovedForTransferBy reports whether operator may move the token for its current owner.
func (m *Memory) IsApprovedForTransferBy(_ context.Context, collection string, tokenID int64, operator string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tok, ok := m.tokens[ledger.AssetKey{Collection: collection, TokenID: tokenID}]
	if !ok {
		return false, ErrAssetNotFound
	}
	return m.approvedLocked(collection, tok, operator), nil
}

// Transfer moves the token from -> to on behalf of spender.
func (m *Memory) Transfer(_ context.Context, collection string, tokenID int64, spender, from, to string) error {
	if to == "" {
		return ErrInvalidRecipient
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[ledger.AssetKey{Collection: collection, TokenID: tokenID}]
	if !ok {
		return ErrAssetNotFound
	}
	if tok.owner != from {
		return ErrNotTokenOwner
	}
	if spender != from && !m.approvedLocked(collection, tok, spender) {
		return ErrTransferNotAuthorized
	}
	tok.owner = to
	tok.approved = ""
	return nil
}

func (m *Memory) approvedLocked(collection string, tok *token, operator string) bool {
	if operator == "" {
		return false
	}
	return tok.approved == operator || m.operators[collection][tok.owner][operator]
}

// As binds the registry to spender, the identity on whose behalf TransferOwnership runs.
func (m *Memory) As(spender string) Registry {
	return boundMemory{Memory: m, spender: spender}
}

type boundMemory struct {
	*Memory
	spender string
}

func (b boundMemory) TransferOwnership(ctx context.Context, collection string, tokenID int64, from, to string) error {
	return b.Transfer(ctx, collection, tokenID, b.spender, from, to)
}

func (b boundMemory) RevertTransfer(_ context.Context, collection string, tokenID int64, from, to string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	tok, ok := b.tokens[ledger.AssetKey{Collection: collection, TokenID: tokenID}]
	if !ok {
		return ErrAssetNotFound
	}
	if tok.owner != to {
		return ErrNotTokenOwner
	}
	tok.owner = from
	if !b.operators[collection][from][b.spender] {
		tok.approved = b.spender
	}
	return nil
}
