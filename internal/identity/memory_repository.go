package identity

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu           sync.RWMutex
	participants map[string]Participant
}

// NewMemoryRepository builds an in-memory participant store.
func NewMemoryRepository() Repository {
	return &memoryRepository{participants: make(map[string]Participant)}
}

func (r *memoryRepository) Create(_ context.Context, p Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.participants[p.Address]; exists {
		return ErrParticipantExists
	}
	r.participants[p.Address] = p
	return nil
}

func (r *memoryRepository) FindByAddress(_ context.Context, address string) (Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[address]
	if !ok {
		return Participant{}, ErrParticipantNotFound
	}
	return p, nil
}

func (r *memoryRepository) UpdateTokenVersion(_ context.Context, address string, version int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[address]
	if !ok {
		return ErrParticipantNotFound
	}
	p.TokenVersion = version
	r.participants[address] = p
	return nil
}
