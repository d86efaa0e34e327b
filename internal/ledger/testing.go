package ledger

// SeedProceeds is a test helper that sets the proceeds of a seller when using the in-memory store.
func SeedProceeds(s Store, seller string, amount int64) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.proceeds[seller] = amount
	}
}

// SeedListing is a test helper that installs a listing directly, bypassing authorization checks.
func SeedListing(s Store, key AssetKey, listing Listing) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.listings[key] = listing
	}
}
