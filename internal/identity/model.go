package identity

import "time"

// Participant is a registered marketplace identity that can list, buy and withdraw.
type Participant struct {
	ID             string
	Address        string
	PassphraseHash []byte
	TokenVersion   int
	CreatedAt      time.Time
}

// Credentials carries an address and its passphrase.
type Credentials struct {
	Address    string
	Passphrase string
}
