package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrParticipantExists is returned when registering an address twice.
	ErrParticipantExists = errors.New("participant exists")
	// ErrParticipantNotFound is returned for unknown addresses.
	ErrParticipantNotFound = errors.New("participant not found")
)

// Repository persists participants.
type Repository interface {
	Create(ctx context.Context, p Participant) error
	FindByAddress(ctx context.Context, address string) (Participant, error)
	UpdateTokenVersion(ctx context.Context, address string, version int) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed participant repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new participant.
func (r *PostgresRepository) Create(ctx context.Context, p Participant) error {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO participants (id, address, passphrase_hash, token_version, created_at)
        VALUES ($1, $2, $3, $4, $5)`, id, p.Address, p.PassphraseHash, p.TokenVersion, p.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrParticipantExists
	}
	return err
}

// FindByAddress fetches a participant by address.
func (r *PostgresRepository) FindByAddress(ctx context.Context, address string) (Participant, error) {
	row := r.db.QueryRow(ctx, `SELECT id, address, passphrase_hash, token_version, created_at
        FROM participants WHERE address = $1`, address)
	var (
		id        uuid.UUID
		createdAt time.Time
		p         Participant
	)
	if err := row.Scan(&id, &p.Address, &p.PassphraseHash, &p.TokenVersion, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Participant{}, ErrParticipantNotFound
		}
		return Participant{}, err
	}
	p.ID = id.String()
	p.CreatedAt = createdAt.UTC()
	return p, nil
}

// UpdateTokenVersion stores a new token version, invalidating older tokens.
func (r *PostgresRepository) UpdateTokenVersion(ctx context.Context, address string, version int) error {
	cmd, err := r.db.Exec(ctx, `UPDATE participants SET token_version = $1 WHERE address = $2`, version, address)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrParticipantNotFound
	}
	return nil
}
