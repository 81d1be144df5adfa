package payload

import (
	"context"
	"database/sql"
	"errors"

	"connectid-service/internal/db"
)

// PostgresStore caches raw payloads in the id_payloads table.
type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, rec Record) error {

	if rec.UserKey == "" || rec.Provider == "" {
		return errors.New("payload: missing user_key or provider")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO id_payloads (user_key, provider, payload, fetched_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_key, provider)
		DO UPDATE SET payload = EXCLUDED.payload, fetched_at = NOW()
	`,
		rec.UserKey,
		rec.Provider,
		[]byte(rec.Raw),
	)

	return err
}

func (s *PostgresStore) Load(ctx context.Context, userKey, provider string) (*Record, error) {

	var rec Record

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_key, provider, payload, fetched_at
		FROM id_payloads
		WHERE user_key = $1
		  AND provider = $2
	`,
		userKey,
		provider,
	).Scan(&rec.ID, &rec.UserKey, &rec.Provider, &rec.Raw, &rec.FetchedAt)

	if err == sql.ErrNoRows {
		return nil, nil // not cached
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}
