package db

import (
	"context"
	"database/sql"
)

const payloadCacheMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS id_payloads (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    user_key text NOT NULL,
    provider text NOT NULL,
    payload jsonb NOT NULL,
    fetched_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT id_payloads_user_provider_unique
        UNIQUE (user_key, provider)
);

CREATE INDEX IF NOT EXISTS id_payloads_user_key_idx
ON id_payloads (user_key);
`

func RunPayloadCacheMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, payloadCacheMigration)
	return err
}
