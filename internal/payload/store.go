package payload

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record is one cached raw provider payload for a host user key.
// Raw is stored exactly as fetched so the provider's decode step keeps
// full authority over what counts as a usable identifier.
type Record struct {
	ID        uuid.UUID // assigned by the store on save
	UserKey   string
	Provider  string
	Raw       json.RawMessage
	FetchedAt time.Time
}

// Store defines how raw payloads are cached between resolutions.
// Implementations must remain opaque: no decoding happens here.
type Store interface {
	Save(ctx context.Context, rec Record) error

	// Load returns the cached record or nil when none exists.
	Load(ctx context.Context, userKey, provider string) (*Record, error)
}
