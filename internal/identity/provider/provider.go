package provider

import (
	"context"
	"encoding/json"
	"net/url"

	"connectid-service/internal/consent"
	"connectid-service/internal/identity"
)

// PreparedRequest is an inspectable, not-yet-executed identity lookup:
// the selected endpoint plus the encoded query parameter set. Nothing
// touches the network until the host passes it to Execute.
type PreparedRequest struct {
	Endpoint string
	Query    url.Values
}

// URL returns the full request URL.
func (r *PreparedRequest) URL() string {
	return r.Endpoint + "?" + r.Query.Encode()
}

// Provider defines the contract every identity provider must implement.
// Implementations return identifier facts only and must not persist
// results or set cookies of their own.
type Provider interface {
	// Name returns the provider identifier (e.g. "connectId").
	Name() string

	// VendorID returns the fixed numeric vendor identifier used by
	// consent-framework policy lookups.
	VendorID() uint16

	// Prepare validates configuration and consent and builds the request.
	// (nil, nil) means the provider is not applicable (e.g. user opted
	// out): no request, no error. A non-nil error means the configuration
	// was rejected; no request is built either way.
	Prepare(ctx context.Context, params json.RawMessage, signal *consent.Signal) (*PreparedRequest, error)

	// Execute performs the single network call for a prepared request and
	// always invokes onComplete exactly once, with the parsed response
	// payload or nil. Failures never propagate past this boundary.
	Execute(ctx context.Context, req *PreparedRequest, onComplete func(payload map[string]any))

	// Decode normalizes a previously stored raw payload into the public
	// identifier shape, or nil when no identifier can be produced. It is
	// pure and performs no I/O.
	Decode(ctx context.Context, raw any) *identity.ConnectID
}
