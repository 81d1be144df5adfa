package connectid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"connectid-service/internal/consent"
	"connectid-service/internal/identity"
	"connectid-service/internal/identity/provider"
	"connectid-service/internal/logger"
	"connectid-service/internal/optout"
	"connectid-service/internal/transport"
)

const (
	// ProviderName is the registry name token for this provider.
	ProviderName = "connectId"

	// GVLVendorID is the consent-framework vendor identifier the host
	// uses for policy lookups.
	GVLVendorID uint16 = 25

	// upsEndpointTemplate is the production UPS endpoint; the verb is a
	// federated identifier lookup keyed by pixel id.
	upsEndpointTemplate = "https://ups.analytics.yahoo.com/ups/%s/fed"

	// connectIDField is the recognized identifier field in raw payloads.
	connectIDField = "connectid"
)

// ErrInvalidParams is returned by Prepare when the configuration is
// rejected. The host logs it and treats the resolution as absent.
var ErrInvalidParams = errors.New(
	"connectid: params.he must be a string and either params.pixelId or params.endpoint is required",
)

// Params configures a single ConnectID lookup. Pointer fields distinguish
// "not configured" from an explicit empty value: a defined empty string
// passes validation.
type Params struct {
	HE         *string `json:"he,omitempty"`
	PixelID    *string `json:"pixelId,omitempty"`
	Endpoint   *string `json:"endpoint,omitempty"`
	FirstParty any     `json:"1p,omitempty"`
}

// Provider resolves ConnectID identifiers from the UPS endpoint.
// It owns no state across invocations; the opt-out marker it reads is
// owned by the host environment.
type Provider struct {
	optOut           optout.Store
	client           transport.Getter
	endpointTemplate string
}

func New(optOut optout.Store, client transport.Getter) *Provider {
	return &Provider{
		optOut:           optOut,
		client:           client,
		endpointTemplate: upsEndpointTemplate,
	}
}

// WithEndpointTemplate replaces the production endpoint template. The
// template must contain one %s verb for the pixel id.
func (p *Provider) WithEndpointTemplate(template string) *Provider {
	p.endpointTemplate = template
	return p
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return ProviderName
}

// VendorID returns the consent-framework vendor identifier.
func (p *Provider) VendorID() uint16 {
	return GVLVendorID
}

// Prepare validates params and consent and builds the lookup request.
// An opted-out user yields (nil, nil): not applicable, no diagnostics.
// Rejected configuration yields ErrInvalidParams and no request; the
// network is never touched from here.
func (p *Provider) Prepare(
	ctx context.Context,
	rawParams json.RawMessage,
	signal *consent.Signal,
) (*provider.PreparedRequest, error) {

	if p.optOut.Read(ctx) {
		return nil, nil
	}

	var params Params
	if len(rawParams) > 0 {
		if err := json.Unmarshal(rawParams, &params); err != nil {
			return nil, fmt.Errorf("connectid: malformed params: %w", err)
		}
	}

	if params.HE == nil || (params.PixelID == nil && params.Endpoint == nil) {
		return nil, ErrInvalidParams
	}

	query := url.Values{}
	query.Set("he", *params.HE)
	query.Set("1p", firstPartyFlag(params.FirstParty))

	if signal.GDPRApplies() {
		query.Set("gdpr", "1")
	} else {
		query.Set("gdpr", "0")
	}
	query.Set("gdpr_consent", signal.GDPRConsentString())
	query.Set("us_privacy", signal.USPrivacyString())

	if params.PixelID != nil {
		query.Set("pixelId", *params.PixelID)
	}

	endpoint := ""
	if params.Endpoint != nil {
		endpoint = *params.Endpoint
	} else {
		endpoint = fmt.Sprintf(p.endpointTemplate, *params.PixelID)
	}

	return &provider.PreparedRequest{
		Endpoint: endpoint,
		Query:    query,
	}, nil
}

// Execute performs exactly one GET for the prepared request. Transport
// failures, empty bodies, and malformed bodies all degrade to
// onComplete(nil); nothing propagates to the host.
func (p *Provider) Execute(
	ctx context.Context,
	req *provider.PreparedRequest,
	onComplete func(payload map[string]any),
) {

	body, err := p.client.Get(ctx, req.URL())
	if err != nil {
		logger.Error("connectid fetch failed", map[string]any{
			"endpoint": req.Endpoint,
			"error":    err.Error(),
		})
		onComplete(nil)
		return
	}

	if len(body) == 0 {
		onComplete(nil)
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		logger.Error("connectid response parse failed", map[string]any{
			"endpoint": req.Endpoint,
			"error":    err.Error(),
		})
		onComplete(nil)
		return
	}

	onComplete(payload)
}

// Decode normalizes a previously stored raw payload. It returns nil when
// the user has opted out (revoking a cached identifier without a new
// round trip) or when the payload carries no recognized identifier.
func (p *Provider) Decode(ctx context.Context, raw any) *identity.ConnectID {
	if p.optOut.Read(ctx) {
		return nil
	}

	payload, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	id, ok := payload[connectIDField].(string)
	if !ok || id == "" {
		return nil
	}

	return &identity.ConnectID{ConnectID: id}
}

// firstPartyFlag encodes the configured first-party value. Only the
// exact literals 1, "1" and true count as first party.
func firstPartyFlag(value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "1"
		}
	case string:
		if v == "1" {
			return "1"
		}
	case int:
		if v == 1 {
			return "1"
		}
	case float64:
		// JSON numbers decode as float64.
		if v == 1 {
			return "1"
		}
	}
	return "0"
}
