package connectid

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connectid-service/internal/consent"
)

type fakeOptOut struct {
	optedOut bool
}

func (f fakeOptOut) Read(context.Context) bool { return f.optedOut }

type fakeTransport struct {
	calls []string
	body  []byte
	err   error
}

func (f *fakeTransport) Get(_ context.Context, rawURL string) ([]byte, error) {
	f.calls = append(f.calls, rawURL)
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

func newTestProvider(optedOut bool) (*Provider, *fakeTransport) {
	client := &fakeTransport{}
	return New(fakeOptOut{optedOut: optedOut}, client), client
}

func TestPrepareRejectsInvalidParams(t *testing.T) {
	testCases := []struct {
		description string
		params      string
	}{
		{"empty params", `{}`},
		{"missing he", `{"pixelId":"12345"}`},
		{"missing pixelId and endpoint", `{"he":"hashed@example"}`},
		{"he is not a string", `{"he":5,"pixelId":"12345"}`},
	}

	for _, tc := range testCases {
		p, client := newTestProvider(false)

		req, err := p.Prepare(context.Background(), json.RawMessage(tc.params), nil)

		assert.Nil(t, req, tc.description)
		assert.Error(t, err, tc.description)
		assert.Empty(t, client.calls, tc.description)
	}
}

func TestPrepareAcceptsDefinedEmptyStrings(t *testing.T) {
	p, _ := newTestProvider(false)

	req, err := p.Prepare(context.Background(), json.RawMessage(`{"he":"","pixelId":""}`), nil)

	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, "", req.Query.Get("he"))
}

func TestPrepareBuildsProductionEndpointFromPixelID(t *testing.T) {
	p, client := newTestProvider(false)

	req, err := p.Prepare(
		context.Background(),
		json.RawMessage(`{"he":"ed8ddbf5","pixelId":"12345"}`),
		nil,
	)
	require.NoError(t, err)
	require.NotNil(t, req)

	// Prepare alone must not touch the network.
	assert.Empty(t, client.calls)

	assert.Equal(t, "https://ups.analytics.yahoo.com/ups/12345/fed", req.Endpoint)
	assert.Equal(t, "ed8ddbf5", req.Query.Get("he"))
	assert.Equal(t, "12345", req.Query.Get("pixelId"))

	p.Execute(context.Background(), req, func(map[string]any) {})

	require.Len(t, client.calls, 1)
	assert.True(t, strings.HasPrefix(client.calls[0], "https://ups.analytics.yahoo.com/ups/12345/fed?"))
}

func TestPrepareUsesEndpointOverrideVerbatim(t *testing.T) {
	p, _ := newTestProvider(false)

	req, err := p.Prepare(
		context.Background(),
		json.RawMessage(`{"he":"ed8ddbf5","endpoint":"https://ups.example.org/custom"}`),
		nil,
	)
	require.NoError(t, err)
	require.NotNil(t, req)

	assert.Equal(t, "https://ups.example.org/custom", req.Endpoint)
	assert.False(t, req.Query.Has("pixelId"))
}

func TestOptOutGatesPrepareAndDecode(t *testing.T) {
	p, client := newTestProvider(true)

	req, err := p.Prepare(
		context.Background(),
		json.RawMessage(`{"he":"ed8ddbf5","pixelId":"12345"}`),
		nil,
	)
	assert.Nil(t, req)
	assert.NoError(t, err)
	assert.Empty(t, client.calls)

	decoded := p.Decode(context.Background(), map[string]any{"connectid": "4567"})
	assert.Nil(t, decoded)
}

func TestPrepareEncodesConsent(t *testing.T) {
	testCases := []struct {
		description string
		signal      *consent.Signal
		gdpr        string
		gdprConsent string
		usPrivacy   string
	}{
		{
			description: "nil signal",
			signal:      nil,
			gdpr:        "0",
			gdprConsent: "",
			usPrivacy:   "",
		},
		{
			description: "gdpr applies with consent string",
			signal: &consent.Signal{
				GDPR: &consent.GDPR{Applies: true, ConsentString: "CPaeWQkPaeW"},
			},
			gdpr:        "1",
			gdprConsent: "CPaeWQkPaeW",
			usPrivacy:   "",
		},
		{
			description: "gdpr present but does not apply",
			signal: &consent.Signal{
				GDPR: &consent.GDPR{Applies: false, ConsentString: "CPaeWQkPaeW"},
			},
			gdpr:        "0",
			gdprConsent: "",
			usPrivacy:   "",
		},
		{
			description: "us privacy only",
			signal:      &consent.Signal{USPrivacy: "1YNN"},
			gdpr:        "0",
			gdprConsent: "",
			usPrivacy:   "1YNN",
		},
	}

	for _, tc := range testCases {
		p, _ := newTestProvider(false)

		req, err := p.Prepare(
			context.Background(),
			json.RawMessage(`{"he":"ed8ddbf5","pixelId":"12345"}`),
			tc.signal,
		)
		require.NoError(t, err, tc.description)
		require.NotNil(t, req, tc.description)

		assert.Equal(t, tc.gdpr, req.Query.Get("gdpr"), tc.description)
		assert.Equal(t, tc.gdprConsent, req.Query.Get("gdpr_consent"), tc.description)
		assert.Equal(t, tc.usPrivacy, req.Query.Get("us_privacy"), tc.description)

		// The keys are always present, even when empty.
		assert.True(t, req.Query.Has("gdpr_consent"), tc.description)
		assert.True(t, req.Query.Has("us_privacy"), tc.description)
	}
}

func TestPrepareEncodesFirstPartyFlag(t *testing.T) {
	testCases := []struct {
		firstParty string // raw JSON value for the 1p key
		want       string
	}{
		{`1`, "1"},
		{`"1"`, "1"},
		{`true`, "1"},
		{`false`, "0"},
		{`"true"`, "0"},
		{`0`, "0"},
		{`2`, "0"},
		{`"yes"`, "0"},
	}

	for _, tc := range testCases {
		p, _ := newTestProvider(false)

		raw := `{"he":"ed8ddbf5","pixelId":"12345","1p":` + tc.firstParty + `}`
		req, err := p.Prepare(context.Background(), json.RawMessage(raw), nil)
		require.NoError(t, err, raw)

		assert.Equal(t, tc.want, req.Query.Get("1p"), raw)
	}
}

func TestPrepareWithoutFirstPartyEncodesZero(t *testing.T) {
	p, _ := newTestProvider(false)

	req, err := p.Prepare(
		context.Background(),
		json.RawMessage(`{"he":"ed8ddbf5","pixelId":"12345"}`),
		nil,
	)
	require.NoError(t, err)

	assert.Equal(t, "0", req.Query.Get("1p"))
}

func TestExecuteDeliversParsedPayload(t *testing.T) {
	p, client := newTestProvider(false)
	client.body = []byte(`{"connectid":"4567","ttl":3600}`)

	req, err := p.Prepare(
		context.Background(),
		json.RawMessage(`{"he":"ed8ddbf5","pixelId":"12345"}`),
		nil,
	)
	require.NoError(t, err)

	completions := 0
	var got map[string]any
	p.Execute(context.Background(), req, func(payload map[string]any) {
		completions++
		got = payload
	})

	assert.Len(t, client.calls, 1)
	assert.Equal(t, 1, completions)
	require.NotNil(t, got)
	assert.Equal(t, "4567", got["connectid"])
}

func TestExecuteDegradesToNoIdentifier(t *testing.T) {
	testCases := []struct {
		description string
		body        []byte
		err         error
	}{
		{"transport failure", nil, errors.New("connection refused")},
		{"empty body", []byte{}, nil},
		{"malformed body", []byte(`not json`), nil},
	}

	for _, tc := range testCases {
		p, client := newTestProvider(false)
		client.body = tc.body
		client.err = tc.err

		req, err := p.Prepare(
			context.Background(),
			json.RawMessage(`{"he":"ed8ddbf5","pixelId":"12345"}`),
			nil,
		)
		require.NoError(t, err, tc.description)

		completions := 0
		var got map[string]any
		p.Execute(context.Background(), req, func(payload map[string]any) {
			completions++
			got = payload
		})

		assert.Len(t, client.calls, 1, tc.description)
		assert.Equal(t, 1, completions, tc.description)
		assert.Nil(t, got, tc.description)
	}
}

func TestDecode(t *testing.T) {
	p, client := newTestProvider(false)
	ctx := context.Background()

	decoded := p.Decode(ctx, map[string]any{"connectid": "4567"})
	require.NotNil(t, decoded)
	assert.Equal(t, "4567", decoded.ConnectID)

	assert.Nil(t, p.Decode(ctx, map[string]any{}))
	assert.Nil(t, p.Decode(ctx, ""))
	assert.Nil(t, p.Decode(ctx, map[string]any{"foo": "bar"}))
	assert.Nil(t, p.Decode(ctx, map[string]any{"connectid": ""}))
	assert.Nil(t, p.Decode(ctx, nil))

	// Pure: repeated calls agree and nothing hits the network.
	again := p.Decode(ctx, map[string]any{"connectid": "4567"})
	assert.Equal(t, decoded, again)
	assert.Empty(t, client.calls)
}

func TestDescriptorMetadata(t *testing.T) {
	p, _ := newTestProvider(false)

	assert.Equal(t, "connectId", p.Name())
	assert.Equal(t, uint16(25), p.VendorID())
}
