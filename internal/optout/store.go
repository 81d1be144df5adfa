package optout

import "context"

const (
	// KeyName is the fixed name of the persisted opt-out marker.
	KeyName = "connectIdOptOut"

	// optedOutSentinel is the single value meaning "opted out". Any other
	// stored value, including "true", means not opted out.
	optedOutSentinel = "1"
)

// Store reads the externally owned opt-out marker. Read never fails: any
// storage error is treated as "not opted out", which keeps the fallback
// policy visible at the type level instead of hidden in exception handling.
type Store interface {
	Read(ctx context.Context) bool
}

// Marker is the host-owned write side of the opt-out flag. Identity
// providers only ever see the Store side.
type Marker interface {
	Set(ctx context.Context) error
	Clear(ctx context.Context) error
}

// Disabled is a Store that always reports "not opted out".
type Disabled struct{}

func (Disabled) Read(context.Context) bool { return false }

// optedOut reports whether a stored marker value is the opt-out sentinel.
func optedOut(value string) bool {
	return value == optedOutSentinel
}
