package identity

// ConnectID is the normalized identifier shape handed back to the host
// pipeline. It contains the resolved identifier only, no decisions.
type ConnectID struct {
	ConnectID string `json:"connectId"`
}
