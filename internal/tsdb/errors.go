// ABOUTME: Common time-series store errors
// ABOUTME: Lets callers tell not-connected, invalid input, and upstream failures apart

package tsdb

import "errors"

// ErrNotConnected is returned by every store operation invoked before Connect.
var ErrNotConnected = errors.New("store client is not connected, call Connect first")

// ErrInvalidInput is returned when an argument is rejected before reaching the store.
var ErrInvalidInput = errors.New("invalid input")

// ErrUnsupportedQuery is returned by backends that cannot evaluate raw query text.
var ErrUnsupportedQuery = errors.New("query language not supported by this backend")

// Error kinds reported at the CLI and MCP boundary.
const (
	KindNotConnected = "not_connected"
	KindInvalidInput = "invalid_input"
	KindUpstream     = "upstream"
)

// Kind classifies err for reporting. Anything that is not a known local
// error came from the store or the network.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConnected):
		return KindNotConnected
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupportedQuery):
		return KindInvalidInput
	default:
		return KindUpstream
	}
}
