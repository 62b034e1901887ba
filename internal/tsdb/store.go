// ABOUTME: Store interface shared by the InfluxDB client and the embedded backend
// ABOUTME: Defines points, flattened samples, and pivoted rows

package tsdb

import (
	"context"
	"time"

	"github.com/harper/location/internal/flux"
)

// Point is a single timestamped measurement with tags and fields.
type Point struct {
	Measurement string            `json:"measurement"`
	Tags        map[string]string `json:"tags"`
	Fields      map[string]any    `json:"fields"`
	Time        time.Time         `json:"time"`
}

// Sample is one record of a raw query, flattened to its time and value.
// Time is nil when the record carries no _time column.
type Sample struct {
	Time  *time.Time `json:"time"`
	Value Value      `json:"value"`
}

// Row is one pivoted result row: every column of the record keyed by name.
type Row struct {
	Time   time.Time
	Values map[string]Value
}

// Get returns the named column, Null when missing.
func (r Row) Get(name string) Value {
	if v, ok := r.Values[name]; ok {
		return v
	}
	return Null
}

// Store is a connection to a time-series store. Every operation other than
// Connect, Connected, and Close fails with ErrNotConnected until Connect
// has succeeded. Implementations are safe for concurrent use.
type Store interface {
	// Connect creates the connection handle. Repeat calls are no-ops.
	Connect(ctx context.Context) error
	// Connected reports whether Connect has succeeded.
	Connected() bool

	// WritePoint submits one point and waits for the store to acknowledge it.
	WritePoint(ctx context.Context, bucket, org string, p Point) error
	// ExecuteQuery runs query text verbatim and flattens every table in store order.
	ExecuteQuery(ctx context.Context, org, query string) ([]Sample, error)
	// QueryRows runs a range query and returns its rows in store order.
	QueryRows(ctx context.Context, org string, q *flux.RangeQuery) ([]Row, error)
	// DeleteRange removes every point matching predicate across all time.
	DeleteRange(ctx context.Context, bucket, org, predicate string) error

	Close() error
}
