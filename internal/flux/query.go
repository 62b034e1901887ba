// ABOUTME: Flux range query builder with escaped literals
// ABOUTME: Replaces string-spliced query templates for position lookups

package flux

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// RangeQuery selects points of one measurement in a trailing time window,
// optionally filtered by tag equality and pivoted so each timestamp
// becomes one row with a column per field.
type RangeQuery struct {
	Bucket      string
	Measurement string
	// Start is the length of the trailing window ending now.
	Start time.Duration
	Tags  map[string]string
	Pivot bool
}

// Validate reports a query that cannot be rendered.
func (q *RangeQuery) Validate() error {
	if q == nil {
		return errors.New("range query is nil")
	}
	if strings.TrimSpace(q.Bucket) == "" {
		return errors.New("range query: bucket is required")
	}
	if q.Start <= 0 {
		return fmt.Errorf("range query: window must be positive, got %s", q.Start)
	}
	return nil
}

// Since returns the earliest instant covered by the query when evaluated at now.
func (q *RangeQuery) Since(now time.Time) time.Time {
	return now.Add(-q.Start)
}

// String renders the query as Flux. Tag filters are emitted in key order
// so the text is stable.
func (q *RangeQuery) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %s)\n", Quote(q.Bucket))
	fmt.Fprintf(&b, "  |> range(start: -%s)\n", Duration(q.Start))
	if q.Measurement != "" {
		fmt.Fprintf(&b, "  |> filter(fn: (r) => r._measurement == %s)\n", Quote(q.Measurement))
	}

	keys := make([]string, 0, len(q.Tags))
	for k := range q.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  |> filter(fn: (r) => r[%s] == %s)\n", Quote(k), Quote(q.Tags[k]))
	}

	if q.Pivot {
		b.WriteString(`  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")`)
		b.WriteByte('\n')
	}
	return b.String()
}

// Quote returns s as a Flux string literal. Backslashes, quotes, control
// whitespace, and the ${ interpolation opener are escaped.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '$':
			if i+1 < len(s) && s[i+1] == '{' {
				b.WriteString(`\$`)
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Duration formats d as a Flux duration literal using the largest unit
// that divides it exactly.
func Duration(d time.Duration) string {
	if d < 0 {
		return "-" + Duration(-d)
	}
	units := []struct {
		size time.Duration
		name string
	}{
		{time.Hour, "h"},
		{time.Minute, "m"},
		{time.Second, "s"},
		{time.Millisecond, "ms"},
		{time.Microsecond, "us"},
	}
	for _, u := range units {
		if d >= u.size && d%u.size == 0 {
			return fmt.Sprintf("%d%s", d/u.size, u.name)
		}
	}
	return fmt.Sprintf("%dns", int64(d))
}
