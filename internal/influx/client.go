// ABOUTME: InfluxDB v2 store client with a lazily created, once-initialized handle
// ABOUTME: Implements tsdb.Store as direct pass-through calls to the InfluxDB API

package influx

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/harper/location/internal/flux"
	"github.com/harper/location/internal/logging"
	"github.com/harper/location/internal/tsdb"
)

// Delete covers the whole range of instants InfluxDB can store; its bounds
// are two above MinInt64 and one below MaxInt64 nanoseconds.
var (
	minTime = time.Unix(0, math.MinInt64+2).UTC()
	maxTime = time.Unix(0, math.MaxInt64-1).UTC()
)

// Settings locate and authenticate against an InfluxDB server.
type Settings struct {
	// URL is the server address. A bare host:port gets an http:// scheme.
	URL   string
	Token string
}

// Client implements tsdb.Store against InfluxDB. The underlying handle is
// created by the first Connect and shared by every later call.
type Client struct {
	settings Settings
	logger   *log.Logger

	mu     sync.RWMutex
	handle influxdb2.Client
}

// Compile-time check that Client implements tsdb.Store.
var _ tsdb.Store = (*Client)(nil)

// NewClient returns an unconnected client. A nil logger discards output.
func NewClient(settings Settings, logger *log.Logger) *Client {
	return &Client{
		settings: settings,
		logger:   logging.OrDiscard(logger).WithPrefix("influx"),
	}
}

// ServerURL normalizes an address to a URL with a scheme.
func ServerURL(addr string) string {
	addr = strings.TrimSpace(addr)
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}
	return "http://" + strings.TrimRight(addr, "/")
}

// Connect creates the handle if none exists. Concurrent first calls
// create exactly one handle.
func (c *Client) Connect(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle != nil {
		return nil
	}
	if strings.TrimSpace(c.settings.URL) == "" {
		return fmt.Errorf("%w: influxdb url is required", tsdb.ErrInvalidInput)
	}

	url := ServerURL(c.settings.URL)
	opts := influxdb2.DefaultOptions().SetPrecision(time.Nanosecond)
	c.handle = influxdb2.NewClientWithOptions(url, c.settings.Token, opts)
	c.logger.Debug("client created", "url", url)
	return nil
}

// Connected reports whether Connect has created a handle.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handle != nil
}

func (c *Client) client() (influxdb2.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.handle == nil {
		return nil, tsdb.ErrNotConnected
	}
	return c.handle, nil
}

// WritePoint writes one point with the blocking write API.
func (c *Client) WritePoint(ctx context.Context, bucket, org string, p tsdb.Point) (err error) {
	h, err := c.client()
	if err != nil {
		return err
	}
	defer logging.Time(c.logger, "write")(&err)

	pt := write.NewPoint(p.Measurement, p.Tags, p.Fields, p.Time)
	return h.WriteAPIBlocking(org, bucket).WritePoint(ctx, pt)
}

// ExecuteQuery runs query text as given and flattens every record of every
// table into a time/value sample, in the order the server returned them.
func (c *Client) ExecuteQuery(ctx context.Context, org, query string) (_ []tsdb.Sample, err error) {
	h, err := c.client()
	if err != nil {
		return nil, err
	}
	defer logging.Time(c.logger, "query")(&err)

	result, err := h.QueryAPI(org).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = result.Close() }()

	samples := []tsdb.Sample{}
	for result.Next() {
		rec := result.Record()
		s := tsdb.Sample{Value: tsdb.ValueOf(rec.Value())}
		if t, ok := rec.ValueByKey("_time").(time.Time); ok {
			t = t.UTC()
			s.Time = &t
		}
		samples = append(samples, s)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// QueryRows renders q as Flux and returns each record as a row of typed values.
func (c *Client) QueryRows(ctx context.Context, org string, q *flux.RangeQuery) (_ []tsdb.Row, err error) {
	h, err := c.client()
	if err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", tsdb.ErrInvalidInput, err)
	}
	defer logging.Time(c.logger, "query_rows")(&err)

	result, err := h.QueryAPI(org).Query(ctx, q.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = result.Close() }()

	rows := []tsdb.Row{}
	for result.Next() {
		rec := result.Record()
		raw := rec.Values()
		values := make(map[string]tsdb.Value, len(raw))
		for k, v := range raw {
			values[k] = tsdb.ValueOf(v)
		}
		rows = append(rows, tsdb.Row{Time: rec.Time().UTC(), Values: values})
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteRange deletes every point in bucket matching predicate, with no
// time bound.
func (c *Client) DeleteRange(ctx context.Context, bucket, org, predicate string) (err error) {
	h, err := c.client()
	if err != nil {
		return err
	}
	defer logging.Time(c.logger, "delete")(&err)

	return h.DeleteAPI().DeleteWithName(ctx, org, bucket, minTime, maxTime, predicate)
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) (bool, error) {
	h, err := c.client()
	if err != nil {
		return false, err
	}
	return h.Ping(ctx)
}

// Close releases the handle. A closed client must be connected again.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle != nil {
		c.handle.Close()
		c.handle = nil
	}
	return nil
}
