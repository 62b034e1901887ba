// ABOUTME: Embedded time-series store backed by BadgerDB
// ABOUTME: Runs without an InfluxDB server and evaluates range queries natively

package localstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v3"

	"github.com/harper/location/internal/flux"
	"github.com/harper/location/internal/logging"
	"github.com/harper/location/internal/tsdb"
)

// pointPrefix namespaces point keys; the rest of the key is
// bucket, org, measurement, and series tags separated by sep, then the
// big-endian timestamp.
const (
	pointPrefix = "point:"
	sep         = "\x00"
)

// Store implements tsdb.Store on a local Badger database. Dir "" keeps
// the data in memory.
type Store struct {
	dir    string
	logger *log.Logger
	now    func() time.Time

	mu sync.RWMutex
	db *badger.DB
}

// Compile-time check that Store implements tsdb.Store.
var _ tsdb.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to resolve relative query windows.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger for store and badger messages.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns an unconnected store persisting under dir.
func New(dir string, opts ...Option) *Store {
	s := &Store{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger).WithPrefix("localstore")
	return s
}

// NewInMemory returns an unconnected store that never touches disk.
func NewInMemory(opts ...Option) *Store {
	return New("", opts...)
}

// Connect opens the database on first call. Repeat calls are no-ops.
func (s *Store) Connect(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	var opts badger.Options
	if s.dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(s.dir, 0750); err != nil { //nolint:gosec // 0750 is appropriate for user data directory
			return fmt.Errorf("create data directory: %w", err)
		}
		opts = badger.DefaultOptions(s.dir)
	}
	opts = opts.WithLogger(logging.Badger(s.logger))

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open badger: %w", err)
	}
	s.db = db
	s.logger.Debug("opened", "dir", s.dir)
	return nil
}

// Connected reports whether the database is open.
func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db != nil
}

// handle returns the open database. Callers hold the read lock for the
// duration of the operation so Close waits for them.
func (s *Store) handle() (*badger.DB, func(), error) {
	s.mu.RLock()
	if s.db == nil {
		s.mu.RUnlock()
		return nil, nil, tsdb.ErrNotConnected
	}
	return s.db, s.mu.RUnlock, nil
}

// storedPoint is the value stored under each point key.
type storedPoint struct {
	Bucket      string                `json:"bucket"`
	Org         string                `json:"org"`
	Measurement string                `json:"measurement"`
	Tags        map[string]string     `json:"tags"`
	Fields      map[string]tsdb.Value `json:"fields"`
	Time        time.Time             `json:"time"`
}

// WritePoint stores p. A point with the same series and timestamp
// replaces the previous one.
func (s *Store) WritePoint(_ context.Context, bucket, org string, p tsdb.Point) (err error) {
	db, release, err := s.handle()
	if err != nil {
		return err
	}
	defer release()
	defer logging.Time(s.logger, "write")(&err)

	if p.Measurement == "" {
		return fmt.Errorf("%w: measurement is required", tsdb.ErrInvalidInput)
	}
	if len(p.Fields) == 0 {
		return fmt.Errorf("%w: point has no fields", tsdb.ErrInvalidInput)
	}

	sp := storedPoint{
		Bucket:      bucket,
		Org:         org,
		Measurement: p.Measurement,
		Tags:        p.Tags,
		Fields:      make(map[string]tsdb.Value, len(p.Fields)),
		Time:        p.Time.UTC(),
	}
	for k, v := range p.Fields {
		sp.Fields[k] = tsdb.ValueOf(v)
	}

	data, err := json.Marshal(sp)
	if err != nil {
		return fmt.Errorf("marshal point: %w", err)
	}

	key := pointKey(bucket, org, p.Measurement, p.Tags, p.Time)
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// ExecuteQuery is not available: the embedded store has no query language.
func (s *Store) ExecuteQuery(_ context.Context, _, _ string) ([]tsdb.Sample, error) {
	_, release, err := s.handle()
	if err != nil {
		return nil, err
	}
	release()
	return nil, tsdb.ErrUnsupportedQuery
}

// QueryRows evaluates q against the stored points. Rows come back in key
// order, which is series then time; pivoted rows merge every field of a
// series at one timestamp.
func (s *Store) QueryRows(_ context.Context, org string, q *flux.RangeQuery) (_ []tsdb.Row, err error) {
	db, release, err := s.handle()
	if err != nil {
		return nil, err
	}
	defer release()
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", tsdb.ErrInvalidInput, err)
	}
	defer logging.Time(s.logger, "query_rows")(&err)

	now := s.now()
	since := q.Since(now)
	prefix := measurementPrefix(q.Bucket, org, q.Measurement)

	rows := []tsdb.Row{}
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var sp storedPoint
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &sp)
			}); err != nil {
				return fmt.Errorf("decode point %q: %w", it.Item().Key(), err)
			}

			if q.Measurement != "" && sp.Measurement != q.Measurement {
				continue
			}
			if sp.Time.Before(since) || sp.Time.After(now) {
				continue
			}
			if !tagsMatch(sp.Tags, q.Tags) {
				continue
			}
			rows = append(rows, toRows(sp, q.Pivot)...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteRange removes every point in bucket that matches predicate.
func (s *Store) DeleteRange(_ context.Context, bucket, org, predicate string) (err error) {
	db, release, err := s.handle()
	if err != nil {
		return err
	}
	defer release()
	defer logging.Time(s.logger, "delete")(&err)

	pred, err := flux.ParsePredicate(predicate)
	if err != nil {
		return fmt.Errorf("%w: %v", tsdb.ErrInvalidInput, err)
	}

	var keys [][]byte
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(pointPrefix + bucket + sep + org + sep)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var sp storedPoint
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &sp)
			}); err != nil {
				return fmt.Errorf("decode point %q: %w", it.Item().Key(), err)
			}
			if pred.Matches(sp.Measurement, sp.Tags) {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	wb := db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("delete point: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush deletes: %w", err)
	}
	s.logger.Debug("deleted points", "count", len(keys), "predicate", predicate)
	return nil
}

// Close closes the database. The store can be connected again afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func measurementPrefix(bucket, org, measurement string) []byte {
	p := pointPrefix + bucket + sep + org + sep
	if measurement != "" {
		p += measurement + sep
	}
	return []byte(p)
}

func pointKey(bucket, org, measurement string, tags map[string]string, ts time.Time) []byte {
	var b bytes.Buffer
	b.Write(measurementPrefix(bucket, org, measurement))
	b.WriteString(seriesKey(tags))
	b.WriteString(sep)
	var t [8]byte
	// Flip the sign bit so negative timestamps sort before positive ones.
	binary.BigEndian.PutUint64(t[:], uint64(ts.UnixNano())^(1<<63))
	b.Write(t[:])
	return b.Bytes()
}

// seriesKey renders tags as sorted k=v pairs joined by commas.
func seriesKey(tags map[string]string) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + tags[k]
	}
	return strings.Join(parts, ",")
}

func tagsMatch(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

// toRows shapes a stored point like the InfluxDB query API would: one row
// per field with _field/_value columns, or a single pivoted row.
func toRows(sp storedPoint, pivot bool) []tsdb.Row {
	base := func() map[string]tsdb.Value {
		values := map[string]tsdb.Value{
			"_time":        tsdb.Time(sp.Time),
			"_measurement": tsdb.String(sp.Measurement),
		}
		for k, v := range sp.Tags {
			values[k] = tsdb.String(v)
		}
		return values
	}

	if pivot {
		values := base()
		for k, v := range sp.Fields {
			values[k] = v
		}
		return []tsdb.Row{{Time: sp.Time, Values: values}}
	}

	fields := make([]string, 0, len(sp.Fields))
	for k := range sp.Fields {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	rows := make([]tsdb.Row, 0, len(fields))
	for _, f := range fields {
		values := base()
		values["_field"] = tsdb.String(f)
		values["_value"] = sp.Fields[f]
		rows = append(rows, tsdb.Row{Time: sp.Time, Values: values})
	}
	return rows
}
