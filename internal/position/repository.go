// ABOUTME: Position repository on top of a time-series store
// ABOUTME: Writes animal samples as tagged points and rebuilds recent tracks

package position

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harper/location/internal/flux"
	"github.com/harper/location/internal/models"
	"github.com/harper/location/internal/tsdb"
)

// Storage layout for animal positions.
const (
	DefaultBucket = "Location"
	DefaultOrg    = "PetP"
	Measurement   = "Animal_position"
	AnimalTag     = "Animal"

	FieldLatitude  = "latitude"
	FieldLongitude = "longitude"
	FieldAltitude  = "altitude"

	// RecentWindow is the trailing window of PositionsLastHour.
	RecentWindow = time.Hour
)

// Repository records and reads animal positions. It holds no state of its
// own beyond its settings; every call is one round trip to the store.
type Repository struct {
	store  tsdb.Store
	bucket string
	org    string
	now    func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithBucket overrides the bucket positions are written to and read from.
func WithBucket(bucket string) Option {
	return func(r *Repository) { r.bucket = bucket }
}

// WithOrg overrides the organization.
func WithOrg(org string) Option {
	return func(r *Repository) { r.org = org }
}

// WithClock sets the clock used to timestamp new positions.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// NewRepository creates a repository over store.
func NewRepository(store tsdb.Store, opts ...Option) (*Repository, error) {
	if store == nil {
		return nil, errors.New("position repository: store is required")
	}
	r := &Repository{
		store:  store,
		bucket: DefaultBucket,
		org:    DefaultOrg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if strings.TrimSpace(r.bucket) == "" || strings.TrimSpace(r.org) == "" {
		return nil, errors.New("position repository: bucket and org must not be empty")
	}
	return r, nil
}

// Bucket returns the bucket positions live in.
func (r *Repository) Bucket() string { return r.bucket }

// Org returns the organization positions live in.
func (r *Repository) Org() string { return r.org }

// Store returns the underlying store.
func (r *Repository) Store() tsdb.Store { return r.store }

// RecordPosition writes one sample for animalID, timestamped now with
// nanosecond precision. Coordinates are stored as given.
func (r *Repository) RecordPosition(ctx context.Context, animalID string, lat, lng, alt float64) (*models.AnimalPosition, error) {
	if !r.store.Connected() {
		return nil, tsdb.ErrNotConnected
	}
	if strings.TrimSpace(animalID) == "" {
		return nil, fmt.Errorf("%w: animal id is required", tsdb.ErrInvalidInput)
	}

	pos := models.NewAnimalPositionAt(animalID, lat, lng, alt, r.now())
	point := tsdb.Point{
		Measurement: Measurement,
		Tags:        map[string]string{AnimalTag: animalID},
		Fields: map[string]any{
			FieldLatitude:  lat,
			FieldLongitude: lng,
			FieldAltitude:  alt,
		},
		Time: pos.Timestamp,
	}
	if err := r.store.WritePoint(ctx, r.bucket, r.org, point); err != nil {
		return nil, err
	}
	return pos, nil
}

// PositionsLastHour returns the animal's positions from the trailing hour,
// oldest first. No samples is an empty slice, not an error.
func (r *Repository) PositionsLastHour(ctx context.Context, animalID string) ([]models.AnimalPosition, error) {
	return r.PositionsSince(ctx, animalID, RecentWindow)
}

// PositionsSince returns the animal's positions within the trailing window,
// oldest first.
func (r *Repository) PositionsSince(ctx context.Context, animalID string, window time.Duration) ([]models.AnimalPosition, error) {
	if !r.store.Connected() {
		return nil, tsdb.ErrNotConnected
	}
	if strings.TrimSpace(animalID) == "" {
		return nil, fmt.Errorf("%w: animal id is required", tsdb.ErrInvalidInput)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive", tsdb.ErrInvalidInput)
	}

	q := &flux.RangeQuery{
		Bucket:      r.bucket,
		Measurement: Measurement,
		Start:       window,
		Tags:        map[string]string{AnimalTag: animalID},
		Pivot:       true,
	}
	rows, err := r.store.QueryRows(ctx, r.org, q)
	if err != nil {
		return nil, err
	}

	positions := make([]models.AnimalPosition, 0, len(rows))
	for _, row := range rows {
		positions = append(positions, toPosition(row))
	}
	sort.SliceStable(positions, func(i, j int) bool {
		return positions[i].Timestamp.Before(positions[j].Timestamp)
	})
	return positions, nil
}

// DeleteAnimal removes every stored position of animalID.
func (r *Repository) DeleteAnimal(ctx context.Context, animalID string) error {
	if !r.store.Connected() {
		return tsdb.ErrNotConnected
	}
	if strings.TrimSpace(animalID) == "" {
		return fmt.Errorf("%w: animal id is required", tsdb.ErrInvalidInput)
	}
	pred := flux.And(
		flux.Equals("_measurement", Measurement),
		flux.Equals(AnimalTag, animalID),
	)
	return r.store.DeleteRange(ctx, r.bucket, r.org, pred.String())
}

// toPosition maps a pivoted row. Missing or non-numeric fields read as 0
// and a missing time as the zero instant.
func toPosition(row tsdb.Row) models.AnimalPosition {
	id := row.Get(AnimalTag).String()
	lat, _ := row.Get(FieldLatitude).Float()
	lng, _ := row.Get(FieldLongitude).Float()
	alt, _ := row.Get(FieldAltitude).Float()

	return models.AnimalPosition{
		AnimalID:  id,
		Latitude:  lat,
		Longitude: lng,
		Altitude:  alt,
		Timestamp: row.Time.UTC(),
	}
}
