// ABOUTME: Unit tests for GeoJSON generation
// ABOUTME: Tests Point and LineString feature collection builders

package geojson

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/harper/location/internal/models"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestToPointsFeatureCollection(t *testing.T) {
	positions := []models.AnimalPosition{
		{AnimalID: "animal1", Latitude: 52.0907, Longitude: 5.1214, Altitude: 100.5, Timestamp: base},
	}

	fc := ToPointsFeatureCollection(positions)

	if fc.Type != "FeatureCollection" {
		t.Errorf("expected FeatureCollection type, got %s", fc.Type)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(fc.Features))
	}

	feature := fc.Features[0]
	if feature.Type != "Feature" {
		t.Errorf("expected Feature type, got %s", feature.Type)
	}
	if feature.Geometry.Type != "Point" {
		t.Errorf("expected Point geometry, got %s", feature.Geometry.Type)
	}

	coords, ok := feature.Geometry.Coordinates.(PointCoordinates)
	if !ok {
		t.Fatal("expected PointCoordinates")
	}
	// GeoJSON uses [lng, lat, alt] order
	if coords != (PointCoordinates{5.1214, 52.0907, 100.5}) {
		t.Errorf("unexpected coordinates %v", coords)
	}

	if feature.Properties["animal_id"] != "animal1" {
		t.Errorf("expected animal_id 'animal1', got %v", feature.Properties["animal_id"])
	}
	if feature.Properties["timestamp"] != "2025-03-01T12:00:00Z" {
		t.Errorf("unexpected timestamp %v", feature.Properties["timestamp"])
	}
}

func TestToPointsFeatureCollection_Empty(t *testing.T) {
	fc := ToPointsFeatureCollection(nil)

	jsonBytes, err := fc.ToJSON()
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if string(jsonBytes) != `{"type":"FeatureCollection","features":[]}` {
		t.Errorf("unexpected JSON %s", jsonBytes)
	}
}

func TestToLineFeatureCollection(t *testing.T) {
	positions := []models.AnimalPosition{
		{AnimalID: "rex", Latitude: 40.7128, Longitude: -74.0060, Timestamp: base},
		{AnimalID: "fido", Latitude: 1, Longitude: 1, Timestamp: base},
		{AnimalID: "rex", Latitude: 41.8781, Longitude: -87.6298, Timestamp: base.Add(-time.Hour)},
		{AnimalID: "fido", Latitude: 2, Longitude: 2, Timestamp: base.Add(time.Minute)},
	}

	fc := ToLineFeatureCollection(positions)

	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(fc.Features))
	}
	if fc.Features[0].Properties["animal_id"] != "fido" || fc.Features[1].Properties["animal_id"] != "rex" {
		t.Errorf("expected tracks ordered by animal id, got %v then %v",
			fc.Features[0].Properties["animal_id"], fc.Features[1].Properties["animal_id"])
	}

	feature := fc.Features[1]
	if feature.Geometry.Type != "LineString" {
		t.Errorf("expected LineString geometry, got %s", feature.Geometry.Type)
	}

	coords, ok := feature.Geometry.Coordinates.(LineCoordinates)
	if !ok {
		t.Fatal("expected LineCoordinates")
	}
	if len(coords) != 2 {
		t.Fatalf("expected 2 coordinates, got %d", len(coords))
	}
	// Chronological: the Chicago fix is an hour older.
	if coords[0][0] != -87.6298 || coords[1][0] != -74.0060 {
		t.Errorf("expected chronological track, got %v", coords)
	}

	if feature.Properties["point_count"] != 2 {
		t.Errorf("expected point_count 2, got %v", feature.Properties["point_count"])
	}
	if feature.Properties["start"] != "2025-03-01T11:00:00Z" || feature.Properties["end"] != "2025-03-01T12:00:00Z" {
		t.Errorf("unexpected bounds %v - %v", feature.Properties["start"], feature.Properties["end"])
	}
}

func TestToLineFeatureCollection_SinglePoint(t *testing.T) {
	// A single point should not create a LineString
	positions := []models.AnimalPosition{
		{AnimalID: "rex", Latitude: 41.8781, Longitude: -87.6298, Timestamp: base},
	}

	fc := ToLineFeatureCollection(positions)

	if len(fc.Features) != 0 {
		t.Errorf("expected 0 features for single point, got %d", len(fc.Features))
	}
}

func TestFeatureCollection_ToJSONIndent(t *testing.T) {
	fc := ToPointsFeatureCollection([]models.AnimalPosition{
		{AnimalID: "rex", Latitude: 1, Longitude: 2, Altitude: 3, Timestamp: base},
	})

	jsonBytes, err := fc.ToJSONIndent()
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var parsed struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(jsonBytes, &parsed); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if parsed.Type != "FeatureCollection" {
		t.Error("expected type FeatureCollection in JSON")
	}
	if len(parsed.Features) != 1 || len(parsed.Features[0].Geometry.Coordinates) != 3 {
		t.Fatalf("expected one 3D point, got %+v", parsed.Features)
	}
}
