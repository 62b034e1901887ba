// ABOUTME: GeoJSON generation utilities
// ABOUTME: Converts animal positions to GeoJSON FeatureCollections

package geojson

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/harper/location/internal/models"
)

// FeatureCollection represents a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature represents a GeoJSON Feature.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// Geometry represents a GeoJSON Geometry.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// PointCoordinates represents [longitude, latitude, altitude] for a Point.
type PointCoordinates [3]float64

// LineCoordinates represents [[lng, lat, alt], ...] for a LineString.
type LineCoordinates []PointCoordinates

func coordinates(p models.AnimalPosition) PointCoordinates {
	return PointCoordinates{p.Longitude, p.Latitude, p.Altitude}
}

// ToPointsFeatureCollection converts positions to a FeatureCollection of Points.
func ToPointsFeatureCollection(positions []models.AnimalPosition) *FeatureCollection {
	features := make([]Feature, 0, len(positions))

	for _, pos := range positions {
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: coordinates(pos),
			},
			Properties: map[string]interface{}{
				"animal_id": pos.AnimalID,
				"timestamp": pos.Timestamp.Format(time.RFC3339Nano),
			},
		})
	}

	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// ToLineFeatureCollection converts positions to one LineString per animal.
// Each track is ordered chronologically and tracks are ordered by animal id.
// Animals with fewer than two positions produce no feature.
func ToLineFeatureCollection(positions []models.AnimalPosition) *FeatureCollection {
	byAnimal := make(map[string][]models.AnimalPosition)
	for _, pos := range positions {
		byAnimal[pos.AnimalID] = append(byAnimal[pos.AnimalID], pos)
	}

	ids := make([]string, 0, len(byAnimal))
	for id := range byAnimal {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	features := make([]Feature, 0, len(ids))
	for _, id := range ids {
		track := byAnimal[id]
		if len(track) < 2 {
			continue
		}
		sort.SliceStable(track, func(i, j int) bool {
			return track[i].Timestamp.Before(track[j].Timestamp)
		})

		coords := make(LineCoordinates, len(track))
		for i, pos := range track {
			coords[i] = coordinates(pos)
		}

		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "LineString",
				Coordinates: coords,
			},
			Properties: map[string]interface{}{
				"animal_id":   id,
				"point_count": len(track),
				"start":       track[0].Timestamp.Format(time.RFC3339Nano),
				"end":         track[len(track)-1].Timestamp.Format(time.RFC3339Nano),
			},
		})
	}

	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// ToJSON serializes a FeatureCollection to JSON.
func (fc *FeatureCollection) ToJSON() ([]byte, error) {
	return json.Marshal(fc)
}

// ToJSONIndent serializes a FeatureCollection to indented JSON.
func (fc *FeatureCollection) ToJSONIndent() ([]byte, error) {
	return json.MarshalIndent(fc, "", "  ")
}
