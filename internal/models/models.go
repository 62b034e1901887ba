// ABOUTME: Core data model for animal positions
// ABOUTME: Provides the position value record and boundary validators

package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MaxAnimalIDLength bounds animal ids accepted at the CLI and MCP boundary.
const MaxAnimalIDLength = 255

// ValidateCoordinates checks that latitude, longitude, and altitude are
// finite and that latitude and longitude are within range.
func ValidateCoordinates(lat, lng, alt float64) error {
	for _, v := range []float64{lat, lng, alt} {
		if math.IsNaN(v) {
			return fmt.Errorf("coordinates cannot be NaN")
		}
		if math.IsInf(v, 0) {
			return fmt.Errorf("coordinates cannot be infinite")
		}
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateAnimalID checks that an id is non-blank and within length limits.
func ValidateAnimalID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("animal id cannot be empty or whitespace")
	}
	if len(id) > MaxAnimalIDLength {
		return fmt.Errorf("animal id too long (max %d characters)", MaxAnimalIDLength)
	}
	return nil
}

// AnimalPosition is one location sample for an animal.
type AnimalPosition struct {
	AnimalID  string    `json:"animal_id" yaml:"animal_id"`
	Latitude  float64   `json:"latitude" yaml:"latitude"`
	Longitude float64   `json:"longitude" yaml:"longitude"`
	Altitude  float64   `json:"altitude" yaml:"altitude"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewAnimalPosition creates a position stamped with the current UTC time.
func NewAnimalPosition(animalID string, lat, lng, alt float64) *AnimalPosition {
	return NewAnimalPositionAt(animalID, lat, lng, alt, time.Now())
}

// NewAnimalPositionAt creates a position with a specific timestamp, converted to UTC.
func NewAnimalPositionAt(animalID string, lat, lng, alt float64, at time.Time) *AnimalPosition {
	return &AnimalPosition{
		AnimalID:  animalID,
		Latitude:  lat,
		Longitude: lng,
		Altitude:  alt,
		Timestamp: at.UTC(),
	}
}
