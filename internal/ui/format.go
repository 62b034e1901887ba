// ABOUTME: Terminal UI formatting utilities
// ABOUTME: Provides human-readable output for animal positions and tracks

package ui

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/harper/location/internal/models"
)

// FormatCoordinates renders latitude, longitude, and altitude.
func FormatCoordinates(lat, lng, alt float64) string {
	return fmt.Sprintf("(%.4f, %.4f) %.1fm", lat, lng, alt)
}

// FormatPosition formats a position for terminal display.
func FormatPosition(pos *models.AnimalPosition) string {
	if pos == nil {
		return color.New(color.Faint).Sprint("(no position)")
	}
	coords := FormatCoordinates(pos.Latitude, pos.Longitude, pos.Altitude)
	return fmt.Sprintf("%s %s - %s",
		color.GreenString(pos.AnimalID),
		color.CyanString(coords),
		color.New(color.Faint).Sprint(FormatRelativeTime(pos.Timestamp)))
}

// FormatPositionForTrack formats one entry of an animal's track.
func FormatPositionForTrack(pos *models.AnimalPosition) string {
	if pos == nil {
		return color.New(color.Faint).Sprint("  (no position)")
	}
	coords := FormatCoordinates(pos.Latitude, pos.Longitude, pos.Altitude)
	timeStr := "unknown time"
	if !pos.Timestamp.IsZero() {
		timeStr = pos.Timestamp.Local().Format("Jan 2, 15:04:05")
	}
	return fmt.Sprintf("  %s - %s",
		color.CyanString(coords),
		timeStr)
}

// FormatTrackHeader formats the heading printed above an animal's track.
func FormatTrackHeader(animalID string, count int, window time.Duration) string {
	noun := "positions"
	if count == 1 {
		noun = "position"
	}
	return fmt.Sprintf("%s - %d %s in the last %s",
		color.GreenString(animalID),
		count,
		noun,
		window)
}

// FormatRelativeTime formats a time as relative to now.
func FormatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "unknown time"
	}
	diff := time.Since(t)

	// Handle future times (clock skew, bad data)
	if diff < 0 {
		return color.YellowString("in the future")
	}

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	}
	if diff < 24*time.Hour {
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(diff.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
