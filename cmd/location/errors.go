// ABOUTME: CLI error reporting
// ABOUTME: Prints failures by kind and picks the process exit code

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/harper/location/internal/tsdb"
)

// errNoLocationData is returned when a read finds no samples.
var errNoLocationData = errors.New("no location data")

// Exit codes.
const (
	exitFailure      = 1
	exitInvalidInput = 2
	exitNotConnected = 3
	exitNoData       = 4
)

func exitCode(err error) int {
	if errors.Is(err, errNoLocationData) {
		return exitNoData
	}
	switch tsdb.Kind(err) {
	case tsdb.KindInvalidInput:
		return exitInvalidInput
	case tsdb.KindNotConnected:
		return exitNotConnected
	default:
		return exitFailure
	}
}

func errorLabel(err error) string {
	if errors.Is(err, errNoLocationData) {
		return "no data"
	}
	switch tsdb.Kind(err) {
	case tsdb.KindInvalidInput:
		return "invalid input"
	case tsdb.KindNotConnected:
		return "not connected"
	default:
		return "store error"
	}
}

func reportError(w io.Writer, err error) {
	if errors.Is(err, errNoLocationData) {
		fmt.Fprintln(w, color.YellowString("⚠ %v", err))
		return
	}
	fmt.Fprintf(w, "%s %v\n", color.RedString("✗ %s:", errorLabel(err)), err)
}

// invalidInput marks a CLI argument error.
func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", tsdb.ErrInvalidInput, fmt.Sprintf(format, args...))
}
