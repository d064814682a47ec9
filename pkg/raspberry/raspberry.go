// Package raspberry provides the gpio backends for watched inputs and driven outputs.
package raspberry

import (
	"errors"

	"edgemux/pkg/port"
)

var (
	ErrInvalidParam       = errors.New("invalid parameters")
	ErrUnsupportedBackend = errors.New("unsupported gpio backend")
	ErrClosed             = errors.New("line closed")
)

// Backend names accepted by Open.
const (
	BackendGpiod   = "gpiod"
	BackendGpiomem = "gpiomem"
	BackendRpio    = "rpio"
	BackendSim     = "sim"
)

// Chip represents a GPIO controller that hands out exclusively owned lines.
// Inputs and outputs share one line registry, so a line can only be requested once.
type Chip interface {
	// Input requests the line as input with both edges watched.
	Input(offset int, name string, pull port.Pull) (Input, error)
	// Output requests the line as output driven to initial.
	Output(offset int, name string, initial port.Level) (Output, error)
	// Close releases the chip.
	Close() error
}

// Input is a requested input line.
type Input interface {
	// Offset returns the line number.
	Offset() int
	// Level reads the current level without blocking.
	Level() port.Level
	// Watch installs the edge handler. Edges of both directions are reported.
	// There can only be one handler on the line at a time.
	Watch(handler func(port.Event)) error
	// Close releases the line.
	Close() error
}

// Output is a requested output line.
type Output interface {
	// Offset returns the line number.
	Offset() int
	// SetLevel drives the line to l.
	SetLevel(l port.Level) error
	// Level returns the last driven level.
	Level() port.Level
	// Close releases the line.
	Close() error
}

// Open opens the named backend.
// chip is the gpiochip device name and is only used by the gpiod backend.
func Open(backend, chip string) (Chip, error) {
	if backend == BackendSim {
		return OpenSim(), nil
	}
	return openHardware(backend, chip)
}
