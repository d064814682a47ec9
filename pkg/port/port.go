// Package port holds the definition of a physical port
package port

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidLevel = errors.New("invalid level")
	ErrInvalidPull  = errors.New("invalid pull")
)

// Level is the logical state of a line.
type Level bool

const (
	// High indicates a logical 1.
	High Level = true
	// Low indicates a logical 0.
	Low Level = false
)

// LevelOf converts a raw boolean line value.
func LevelOf(b bool) Level {
	return Level(b)
}

// ParseLevel parses the config representation of a level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "1", "on":
		return High, nil
	case "low", "0", "off":
		return Low, nil
	default:
		return Low, ErrInvalidLevel
	}
}

// Invert returns the opposite level.
func (l Level) Invert() Level {
	return !l
}

// Int returns 1 for High and 0 for Low.
func (l Level) Int() int {
	if l {
		return 1
	}
	return 0
}

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// MarshalText encodes the level as "high" or "low".
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts every representation ParseLevel does.
func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// EdgeType indicates the type of change to the line state.
type EdgeType int

const (
	_ EdgeType = iota
	// RisingEdge indicates a low to high event.
	RisingEdge
	// FallingEdge indicates a high to low event.
	FallingEdge
)

// Level returns the level of the line after the edge.
func (e EdgeType) Level() Level {
	return e == RisingEdge
}

func (e EdgeType) String() string {
	switch e {
	case RisingEdge:
		return "rising"
	case FallingEdge:
		return "falling"
	default:
		return "none"
	}
}

// EdgeTo returns the edge that leads to level l.
func EdgeTo(l Level) EdgeType {
	if l {
		return RisingEdge
	}
	return FallingEdge
}

// Event is an edge reported by a backend.
type Event struct {
	// Offset is the line the event was detected on.
	Offset int
	// Timestamp indicates the time the event was detected.
	Timestamp time.Duration
	// The type of state change event this structure represents.
	Type EdgeType
}

// Pull is the bias applied to an input line.
type Pull int

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// ParsePull parses the config representation of a pull.
func ParsePull(s string) (Pull, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PullNone, nil
	case "up", "pullup":
		return PullUp, nil
	case "down", "pulldown":
		return PullDown, nil
	default:
		return PullNone, ErrInvalidPull
	}
}

func (p Pull) String() string {
	switch p {
	case PullUp:
		return "up"
	case PullDown:
		return "down"
	default:
		return "none"
	}
}
