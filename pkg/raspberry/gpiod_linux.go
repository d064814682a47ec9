//go:build linux

package raspberry

import (
	"sync"

	"edgemux/pkg/line"
	"edgemux/pkg/port"

	"github.com/pkg/errors"
	"github.com/warthog618/gpiod"
	"github.com/womat/debug"
)

// consumer is the label the lines are requested with.
const consumer = "edgemux"

// GpiodChip represents a single GPIO chip of the gpio character device.
type GpiodChip struct {
	gpiodChip *gpiod.Chip
	lines     *line.Registry
}

// GpiodInput is a requested input line. Edge events are delivered by the kernel.
type GpiodInput struct {
	gpiodLine *gpiod.Line
	handle    *line.Handle

	mu      sync.Mutex
	handler func(port.Event)
}

// GpiodOutput is a requested output line.
type GpiodOutput struct {
	gpiodLine *gpiod.Line
	handle    *line.Handle

	mu    sync.Mutex
	level port.Level
}

// OpenGpiod opens a GPIO character device, e.g. gpiochip0.
func OpenGpiod(name string) (*GpiodChip, error) {
	c, err := gpiod.NewChip(name, gpiod.WithConsumer(consumer))
	if err != nil {
		return nil, errors.Wrapf(err, "can't open %s", name)
	}
	return &GpiodChip{gpiodChip: c, lines: line.NewRegistry()}, nil
}

// Input requests control of a single line as input.
// If granted, control is maintained until the line is closed.
// Both edges are watched, the events are passed to the handler installed by Watch.
func (c *GpiodChip) Input(offset int, name string, pull port.Pull) (Input, error) {
	h, err := c.lines.Claim(offset, name)
	if err != nil {
		return nil, err
	}

	in := &GpiodInput{handle: h}
	opts := []gpiod.LineReqOption{gpiod.WithEventHandler(in.onEvent), gpiod.WithBothEdges, gpiod.AsInput}

	switch pull {
	case port.PullUp:
		opts = append(opts, gpiod.WithPullUp)
	case port.PullDown:
		opts = append(opts, gpiod.WithPullDown)
	case port.PullNone:
	default:
		h.Release()
		return nil, ErrInvalidParam
	}

	if in.gpiodLine, err = c.gpiodChip.RequestLine(offset, opts...); err != nil {
		h.Release()
		return nil, errors.Wrapf(err, "can't request input %v", h)
	}
	return in, nil
}

// Output requests control of a single line as output, driven to initial.
func (c *GpiodChip) Output(offset int, name string, initial port.Level) (Output, error) {
	h, err := c.lines.Claim(offset, name)
	if err != nil {
		return nil, err
	}

	out := &GpiodOutput{handle: h, level: initial}
	if out.gpiodLine, err = c.gpiodChip.RequestLine(offset, gpiod.AsOutput(initial.Int())); err != nil {
		h.Release()
		return nil, errors.Wrapf(err, "can't request output %v", h)
	}
	return out, nil
}

// Close releases the Chip.
//
// It does not release any lines which may be requested - they must be closed
// independently.
func (c *GpiodChip) Close() error {
	return c.gpiodChip.Close()
}

func (l *GpiodInput) onEvent(evt gpiod.LineEvent) {
	l.mu.Lock()
	h := l.handler
	l.mu.Unlock()

	if h == nil {
		return
	}

	e := port.Event{Offset: evt.Offset, Timestamp: evt.Timestamp}
	switch evt.Type {
	case gpiod.LineEventRisingEdge:
		e.Type = port.RisingEdge
	case gpiod.LineEventFallingEdge:
		e.Type = port.FallingEdge
	default:
		debug.ErrorLog.Printf("invalid event type on %v: %v", l.handle, evt.Type)
		return
	}
	h(e)
}

func (l *GpiodInput) Offset() int {
	return l.handle.Offset()
}

func (l *GpiodInput) Level() port.Level {
	v, err := l.gpiodLine.Value()
	if err != nil {
		debug.ErrorLog.Printf("can't read %v: %v", l.handle, err)
		return port.Low
	}
	return port.LevelOf(v == 1)
}

func (l *GpiodInput) Watch(handler func(port.Event)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = handler
	return nil
}

// Close releases all resources held by the requested line.
//
// Note that this includes waiting for any running event handler to return.
// As a consequence the Close must not be called from the context of the event
// handler - the Close should be called from a different goroutine.
func (l *GpiodInput) Close() error {
	defer l.handle.Release()
	return l.gpiodLine.Close()
}

func (l *GpiodOutput) Offset() int {
	return l.handle.Offset()
}

func (l *GpiodOutput) SetLevel(v port.Level) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.gpiodLine.SetValue(v.Int()); err != nil {
		return errors.Wrapf(err, "can't set %v", l.handle)
	}
	l.level = v
	return nil
}

func (l *GpiodOutput) Level() port.Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *GpiodOutput) Close() error {
	defer l.handle.Release()
	return l.gpiodLine.Close()
}
