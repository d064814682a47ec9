//go:build linux

package raspberry

import (
	"sync"
	"time"

	"edgemux/pkg/line"
	"edgemux/pkg/port"

	"github.com/pkg/errors"
	"github.com/warthog618/gpio"
)

// MemChip drives the lines through the memory mapped /dev/gpiomem range.
type MemChip struct {
	lines *line.Registry
	start time.Time
}

// MemInput is an input pin watched through the gpio interrupt watcher.
type MemInput struct {
	gpioPin *gpio.Pin
	handle  *line.Handle
	start   time.Time

	mu      sync.Mutex
	handler func(port.Event)
}

// MemOutput is an output pin.
type MemOutput struct {
	gpioPin *gpio.Pin
	handle  *line.Handle

	mu    sync.Mutex
	level port.Level
}

// OpenGpiomem maps the GPIO memory range from /dev/gpiomem.
func OpenGpiomem() (*MemChip, error) {
	if err := gpio.Open(); err != nil {
		return nil, errors.Wrap(err, "can't open gpiomem")
	}
	return &MemChip{lines: line.NewRegistry(), start: time.Now()}, nil
}

// Close removes the interrupt handlers and unmaps GPIO memory
func (c *MemChip) Close() error {
	return gpio.Close()
}

// Input creates a new input pin. The pin number provided is the BCM GPIO number.
func (c *MemChip) Input(offset int, name string, pull port.Pull) (Input, error) {
	h, err := c.lines.Claim(offset, name)
	if err != nil {
		return nil, err
	}

	p := gpio.NewPin(offset)
	p.Input()
	switch pull {
	case port.PullUp:
		p.PullUp()
	case port.PullDown:
		p.PullDown()
	case port.PullNone:
		p.PullNone()
	default:
		h.Release()
		return nil, ErrInvalidParam
	}

	in := &MemInput{gpioPin: p, handle: h, start: c.start}
	if err := p.Watch(gpio.EdgeBoth, in.onEdge); err != nil {
		h.Release()
		return nil, errors.Wrapf(err, "can't watch %v", h)
	}
	return in, nil
}

// Output creates a new output pin driven to initial.
func (c *MemChip) Output(offset int, name string, initial port.Level) (Output, error) {
	h, err := c.lines.Claim(offset, name)
	if err != nil {
		return nil, err
	}

	p := gpio.NewPin(offset)
	p.Write(gpio.Level(initial))
	p.Output()
	return &MemOutput{gpioPin: p, handle: h, level: initial}, nil
}

// onEdge is called by the gpio watcher, the edge direction is taken from the current level.
func (p *MemInput) onEdge(g *gpio.Pin) {
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()

	if h == nil {
		return
	}
	h(port.Event{Offset: g.Pin(), Timestamp: time.Since(p.start), Type: port.EdgeTo(port.LevelOf(bool(g.Read())))})
}

func (p *MemInput) Offset() int {
	return p.handle.Offset()
}

// Level reads pin state (high/low)
func (p *MemInput) Level() port.Level {
	return port.LevelOf(bool(p.gpioPin.Read()))
}

func (p *MemInput) Watch(handler func(port.Event)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = handler
	return nil
}

// Close removes the watch from the pin.
func (p *MemInput) Close() error {
	p.gpioPin.Unwatch()
	p.handle.Release()
	return nil
}

func (p *MemOutput) Offset() int {
	return p.handle.Offset()
}

func (p *MemOutput) SetLevel(l port.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.gpioPin.Write(gpio.Level(l))
	p.level = l
	return nil
}

func (p *MemOutput) Level() port.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *MemOutput) Close() error {
	p.handle.Release()
	return nil
}
