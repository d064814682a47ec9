//go:build linux

package raspberry

import (
	"sync"
	"time"

	"edgemux/pkg/line"
	"edgemux/pkg/port"

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"
)

// rpioPollInterval is the period the edge detect registers are sampled with.
const rpioPollInterval = time.Millisecond

// RpioChip accesses the BCM registers through go-rpio.
// The edge detect status registers are sampled by a single poll goroutine.
type RpioChip struct {
	lines *line.Registry
	start time.Time

	mu     sync.Mutex
	inputs []*RpioInput
	quit   chan struct{}
	done   chan struct{}
}

// RpioInput is an input pin with edge detection enabled.
type RpioInput struct {
	pin    rpio.Pin
	handle *line.Handle

	mu      sync.Mutex
	handler func(port.Event)
	closed  bool
}

// rpioPin is the part of rpio.Pin an output needs.
type rpioPin interface {
	High()
	Low()
	Output()
}

// RpioOutput is an output pin.
type RpioOutput struct {
	pin    rpioPin
	handle *line.Handle

	mu    sync.Mutex
	level port.Level
}

// OpenRpio opens and maps the gpio memory.
func OpenRpio() (*RpioChip, error) {
	if err := rpio.Open(); err != nil {
		return nil, errors.Wrap(err, "can't open rpio")
	}

	c := &RpioChip{
		lines: line.NewRegistry(),
		start: time.Now(),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go c.poll()
	return c, nil
}

// Input configures the pin as input and enables detection of both edges.
func (c *RpioChip) Input(offset int, name string, pull port.Pull) (Input, error) {
	if offset < 0 || offset > 255 {
		return nil, errors.Wrapf(ErrInvalidParam, "pin %v out of range", offset)
	}

	h, err := c.lines.Claim(offset, name)
	if err != nil {
		return nil, err
	}

	p := rpio.Pin(offset)
	p.Input()
	switch pull {
	case port.PullUp:
		p.PullUp()
	case port.PullDown:
		p.PullDown()
	case port.PullNone:
		p.PullOff()
	default:
		h.Release()
		return nil, ErrInvalidParam
	}
	p.Detect(rpio.AnyEdge)

	in := &RpioInput{pin: p, handle: h}
	c.mu.Lock()
	c.inputs = append(c.inputs, in)
	c.mu.Unlock()
	return in, nil
}

// Output configures the pin as output driven to initial.
func (c *RpioChip) Output(offset int, name string, initial port.Level) (Output, error) {
	if offset < 0 || offset > 255 {
		return nil, errors.Wrapf(ErrInvalidParam, "pin %v out of range", offset)
	}

	h, err := c.lines.Claim(offset, name)
	if err != nil {
		return nil, err
	}

	return newRpioOutput(rpio.Pin(offset), h, initial), nil
}

// newRpioOutput latches the initial level before the pin starts driving.
func newRpioOutput(p rpioPin, h *line.Handle, initial port.Level) *RpioOutput {
	out := &RpioOutput{pin: p, handle: h}
	_ = out.SetLevel(initial)
	p.Output()
	return out
}

// Close stops polling and unmaps the gpio memory.
func (c *RpioChip) Close() error {
	close(c.quit)
	<-c.done
	return rpio.Close()
}

// poll samples the edge detect status of all inputs until the chip is closed.
func (c *RpioChip) poll() {
	defer close(c.done)

	t := time.NewTicker(rpioPollInterval)
	defer t.Stop()

	for {
		select {
		case <-c.quit:
			return
		case <-t.C:
			c.mu.Lock()
			inputs := c.inputs
			c.mu.Unlock()

			for _, in := range inputs {
				if in.pin.EdgeDetected() {
					in.fire(time.Since(c.start))
				}
			}
		}
	}
}

func (p *RpioInput) fire(ts time.Duration) {
	p.mu.Lock()
	h := p.handler
	closed := p.closed
	p.mu.Unlock()

	if h == nil || closed {
		return
	}
	h(port.Event{Offset: p.Offset(), Timestamp: ts, Type: port.EdgeTo(p.Level())})
}

func (p *RpioInput) Offset() int {
	return p.handle.Offset()
}

func (p *RpioInput) Level() port.Level {
	return port.LevelOf(p.pin.Read() == rpio.High)
}

func (p *RpioInput) Watch(handler func(port.Event)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	p.handler = handler
	return nil
}

// Close disables edge detection on the pin.
func (p *RpioInput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.pin.Detect(rpio.NoEdge)
	p.handle.Release()
	return nil
}

func (p *RpioOutput) Offset() int {
	return p.handle.Offset()
}

func (p *RpioOutput) SetLevel(l port.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if l {
		p.pin.High()
	} else {
		p.pin.Low()
	}
	p.level = l
	return nil
}

func (p *RpioOutput) Level() port.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *RpioOutput) Close() error {
	p.handle.Release()
	return nil
}
