package raspberry

import (
	"sort"
	"sync"
	"time"

	"edgemux/pkg/line"
	"edgemux/pkg/port"
)

// SimChip is an in-memory gpio controller.
// It is used for testing and to run the service without hardware.
type SimChip struct {
	lines *line.Registry
	start time.Time

	mu      sync.Mutex
	inputs  map[int]*SimInput
	outputs map[int]*SimOutput
}

// SimInput is a simulated input line.
type SimInput struct {
	chip   *SimChip
	handle *line.Handle

	mu      sync.Mutex
	level   port.Level
	handler func(port.Event)
	closed  bool
}

// SimOutput is a simulated output line. Every write is recorded.
type SimOutput struct {
	handle *line.Handle

	mu     sync.Mutex
	level  port.Level
	writes []port.Level
	closed bool
}

// OpenSim creates a new simulated chip.
func OpenSim() *SimChip {
	return &SimChip{
		lines:   line.NewRegistry(),
		start:   time.Now(),
		inputs:  map[int]*SimInput{},
		outputs: map[int]*SimOutput{},
	}
}

// Input requests a simulated input line.
// The line starts at the level the pull would produce, a floating line starts low.
func (c *SimChip) Input(offset int, name string, pull port.Pull) (Input, error) {
	h, err := c.lines.Claim(offset, name)
	if err != nil {
		return nil, err
	}

	in := &SimInput{chip: c, handle: h, level: pull == port.PullUp}
	c.mu.Lock()
	c.inputs[offset] = in
	c.mu.Unlock()
	return in, nil
}

// Output requests a simulated output line.
func (c *SimChip) Output(offset int, name string, initial port.Level) (Output, error) {
	h, err := c.lines.Claim(offset, name)
	if err != nil {
		return nil, err
	}

	out := &SimOutput{handle: h, level: initial}
	c.mu.Lock()
	c.outputs[offset] = out
	c.mu.Unlock()
	return out, nil
}

// SimInput returns the requested input on offset.
func (c *SimChip) SimInput(offset int) (*SimInput, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	in, ok := c.inputs[offset]
	return in, ok
}

// SimOutput returns the requested output on offset.
func (c *SimChip) SimOutput(offset int) (*SimOutput, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out, ok := c.outputs[offset]
	return out, ok
}

// Inputs returns all requested inputs ordered by offset.
func (c *SimChip) Inputs() []*SimInput {
	c.mu.Lock()
	defer c.mu.Unlock()

	ins := make([]*SimInput, 0, len(c.inputs))
	for _, in := range c.inputs {
		ins = append(ins, in)
	}
	sort.Slice(ins, func(i, j int) bool { return ins[i].Offset() < ins[j].Offset() })
	return ins
}

// Close releases the chip.
func (c *SimChip) Close() error {
	return nil
}

func (p *SimInput) Offset() int {
	return p.handle.Offset()
}

func (p *SimInput) Level() port.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *SimInput) Watch(handler func(port.Event)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	p.handler = handler
	return nil
}

// EmuLevel emulates the line being driven to l.
// The handler is only called if the level actually changes.
func (p *SimInput) EmuLevel(l port.Level) {
	p.mu.Lock()
	if p.closed || p.level == l {
		p.mu.Unlock()
		return
	}
	p.level = l
	h := p.handler
	p.mu.Unlock()

	if h != nil {
		h(port.Event{Offset: p.Offset(), Timestamp: time.Since(p.chip.start), Type: port.EdgeTo(l)})
	}
}

// EmuEdge emulates a state change of the line.
func (p *SimInput) EmuEdge() {
	p.EmuLevel(p.Level().Invert())
}

func (p *SimInput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.handler = nil
	p.handle.Release()
	return nil
}

func (p *SimOutput) Offset() int {
	return p.handle.Offset()
}

func (p *SimOutput) SetLevel(l port.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	p.level = l
	p.writes = append(p.writes, l)
	return nil
}

func (p *SimOutput) Level() port.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Writes returns a copy of all levels written to the line.
func (p *SimOutput) Writes() []port.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]port.Level(nil), p.writes...)
}

func (p *SimOutput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.handle.Release()
	return nil
}
