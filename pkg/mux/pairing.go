package mux

import (
	"context"

	"edgemux/pkg/port"
)

// Pairing mirrors the level of an input onto an output.
// Each round waits for an edge, reads the input and sets the output.
type Pairing struct {
	in  *Watcher
	out *Driver
}

// NewPairing couples in and out.
func NewPairing(in *Watcher, out *Driver) *Pairing {
	return &Pairing{in: in, out: out}
}

// Name returns the name of the input line.
func (p *Pairing) Name() string {
	return p.in.Name()
}

// Input returns the watched input.
func (p *Pairing) Input() *Watcher {
	return p.in
}

// Output returns the driven output.
func (p *Pairing) Output() *Driver {
	return p.out
}

// Arm issues the pending wait of the input.
func (p *Pairing) Arm(wake chan<- struct{}) *Wait {
	return p.in.Arm(wake)
}

// Resume runs the rest of the round once the wait has completed.
func (p *Pairing) Resume() port.Level {
	l := p.in.Level()
	p.out.SetLevel(l)
	return l
}

// Step runs a single round on its own.
func (p *Pairing) Step(ctx context.Context) (port.Level, error) {
	if _, err := p.in.WaitForEdge(ctx); err != nil {
		return p.in.Level(), err
	}
	return p.Resume(), nil
}

// Run repeats rounds until ctx is done. report, if not nil, is called after every round.
func (p *Pairing) Run(ctx context.Context, report func(port.Level)) error {
	for {
		l, err := p.Step(ctx)
		if err != nil {
			return err
		}
		if report != nil {
			report(l)
		}
	}
}
