// Package mux races edge waits of several input lines on one goroutine
// and mirrors the winning input onto its paired output.
package mux

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"edgemux/pkg/port"
	"edgemux/pkg/raspberry"
)

// ErrDoubleArm is the panic value when a line gets a second pending wait.
var ErrDoubleArm = errors.New("line already has a pending wait")

// Watcher wraps one input line.
//
// Edges are latched whether a wait is pending or not. Edges that arrive while
// no wait is outstanding are coalesced into one pending edge, which the next
// wait completes on immediately.
type Watcher struct {
	name string
	in   raspberry.Input

	mu      sync.Mutex
	latched bool
	armed   bool
	wake    chan<- struct{}
	edges   uint64

	// wait is the one and only pending wait of this line
	wait Wait
	// own wakes WaitForEdge
	own chan struct{}
}

// Wait is a pending wait on a Watcher: issued by Arm, done after it was
// consumed by a round or abandoned.
type Wait struct {
	w *Watcher
}

// NewWatcher installs the edge handler on in.
func NewWatcher(name string, in raspberry.Input) (*Watcher, error) {
	w := &Watcher{name: name, in: in, own: make(chan struct{}, 1)}
	w.wait.w = w

	if err := in.Watch(w.onEdge); err != nil {
		return nil, fmt.Errorf("can't watch %s: %w", name, err)
	}
	return w, nil
}

// onEdge runs on the backend's goroutine.
func (w *Watcher) onEdge(port.Event) {
	w.mu.Lock()
	w.latched = true
	w.edges++
	wake := w.wake
	w.mu.Unlock()

	if wake != nil {
		select {
		case wake <- struct{}{}:
		default:
		}
	}
}

// Name returns the line name.
func (w *Watcher) Name() string {
	return w.name
}

// Level reads the current level of the line.
func (w *Watcher) Level() port.Level {
	return w.in.Level()
}

// Edges returns the number of edges reported by the backend.
func (w *Watcher) Edges() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.edges
}

// Armed reports whether a wait is outstanding.
func (w *Watcher) Armed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.armed
}

// Arm issues the pending wait of the line. wake receives a non-blocking
// send on every edge while the wait is outstanding.
// Arming a line which already has a pending wait panics with ErrDoubleArm.
func (w *Watcher) Arm(wake chan<- struct{}) *Wait {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.armed {
		panic(fmt.Errorf("%s: %w", w.name, ErrDoubleArm))
	}
	w.armed = true
	w.wake = wake
	return &w.wait
}

// WaitForEdge blocks until the line changes its level and returns the new level.
// It has to be called again for the next edge.
func (w *Watcher) WaitForEdge(ctx context.Context) (port.Level, error) {
	wait := w.Arm(w.own)
	for {
		if wait.consume() {
			return w.Level(), nil
		}

		select {
		case <-w.own:
		case <-ctx.Done():
			wait.Abandon()
			return w.Level(), ctx.Err()
		}
	}
}

// Ready reports whether an edge is pending for the wait.
func (wt *Wait) Ready() bool {
	w := wt.w
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.armed && w.latched
}

// Abandon drops the wait. A latched edge is kept for the next wait.
func (wt *Wait) Abandon() {
	w := wt.w
	w.mu.Lock()
	defer w.mu.Unlock()

	w.armed = false
	w.wake = nil
}

// consume completes the wait if an edge is pending.
func (wt *Wait) consume() bool {
	w := wt.w
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.armed || !w.latched {
		return false
	}
	w.latched = false
	w.armed = false
	w.wake = nil
	return true
}
