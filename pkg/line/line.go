// Package line hands out exclusive handles to physical lines.
package line

import (
	"errors"
	"fmt"
	"sync"
)

var ErrLineInUse = errors.New("line already in use")

// noCopy may be embedded into structs which must not be copied
// after the first use. See https://golang.org/issues/8005#issuecomment-190753527
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Registry issues at most one live Handle per line offset.
type Registry struct {
	mu    sync.Mutex
	lines map[int]*Handle
}

// Handle is the exclusive claim on one physical line.
// Handles are only passed around by pointer.
type Handle struct {
	noCopy noCopy

	registry *Registry
	offset   int
	name     string
	released bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{lines: map[int]*Handle{}}
}

// Claim issues the handle for offset.
// Claiming an offset which is still held returns ErrLineInUse.
func (r *Registry) Claim(offset int, name string) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.lines[offset]; ok {
		return nil, fmt.Errorf("line %v (%s) claimed by %q: %w", offset, name, h.name, ErrLineInUse)
	}

	h := &Handle{registry: r, offset: offset, name: name}
	r.lines[offset] = h
	return h, nil
}

// Claimed returns the number of live handles.
func (r *Registry) Claimed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

// Offset returns the line number that this handle represents.
func (h *Handle) Offset() int {
	return h.offset
}

// Name returns the name the line was claimed for.
func (h *Handle) Name() string {
	return h.name
}

// Released reports whether Release was called.
func (h *Handle) Released() bool {
	h.registry.mu.Lock()
	defer h.registry.mu.Unlock()
	return h.released
}

// Release gives the line back to the registry.
// The handle itself stays invalid, a new one has to be claimed.
func (h *Handle) Release() {
	r := h.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	if h.released {
		return
	}
	h.released = true
	if r.lines[h.offset] == h {
		delete(r.lines, h.offset)
	}
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s(%d)", h.name, h.offset)
}
