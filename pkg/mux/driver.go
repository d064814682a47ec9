package mux

import (
	"edgemux/pkg/port"
	"edgemux/pkg/raspberry"

	"github.com/womat/debug"
)

// Driver wraps one output line.
type Driver struct {
	name string
	out  raspberry.Output
}

// NewDriver returns the driver of out.
func NewDriver(name string, out raspberry.Output) *Driver {
	return &Driver{name: name, out: out}
}

// Name returns the line name.
func (d *Driver) Name() string {
	return d.name
}

// SetLevel drives the line to l. It never blocks and setting the same level
// again has no further effect. A failing write is logged and dropped.
func (d *Driver) SetLevel(l port.Level) {
	if err := d.out.SetLevel(l); err != nil {
		debug.ErrorLog.Printf("can't set %s to %v: %v", d.name, l, err)
	}
}

// Level returns the level the line is driven to.
func (d *Driver) Level() port.Level {
	return d.out.Level()
}
