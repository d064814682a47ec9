package app

import (
	"context"
	"time"

	"edgemux/pkg/raspberry"

	"github.com/womat/debug"
)

// emulate toggles the simulated inputs in turn, one edge per emulation interval.
// It only runs with the sim backend, to exercise the service without hardware.
func (app *App) emulate(ctx context.Context, chip *raspberry.SimChip) {
	inputs := chip.Inputs()
	if len(inputs) == 0 {
		return
	}

	t := time.NewTicker(app.config.Emulation.Interval)
	defer t.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			in := inputs[i%len(inputs)]
			debug.TraceLog.Printf("emulate edge on input %v", in.Offset())
			in.EmuEdge()
		}
	}
}
