package app

import (
	"context"
	"sync"

	"edgemux/pkg/dispatch"
	"edgemux/pkg/port"

	"github.com/eapache/queue"
	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// LineState keeps the last event of every line and a bounded history of events.
type LineState struct {
	mu      sync.Mutex
	last    map[string]dispatch.Event
	history *queue.Queue
	size    int
}

// lineResp is the web representation of a pairing.
type lineResp struct {
	Name        string          `json:"name"`
	Input       int             `json:"input"`
	Output      int             `json:"output"`
	Pull        string          `json:"pull"`
	InputLevel  port.Level      `json:"input_level"`
	OutputLevel port.Level      `json:"output_level"`
	Edges       uint64          `json:"edges"`
	Last        *dispatch.Event `json:"last,omitempty"`
}

// NewLineState keeps up to size events, a size below 1 keeps none.
func NewLineState(size int) *LineState {
	return &LineState{
		last:    map[string]dispatch.Event{},
		history: queue.New(),
		size:    size,
	}
}

// Report stores the event.
func (s *LineState) Report(e dispatch.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last[e.Line] = e
	if s.size < 1 {
		return
	}

	s.history.Add(e)
	for s.history.Length() > s.size {
		s.history.Remove()
	}
}

// Last returns the last event of line.
func (s *LineState) Last(line string) (dispatch.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.last[line]
	return e, ok
}

// History returns the stored events, oldest first.
func (s *LineState) History() []dispatch.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]dispatch.Event, s.history.Length())
	for i := range events {
		events[i] = s.history.Get(i).(dispatch.Event)
	}
	return events
}

// runWebServer serves web requests on the listener bound by app.Run.
//  It's designed to run in a separate go function to not block the main go function.
//  Errors after ctx is done come from the shutdown and are dropped.
func (app *App) runWebServer(ctx context.Context) error {
	err := app.web.Listener(app.listener)
	if err != nil && ctx.Err() == nil {
		debug.ErrorLog.Print(err)
		return err
	}
	return nil
}

// HandleLines returns the pairings with the current levels of their lines.
func (app *App) HandleLines() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request lines")

		lines := make([]lineResp, 0, len(app.lines))
		for _, l := range app.lines {
			r := lineResp{
				Name:        l.config.Name,
				Input:       l.config.Input,
				Output:      l.config.Output,
				Pull:        l.config.Pull.String(),
				InputLevel:  l.pairing.Input().Level(),
				OutputLevel: l.pairing.Output().Level(),
				Edges:       l.pairing.Input().Edges(),
			}
			if e, ok := app.state.Last(l.config.Name); ok {
				r.Last = &e
			}
			lines = append(lines, r)
		}

		return ctx.JSON(lines)
	}
}

// HandleEvents returns the event history.
func (app *App) HandleEvents() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request events")

		return ctx.JSON(app.state.History())
	}
}
