// Package dispatch runs the rounds of a selector and reports the winners.
package dispatch

import (
	"context"
	"sync/atomic"
	"time"

	"edgemux/pkg/mux"
	"edgemux/pkg/port"

	"github.com/womat/debug"
)

// Event is reported once per round for the line that changed.
type Event struct {
	Seq   uint64     `json:"seq"`
	Line  string     `json:"line_id"`
	Level port.Level `json:"new_level"`
	Time  time.Time  `json:"time"`
}

// Reporter receives the events of the loop.
// Report is called on the loop goroutine and must not block.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to a Reporter.
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) {
	f(e)
}

// LogReporter writes every event to the info log.
type LogReporter struct{}

func (LogReporter) Report(e Event) {
	debug.InfoLog.Printf("setting %s to level %v", e.Line, e.Level)
}

// Loop drives the selector round after round.
// A loop over a single pairing waits on that pairing alone.
type Loop struct {
	// seq counts the rounds, it is read by other goroutines.
	// It comes first to stay 64-bit aligned on 32-bit arm.
	seq uint64

	selector  *mux.Selector
	single    *mux.Pairing
	reporters []Reporter
	now       func() time.Time
}

// New returns the loop over selector.
func New(selector *mux.Selector, reporters ...Reporter) *Loop {
	return &Loop{selector: selector, reporters: reporters, now: time.Now}
}

// NewSingle returns the loop over one pairing without a selector.
func NewSingle(p *mux.Pairing, reporters ...Reporter) *Loop {
	return &Loop{single: p, reporters: reporters, now: time.Now}
}

// Lines returns the number of lines the loop serves.
func (l *Loop) Lines() int {
	if l.single != nil {
		return 1
	}
	return l.selector.Len()
}

// Rounds returns the number of completed rounds.
func (l *Loop) Rounds() uint64 {
	return atomic.LoadUint64(&l.seq)
}

// Step runs one round and reports its winner.
func (l *Loop) Step(ctx context.Context) (mux.Result, error) {
	if l.single != nil {
		lvl, err := l.single.Step(ctx)
		if err != nil {
			return mux.Result{Index: mux.NoWinner}, err
		}
		l.report(l.single.Name(), lvl)
		return mux.Result{Index: 0, Line: l.single.Name(), Level: lvl}, nil
	}

	r, err := l.selector.Round(ctx)
	if err != nil {
		return r, err
	}
	l.report(r.Line, r.Level)
	return r, nil
}

func (l *Loop) report(line string, lvl port.Level) {
	seq := atomic.AddUint64(&l.seq, 1)
	debug.DebugLog.Printf("round %d: %s won with %v", seq, line, lvl)

	e := Event{Seq: seq, Line: line, Level: lvl, Time: l.now()}
	for _, rep := range l.reporters {
		rep.Report(e)
	}
}

// Run loops until ctx is done and returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	debug.InfoLog.Printf("starting loop over %d lines", l.Lines())

	var err error
	if l.single != nil {
		name := l.single.Name()
		err = l.single.Run(ctx, func(lvl port.Level) { l.report(name, lvl) })
	} else {
		for err == nil {
			_, err = l.Step(ctx)
		}
	}

	debug.InfoLog.Printf("loop stopped after %d rounds: %v", l.Rounds(), err)
	return err
}
