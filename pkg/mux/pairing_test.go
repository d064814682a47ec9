package mux

import (
	"context"
	"errors"
	"testing"
	"time"

	"edgemux/pkg/port"
)

func TestWatcherWaitForEdge(t *testing.T) {
	b := twoLines(t)
	w := b.pairings[0].Input()

	if w.Level() != port.High {
		t.Fatalf("got %v want high", w.Level())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		waitFor(t, w.Armed)
		b.inputs[0].EmuLevel(port.Low)
	}()

	l, err := w.WaitForEdge(ctx)
	if err != nil {
		t.Fatalf("WaitForEdge returned err: %v", err)
	}
	if l != port.Low {
		t.Errorf("got %v want low", l)
	}
	if w.Armed() {
		t.Error("watcher still armed")
	}
}

func TestWatcherWaitForEdgeCancel(t *testing.T) {
	b := twoLines(t)
	w := b.pairings[0].Input()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := w.WaitForEdge(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v want %v", err, context.DeadlineExceeded)
	}
	if w.Armed() {
		t.Error("watcher still armed")
	}

	// the wait can be issued again
	b.inputs[0].EmuEdge()
	if _, err := w.WaitForEdge(context.Background()); err != nil {
		t.Errorf("WaitForEdge returned err: %v", err)
	}
}

func TestWatcherDoubleArm(t *testing.T) {
	b := twoLines(t)
	w := b.pairings[1].Input()

	wake := make(chan struct{}, 1)
	wt := w.Arm(wake)

	func() {
		defer func() {
			err, ok := recover().(error)
			if !ok || !errors.Is(err, ErrDoubleArm) {
				t.Errorf("got %v want %v", err, ErrDoubleArm)
			}
		}()
		w.Arm(wake)
	}()

	wt.Abandon()
	if wt.Ready() {
		t.Error("abandoned wait is ready")
	}
	w.Arm(wake).Abandon()
}

func TestWaitWakes(t *testing.T) {
	b := twoLines(t)
	w := b.pairings[1].Input()

	wake := make(chan struct{}, 1)
	wt := w.Arm(wake)
	if wt.Ready() {
		t.Fatal("wait ready without an edge")
	}

	b.inputs[1].EmuEdge()
	select {
	case <-wake:
	default:
		t.Error("edge did not wake")
	}
	if !wt.Ready() {
		t.Error("wait not ready after an edge")
	}
	wt.Abandon()
}

func TestDriverIdempotent(t *testing.T) {
	once := twoLines(t)
	twice := twoLines(t)

	once.pairings[0].Output().SetLevel(port.Low)
	twice.pairings[0].Output().SetLevel(port.Low)
	twice.pairings[0].Output().SetLevel(port.Low)

	if once.outputs[0].Level() != twice.outputs[0].Level() {
		t.Errorf("got %v want %v", twice.outputs[0].Level(), once.outputs[0].Level())
	}
	if got := twice.pairings[0].Output().Level(); got != port.Low {
		t.Errorf("got %v want low", got)
	}
}

func TestDriverWriteErrorIsDropped(t *testing.T) {
	b := twoLines(t)
	d := b.pairings[1].Output()

	_ = b.outputs[1].Close()
	d.SetLevel(port.High)

	if d.Level() != port.Low {
		t.Errorf("got %v want low", d.Level())
	}
}

func TestPairingStep(t *testing.T) {
	b := twoLines(t)
	p := b.pairings[1]

	b.inputs[1].EmuLevel(port.High)
	l, err := p.Step(context.Background())
	if err != nil {
		t.Fatalf("Step returned err: %v", err)
	}
	if l != port.High {
		t.Errorf("got %v want high", l)
	}
	assertLevels(t, b.outputs[1].Writes(), []port.Level{port.High})
}

func TestPairingRun(t *testing.T) {
	b := newBench(t, lineConfig{name: "button1", input: 11, output: 13, pull: port.PullUp, initial: port.High})
	p := b.pairings[0]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	levels := make(chan port.Level)
	errc := make(chan error, 1)
	go func() {
		errc <- p.Run(ctx, func(l port.Level) { levels <- l })
	}()

	for _, want := range []port.Level{port.Low, port.High, port.Low} {
		b.inputs[0].EmuLevel(want)
		if got := <-levels; got != want {
			t.Errorf("got %v want %v", got, want)
		}
	}

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("got %v want %v", err, context.Canceled)
	}
	assertLevels(t, b.outputs[0].Writes(), []port.Level{port.Low, port.High, port.Low})
}
