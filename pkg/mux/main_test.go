package mux

import (
	"os"
	"testing"

	"edgemux/pkg/port"
	"edgemux/pkg/raspberry"

	"github.com/womat/debug"
)

func TestMain(m *testing.M) {
	debug.SetDebug(os.Stderr, debug.Standard)
	os.Exit(m.Run())
}

// bench is a set of simulated pairings.
type bench struct {
	chip     *raspberry.SimChip
	pairings []*Pairing
	inputs   []*raspberry.SimInput
	outputs  []*raspberry.SimOutput
}

type lineConfig struct {
	name    string
	input   int
	output  int
	pull    port.Pull
	initial port.Level
}

func newBench(t testing.TB, configs ...lineConfig) *bench {
	t.Helper()

	b := &bench{chip: raspberry.OpenSim()}
	for _, s := range configs {
		in, err := b.chip.Input(s.input, s.name, s.pull)
		if err != nil {
			t.Fatalf("Input %s: %v", s.name, err)
		}
		out, err := b.chip.Output(s.output, s.name, s.initial)
		if err != nil {
			t.Fatalf("Output %s: %v", s.name, err)
		}

		w, err := NewWatcher(s.name, in)
		if err != nil {
			t.Fatalf("NewWatcher %s: %v", s.name, err)
		}

		simIn, _ := b.chip.SimInput(s.input)
		simOut, _ := b.chip.SimOutput(s.output)
		b.inputs = append(b.inputs, simIn)
		b.outputs = append(b.outputs, simOut)
		b.pairings = append(b.pairings, NewPairing(w, NewDriver(s.name, out)))
	}
	return b
}

// twoLines is line A starting high and line B starting low.
func twoLines(t testing.TB) *bench {
	return newBench(t,
		lineConfig{name: "A", input: 11, output: 13, pull: port.PullUp, initial: port.High},
		lineConfig{name: "B", input: 12, output: 14, pull: port.PullDown, initial: port.Low},
	)
}

func (b *bench) selector() *Selector {
	ps := make([]Participant, len(b.pairings))
	for i, p := range b.pairings {
		ps[i] = p
	}
	return NewSelector(ps...)
}

func assertLevels(t testing.TB, got, want []port.Level) {
	t.Helper()

	if len(got) != len(want) {
		t.Errorf("got %v want %v", got, want)
		return
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("for key [%d] got: %v want: %v", i, got[i], want[i])
		}
	}
}

func assertResult(t testing.TB, got Result, wantIndex int, wantLevel port.Level) {
	t.Helper()

	if got.Index != wantIndex || got.Level != wantLevel {
		t.Errorf("got {%d %s %v} want {%d %v}", got.Index, got.Line, got.Level, wantIndex, wantLevel)
	}
}
