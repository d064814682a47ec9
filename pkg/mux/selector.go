package mux

import (
	"context"
	"errors"

	"edgemux/pkg/port"
)

// NoWinner is the Result index of a round without a winner.
const NoWinner = -1

var ErrNoParticipants = errors.New("selector has no participants")

// Participant is one racer of a Selector round.
type Participant interface {
	// Name identifies the participant in the Result.
	Name() string
	// Arm issues the participant's pending wait for the round.
	Arm(wake chan<- struct{}) *Wait
	// Resume runs the post-suspension part of the round and returns its value.
	// It is only called for the winner.
	Resume() port.Level
}

// Result tells which participant won a round and what it produced.
type Result struct {
	Index int
	Line  string
	Level port.Level
}

// Selector races the pending waits of its participants.
//
// Every round arms all participants in registration order and completes as
// soon as one of the waits is ready. Waits are scanned in registration order,
// so of several waits that are ready on the same pass the first registered
// wins. Only the winner is resumed. All other waits are abandoned, their
// latched edges stay with the watcher and are seen again in the next round.
type Selector struct {
	participants []Participant
	waits        []*Wait
	wake         chan struct{}
}

// NewSelector returns a selector over participants, the order is the tie-break order.
func NewSelector(participants ...Participant) *Selector {
	return &Selector{
		participants: participants,
		waits:        make([]*Wait, len(participants)),
		wake:         make(chan struct{}, 1),
	}
}

// Len returns the number of participants.
func (s *Selector) Len() int {
	return len(s.participants)
}

// Participant returns the participant registered at index i.
func (s *Selector) Participant(i int) Participant {
	return s.participants[i]
}

// Round blocks until one participant's wait completes and returns its Result.
// If ctx is done first, all waits are abandoned and ctx.Err() is returned.
func (s *Selector) Round(ctx context.Context) (Result, error) {
	if len(s.participants) == 0 {
		return Result{Index: NoWinner}, ErrNoParticipants
	}

	s.arm()
	for {
		if r, ok := s.pass(); ok {
			return r, nil
		}

		select {
		case <-s.wake:
		case <-ctx.Done():
			s.abandon(NoWinner)
			return Result{Index: NoWinner}, ctx.Err()
		}
	}
}

// Poll runs a round without blocking. If no wait is ready, all waits are
// abandoned and ok is false.
func (s *Selector) Poll() (r Result, ok bool) {
	if len(s.participants) == 0 {
		return Result{Index: NoWinner}, false
	}

	s.arm()
	if r, ok = s.pass(); ok {
		return r, true
	}
	s.abandon(NoWinner)
	return Result{Index: NoWinner}, false
}

func (s *Selector) arm() {
	// a token left over from the last round only causes one more pass
	select {
	case <-s.wake:
	default:
	}

	for i, p := range s.participants {
		s.waits[i] = p.Arm(s.wake)
	}
}

// pass scans the waits in registration order and resumes the first ready one.
func (s *Selector) pass() (Result, bool) {
	for i, w := range s.waits {
		if !w.consume() {
			continue
		}

		s.abandon(i)
		p := s.participants[i]
		return Result{Index: i, Line: p.Name(), Level: p.Resume()}, true
	}
	return Result{}, false
}

// abandon drops all waits except the winner's.
func (s *Selector) abandon(winner int) {
	for i, w := range s.waits {
		if i != winner {
			w.Abandon()
		}
		s.waits[i] = nil
	}
}
