package config

import (
	"sync/atomic"
)

// RunState carries the process-wide interruption flag. The hosting
// environment (signal handler) sets it exactly once; worker loops only read
// it. The flag is never cleared for the remainder of the run.
type RunState struct {
	interrupted atomic.Bool
}

// NewRunState returns a fresh, uninterrupted RunState.
func NewRunState() *RunState {
	return &RunState{}
}

// Interrupt marks the run as interrupted. Safe to call more than once.
func (s *RunState) Interrupt() {
	s.interrupted.Store(true)
}

// Interrupted reports whether an interrupt has been requested. Polled
// cooperatively between discrete units of work; in-flight network calls are
// never forcibly aborted.
func (s *RunState) Interrupted() bool {
	return s.interrupted.Load()
}
