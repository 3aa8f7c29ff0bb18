package service

import (
	"sync"
)

// Sequencer is the single-writer commit lock shared by every mutating
// operation. Holding it for the whole operation makes each state transition
// an indivisible unit: a rule cannot be disabled between an executor's
// liveness check and its timestamp write.
type Sequencer struct {
	mu sync.Mutex
}

func NewSequencer() *Sequencer {
	return &Sequencer{}
}

func (s *Sequencer) Lock() {
	s.mu.Lock()
}

func (s *Sequencer) Unlock() {
	s.mu.Unlock()
}
