package engine

import "github.com/ivlev/slidereveal/internal/effects"

// Selector is the round robin state behind reveal selection. It is owned by
// the engine and only touched under the engine lock.
type Selector struct {
	Counter int
}

// Select picks the reveal for the next delivered bitmap and advances the
// counter. Even deliveries are radial; odd ones are linear, horizontal when
// the counter is a multiple of 3 and vertical otherwise.
func Select(s *Selector) effects.Kind {
	n := s.Counter
	s.Counter++

	if n%2 == 0 {
		return effects.Radial
	}
	if n%3 == 0 {
		return effects.LinearHorizontal
	}
	return effects.LinearVertical
}
