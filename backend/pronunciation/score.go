package pronunciation

import (
	"errors"
	"fmt"
)

const (
	// StarCap bounds the stars reachable without a perfect run.
	StarCap = 4
	// PerfectStarCap is the bound once a run scores 100%.
	PerfectStarCap = 5
)

var ErrInvalidInput = errors.New("invalid completion input")

// Score is the outcome of one completed session.
type Score struct {
	Accuracy float64
	Earned   int
	Cap      int
	OldStars int
	NewStars int
}

// ScoreCompletion awards at most one star for a session with the given
// number of correct sentences. Accuracy thresholds are compared as exact
// rationals: a star needs correct/total >= 4/5, the fifth star needs
// correct == total. The result never drops below priorStars.
func ScoreCompletion(correct, total, priorStars int) (Score, error) {
	if total <= 0 || correct < 0 || correct > total {
		return Score{}, fmt.Errorf("%w: correct=%d total=%d", ErrInvalidInput, correct, total)
	}
	if priorStars < 0 {
		priorStars = 0
	}

	s := Score{
		Accuracy: float64(correct) / float64(total),
		Cap:      StarCap,
		OldStars: priorStars,
	}
	if 5*correct >= 4*total {
		s.Earned = 1
	}
	if correct == total {
		s.Cap = PerfectStarCap
	}

	s.NewStars = min(s.Cap, priorStars+s.Earned)
	if s.NewStars < priorStars {
		s.NewStars = priorStars
	}
	return s, nil
}
