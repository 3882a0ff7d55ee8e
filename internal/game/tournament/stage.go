package tournament

import (
	"sort"
	"time"

	"github.com/cory-johannsen/wheel/internal/game/spin"
)

// Stage configures knockout rounds while at least MinCount candidates remain.
type Stage struct {
	MinCount int
	// EliminationSpin drives every round except the last.
	EliminationSpin spin.Speed
	// FinalSpin drives the round with exactly two candidates left.
	FinalSpin           spin.Speed
	InterRoundDelay     time.Duration
	KnockoutRevealDelay time.Duration
	FinalRevealDelay    time.Duration
	WinnerRevealDelay   time.Duration
}

// SortStages returns a copy of stages ordered by MinCount descending.
func SortStages(stages []Stage) []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MinCount > out[j].MinCount })
	return out
}

// SelectStage returns the first stage whose MinCount <= remaining. When none
// matches, the last stage is used.
//
// Precondition: stages is ordered by MinCount descending (see SortStages).
// Postcondition: Returns (stage, true), or (Stage{}, false) iff stages is empty.
func SelectStage(stages []Stage, remaining int) (Stage, bool) {
	if len(stages) == 0 {
		return Stage{}, false
	}
	for _, s := range stages {
		if s.MinCount <= remaining {
			return s, true
		}
	}
	return stages[len(stages)-1], true
}
