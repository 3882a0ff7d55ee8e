// Package audit checks a wheel's fairness by Monte Carlo: it repeats the
// weighted draw many times and compares observed win ratios with the odds
// implied by the weights.
package audit

import (
	"errors"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/wheel/internal/game/rng"
	"github.com/cory-johannsen/wheel/internal/game/wheel"
)

// DefaultIterations is the draw count used when Run is given a non-positive count.
const DefaultIterations = 10000

var (
	// ErrNoCandidates is returned when Run is called with an empty candidate list.
	ErrNoCandidates = errors.New("audit: no candidates")
	// ErrZeroWeight is returned when the candidates carry no probability mass.
	ErrZeroWeight = errors.New("audit: total weight is zero")
)

// Result is one candidate's line in a Report.
type Result struct {
	CandidateID   string  `yaml:"candidate_id"`
	Weight        int     `yaml:"weight"`
	ExpectedRatio float64 `yaml:"expected_ratio"`
	Wins          int     `yaml:"wins"`
	ActualRatio   float64 `yaml:"actual_ratio"`
	Diff          float64 `yaml:"diff"`
}

// Report is the outcome of one audit.
type Report struct {
	Results    []Result `yaml:"results"`
	Iterations int      `yaml:"iterations"`
	// ChiSquared is Pearson's statistic of observed wins against expected wins.
	ChiSquared       float64 `yaml:"chi_squared"`
	DegreesOfFreedom int     `yaml:"degrees_of_freedom"`
	MaxAbsDiff       float64 `yaml:"max_abs_diff"`
}

// Auditor runs fairness audits with one random source.
type Auditor struct {
	src    rng.Source
	logger *zap.Logger
}

// NewAuditor creates an Auditor.
//
// Precondition: src and logger must be non-nil.
func NewAuditor(src rng.Source, logger *zap.Logger) *Auditor {
	return &Auditor{src: src, logger: logger}
}

// Run draws iterations times from the Normal partition of candidates and
// tallies wins per candidate.
//
// The partition is built once; weights are normalized exactly as for a spin.
// Results are ordered by ExpectedRatio descending, ties kept in input order.
//
// Postcondition: Returns ErrNoCandidates or ErrZeroWeight without drawing when
// the input is degenerate. Otherwise the Wins of all results sum to Iterations.
func (a *Auditor) Run(candidates []wheel.Candidate, iterations int) (Report, error) {
	if len(candidates) == 0 {
		return Report{}, ErrNoCandidates
	}
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	p := wheel.BuildPartition(candidates, wheel.Normal)
	if p.Degenerate() {
		return Report{}, ErrZeroWeight
	}

	wins := make([]int, len(p.Segments))
	for i := 0; i < iterations; i++ {
		seg, _ := wheel.Draw(p, a.src)
		wins[seg.Index]++
	}

	rep := Report{
		Results:          make([]Result, len(p.Segments)),
		Iterations:       iterations,
		DegreesOfFreedom: len(p.Segments) - 1,
	}
	n := float64(iterations)
	for i, s := range p.Segments {
		expected := s.Weight / p.TotalWeight
		actual := float64(wins[i]) / n
		r := Result{
			CandidateID:   s.CandidateID,
			Weight:        s.BaseWeight,
			ExpectedRatio: expected,
			Wins:          wins[i],
			ActualRatio:   actual,
			Diff:          actual - expected,
		}
		rep.Results[i] = r

		e := expected * n
		d := float64(wins[i]) - e
		rep.ChiSquared += d * d / e
		rep.MaxAbsDiff = math.Max(rep.MaxAbsDiff, math.Abs(r.Diff))
	}
	sort.SliceStable(rep.Results, func(i, j int) bool {
		return rep.Results[i].ExpectedRatio > rep.Results[j].ExpectedRatio
	})

	a.logger.Info("fairness audit complete",
		zap.Int("candidates", len(rep.Results)),
		zap.Int("iterations", iterations),
		zap.Float64("chi_squared", rep.ChiSquared),
		zap.Float64("max_abs_diff", rep.MaxAbsDiff),
	)
	return rep, nil
}

