package main

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cory-johannsen/wheel/internal/game/audit"
	"github.com/cory-johannsen/wheel/internal/game/event"
	"github.com/cory-johannsen/wheel/internal/game/tournament"
	"github.com/cory-johannsen/wheel/internal/game/wheel"
	"github.com/cory-johannsen/wheel/internal/lifecycle"
)

type spinReport struct {
	SpinID   string  `yaml:"spin_id"`
	Winner   string  `yaml:"winner,omitempty"`
	Label    string  `yaml:"label,omitempty"`
	Rotation float64 `yaml:"rotation"`
}

type eliminationReport struct {
	Order     int    `yaml:"order"`
	Round     int    `yaml:"round"`
	Candidate string `yaml:"candidate"`
	Label     string `yaml:"label"`
}

type tournamentReport struct {
	ID            string              `yaml:"tournament_id"`
	Title         string              `yaml:"title,omitempty"`
	Status        string              `yaml:"status"`
	Champion      string              `yaml:"champion,omitempty"`
	ChampionLabel string              `yaml:"champion_label,omitempty"`
	ChampionOrder int                 `yaml:"champion_order,omitempty"`
	Rounds        int                 `yaml:"rounds"`
	Eliminations  []eliminationReport `yaml:"eliminations"`
	Remaining     []string            `yaml:"remaining,omitempty"`
}

// runSpin spins the wheel -repeat times. An interrupt stops the loop after
// the spin in progress settles.
func runSpin(ctx context.Context, a *app, _ []string) error {
	speed, err := a.cfg.Wheel.Preset(a.opts.preset)
	if err != nil {
		return err
	}
	mode, err := parseMode(a.opts.mode)
	if err != nil {
		return err
	}
	engine := a.engine()
	cands := a.roster.Candidates()

	var stop atomic.Bool
	lc := a.lifecycle()
	lc.Add("spin", &lifecycle.FuncJob{
		RunFn: func() error {
			for i := 0; a.opts.repeat <= 0 || i < a.opts.repeat; i++ {
				if stop.Load() {
					return nil
				}
				res, err := engine.Spin(cands, mode, speed)
				if err != nil {
					return err
				}
				rep := spinReport{SpinID: res.SpinID, Rotation: res.Rotation}
				if res.HasWinner {
					rep.Winner = res.WinnerID
					rep.Label = a.roster.Label(res.WinnerID)
				}
				if err := a.print(rep); err != nil {
					return err
				}
			}
			return nil
		},
		StopFn: func() { stop.Store(true) },
	})
	return lc.Run(ctx)
}

// runTournament runs one knockout. Rounds always run to completion, so an
// interrupt only takes effect once the tournament is decided. With fewer than
// two candidates there is nothing to knock out and a single plain spin
// decides the champion.
func runTournament(ctx context.Context, a *app, _ []string) error {
	engine := a.engine()
	ctrl := tournament.NewController(engine, a.sleeper(), a.bus, a.logger)
	stages := a.cfg.Tournament.StageTable()
	cands := a.roster.Candidates()

	lc := a.lifecycle()
	lc.Add("tournament", &lifecycle.FuncJob{
		RunFn: func() error {
			var out tournament.Outcome
			var err error
			if len(cands) < 2 {
				out, err = a.spinOff(engine, cands, stages)
			} else {
				out, err = ctrl.Run(cands, stages)
			}
			if err != nil {
				return err
			}
			return a.print(a.tournamentReport(out))
		},
		StopFn: func() {
			a.logger.Info("interrupt received; the tournament will finish its remaining rounds")
		},
	})
	return lc.Run(ctx)
}

// spinOff decides a pool too small for a knockout with one normal-weight spin
// at the final-round speed. The winner is champion at order 1; an empty pool
// is inconclusive.
func (a *app) spinOff(engine tournament.Spinner, cands []wheel.Candidate, stages []tournament.Stage) (tournament.Outcome, error) {
	stage, ok := tournament.SelectStage(tournament.SortStages(stages), len(cands))
	if !ok {
		return tournament.Outcome{}, tournament.ErrNoStages
	}
	res, err := engine.Spin(cands, wheel.Normal, stage.FinalSpin)
	if err != nil {
		return tournament.Outcome{}, err
	}
	if !res.HasWinner {
		a.bus.Emit(event.Inconclusive{})
		a.logger.Warn("tournament inconclusive: no candidates to spin")
		return tournament.Outcome{ID: res.SpinID, Status: tournament.StatusInconclusive}, nil
	}
	a.sleeper().Sleep(stage.WinnerRevealDelay)
	a.bus.Emit(event.Champion{CandidateID: res.WinnerID, Order: 1})
	a.logger.Info("tournament decided by a single spin",
		zap.String("champion", res.WinnerID),
		zap.Int("candidates", len(cands)),
	)
	return tournament.Outcome{
		ID:            res.SpinID,
		Status:        tournament.StatusFinished,
		ChampionID:    res.WinnerID,
		ChampionOrder: 1,
	}, nil
}

func (a *app) tournamentReport(out tournament.Outcome) tournamentReport {
	rep := tournamentReport{
		ID:            out.ID,
		Title:         a.roster.Title,
		Status:        out.Status.String(),
		Champion:      out.ChampionID,
		ChampionOrder: out.ChampionOrder,
		Rounds:        out.Rounds,
		Eliminations:  make([]eliminationReport, len(out.Eliminations)),
	}
	if out.ChampionID != "" {
		rep.ChampionLabel = a.roster.Label(out.ChampionID)
	}
	for i, e := range out.Eliminations {
		rep.Eliminations[i] = eliminationReport{
			Order:     e.Order,
			Round:     e.Round,
			Candidate: e.CandidateID,
			Label:     a.roster.Label(e.CandidateID),
		}
	}
	for _, c := range out.Remaining {
		rep.Remaining = append(rep.Remaining, c.ID)
	}
	return rep
}

// runAudit runs one fairness audit and prints the report.
func runAudit(ctx context.Context, a *app, _ []string) error {
	iterations := a.opts.iterations
	if iterations <= 0 {
		iterations = a.cfg.Audit.Iterations
	}
	auditor := audit.NewAuditor(a.src, a.logger)
	cands := a.roster.Candidates()

	lc := a.lifecycle()
	lc.Add("audit", &lifecycle.FuncJob{
		RunFn: func() error {
			rep, err := auditor.Run(cands, iterations)
			if err != nil {
				return err
			}
			a.logger.Debug("audit report ready", zap.Int("results", len(rep.Results)))
			return a.print(rep)
		},
	})
	return lc.Run(ctx)
}
