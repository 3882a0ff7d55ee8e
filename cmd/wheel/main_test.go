package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/wheel/internal/config"
	"github.com/cory-johannsen/wheel/internal/game/audit"
	"github.com/cory-johannsen/wheel/internal/game/event"
	"github.com/cory-johannsen/wheel/internal/game/rng"
	"github.com/cory-johannsen/wheel/internal/game/tournament"
	"github.com/cory-johannsen/wheel/internal/roster"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: wheel")

	code, _, stderr = runCLI(t, "juggle")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "juggle"`)

	code, stdout, _ := runCLI(t, "help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "tournament")
}

func TestRun_Spin(t *testing.T) {
	code, stdout, stderr := runCLI(t, "spin", "-instant", "-seed", "7", "-log-level", "error", "alpha=2", "beta", "gamma=9")
	require.Equal(t, 0, code, stderr)

	var rep spinReport
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &rep))
	assert.Contains(t, []string{"alpha", "beta", "gamma"}, rep.Winner)
	assert.NotEmpty(t, rep.SpinID)
	assert.GreaterOrEqual(t, rep.Rotation, 0.0)
}

func TestRun_SpinIsReproducibleWithSeed(t *testing.T) {
	args := []string{"spin", "-instant", "-seed", "42", "-repeat", "5", "-log-level", "error", "a", "b", "c", "d"}
	_, first, _ := runCLI(t, args...)
	_, second, _ := runCLI(t, args...)
	assert.Equal(t, winners(t, first), winners(t, second))
	assert.Len(t, winners(t, first), 5)
}

func winners(t *testing.T, out string) []string {
	t.Helper()
	dec := yaml.NewDecoder(strings.NewReader(out))
	var ws []string
	for {
		var rep spinReport
		if err := dec.Decode(&rep); err != nil {
			break
		}
		ws = append(ws, rep.Winner)
	}
	return ws
}

func TestRun_SpinSingleCandidate(t *testing.T) {
	code, stdout, _ := runCLI(t, "spin", "-instant", "-log-level", "error", "-preset", "quick", "solo=5")
	require.Equal(t, 0, code)
	var rep spinReport
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &rep))
	assert.Equal(t, "solo", rep.Winner)
}

func TestRun_SpinErrors(t *testing.T) {
	code, _, stderr := runCLI(t, "spin", "-instant", "-log-level", "error")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no candidates")

	code, _, stderr = runCLI(t, "spin", "-instant", "-log-level", "error", "-mode", "sideways", "a")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown weight mode")

	code, _, stderr = runCLI(t, "spin", "-instant", "-log-level", "error", "-preset", "warp", "a")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown speed preset")
}

func TestRun_Tournament(t *testing.T) {
	code, stdout, stderr := runCLI(t, "tournament", "-instant", "-seed", "3", "-log-level", "error", "A", "B", "C")
	require.Equal(t, 0, code, stderr)

	var rep tournamentReport
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &rep))
	assert.Equal(t, "finished", rep.Status)
	assert.Equal(t, 3, rep.ChampionOrder)
	require.Len(t, rep.Eliminations, 2)
	assert.Equal(t, 1, rep.Eliminations[0].Order)
	assert.Equal(t, 2, rep.Eliminations[1].Order)
	assert.NotEqual(t, rep.Champion, rep.Eliminations[0].Candidate)
	assert.NotEqual(t, rep.Champion, rep.Eliminations[1].Candidate)
}

func TestRun_TournamentWithRosterAndScripts(t *testing.T) {
	dir := t.TempDir()
	rosterPath := filepath.Join(dir, "roster.yaml")
	require.NoError(t, os.WriteFile(rosterPath, []byte(`
title: Office chores
candidates:
  - id: dishes
    name: Do the dishes
    weight: 2
  - id: plants
    name: Water the plants
  - id: trash
    name: Take out the trash
    weight: 8
`), 0644))
	scripts := filepath.Join(dir, "hooks")
	require.NoError(t, os.Mkdir(scripts, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "announce.lua"), []byte(`
		function on_eliminated(e) wheel.announce("out: " .. e.candidate) end
		function on_champion(e) wheel.announce("champion: " .. e.candidate) end
	`), 0644))

	code, stdout, stderr := runCLI(t, "tournament", "-instant", "-seed", "11", "-log-level", "error",
		"-roster", rosterPath, "-scripts", scripts)
	require.Equal(t, 0, code, stderr)

	var rep tournamentReport
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &rep))
	assert.Equal(t, "Office chores", rep.Title)
	assert.NotEmpty(t, rep.ChampionLabel)
	assert.Equal(t, 2, strings.Count(stderr, "out: "))
	assert.Contains(t, stderr, "champion: "+rep.Champion)
}

func TestRun_TournamentSingleCandidateSpinsOnce(t *testing.T) {
	scripts := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "announce.lua"), []byte(`
		function on_champion(e) wheel.announce("champion: " .. e.candidate .. " #" .. e.order) end
	`), 0644))

	code, stdout, stderr := runCLI(t, "tournament", "-instant", "-log-level", "error", "-scripts", scripts, "lonely")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "champion: lonely")

	var rep tournamentReport
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &rep))
	assert.Equal(t, "finished", rep.Status)
	assert.Equal(t, "lonely", rep.Champion)
	assert.Equal(t, "lonely", rep.ChampionLabel)
	assert.Equal(t, 1, rep.ChampionOrder)
	assert.Zero(t, rep.Rounds)
	assert.Empty(t, rep.Eliminations)
	assert.NotEmpty(t, rep.ID)
	assert.Contains(t, stderr, "champion: lonely #1")
}

func TestSpinOff_EmptyPoolIsInconclusive(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	var stdout bytes.Buffer
	a := &app{
		opts:   &options{instant: true},
		cfg:    cfg,
		logger: zap.NewNop(),
		src:    rng.NewSeededSource(1),
		bus:    event.NewBus(),
		roster: &roster.Roster{},
		out:    yaml.NewEncoder(&stdout),
		stderr: &bytes.Buffer{},
	}
	ch := make(chan event.Event, 8)
	a.bus.Subscribe(ch)

	out, err := a.spinOff(a.engine(), nil, cfg.Tournament.StageTable())
	require.NoError(t, err)
	assert.Equal(t, tournament.StatusInconclusive, out.Status)
	assert.Empty(t, out.ChampionID)

	rep := a.tournamentReport(out)
	assert.Equal(t, "inconclusive", rep.Status)
	assert.Empty(t, rep.Champion)

	var kinds []event.Kind
	for len(ch) > 0 {
		kinds = append(kinds, (<-ch).Kind())
	}
	assert.Equal(t, []event.Kind{event.KindSettled, event.KindInconclusive}, kinds)

	_, err = a.spinOff(a.engine(), nil, nil)
	assert.ErrorIs(t, err, tournament.ErrNoStages)
}

func TestRun_Audit(t *testing.T) {
	code, stdout, stderr := runCLI(t, "audit", "-seed", "5", "-iterations", "20000", "-log-level", "error", "one=1", "three=3")
	require.Equal(t, 0, code, stderr)

	var rep audit.Report
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &rep))
	assert.Equal(t, 20000, rep.Iterations)
	require.Len(t, rep.Results, 2)
	assert.Equal(t, "three", rep.Results[0].CandidateID)
	assert.InDelta(t, 0.75, rep.Results[0].ActualRatio, 0.02)
}

func TestRun_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wheel:\n  frame_rate: -1\n"), 0644))
	code, _, stderr := runCLI(t, "spin", "-config", path, "a")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "wheel.frame_rate")
}

func TestParseMode(t *testing.T) {
	m, err := parseMode("INVERSE")
	require.NoError(t, err)
	assert.Equal(t, "inverse", m.String())
	m, err = parseMode("")
	require.NoError(t, err)
	assert.Equal(t, "normal", m.String())
}
