package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/wheel/internal/config"
	"github.com/cory-johannsen/wheel/internal/game/event"
	"github.com/cory-johannsen/wheel/internal/game/rng"
	"github.com/cory-johannsen/wheel/internal/game/spin"
	"github.com/cory-johannsen/wheel/internal/game/tournament"
	"github.com/cory-johannsen/wheel/internal/game/wheel"
	"github.com/cory-johannsen/wheel/internal/lifecycle"
	"github.com/cory-johannsen/wheel/internal/observability"
	"github.com/cory-johannsen/wheel/internal/roster"
	"github.com/cory-johannsen/wheel/internal/scripting"
)

// options holds the parsed flags of one command.
type options struct {
	configPath string
	rosterPath string
	scriptsDir string
	logLevel   string
	seed       uint64
	instant    bool
	watch      bool

	// spin
	preset string
	mode   string
	repeat int

	// audit
	iterations int
}

func registerFlags(fs *flag.FlagSet, cmd string) *options {
	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "path to configuration file (defaults apply when empty)")
	fs.StringVar(&o.rosterPath, "roster", "", "path to a YAML roster file")
	fs.StringVar(&o.logLevel, "log-level", "", "override logging.level")
	fs.Uint64Var(&o.seed, "seed", 0, "random seed for reproducible draws (0 uses random.seed)")

	if cmd == "spin" || cmd == "tournament" {
		fs.StringVar(&o.scriptsDir, "scripts", "", "directory of Lua hook scripts (overrides scripting.dir)")
		fs.BoolVar(&o.instant, "instant", false, "skip real-time animation and delays")
		fs.BoolVar(&o.watch, "watch", false, "print each segment the pointer crosses")
	}
	switch cmd {
	case "spin":
		fs.StringVar(&o.preset, "preset", "", "speed preset (defaults to wheel.default_preset)")
		fs.StringVar(&o.mode, "mode", "normal", "weight mode: normal or inverse")
		fs.IntVar(&o.repeat, "repeat", 1, "number of spins; 0 spins until interrupted")
	case "audit":
		fs.IntVar(&o.iterations, "iterations", 0, "number of draws (defaults to audit.iterations)")
	}
	return o
}

// app is the wired object graph shared by all commands.
type app struct {
	opts    *options
	cfg     config.Config
	logger  *zap.Logger
	src     rng.Source
	bus     *event.Bus
	roster  *roster.Roster
	scripts *scripting.Manager
	out     *yaml.Encoder
	stderr  io.Writer

	watchCh   chan event.Event
	watchQuit chan struct{}
	watchDone chan struct{}
}

func newApp(opts *options, args []string, stdout, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.seed != 0 {
		cfg.Random.Seed = opts.seed
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.scriptsDir != "" {
		cfg.Scripting.Dir = opts.scriptsDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	var r *roster.Roster
	if opts.rosterPath != "" {
		r, err = roster.Load(opts.rosterPath)
	} else {
		r, err = roster.FromArgs(args)
	}
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	a := &app{
		opts:   opts,
		cfg:    cfg,
		logger: logger,
		src:    rng.New(cfg.Random.Seed),
		bus:    event.NewBus(),
		roster: r,
		out:    yaml.NewEncoder(stdout),
		stderr: stderr,
	}
	a.out.SetIndent(2)
	a.bus.Listen(observability.NewEventLogger(logger))

	if cfg.Scripting.Dir != "" {
		a.scripts = scripting.NewManager(logger)
		a.scripts.Announce = func(msg string) { fmt.Fprintln(stderr, msg) }
		if err := a.scripts.Load(cfg.Scripting.Dir, cfg.Scripting.InstructionLimit); err != nil {
			a.close()
			return nil, err
		}
		a.bus.Listen(a.scripts)
	}
	if opts.watch {
		a.startWatch()
	}

	logger.Debug("wheel initialized",
		zap.Int("candidates", len(r.Entries)),
		zap.Uint64("seed", cfg.Random.Seed),
		zap.Bool("instant", opts.instant),
	)
	return a, nil
}

// startWatch prints ticks from a bus subscription so that slow terminal
// output never stalls the animation.
func (a *app) startWatch() {
	a.watchCh = make(chan event.Event, 256)
	a.watchQuit = make(chan struct{})
	a.watchDone = make(chan struct{})
	a.bus.Subscribe(a.watchCh)
	go func() {
		defer close(a.watchDone)
		for {
			select {
			case e := <-a.watchCh:
				a.printWatched(e)
			case <-a.watchQuit:
				for {
					select {
					case e := <-a.watchCh:
						a.printWatched(e)
					default:
						return
					}
				}
			}
		}
	}()
}

func (a *app) printWatched(e event.Event) {
	if t, ok := e.(event.Tick); ok {
		fmt.Fprintf(a.stderr, "  > %s\n", a.roster.Label(t.CandidateID))
	}
}

func (a *app) close() {
	if a.watchCh != nil {
		a.bus.Unsubscribe(a.watchCh)
		close(a.watchQuit)
		<-a.watchDone
	}
	if a.scripts != nil {
		a.scripts.Close()
	}
	_ = a.logger.Sync()
}

func (a *app) clock() spin.FrameClock {
	if a.opts.instant {
		return spin.NewStepClock(time.Second / time.Duration(a.cfg.Wheel.FrameRate))
	}
	return spin.NewTickerClock(a.cfg.Wheel.FrameRate)
}

func (a *app) sleeper() tournament.Sleeper {
	if a.opts.instant {
		return instantSleeper{}
	}
	return tournament.RealSleeper{}
}

func (a *app) engine() *spin.Engine {
	return spin.NewEngine(a.src, a.clock(), a.bus, a.logger, spin.WithPointerAngle(a.cfg.Wheel.PointerAngle))
}

func (a *app) lifecycle() *lifecycle.Lifecycle {
	return lifecycle.New(a.logger)
}

func (a *app) print(v any) error {
	if err := a.out.Encode(v); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

type instantSleeper struct{}

func (instantSleeper) Sleep(time.Duration) {}

func parseMode(s string) (wheel.WeightMode, error) {
	switch strings.ToLower(s) {
	case "", "normal":
		return wheel.Normal, nil
	case "inverse":
		return wheel.Inverse, nil
	default:
		return 0, fmt.Errorf("unknown weight mode %q (want normal or inverse)", s)
	}
}
