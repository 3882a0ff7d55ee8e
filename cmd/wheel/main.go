// Package main is the wheel command line: single weighted spins, knockout
// tournaments, and fairness audits over a candidate list.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
)

const usage = `usage: wheel <command> [flags] [name[=weight] ...]

commands:
  spin        draw one candidate with an animated spin
  tournament  eliminate candidates one per spin until a champion remains
  audit       compare observed win ratios with the configured odds

Candidates come from -roster or from the remaining arguments.
Run "wheel <command> -h" for the flags of a command.
`

func main() {
	_ = godotenv.Load(".env")
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var cmd func(context.Context, *app, []string) error
	switch args[0] {
	case "spin":
		cmd = runSpin
	case "tournament":
		cmd = runTournament
	case "audit":
		cmd = runAudit
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	fs := flag.NewFlagSet("wheel "+args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := registerFlags(fs, args[0])
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	a, err := newApp(opts, fs.Args(), stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "wheel: %v\n", err)
		return 1
	}
	defer a.close()

	if err := cmd(ctx, a, fs.Args()); err != nil {
		fmt.Fprintf(stderr, "wheel: %v\n", err)
		return 1
	}
	return 0
}
