package main

import (
	"fmt"
	"io"
	"os"

	"github.com/park285/cheese-clock/internal/clockbuilder"
	appcfg "github.com/park285/cheese-clock/internal/config"
	"github.com/park285/cheese-clock/internal/obslog"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type options struct {
	preset   string
	time     string
	delay    string
	negative bool
	notation bool
	restore  string
}

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
	}
	defer obslog.Sync()

	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		obslog.L().Error("chessclock_exit", zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
	cfg, err := appcfg.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	var opts options
	flagSet := pflag.NewFlagSet("chessclock", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVar(&opts.preset, "preset", cfg.Preset, "named time control (bullet, blitz, rapid, classical, bronstein, casual, fide)")
	flagSet.StringVar(&opts.time, "time", cfg.TimeControl, `shorthand time control such as "5+3" or "3+2d"; overrides --preset`)
	flagSet.StringVar(&opts.delay, "delay", "", "increment type: fischer or bronstein")
	flagSet.BoolVar(&opts.negative, "negative", false, "let clocks run below zero instead of flagging")
	flagSet.BoolVar(&opts.notation, "notation", false, "validate a chess move attached to each tap")
	flagSet.StringVar(&opts.restore, "restore", "", "resume from a snapshot file (.json or .cbor)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(out, flagSet)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	deps, err := clockbuilder.New(cfg, obslog.L())
	if err != nil {
		return err
	}
	defer deps.Close()

	return newREPL(deps, opts, in, out).loop()
}

func printHelp(out io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(out, `chessclock: a two-player chess clock for the terminal.

Usage:
  chessclock [flags]

Flags:
%s
Environment:
  CLOCK_PRESET, CLOCK_TIME_CONTROL, CLOCK_PRESETS_FILE, REDIS_URL, DATABASE_URL,
  SQLITE_PATH, CLOCK_SNAPSHOT_DIR, MESSAGES_DIR, LOG_LEVEL, LOG_FILE
`, flagSet.FlagUsages())
}
