// Package main implements the paratime CLI: convert a wall clock in one
// timezone to every city of the catalog.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/codeGROOVE-dev/paratime/pkg/board"
	"github.com/codeGROOVE-dev/paratime/pkg/catalog"
	"github.com/codeGROOVE-dev/paratime/pkg/config"
	"github.com/codeGROOVE-dev/paratime/pkg/constants"
	"github.com/codeGROOVE-dev/paratime/pkg/render"
	"github.com/codeGROOVE-dev/paratime/pkg/tzconvert"
)

var errUsage = errors.New("usage")

type cliFlags struct {
	catalog string
	filter  string
	envFile string
	list    bool
	watch   bool
	noColor bool
	verbose bool
	version bool
}

func parseFlags(fs *flag.FlagSet, args []string) (cliFlags, error) {
	var f cliFlags
	fs.StringVar(&f.catalog, "catalog", "", "YAML city catalog (or set PARATIME_CATALOG)")
	fs.StringVar(&f.filter, "filter", "", "Only list timezones matching this text (with -list)")
	fs.StringVar(&f.envFile, "env-file", ".env", "Optional environment file")
	fs.BoolVar(&f.list, "list", false, "List every timezone known to this host, sorted by offset")
	fs.BoolVar(&f.watch, "watch", false, "Read \"date time [timezone]\" lines from stdin and print each change")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&f.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&f.version, "version", false, "Show version")
	err := fs.Parse(args)
	return f, err
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] [YYYY-MM-DD HH:mm [timezone]]\n", fs.Name())
		fs.PrintDefaults()
	}
	f, err := parseFlags(fs, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if f.version {
		fmt.Printf("paratime v%s\n", constants.Version)
		return
	}

	level := slog.LevelError
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if f.noColor {
		color.NoColor = true
	}

	err = run(f, fs.Args(), os.Stdin, os.Stdout, logger, time.Now())
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		fs.Usage()
		os.Exit(2)
	default:
		logger.Error("paratime failed", "error", err)
		fmt.Fprintln(os.Stderr, color.RedString("%v", err))
		os.Exit(1)
	}
}

func run(f cliFlags, args []string, stdin io.Reader, stdout io.Writer, logger *slog.Logger, now time.Time) error {
	cfg, err := config.Load(f.envFile, logger)
	if err != nil {
		return err
	}
	if f.catalog != "" {
		cfg.CatalogPath = f.catalog
	}

	if f.list {
		opts := catalog.FilterOptions(catalog.Options(catalog.ListAllTimezoneIDs(), now), f.filter)
		_, err := io.WriteString(stdout, render.Options(opts))
		return err
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		if cat, err = catalog.Load(cfg.CatalogPath); err != nil {
			return err
		}
	}
	if missing := cat.Unrecognized(); len(missing) > 0 {
		logger.Warn("catalog zones unknown to this host", "zones", missing)
	}

	b := board.New(cat,
		board.WithLogger(logger),
		board.WithListener(func(snap board.Snapshot) {
			if _, err := io.WriteString(stdout, render.Snapshot(cat, snap)); err != nil {
				logger.Debug("failed to write snapshot", "error", err)
			}
		}),
	)

	if f.watch {
		return watch(b, stdin, stdout, cfg.DefaultTimezone)
	}

	in, err := inputFromArgs(args, cfg.DefaultTimezone, now)
	if err != nil {
		return err
	}
	snap, _ := b.Update(in)
	return snap.Err
}

// inputFromArgs builds the triple from positional arguments. Without
// arguments it uses the current time in the default zone.
func inputFromArgs(args []string, defaultTZ string, now time.Time) (board.Input, error) {
	switch len(args) {
	case 0:
		if loc, err := tzconvert.LoadZone(defaultTZ); err == nil {
			now = now.In(loc)
		}
		return board.Input{
			Date:       now.Format(tzconvert.DateLayout),
			Time:       now.Format(tzconvert.ClockLayout),
			TimezoneID: defaultTZ,
		}, nil
	case 2:
		return board.Input{Date: args[0], Time: args[1], TimezoneID: defaultTZ}, nil
	case 3:
		return board.Input{Date: args[0], Time: args[1], TimezoneID: args[2]}, nil
	default:
		return board.Input{}, errUsage
	}
}

// watch feeds every stdin line through the board. Unchanged lines print
// nothing; a line with the wrong shape is reported and skipped.
func watch(b *board.Board, stdin io.Reader, stdout io.Writer, defaultTZ string) error {
	tz := defaultTZ
	sc := bufio.NewScanner(stdin)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) == 3 {
			tz = fields[2]
		}
		if len(fields) < 2 || len(fields) > 3 {
			fmt.Fprintf(stdout, "%s\n", color.RedString("expected \"YYYY-MM-DD HH:mm [timezone]\", got %q", sc.Text()))
			continue
		}
		if _, changed := b.Update(board.Input{Date: fields[0], Time: fields[1], TimezoneID: tz}); changed {
			fmt.Fprintln(stdout)
		}
	}
	return sc.Err()
}
