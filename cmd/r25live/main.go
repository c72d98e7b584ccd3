// r25live signs in to 25Live, lists reservations, and keeps a cached snapshot
// of the upcoming events window fresh.
//
// Settings and the session token live in memory unless --db points at a
// sqlite file or a postgres URL. With --redis the session token is kept in
// redis instead, and serve-refresh --queue runs refreshes through a redis
// backed job queue.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/pflag"
)

type globalFlags struct {
	configPath    string
	dsn           string
	logLevel      string
	logFormat     string
	redisAddr     string
	redisPassword string
}

type subcommand struct {
	summary string
	run     func(ctx context.Context, app *app, args []string, stdout io.Writer) error
}

var subcommands = map[string]subcommand{
	"set-credentials": {summary: "encrypt and store the 25Live credentials", run: runSetCredentials},
	"login":           {summary: "run the login handshake and store the session", run: runLogin},
	"clear-session":   {summary: "forget the stored session token", run: runClearSession},
	"events":          {summary: "list reservations for a date window", run: runEvents},
	"render":          {summary: "render the upcoming events as HTML", run: runRender},
	"serve-refresh":   {summary: "refresh the upcoming events snapshot on a schedule (--queue uses redis jobs)", run: runServeRefresh},
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) error {
	var global globalFlags
	flagSet := pflag.NewFlagSet("r25live", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.Usage = func() {}
	flagSet.StringVar(&global.configPath, "config", "", "path to a YAML config file")
	flagSet.StringVar(&global.dsn, "db", "", "sqlite DSN or postgres:// URL for settings and sessions")
	flagSet.StringVar(&global.logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	flagSet.StringVar(&global.logFormat, "log-format", "console", "log format: console or json")
	flagSet.StringVar(&global.redisAddr, "redis", "", "redis address for the session token (host:port)")
	flagSet.StringVar(&global.redisPassword, "redis-password", "", "redis password")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(stderr, flagSet)
			return nil
		}
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(stderr, flagSet)
		return fmt.Errorf("missing subcommand")
	}
	cmd, ok := subcommands[rest[0]]
	if !ok {
		printUsage(stderr, flagSet)
		return fmt.Errorf("unknown subcommand %q", rest[0])
	}

	app, err := newApp(ctx, global, stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	return cmd.run(ctx, app, rest[1:], stdout)
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage:\n  r25live [flags] <subcommand> [subcommand flags]\n\nSubcommands:\n")
	names := make([]string, 0, len(subcommands))
	for name := range subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %s\n", name, subcommands[name].summary)
	}
	fmt.Fprintf(w, "\nFlags:\n")
	flagSet.PrintDefaults()
}
