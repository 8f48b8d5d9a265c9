// Command planner is the admin CLI of the party store.
//
//	planner [-config file] [-env file] <command> [flags]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"partyplanner/internal/adapters/remote"
	"partyplanner/internal/application/orchestrators"
	"partyplanner/internal/application/projections"
	"partyplanner/internal/config"
)

// errUsage marks errors that should be followed by the usage text.
var errUsage = errors.New("usage")

// app carries what every command needs.
type app struct {
	client *remote.Client
	loc    *time.Location
	out    io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":         {"log in and print the bearer token", runLogin},
	"hash-password": {"print the bcrypt hash of a password for the server config", runHashPassword},
	"customer":      {"create a customer record", runCustomer},
	"book":          {"create a budget and put it on the calendar", runBook},
	"edit":          {"change fields of a budget", runEdit},
	"confirm":       {"confirm a budget", runConfirm},
	"finish":        {"mark a confirmed party as delivered", runFinish},
	"delete":        {"delete a budget and its schedule", runDelete},
	"list":          {"list a customer's parties", runList},
	"calendar":      {"print a month grid", runCalendar},
	"day":           {"list the parties on one day", runDay},
	"occupied":      {"list upcoming occupied days", runOccupied},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "planner:", err)
		os.Exit(1)
	}
}

// run parses global flags, loads config and dispatches to a command.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("planner", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "partyplanner.yaml", "optional YAML config file")
	envPath := fs.String("env", ".env", "optional .env file")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		usage(stderr)
		return errUsage
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		usage(stderr)
		return fmt.Errorf("unknown command %q", name)
	}

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	a := &app{
		client: remote.NewClient(remote.Config{
			BaseURL:     cfg.APIBaseURL,
			Token:       cfg.APIToken,
			Timeout:     cfg.RequestTimeout,
			ReadRetries: cfg.ReadRetries,
		}),
		loc: loc,
		out: stdout,
	}
	err = cmd.run(ctx, a, fs.Args()[1:])
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: planner [-config file] [-env file] <command> [flags]")
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-14s %s\n", name, commands[name].summary)
	}
}

// planner builds a Planner over the remote store with a freshly loaded catalog.
func (a *app) planner(ctx context.Context) (*orchestrators.Planner, error) {
	p := orchestrators.NewPlanner(a.client, projections.NewCatalog(a.client, a.loc))
	if err := p.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("load calendar: %s", orchestrators.MessageOf(err))
	}
	return p, nil
}

// newFlags returns a flag set for a subcommand that reports errors instead of exiting.
func (a *app) newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

// required returns an error naming the first empty flag.
func required(fs *flag.FlagSet, names ...string) error {
	var missing []string
	for _, n := range names {
		if f := fs.Lookup(n); f != nil && strings.TrimSpace(f.Value.String()) == "" {
			missing = append(missing, "-"+n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing %s", fs.Name(), strings.Join(missing, ", "))
	}
	return nil
}
