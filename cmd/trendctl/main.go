// Command trendctl lists GitHub repositories created in the last seven days
// and manages the starred set from a terminal. It shares configuration and
// storage with the trendpanel server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/trendpanel/internal/application"
	"github.com/ericfisherdev/trendpanel/internal/bootstrap"
	"github.com/ericfisherdev/trendpanel/internal/config"
	"github.com/ericfisherdev/trendpanel/internal/domain/model"
)

var version = "dev"

// CLI is the top-level command structure for trendctl.
type CLI struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`
	JSON    bool             `help:"Print JSON instead of a table."`
	Plain   bool             `help:"Force tab-separated output even if stdout is a TTY."`
	Verbose bool             `help:"Log at the configured level instead of warnings only." short:"v"`

	List      ListCmd      `cmd:"" default:"withargs" help:"List trending repositories."`
	Languages LanguagesCmd `cmd:"" help:"List the languages of the trending repositories."`
	Star      StarCmd      `cmd:"" help:"Toggle the starred state of a repository."`
	Starred   StarredCmd   `cmd:"" help:"List starred repositories."`
}

// dashboard is the part of the application the commands use.
type dashboard interface {
	ViewAndWait(ctx context.Context, sel model.Selection) application.DashboardView
	ToggleStar(ctx context.Context, id int64) bool
	StarredIDs() []int64
}

// env is bound into every command's Run method.
type env struct {
	ctx       context.Context
	dashboard dashboard
	out       io.Writer
	format    outputFormat
}

// errFetch marks a failed fetch with no cached data to show.
var errFetch = errors.New("fetch failed")

// ListCmd prints the trending list, optionally filtered.
type ListCmd struct {
	Language string `help:"Only show repositories in this language." short:"l" default:"all"`
	Starred  bool   `help:"Show the starred tab instead of the trending list." short:"s"`
}

// Run executes the list command.
func (c *ListCmd) Run(e *env) error {
	sel := model.Selection{Tab: model.TabTrending, Language: c.Language}
	if c.Starred {
		sel.Tab = model.TabStarred
	}

	view := e.dashboard.ViewAndWait(e.ctx, sel)
	if err := checkView(view); err != nil {
		return err
	}
	return printRepos(e.out, e.format, view)
}

// LanguagesCmd prints the distinct languages of the current result set.
type LanguagesCmd struct{}

// Run executes the languages command.
func (c *LanguagesCmd) Run(e *env) error {
	view := e.dashboard.ViewAndWait(e.ctx, model.DefaultSelection())
	if err := checkView(view); err != nil {
		return err
	}
	return printLanguages(e.out, e.format, view.Languages)
}

// StarCmd toggles one repository ID.
type StarCmd struct {
	ID int64 `arg:"" help:"Repository ID to star or unstar."`
}

// Run executes the star command.
func (c *StarCmd) Run(e *env) error {
	starred := e.dashboard.ToggleStar(e.ctx, c.ID)
	return printToggle(e.out, e.format, c.ID, starred)
}

// StarredCmd prints every starred ID, with details for those in the current
// result set.
type StarredCmd struct{}

// Run executes the starred command.
func (c *StarredCmd) Run(e *env) error {
	view := e.dashboard.ViewAndWait(e.ctx, model.Selection{Tab: model.TabStarred, Language: model.LanguageAll})
	if view.Error != "" {
		slog.Warn("showing starred IDs without details", "error", view.Error)
	}
	return printStarred(e.out, e.format, e.dashboard.StarredIDs(), view.Repos)
}

// checkView fails when the fetch failed and nothing is cached. A failure with
// cached data is reported as a warning.
func checkView(view application.DashboardView) error {
	if view.Error == "" {
		return nil
	}
	if view.UpdatedAt.IsZero() {
		return fmt.Errorf("%w: %s", errFetch, view.Error)
	}
	slog.Warn("showing cached results", "error", view.Error)
	return nil
}

// isTTY reports whether w is connected to a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func selectFormat(cli *CLI, w io.Writer) outputFormat {
	switch {
	case cli.JSON:
		return formatJSON
	case cli.Plain || !isTTY(w):
		return formatPlain
	default:
		return formatTable
	}
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("trendctl"),
		kong.Description("Trending GitHub repositories from the last 7 days."),
		kong.Vars{"version": version},
	)

	if err := run(kctx, &cli); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func run(kctx *kong.Context, cli *CLI) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if !cli.Verbose && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, err := bootstrap.Wire(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			slog.Error("error closing store", "error", closeErr)
		}
	}()

	return kctx.Run(&env{
		ctx:       ctx,
		dashboard: app.Dashboard,
		out:       os.Stdout,
		format:    selectFormat(cli, os.Stdout),
	})
}
