package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"kanban-cli/internal/app"
	"kanban-cli/internal/backend/appsscript"
	"kanban-cli/internal/config"
	"kanban-cli/internal/format"
	"kanban-cli/internal/logging"
	"kanban-cli/internal/service"
	"kanban-cli/internal/session"
	"kanban-cli/internal/store"
	"kanban-cli/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	ConfigDir  string
	APIBase    string
	PrettyJSON bool
	Format     string

	// Service replaces the Apps Script client (tests).
	Service service.Service

	cfg    *config.Config
	logger *slog.Logger
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "kanban",
		Short:        "Team Kanban board: terminal board, web board and scriptable commands",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive board
  kanban

  # Scriptable commands
  kanban login --email you@cloverth.net
  kanban tasks list --column doing

  # Serve the board to a browser
  kanban web --addr 127.0.0.1:3336
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive board.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.load()
	}

	cmd.PersistentFlags().StringVar(&app.ConfigDir, "config-dir", envOr("KANBAN_CONFIG_DIR", ""), "Config/state directory (default: $XDG_CONFIG_HOME/kanban)")
	cmd.PersistentFlags().StringVar(&app.APIBase, "api", "", "Backend endpoint URL (overrides api_base)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("KANBAN_FORMAT", "json"), "Output format (json|yaml)")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newCommentsCmd(app))
	cmd.AddCommand(newWebCmd(app))

	return cmd
}

// load resolves configuration once per invocation. Command-line flags win
// over the environment and the config file.
func (a *App) load() error {
	cfg, err := config.Load(a.ConfigDir)
	if err != nil {
		return err
	}
	if v := strings.TrimSpace(a.APIBase); v != "" {
		cfg.APIBase = v
	}
	a.cfg = cfg
	if a.logger == nil {
		a.logger = logging.Setup(cfg.SlogLevel())
	}
	return nil
}

func (a *App) service() (service.Service, error) {
	if a.Service != nil {
		return a.Service, nil
	}
	return appsscript.New(a.cfg.APIBase,
		appsscript.WithTimeout(a.cfg.HTTPTimeout),
		appsscript.WithLogger(a.logger),
	)
}

func (a *App) state() store.Store {
	return store.Store{Dir: a.cfg.Dir}
}

func (a *App) controller(storage session.Storage) (*app.Controller, error) {
	svc, err := a.service()
	if err != nil {
		return nil, err
	}
	return app.NewController(svc, storage, app.Options{EmailDomain: a.cfg.EmailDomain, StrictDates: true}, a.logger), nil
}

// session returns a controller signed in as the cached identity with the
// board loaded.
func (a *App) session(ctx context.Context) (*app.Controller, error) {
	ctrl, err := a.controller(a.state())
	if err != nil {
		return nil, err
	}
	if _, err := ctrl.Start(ctx, nil); err != nil {
		if errors.Is(err, session.ErrNoEmail) {
			return nil, errNotLoggedIn
		}
		if _, ok := ctrl.Actor(); ok {
			return nil, errors.New(app.LoadErrorMessage(err))
		}
		return nil, err
	}
	return ctrl, nil
}

func runTUI(cmd *cobra.Command, a *App) error {
	logger, closeLog, err := logging.SetupFile(a.cfg.LogPath(), a.cfg.SlogLevel())
	if err != nil {
		return writeErr(cmd, err)
	}
	defer func() { _ = closeLog() }()
	a.logger = logger

	ctrl, err := a.controller(a.state())
	if err != nil {
		return writeErr(cmd, err)
	}
	st := a.state()
	return tui.Run(cmd.Context(), ctrl, tui.Options{
		PollInterval: a.cfg.PollInterval,
		State:        &st,
		Logger:       logger,
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, a *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, a.Format, a.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), app.Message(err))
	return err
}
