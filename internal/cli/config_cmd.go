package cli

import (
	"errors"
	"io/fs"

	"kanban-cli/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}
	cmd.AddCommand(newConfigInitCmd(app))
	cmd.AddCommand(newConfigShowCmd(app))
	return cmd
}

func newConfigInitCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented config.yaml with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.state().Ensure(); err != nil {
				return writeErr(cmd, err)
			}
			path, err := config.WriteDefault(app.cfg.Dir, force)
			created := err == nil
			if errors.Is(err, fs.ErrExist) {
				err = nil
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			out := map[string]any{"data": map[string]any{"path": path, "created": created}}
			if !created {
				out["_hints"] = []string{"kanban config init --force"}
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := app.cfg
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"dir":          c.Dir,
					"apiBase":      c.APIBase,
					"emailDomain":  c.EmailDomain,
					"pollInterval": c.PollInterval.String(),
					"httpTimeout":  c.HTTPTimeout.String(),
					"logLevel":     c.LogLevel,
					"logFile":      c.LogPath(),
					"webAddr":      c.WebAddr,
				},
			})
		},
	}
}
