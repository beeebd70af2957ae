package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"kanban-cli/internal/session"

	"github.com/spf13/cobra"
)

func newLoginCmd(app *App) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and cache your email for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.controller(app.state())
			if err != nil {
				return writeErr(cmd, err)
			}
			prompt := session.Prompt(func(ctx context.Context) (string, error) {
				if v := strings.TrimSpace(email); v != "" {
					return v, nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Please enter your company email (xxx@%s): ", app.cfg.EmailDomain)
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && strings.TrimSpace(line) == "" {
					return "", err
				}
				return line, nil
			})

			var actorErr error
			if strings.TrimSpace(email) != "" {
				_, actorErr = ctrl.Login(cmd.Context(), email)
			} else {
				// Nothing cached yet: prompt. A cached identity is re-validated.
				_, actorErr = ctrl.Start(cmd.Context(), prompt)
			}
			actor, ok := ctrl.Actor()
			if !ok {
				if actorErr == nil {
					actorErr = errNotLoggedIn
				}
				return writeErr(cmd, loginFailed(actorErr))
			}

			meta := map[string]any{"tasks": len(ctrl.Tasks())}
			if actorErr != nil {
				meta["loadError"] = actorErr.Error()
			}
			return writeOut(cmd, app, map[string]any{"data": actor, "meta": meta})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Company email (prompted when omitted)")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the cached identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.controller(app.state())
			if err != nil {
				return writeErr(cmd, err)
			}
			email, err := ctrl.CachedEmail(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ctrl.Logout(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"loggedOut": email != "", "email": email},
			})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.session(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			actor, _ := ctrl.Actor()
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"email": actor.Email, "admin": actor.Admin, "label": actor.Label()},
			})
		},
	}
}
