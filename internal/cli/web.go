package cli

import (
	"fmt"
	"net"
	"strings"
	"time"

	"kanban-cli/internal/web"

	"github.com/spf13/cobra"
)

func newWebCmd(app *App) *cobra.Command {
	var addr string
	var open bool
	var secure bool

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the board to browsers",
		Long: strings.TrimSpace(`
Serve the board from a local HTTP server.

Each browser signs in with its own company email; the identity is kept in a
signed cookie. The board refreshes itself over server-sent events at the
configured poll interval.
`),
		Example: strings.TrimSpace(`
# Serve on localhost
kanban web --addr 127.0.0.1:3336

# Serve to the office network without opening a browser
kanban web --addr :3336 --open=false
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				listenAddr = app.cfg.WebAddr
			}
			svc, err := app.service()
			if err != nil {
				return writeErr(cmd, err)
			}

			srv, err := web.NewServer(web.ServerConfig{
				Addr:          listenAddr,
				ConfigDir:     app.cfg.Dir,
				Service:       svc,
				EmailDomain:   app.cfg.EmailDomain,
				PollInterval:  app.cfg.PollInterval,
				Logger:        app.logger,
				SecureCookies: secure,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}

			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"

			opened := false
			openErr := ""
			if open {
				if err := openBrowser(url); err != nil {
					openErr = err.Error()
				} else {
					opened = true
				}
			}

			hints := []string{}
			if !opened {
				hints = append(hints, "open "+url)
			}

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"dir":       app.cfg.Dir,
					"opened":    opened,
					"openError": openErr,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": hints,
			})

			fmt.Fprintf(cmd.ErrOrStderr(), "Kanban web running at %s\n", url)
			if openErr != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to open browser: %s\n", openErr)
			}

			return srv.Serve(cmd.Context(), ln)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (host:port or :port; default web_addr)")
	cmd.Flags().BoolVar(&open, "open", true, "Open the board in your default browser")
	cmd.Flags().BoolVar(&secure, "secure-cookies", false, "Mark the session cookie Secure (behind HTTPS)")
	return cmd
}
