package cli

import (
	"kanban-cli/internal/model"

	"github.com/spf13/cobra"
)

func newCommentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Comment commands",
	}
	cmd.AddCommand(newCommentsAddCmd(app))
	cmd.AddCommand(newCommentsListCmd(app))
	return cmd
}

func newCommentsAddCmd(app *App) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "add <task-id>",
		Short: "Add a comment to a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.session(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := ctrl.Find(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			comments, posted, err := ctrl.AddComment(cmd.Context(), args[0], text)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !posted {
				return writeErr(cmd, errUsage("comment text is empty"))
			}
			return writeOut(cmd, app, map[string]any{
				"data": comments,
				"meta": map[string]any{"count": len(comments)},
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Comment text")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newCommentsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <task-id>",
		Short: "List comments for a task, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.session(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			comments, err := ctrl.Comments(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if comments == nil {
				comments = []model.Comment{}
			}
			return writeOut(cmd, app, map[string]any{
				"data": comments,
				"meta": map[string]any{"count": len(comments)},
			})
		},
	}
}
