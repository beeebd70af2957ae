package cli

import (
	"strings"

	"kanban-cli/internal/app"
	"kanban-cli/internal/board"
	"kanban-cli/internal/form"
	"kanban-cli/internal/model"
	"kanban-cli/internal/mutate"

	"github.com/spf13/cobra"
)

type taskView struct {
	model.Task
	Due    string     `json:"due"`
	Column string     `json:"column"`
	Rights app.Rights `json:"rights"`
}

func viewTask(ctrl *app.Controller, t model.Task) taskView {
	col, _ := board.ColumnDef(board.ColumnFor(t.Status))
	return taskView{
		Task:   t,
		Due:    t.DueDay(),
		Column: col.Key,
		Rights: ctrl.Rights(t),
	}
}

func viewTasks(ctrl *app.Controller, ts []model.Task) []taskView {
	out := make([]taskView, 0, len(ts))
	for _, t := range ts {
		out = append(out, viewTask(ctrl, t))
	}
	return out
}

// taskResult reports task id after a mutation. The task may have left the
// board (archived), in which case only the id is returned.
func taskResult(ctrl *app.Controller, id string) map[string]any {
	t, err := ctrl.Find(id)
	if err != nil {
		return map[string]any{"data": map[string]any{"id": id, "onBoard": false}}
	}
	return map[string]any{"data": viewTask(ctrl, t)}
}

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Task commands",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksUpdateCmd(app))
	cmd.AddCommand(newTasksMoveCmd(app))
	cmd.AddCommand(newTasksDropCmd(app))
	cmd.AddCommand(newTasksApproveCmd(app))
	cmd.AddCommand(newTasksReturnCmd(app))
	cmd.AddCommand(newTasksArchiveCmd(app))
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var column string
	var assignee string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List board tasks, optionally one column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.session(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}

			cols := ctrl.Columns()
			tasks := ctrl.Tasks()
			if strings.TrimSpace(column) != "" {
				i, ok := board.ParseColumn(column)
				if !ok {
					return writeErr(cmd, errUsage("unknown column %q (todo|doing|done)", column))
				}
				tasks = cols[i].Tasks
			}
			if a := model.NormalizeEmail(assignee); a != "" {
				filtered := make([]model.Task, 0, len(tasks))
				for _, t := range tasks {
					if model.NormalizeEmail(t.AssigneeEmail) == a {
						filtered = append(filtered, t)
					}
				}
				tasks = filtered
			}

			counts := map[string]int{}
			for _, c := range cols {
				counts[c.Key] = c.Count()
			}
			return writeOut(cmd, app, map[string]any{
				"data": viewTasks(ctrl, tasks),
				"meta": map[string]any{"count": len(tasks), "columns": counts},
			})
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Only this column (todo|doing|done)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Only tasks assigned to this email")
	return cmd
}

func newTasksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.session(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			t, cs, err := ctrl.OpenDetail(cmd.Context(), args[0])
			if t.ID == "" {
				return writeErr(cmd, err)
			}
			out := map[string]any{
				"data": map[string]any{"task": viewTask(ctrl, t), "comments": cs},
			}
			if err != nil {
				out["meta"] = map[string]any{"commentsError": err.Error()}
			}
			return writeOut(cmd, app, out)
		},
	}
}

// taskFlags are the form fields settable from the command line.
type taskFlags struct {
	title, assigneeName, assigneeEmail string
	priority, due, status, description string
	link1, link2, link3                string
}

func (tf *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&tf.title, "title", "", "Title")
	cmd.Flags().StringVar(&tf.assigneeName, "assignee-name", "", "Assignee display name")
	cmd.Flags().StringVar(&tf.assigneeEmail, "assignee-email", "", "Assignee email (company domain)")
	cmd.Flags().StringVar(&tf.priority, "priority", "", "Urgent|Planned|Normal (default Normal)")
	cmd.Flags().StringVar(&tf.due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&tf.status, "status", "", "To Do|Doing|Done|Approved (default To Do)")
	cmd.Flags().StringVar(&tf.description, "description", "", "Description (markdown)")
	cmd.Flags().StringVar(&tf.link1, "link1", "", "Link 1")
	cmd.Flags().StringVar(&tf.link2, "link2", "", "Link 2")
	cmd.Flags().StringVar(&tf.link3, "link3", "", "Link 3")
}

// apply copies the flags the user set onto f.
func (tf *taskFlags) apply(cmd *cobra.Command, f form.TaskForm) form.TaskForm {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("title", &f.Title, tf.title)
	set("assignee-name", &f.AssigneeName, tf.assigneeName)
	set("assignee-email", &f.AssigneeEmail, tf.assigneeEmail)
	set("priority", &f.Priority, tf.priority)
	set("due", &f.DueDate, tf.due)
	set("status", &f.Status, tf.status)
	set("description", &f.Description, tf.description)
	set("link1", &f.Link1, tf.link1)
	set("link2", &f.Link2, tf.link2)
	set("link3", &f.Link3, tf.link3)
	return f
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var tf taskFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.session(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			f, err := ctrl.OpenCreate()
			if err != nil {
				return writeErr(cmd, err)
			}
			f = tf.apply(cmd, f)
			if err := ctrl.SubmitCreate(cmd.Context(), f); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"created": true, "title": strings.TrimSpace(f.Title)},
				"meta": map[string]any{"tasks": len(ctrl.Tasks())},
			})
		},
	}

	tf.register(cmd)
	return cmd
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var tf taskFlags

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Edit a task (unset flags keep their current value)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.session(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			f, err := ctrl.OpenEdit(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ctrl.SubmitEdit(cmd.Context(), args[0], tf.apply(cmd, f)); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, taskResult(ctrl, args[0]))
		},
	}

	tf.register(cmd)
	return cmd
}

func newTasksMoveCmd(app *App) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "move <task-id> <status>",
		Short: "Change a task's status",
		Long: strings.TrimSpace(`
Change a task's status the way the board's status selector does.

Approved needs approval rights. Moving a Done task back to Doing needs
approval rights and a --reason, which is posted with the return.
`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, ok := model.ParseStatus(args[1])
			if !ok {
				return writeErr(cmd, errUsage("unknown status %q (To Do|Doing|Done|Approved)", args[1]))
			}
			ctrl, err := app.session(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			plan, err := ctrl.PlanStatus(args[0], to)
			if err != nil {
				return writeErr(cmd, err)
			}
			if plan.NeedsReason() && !cmd.Flags().Changed("reason") {
				return writeErr(cmd, errUsage("returning a Done task to Doing needs --reason"))
			}
			if err := ctrl.ApplyStatus(cmd.Context(), plan, reason); err != nil {
				return writeErr(cmd, err)
			}
			out := taskResult(ctrl, args[0])
			out["meta"] = map[string]any{"changed": plan.Kind != mutate.PlanNone}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason (Done -> Doing only)")
	return cmd
}

func newTasksDropCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <task-id> <column>",
		Short: "Move a task into a column (todo|doing|done), as drag and drop does",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, ok := board.ParseColumn(args[1])
			if !ok {
				return writeErr(cmd, errUsage("unknown column %q (todo|doing|done)", args[1]))
			}
			ctrl, err := app.session(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ctrl.Drop(cmd.Context(), args[0], col); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, taskResult(ctrl, args[0]))
		},
	}
}

func newTasksApproveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <task-id>",
		Short: "Approve a Done task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.session(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ctrl.Approve(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, taskResult(ctrl, args[0]))
		},
	}
}

func newTasksReturnCmd(app *App) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "return <task-id>",
		Short: "Send a Done task back to Doing with a reason",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.session(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ctrl.ReturnToDoing(cmd.Context(), args[0], reason); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, taskResult(ctrl, args[0]))
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the task goes back")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newTasksArchiveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "archive <task-id>",
		Short: "Archive a task (removes it from the board)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return writeErr(cmd, errUsage("archive removes the task from the board; pass --yes to confirm"))
			}
			ctrl, err := app.session(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ctrl.Archive(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"id": args[0], "archived": true},
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm archiving")
	return cmd
}
