package appsscript

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"kanban-cli/internal/model"
	"kanban-cli/internal/service"
)

var errMissing = errors.New("missing")

// text accepts a JSON string, number or bool and keeps its textual form.
// Sheet-backed rows frequently send numeric ids and dates as serial numbers.
type text struct {
	Value string
	Set   bool
}

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = text{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text{Value: s, Set: true}
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*t = text{Value: strconv.FormatBool(v), Set: true}
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string, got %s", b)
		}
		*t = text{Value: n.String(), Set: true}
	}
	return nil
}

func (t text) String() string { return strings.TrimSpace(t.Value) }

type loginResult struct {
	Email *text `json:"email"`
	Admin *bool `json:"admin"`
}

func (r loginResult) actor() (model.Actor, error) {
	if r.Email == nil || r.Email.String() == "" {
		return model.Actor{}, &service.DecodeError{Action: "login", Field: "email", Err: errMissing}
	}
	a := model.Actor{Email: model.NormalizeEmail(r.Email.String())}
	if r.Admin != nil {
		a.Admin = *r.Admin
	}
	return a, nil
}

type rawTask struct {
	ID            text `json:"id"`
	Title         text `json:"title"`
	Description   text `json:"description"`
	AssigneeName  text `json:"assigneeName"`
	AssigneeEmail text `json:"assigneeEmail"`
	CreatorEmail  text `json:"creatorEmail"`
	Priority      text `json:"priority"`
	Status        text `json:"status"`
	DueDate       text `json:"dueDate"`
	Link1         text `json:"link1"`
	Link2         text `json:"link2"`
	Link3         text `json:"link3"`
}

type listTasksResult struct {
	Tasks []rawTask `json:"tasks"`
}

// decode validates every row. An absent tasks array is an empty board.
func (r listTasksResult) decode() ([]model.Task, error) {
	out := make([]model.Task, 0, len(r.Tasks))
	for i, rt := range r.Tasks {
		t, err := rt.task()
		if err != nil {
			var de *service.DecodeError
			if errors.As(err, &de) {
				de.Field = fmt.Sprintf("tasks[%d].%s", i, de.Field)
			}
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (rt rawTask) task() (model.Task, error) {
	id := rt.ID.String()
	if id == "" {
		return model.Task{}, &service.DecodeError{Action: "listTasks", Field: "id", Err: errMissing}
	}
	status, ok := model.ParseStatus(rt.Status.Value)
	if !ok {
		return model.Task{}, &service.DecodeError{
			Action: "listTasks",
			Field:  "status",
			Err:    fmt.Errorf("unknown status %q", rt.Status.Value),
		}
	}
	var prio model.Priority
	if p := rt.Priority.String(); p != "" {
		prio, ok = model.ParsePriority(p)
		if !ok {
			return model.Task{}, &service.DecodeError{
				Action: "listTasks",
				Field:  "priority",
				Err:    fmt.Errorf("unknown priority %q", p),
			}
		}
	}
	return model.Task{
		ID:            id,
		Title:         rt.Title.String(),
		Description:   rt.Description.Value,
		AssigneeName:  rt.AssigneeName.String(),
		AssigneeEmail: rt.AssigneeEmail.String(),
		CreatorEmail:  rt.CreatorEmail.String(),
		Priority:      prio,
		Status:        status,
		DueDate:       rt.DueDate.String(),
		Link1:         rt.Link1.String(),
		Link2:         rt.Link2.String(),
		Link3:         rt.Link3.String(),
	}, nil
}

// rawComment accepts the field aliases older sheet revisions used.
type rawComment struct {
	Text        *text `json:"text"`
	Comment     *text `json:"comment"`
	AuthorEmail *text `json:"authorEmail"`
	Author      *text `json:"author"`
	AuthorName  *text `json:"authorName"`
	CreatedAt   *text `json:"createdAt"`
	TS          *text `json:"ts"`
}

type listCommentsResult struct {
	Comments []rawComment `json:"comments"`
}

func (r listCommentsResult) decode(taskID string) ([]model.Comment, error) {
	out := make([]model.Comment, 0, len(r.Comments))
	for i, rc := range r.Comments {
		body := first(rc.Text, rc.Comment)
		if body == nil {
			return nil, &service.DecodeError{
				Action: "listComments",
				Field:  fmt.Sprintf("comments[%d].text", i),
				Err:    errMissing,
			}
		}
		c := model.Comment{TaskID: taskID, Text: body.Value}
		if a := first(rc.AuthorEmail, rc.Author, rc.AuthorName); a != nil {
			c.AuthorEmail = a.String()
		}
		if ts := firstNonEmpty(rc.CreatedAt, rc.TS); ts != nil {
			c.CreatedAt = ts.String()
		}
		out = append(out, c)
	}
	return out, nil
}

// first returns the first field that is present and non-null.
func first(vals ...*text) *text {
	for _, v := range vals {
		if v != nil && v.Set {
			return v
		}
	}
	return nil
}

func firstNonEmpty(vals ...*text) *text {
	for _, v := range vals {
		if v != nil && v.String() != "" {
			return v
		}
	}
	return nil
}
