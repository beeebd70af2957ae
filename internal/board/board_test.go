package board

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"kanban-cli/internal/logging"
	"kanban-cli/internal/model"
	"kanban-cli/internal/service"
	"kanban-cli/internal/testutil"
)

func TestPartition_CoversEveryTaskOnce(t *testing.T) {
	var tasks []model.Task
	statuses := model.Statuses()
	for i := 0; i < 23; i++ {
		tasks = append(tasks, model.Task{ID: fmt.Sprintf("t%d", i), Status: statuses[i%len(statuses)]})
	}
	cols := Partition(tasks)

	seen := map[string]int{}
	total := 0
	for _, c := range cols {
		total += c.Count()
		for _, tk := range c.Tasks {
			seen[tk.ID]++
		}
	}
	if total != len(tasks) {
		t.Fatalf("total = %d, want %d", total, len(tasks))
	}
	for _, tk := range tasks {
		if seen[tk.ID] != 1 {
			t.Fatalf("task %s seen %d times", tk.ID, seen[tk.ID])
		}
	}
	for _, tk := range cols[ColDone].Tasks {
		if tk.Status != model.StatusDone && tk.Status != model.StatusApproved {
			t.Fatalf("unexpected status in Done column: %q", tk.Status)
		}
	}
}

func TestPartition_PreservesOrderAndTargets(t *testing.T) {
	cols := Partition([]model.Task{
		{ID: "a", Status: model.StatusApproved},
		{ID: "b", Status: model.StatusToDo},
		{ID: "c", Status: model.StatusDone},
	})
	if cols[ColDone].Count() != 2 || cols[ColDone].Tasks[0].ID != "a" || cols[ColDone].Tasks[1].ID != "c" {
		t.Fatalf("done column = %+v", cols[ColDone].Tasks)
	}
	want := []model.Status{model.StatusToDo, model.StatusDoing, model.StatusDone}
	for i, c := range cols {
		if c.Target != want[i] {
			t.Fatalf("column %d target = %q, want %q", i, c.Target, want[i])
		}
	}
}

func TestParseColumn(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{in: "todo", want: ColToDo, ok: true},
		{in: "Doing", want: ColDoing, ok: true},
		{in: "approved", want: ColDone, ok: true},
		{in: "To Do", want: ColToDo, ok: true},
		{in: "later", ok: false},
	}
	for _, tt := range tests {
		got, ok := ParseColumn(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Fatalf("ParseColumn(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStore_RefreshReplacesWholeList(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask(model.Task{ID: "1", Status: model.StatusToDo})
	s := NewStore(fake, logging.Discard())
	actor := model.Actor{Email: "a@cloverth.net"}

	if ran, err := s.Refresh(context.Background(), actor); !ran || err != nil {
		t.Fatalf("Refresh = (%v, %v)", ran, err)
	}
	if len(s.Tasks()) != 1 || s.LoadedAt().IsZero() {
		t.Fatalf("tasks = %+v", s.Tasks())
	}

	fake.AddTask(model.Task{ID: "2", Status: model.StatusDoing})
	if _, err := s.Refresh(context.Background(), actor); err != nil {
		t.Fatal(err)
	}
	if len(s.Tasks()) != 2 {
		t.Fatalf("tasks = %+v", s.Tasks())
	}
	if _, ok := s.Find("2"); !ok {
		t.Fatalf("Find(2) failed")
	}
}

func TestStore_FailureKeepsPreviousList(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask(model.Task{ID: "1", Status: model.StatusToDo})
	s := NewStore(fake, logging.Discard())
	actor := model.Actor{Email: "a@cloverth.net"}
	if _, err := s.Refresh(context.Background(), actor); err != nil {
		t.Fatal(err)
	}

	fake.ListTasksErr = &service.TransportError{Action: "listTasks", Err: errors.New("offline")}
	ran, err := s.Refresh(context.Background(), actor)
	if !ran || !service.IsTransport(err) {
		t.Fatalf("Refresh = (%v, %v), want transport error", ran, err)
	}
	if got := s.Tasks(); len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("tasks after failure = %+v", got)
	}
	if s.Loading() {
		t.Fatalf("loading flag must be released after failure")
	}
}

func TestStore_RefreshWhilePendingIsSkipped(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.Block = make(chan struct{})
	fake.Started = make(chan string, 4)
	s := NewStore(fake, logging.Discard())
	actor := model.Actor{Email: "a@cloverth.net"}

	done := make(chan error, 1)
	go func() {
		_, err := s.Refresh(context.Background(), actor)
		done <- err
	}()
	<-fake.Started

	if !s.Loading() {
		t.Fatalf("expected Loading() while a refresh is pending")
	}
	for i := 0; i < 3; i++ {
		ran, err := s.Refresh(context.Background(), actor)
		if ran || err != nil {
			t.Fatalf("concurrent Refresh = (%v, %v), want skipped", ran, err)
		}
	}
	close(fake.Block)
	if err := <-done; err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if got := len(fake.CallsTo("ListTasks")); got != 1 {
		t.Fatalf("ListTasks calls = %d, want 1", got)
	}
}

func TestStore_ResetDropsLoadInFlight(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddPrivateTask("a@cloverth.net", model.Task{ID: "a-only", Status: model.StatusToDo})
	fake.AddPrivateTask("b@cloverth.net", model.Task{ID: "b-only", Status: model.StatusDoing})
	block := make(chan struct{})
	fake.Block = block
	fake.Started = make(chan string, 4)
	s := NewStore(fake, logging.Discard())

	type result struct {
		ran bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		ran, err := s.Refresh(context.Background(), model.Actor{Email: "a@cloverth.net"})
		done <- result{ran, err}
	}()
	<-fake.Started
	fake.Block = nil

	s.Reset()
	if s.Loading() {
		t.Fatalf("Reset must release the loading flag")
	}
	ran, err := s.Refresh(context.Background(), model.Actor{Email: "b@cloverth.net"})
	if !ran || err != nil {
		t.Fatalf("Refresh after Reset = (%v, %v), want a real load", ran, err)
	}

	close(block)
	if r := <-done; r.ran || r.err != nil {
		t.Fatalf("stale Refresh = (%v, %v), want dropped", r.ran, r.err)
	}
	got := s.Tasks()
	if len(got) != 1 || got[0].ID != "b-only" {
		t.Fatalf("tasks = %+v, want only the post-reset load", got)
	}
	if s.Loading() {
		t.Fatalf("stale load must not touch the loading flag")
	}
}

func TestEndToEnd_LoginThenCounts(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddUser("a@cloverth.net", false)
	fake.AddTask(model.Task{ID: "1", Status: model.StatusToDo})
	fake.AddTask(model.Task{ID: "2", Status: model.StatusDone})

	actor, err := fake.Login(context.Background(), "a@cloverth.net")
	if err != nil || actor.Admin {
		t.Fatalf("Login = %+v, %v", actor, err)
	}
	s := NewStore(fake, logging.Discard())
	if _, err := s.Refresh(context.Background(), actor); err != nil {
		t.Fatal(err)
	}
	cols := s.Columns()
	if cols[ColToDo].Count() != 1 || cols[ColDoing].Count() != 0 || cols[ColDone].Count() != 1 {
		t.Fatalf("counts = %d/%d/%d, want 1/0/1", cols[ColToDo].Count(), cols[ColDoing].Count(), cols[ColDone].Count())
	}
}
