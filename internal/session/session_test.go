package session

import (
	"context"
	"errors"
	"testing"

	"kanban-cli/internal/logging"
	"kanban-cli/internal/service"
	"kanban-cli/internal/store"
	"kanban-cli/internal/testutil"
)

func newManager(t *testing.T) (*Manager, *testutil.FakeService, store.Store) {
	t.Helper()
	fake := testutil.NewFakeService()
	st := store.Store{Dir: t.TempDir()}
	return New(fake, st, logging.Discard()), fake, st
}

func TestEnsureLogin_PromptsOnceAndCaches(t *testing.T) {
	m, fake, st := newManager(t)
	fake.AddUser("a@cloverth.net", false)
	ctx := context.Background()

	prompts := 0
	prompt := func(context.Context) (string, error) {
		prompts++
		return "  A@Cloverth.NET ", nil
	}
	actor, err := m.EnsureLogin(ctx, prompt)
	if err != nil {
		t.Fatalf("EnsureLogin: %v", err)
	}
	if actor.Email != "a@cloverth.net" || actor.Admin {
		t.Fatalf("actor = %+v", actor)
	}
	if got := fake.CallsTo("Login"); len(got) != 1 || got[0].Actor != "a@cloverth.net" {
		t.Fatalf("login calls = %+v", got)
	}
	v, ok, _ := st.GetItem(ctx, store.KeyUserEmail)
	if !ok || v != "a@cloverth.net" {
		t.Fatalf("cached = %q, %v", v, ok)
	}

	// Second run uses the cache.
	m2 := New(fake, st, logging.Discard())
	if _, err := m2.EnsureLogin(ctx, prompt); err != nil {
		t.Fatalf("EnsureLogin cached: %v", err)
	}
	if prompts != 1 {
		t.Fatalf("prompts = %d, want 1", prompts)
	}
}

func TestEnsureLogin_NoEmail(t *testing.T) {
	m, fake, _ := newManager(t)
	_, err := m.EnsureLogin(context.Background(), func(context.Context) (string, error) { return "   ", nil })
	if !errors.Is(err, ErrNoEmail) {
		t.Fatalf("err = %v, want ErrNoEmail", err)
	}
	if len(fake.Calls()) != 0 {
		t.Fatalf("expected no remote call, got %+v", fake.Calls())
	}
	if _, err := m.EnsureLogin(context.Background(), nil); !errors.Is(err, ErrNoEmail) {
		t.Fatalf("nil prompt err = %v, want ErrNoEmail", err)
	}
}

func TestLogin_RejectionClearsCache(t *testing.T) {
	m, _, st := newManager(t)
	ctx := context.Background()
	if err := st.SetItem(ctx, store.KeyUserEmail, "ghost@cloverth.net"); err != nil {
		t.Fatal(err)
	}

	_, err := m.EnsureLogin(ctx, nil)
	if !service.IsRejected(err) {
		t.Fatalf("err = %v, want RejectedError", err)
	}
	if _, ok, _ := st.GetItem(ctx, store.KeyUserEmail); ok {
		t.Fatalf("cached email should be removed after rejection")
	}
	if _, ok := m.Current(); ok {
		t.Fatalf("no actor expected after rejection")
	}
}

func TestLogin_TransportErrorKeepsCache(t *testing.T) {
	m, fake, st := newManager(t)
	ctx := context.Background()
	fake.LoginErr = &service.TransportError{Action: "login", Err: errors.New("offline")}
	if err := st.SetItem(ctx, store.KeyUserEmail, "a@cloverth.net"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.EnsureLogin(ctx, nil); !service.IsTransport(err) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if _, ok, _ := st.GetItem(ctx, store.KeyUserEmail); !ok {
		t.Fatalf("transport failures must not clear the cache")
	}
}

func TestLogin_ReplacesActorAndLogoutClears(t *testing.T) {
	m, fake, st := newManager(t)
	fake.AddUser("a@cloverth.net", false)
	fake.AddUser("boss@cloverth.net", true)
	ctx := context.Background()

	if _, err := m.Login(ctx, "a@cloverth.net"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Login(ctx, "boss@cloverth.net"); err != nil {
		t.Fatal(err)
	}
	cur, ok := m.Current()
	if !ok || cur.Email != "boss@cloverth.net" || !cur.Admin {
		t.Fatalf("Current = %+v, %v", cur, ok)
	}

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := m.Current(); ok {
		t.Fatalf("actor should be cleared")
	}
	if _, ok, _ := st.GetItem(ctx, store.KeyUserEmail); ok {
		t.Fatalf("storage should be cleared")
	}
}

func TestMemoryStorage_IsolatedFromDisk(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddUser("a@cloverth.net", false)
	mem := NewMemoryStorage()
	m := New(fake, mem, logging.Discard())
	ctx := context.Background()

	if _, err := m.Login(ctx, "a@cloverth.net"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := mem.GetItem(ctx, store.KeyUserEmail); !ok || v != "a@cloverth.net" {
		t.Fatalf("memory storage = %q, %v", v, ok)
	}
}
