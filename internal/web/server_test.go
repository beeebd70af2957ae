package web

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"kanban-cli/internal/logging"
	"kanban-cli/internal/model"
	"kanban-cli/internal/testutil"
)

var testSecret = []byte("test-secret")

func newFake() *testutil.FakeService {
	fake := testutil.NewFakeService()
	fake.AddUser("a@cloverth.net", false)
	fake.AddTask(model.Task{ID: "t1", Title: "Write docs", Status: model.StatusToDo, CreatorEmail: "a@cloverth.net", AssigneeEmail: "bob@cloverth.net", DueDate: "2025-03-04"})
	fake.AddTask(model.Task{ID: "t2", Title: "Ship", Status: model.StatusDone, CreatorEmail: "a@cloverth.net"})
	fake.AddTask(model.Task{ID: "t3", Title: "Theirs", Status: model.StatusDone, CreatorEmail: "x@cloverth.net"})
	return fake
}

func newTestServer(t *testing.T, fake *testutil.FakeService, poll time.Duration) *httptest.Server {
	t.Helper()
	s, err := NewServer(ServerConfig{
		Addr:         "127.0.0.1:0",
		Service:      fake,
		EmailDomain:  "cloverth.net",
		PollInterval: poll,
		Logger:       logging.Discard(),
		Secret:       testSecret,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func do(t *testing.T, c *http.Client, method, u string, form url.Values, fetch bool) (*http.Response, string) {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, u, body)
	if err != nil {
		t.Fatal(err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if fetch {
		req.Header.Set("X-Requested-With", "fetch")
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, u, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

func login(t *testing.T, ts *httptest.Server, c *http.Client, email string) {
	t.Helper()
	resp, body := do(t, c, http.MethodPost, ts.URL+"/login", url.Values{"email": {email}}, false)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("login: status=%d location=%q body=%s", resp.StatusCode, resp.Header.Get("Location"), body)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, newFake(), 0)
	resp, body := do(t, newClient(t), http.MethodGet, ts.URL+"/health", nil, false)
	if resp.StatusCode != http.StatusOK || body != "ok\n" {
		t.Fatalf("health: %d %q", resp.StatusCode, body)
	}
}

func TestBoard_RequiresLogin(t *testing.T) {
	ts := newTestServer(t, newFake(), 0)
	resp, _ := do(t, newClient(t), http.MethodGet, ts.URL+"/", nil, false)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Fatalf("status=%d location=%q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, body := do(t, newClient(t), http.MethodGet, ts.URL+"/login", nil, false)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Please enter your company email (xxx@cloverth.net):") {
		t.Fatalf("login page: %d", resp.StatusCode)
	}
}

func TestLogin_RejectedShowsMessage(t *testing.T) {
	fake := newFake()
	ts := newTestServer(t, fake, 0)
	resp, body := do(t, newClient(t), http.MethodPost, ts.URL+"/login", url.Values{"email": {"nobody@cloverth.net"}}, false)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Login failed: Unknown user") {
		t.Fatalf("body missing failure message:\n%s", body)
	}
	if len(fake.CallsTo("ListTasks")) != 0 {
		t.Fatalf("board must not load after a failed login")
	}
}

func TestBoard_RendersColumnsAfterLogin(t *testing.T) {
	ts := newTestServer(t, newFake(), 0)
	c := newClient(t)
	login(t, ts, c, "A@cloverth.net")

	resp, body := do(t, c, http.MethodGet, ts.URL+"/", nil, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		`data-column="todo"`, `data-column="doing"`, `data-column="done"`,
		`data-task-id="t1"`, "@bob@cloverth.net", "Due: 2025-03-04", "By: a@cloverth.net",
		"a@cloverth.net",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("board missing %q", want)
		}
	}
	// Archive control only for tasks the actor created.
	if strings.Contains(body, `/tasks/t3/archive`) {
		t.Fatalf("archive control shown without rights")
	}
	if !strings.Contains(body, `/tasks/t1/archive`) {
		t.Fatalf("archive control missing for own task")
	}
}

func TestDrop_MovesToColumnTarget(t *testing.T) {
	fake := newFake()
	ts := newTestServer(t, fake, 0)
	c := newClient(t)
	login(t, ts, c, "a@cloverth.net")

	resp, body := do(t, c, http.MethodPost, ts.URL+"/tasks/t2/drop", url.Values{"column": {"doing"}}, true)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d body=%s", resp.StatusCode, body)
	}
	moves := fake.CallsTo("MoveTask")
	if len(moves) != 1 || moves[0].ID != "t2" || moves[0].Status != model.StatusDoing {
		t.Fatalf("MoveTask calls = %+v", moves)
	}
	if len(fake.CallsTo("ReturnToDoing")) != 0 {
		t.Fatalf("drop must not use return-to-doing")
	}
}

func TestStatus_ApprovedWithoutRightsIsRefused(t *testing.T) {
	fake := newFake()
	ts := newTestServer(t, fake, 0)
	c := newClient(t)
	login(t, ts, c, "a@cloverth.net")

	resp, _ := do(t, c, http.MethodPost, ts.URL+"/tasks/t3/status", url.Values{"status": {"Approved"}}, false)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(fake.Mutations()) != 0 {
		t.Fatalf("no remote call expected, got %+v", fake.Mutations())
	}
	_, body := do(t, c, http.MethodGet, ts.URL+"/", nil, false)
	if !strings.Contains(body, "Only creator/admin can approve.") {
		t.Fatalf("refusal banner missing")
	}

	resp, body = do(t, c, http.MethodPost, ts.URL+"/tasks/t3/status", url.Values{"status": {"Approved"}}, true)
	if resp.StatusCode != http.StatusForbidden || !strings.Contains(body, "Only creator/admin can approve.") {
		t.Fatalf("fetch refusal: %d %q", resp.StatusCode, body)
	}
}

func TestStatus_ReturnNeedsReason(t *testing.T) {
	fake := newFake()
	ts := newTestServer(t, fake, 0)
	c := newClient(t)
	login(t, ts, c, "a@cloverth.net")

	resp, body := do(t, c, http.MethodPost, ts.URL+"/tasks/t2/status", url.Values{"status": {"Doing"}}, false)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Reason to return to Doing?") {
		t.Fatalf("expected reason page, got %d", resp.StatusCode)
	}
	if len(fake.Mutations()) != 0 {
		t.Fatalf("no call before the reason is given")
	}

	resp, _ = do(t, c, http.MethodPost, ts.URL+"/tasks/t2/status", url.Values{"status": {"Doing"}, "reason": {"missing tests"}}, false)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	calls := fake.CallsTo("ReturnToDoing")
	if len(calls) != 1 || calls[0].Reason != "missing tests" {
		t.Fatalf("ReturnToDoing calls = %+v", calls)
	}
}

func TestCreate_ValidatesBeforeCalling(t *testing.T) {
	fake := newFake()
	ts := newTestServer(t, fake, 0)
	c := newClient(t)
	login(t, ts, c, "a@cloverth.net")

	resp, body := do(t, c, http.MethodGet, ts.URL+"/tasks/new", nil, false)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Create task") {
		t.Fatalf("new form: %d", resp.StatusCode)
	}

	vals := url.Values{
		"title":         {"New"},
		"assigneeEmail": {"bob@gmail.com"},
		"dueDate":       {"2025-03-04"},
		"priority":      {"Normal"},
		"status":        {"To Do"},
	}
	resp, body = do(t, c, http.MethodPost, ts.URL+"/tasks", vals, false)
	if resp.StatusCode != http.StatusUnprocessableEntity || !strings.Contains(body, "Assignee must be cloverth.net email") {
		t.Fatalf("validation: %d", resp.StatusCode)
	}
	if len(fake.CallsTo("CreateTask")) != 0 {
		t.Fatalf("CreateTask must not be called on validation failure")
	}

	vals.Set("assigneeEmail", "bob@cloverth.net")
	resp, _ = do(t, c, http.MethodPost, ts.URL+"/tasks", vals, false)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if n := len(fake.CallsTo("CreateTask")); n != 1 {
		t.Fatalf("CreateTask calls = %d", n)
	}
}

func TestEdit_SavesTaskWhileAnotherTabOpensCreate(t *testing.T) {
	fake := newFake()
	ts := newTestServer(t, fake, 0)
	c := newClient(t)
	login(t, ts, c, "a@cloverth.net")

	if resp, _ := do(t, c, http.MethodGet, ts.URL+"/tasks/t1/edit", nil, false); resp.StatusCode != http.StatusOK {
		t.Fatalf("edit form: %d", resp.StatusCode)
	}
	// Second tab, same browser session.
	if resp, _ := do(t, c, http.MethodGet, ts.URL+"/tasks/new", nil, false); resp.StatusCode != http.StatusOK {
		t.Fatalf("new form: %d", resp.StatusCode)
	}

	vals := url.Values{
		"title":         {"Write docs v2"},
		"assigneeEmail": {"bob@cloverth.net"},
		"dueDate":       {"2025-03-04"},
		"priority":      {"Normal"},
		"status":        {"To Do"},
	}
	resp, _ := do(t, c, http.MethodPost, ts.URL+"/tasks/t1", vals, false)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if n := len(fake.CallsTo("CreateTask")); n != 0 {
		t.Fatalf("CreateTask calls = %d, want 0", n)
	}
	if calls := fake.CallsTo("UpdateTask"); len(calls) != 1 || calls[0].ID != "t1" {
		t.Fatalf("UpdateTask calls = %+v", calls)
	}
}

func TestEdit_ForbiddenRedirectsWithBanner(t *testing.T) {
	ts := newTestServer(t, newFake(), 0)
	c := newClient(t)
	login(t, ts, c, "a@cloverth.net")

	resp, _ := do(t, c, http.MethodGet, ts.URL+"/tasks/t3/edit", nil, false)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	_, body := do(t, c, http.MethodGet, ts.URL+"/", nil, false)
	if !strings.Contains(body, "Only assignee/creator/admin can edit.") {
		t.Fatalf("banner missing")
	}
}

func TestDetail_CommentsFlow(t *testing.T) {
	fake := newFake()
	ts := newTestServer(t, fake, 0)
	c := newClient(t)
	login(t, ts, c, "a@cloverth.net")

	resp, body := do(t, c, http.MethodGet, ts.URL+"/tasks/t2", nil, false)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "No comments yet.") {
		t.Fatalf("detail: %d", resp.StatusCode)
	}
	if !strings.Contains(body, "/tasks/t2/approve") {
		t.Fatalf("review controls missing for own Done task")
	}

	resp, _ = do(t, c, http.MethodPost, ts.URL+"/tasks/t2/comments", url.Values{"text": {"   "}}, false)
	if resp.StatusCode != http.StatusSeeOther || len(fake.CallsTo("AddComment")) != 0 {
		t.Fatalf("blank comment must not be sent")
	}
	resp, _ = do(t, c, http.MethodPost, ts.URL+"/tasks/t2/comments", url.Values{"text": {"nice"}}, false)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/tasks/t2" {
		t.Fatalf("comment post: %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	_, body = do(t, c, http.MethodGet, ts.URL+"/tasks/t2", nil, false)
	if !strings.Contains(body, "nice") {
		t.Fatalf("comment missing from detail")
	}

	_, body = do(t, c, http.MethodGet, ts.URL+"/tasks/t3", nil, false)
	if strings.Contains(body, "/tasks/t3/approve") {
		t.Fatalf("review controls shown without rights")
	}
}

func TestArchive_RefusedWithoutRights(t *testing.T) {
	fake := newFake()
	ts := newTestServer(t, fake, 0)
	c := newClient(t)
	login(t, ts, c, "a@cloverth.net")

	resp, body := do(t, c, http.MethodPost, ts.URL+"/tasks/t3/archive", url.Values{}, true)
	if resp.StatusCode != http.StatusForbidden || !strings.Contains(body, "Only creator/admin can archive.") {
		t.Fatalf("archive: %d %q", resp.StatusCode, body)
	}
	if len(fake.CallsTo("ArchiveTask")) != 0 {
		t.Fatalf("no remote call expected")
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	ts := newTestServer(t, newFake(), 0)
	c := newClient(t)
	login(t, ts, c, "a@cloverth.net")

	resp, _ := do(t, c, http.MethodPost, ts.URL+"/logout", url.Values{}, false)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Fatalf("logout: %d", resp.StatusCode)
	}
	resp, _ = do(t, c, http.MethodGet, ts.URL+"/", nil, false)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("board after logout: %d", resp.StatusCode)
	}
}

func TestLogout_ReplayedCookieIsRefused(t *testing.T) {
	fake := newFake()
	ts := newTestServer(t, fake, 0)
	c := newClient(t)
	login(t, ts, c, "a@cloverth.net")

	u, _ := url.Parse(ts.URL)
	cookies := c.Jar.Cookies(u)
	if len(cookies) == 0 {
		t.Fatalf("no session cookie")
	}
	do(t, c, http.MethodPost, ts.URL+"/logout", url.Values{}, false)
	logins := len(fake.CallsTo("Login"))

	c.Jar.SetCookies(u, cookies)
	resp, _ := do(t, c, http.MethodGet, ts.URL+"/", nil, false)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Fatalf("replayed cookie: %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if n := len(fake.CallsTo("Login")); n != logins {
		t.Fatalf("replayed cookie signed in again: Login calls %d -> %d", logins, n)
	}
}

func TestCookie_SurvivesServerRestart(t *testing.T) {
	fake := newFake()
	ts := newTestServer(t, fake, 0)
	c := newClient(t)
	login(t, ts, c, "a@cloverth.net")

	u, _ := url.Parse(ts.URL)
	cookies := c.Jar.Cookies(u)
	if len(cookies) == 0 {
		t.Fatalf("no session cookie")
	}

	ts2 := newTestServer(t, fake, 0)
	u2, _ := url.Parse(ts2.URL)
	c.Jar.SetCookies(u2, cookies)
	resp, body := do(t, c, http.MethodGet, ts2.URL+"/", nil, false)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `data-task-id="t1"`) {
		t.Fatalf("restarted server should re-login from cookie: %d", resp.StatusCode)
	}
}

func TestBoardStream_PatchesBoard(t *testing.T) {
	ts := newTestServer(t, newFake(), 20*time.Millisecond)
	c := newClient(t)
	login(t, ts, c, "a@cloverth.net")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/board/stream", nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	sawEvent, sawBoard := false, false
	for sc.Scan() {
		line := sc.Text()
		if strings.Contains(line, "datastar-patch-elements") {
			sawEvent = true
		}
		if strings.Contains(line, "#board") {
			sawBoard = true
		}
		if sawEvent && sawBoard {
			break
		}
	}
	if !sawEvent || !sawBoard {
		t.Fatalf("no board patch received (event=%v board=%v)", sawEvent, sawBoard)
	}
}

func TestCookieSigner_RejectsTamperingAndExpiry(t *testing.T) {
	now := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	cs := cookieSigner{key: testSecret}
	tok, claims, err := cs.issue(" A@Cloverth.net ", time.Hour, now)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Email != "a@cloverth.net" || claims.ID == "" {
		t.Fatalf("claims = %+v", claims)
	}
	got, err := cs.verify(tok, now.Add(time.Minute))
	if err != nil || got != claims {
		t.Fatalf("verify: %+v %v", got, err)
	}

	if _, err := (cookieSigner{key: []byte("other")}).verify(tok, now); !errors.Is(err, errTokenSignature) {
		t.Fatalf("wrong key: err = %v", err)
	}
	if _, err := cs.verify(tok+"x", now); err == nil {
		t.Fatalf("tampered token should fail")
	}
	if _, err := cs.verify("no-dot", now); !errors.Is(err, errTokenMalformed) {
		t.Fatalf("malformed: err = %v", err)
	}
	if _, err := cs.verify(tok, now.Add(2*time.Hour)); !errors.Is(err, errTokenExpired) {
		t.Fatalf("expired: err = %v", err)
	}
	if _, _, err := cs.issue("  ", time.Hour, now); err == nil {
		t.Fatalf("blank email should fail")
	}
}

func TestLoadOrInitSigningKey_Persists(t *testing.T) {
	dir := t.TempDir()
	a, err := loadOrInitSigningKey(dir)
	if err != nil {
		t.Fatal(err)
	}
	b, err := loadOrInitSigningKey(dir)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) || len(a) == 0 {
		t.Fatalf("key should persist: %q vs %q", a, b)
	}
}
