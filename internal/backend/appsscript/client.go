// Package appsscript implements service.Service against the Apps Script
// web-app endpoint that backs the board.
package appsscript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"kanban-cli/internal/model"
	"kanban-cli/internal/service"
)

// DefaultBaseURL is the deployed web-app endpoint the browser board used.
const DefaultBaseURL = "https://script.google.com/macros/s/AKfycbw5DMgrN-uG_FzPyn83P8SIg9E37BLipNTwnC5mEy2RyS_CIPTj_3XiOE-y5TahZDKP/exec"

const maxResponseBytes = 8 << 20

// Client issues one GET per action. It is safe for concurrent use.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

type Option func(*Client)

// WithHTTPClient overrides the HTTP client (timeouts, transports in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout bounds each call. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("api base url is empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http(s): %q", baseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ service.Service = (*Client)(nil)

type envelope struct {
	OK    *bool  `json:"ok"`
	Error string `json:"error"`
}

// call performs a single round trip and decodes the payload into out when the
// envelope reports success. out may be nil for envelope-only actions.
func (c *Client) call(ctx context.Context, action string, params map[string]string, out any) error {
	cb := "cb_" + strings.ToLower(ulid.Make().String())

	u := *c.base
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("action", action)
	q.Set("callback", cb)
	u.RawQuery = q.Encode()

	start := time.Now()
	log := c.logger.With("action", action, "callback", cb)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &service.TransportError{Action: action, Err: err}
	}
	req.Header.Set("Accept", "application/json, application/javascript")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("remote call failed", "err", err, "duration", time.Since(start))
		return &service.TransportError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		err := fmt.Errorf("unexpected HTTP status %s", resp.Status)
		log.Warn("remote call failed", "err", err, "duration", time.Since(start))
		return &service.TransportError{Action: action, Err: err}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Warn("remote call failed", "err", err, "duration", time.Since(start))
		return &service.TransportError{Action: action, Err: fmt.Errorf("read body: %w", err)}
	}

	payload := unwrapJSONP(body, cb)

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.Warn("remote call returned malformed body", "err", err, "duration", time.Since(start))
		return &service.DecodeError{Action: action, Err: err}
	}
	if env.OK == nil {
		log.Warn("remote call returned no ok flag", "duration", time.Since(start))
		return &service.DecodeError{Action: action, Field: "ok", Err: errMissing}
	}
	if !*env.OK {
		msg := strings.TrimSpace(env.Error)
		if msg == "" {
			msg = "Request failed"
		}
		log.Warn("remote call rejected", "error", msg, "duration", time.Since(start))
		return &service.RejectedError{Action: action, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			log.Warn("remote call returned malformed body", "err", err, "duration", time.Since(start))
			return &service.DecodeError{Action: action, Err: err}
		}
	}
	log.Debug("remote call ok", "duration", time.Since(start))
	return nil
}

// unwrapJSONP strips a `cb(...)` wrapper when it names the callback we sent.
// Anything else is returned trimmed and left to the JSON decoder.
func unwrapJSONP(body []byte, cb string) []byte {
	b := bytes.TrimSpace(body)
	b = bytes.TrimPrefix(b, []byte("/**/"))
	b = bytes.TrimSpace(b)
	prefix := []byte(cb + "(")
	if !bytes.HasPrefix(b, prefix) {
		return b
	}
	b = bytes.TrimSuffix(b, []byte(";"))
	b = bytes.TrimSpace(b)
	if !bytes.HasSuffix(b, []byte(")")) {
		return b
	}
	return bytes.TrimSpace(b[len(prefix) : len(b)-1])
}

func (c *Client) Login(ctx context.Context, email string) (model.Actor, error) {
	var res loginResult
	if err := c.call(ctx, "login", map[string]string{"email": email}, &res); err != nil {
		return model.Actor{}, err
	}
	return res.actor()
}

func (c *Client) ListTasks(ctx context.Context, email string) ([]model.Task, error) {
	var res listTasksResult
	if err := c.call(ctx, "listTasks", map[string]string{"email": email}, &res); err != nil {
		return nil, err
	}
	return res.decode()
}

func (c *Client) CreateTask(ctx context.Context, actorEmail string, in service.TaskInput) error {
	p := in.Params()
	p["actorEmail"] = actorEmail
	return c.call(ctx, "createTask", p, nil)
}

func (c *Client) UpdateTask(ctx context.Context, actorEmail, id string, in service.TaskInput) error {
	p := in.Params()
	p["actorEmail"] = actorEmail
	p["id"] = id
	return c.call(ctx, "updateTask", p, nil)
}

func (c *Client) MoveTask(ctx context.Context, actorEmail, id string, status model.Status) error {
	return c.call(ctx, "moveTask", map[string]string{
		"actorEmail": actorEmail,
		"id":         id,
		"status":     string(status),
	}, nil)
}

func (c *Client) ReturnToDoing(ctx context.Context, actorEmail, id, reason string) error {
	return c.call(ctx, "returnToDoing", map[string]string{
		"actorEmail": actorEmail,
		"id":         id,
		"reason":     reason,
	}, nil)
}

func (c *Client) Approve(ctx context.Context, actorEmail, id string) error {
	return c.call(ctx, "approve", map[string]string{"actorEmail": actorEmail, "id": id}, nil)
}

func (c *Client) ArchiveTask(ctx context.Context, actorEmail, id string) error {
	return c.call(ctx, "archiveTask", map[string]string{"actorEmail": actorEmail, "id": id}, nil)
}

func (c *Client) ListComments(ctx context.Context, taskID string) ([]model.Comment, error) {
	var res listCommentsResult
	if err := c.call(ctx, "listComments", map[string]string{"taskId": taskID}, &res); err != nil {
		return nil, err
	}
	return res.decode(taskID)
}

func (c *Client) AddComment(ctx context.Context, actorEmail, taskID, text string) error {
	return c.call(ctx, "addComment", map[string]string{
		"actorEmail": actorEmail,
		"taskId":     taskID,
		"text":       text,
	}, nil)
}
