package web

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"kanban-cli/internal/model"
	"kanban-cli/internal/store"
)

const (
	sessionCookieName = "kanban_session"
	sessionTTL        = 30 * 24 * time.Hour
)

var (
	errTokenMalformed = errors.New("session token malformed")
	errTokenSignature = errors.New("session token signature mismatch")
	errTokenExpired   = errors.New("session token expired")
)

// sessionClaims is the signed cookie body: which email a browser signed in
// as and the id of its server-side session.
type sessionClaims struct {
	Email   string `json:"e"`
	ID      string `json:"sid"`
	Expires int64  `json:"exp"`
}

// cookieSigner issues and checks `base64(claims).base64(hmac)` tokens.
type cookieSigner struct {
	key []byte
}

func (cs cookieSigner) mac(payload string) []byte {
	h := hmac.New(sha256.New, cs.key)
	_, _ = h.Write([]byte(payload))
	return h.Sum(nil)
}

func (cs cookieSigner) sign(c sessionClaims) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(b)
	return payload + "." + base64.RawURLEncoding.EncodeToString(cs.mac(payload)), nil
}

func (cs cookieSigner) verify(token string, now time.Time) (sessionClaims, error) {
	payload, sig, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || payload == "" || sig == "" {
		return sessionClaims{}, errTokenMalformed
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(cs.mac(payload), got) {
		return sessionClaims{}, errTokenSignature
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return sessionClaims{}, errTokenMalformed
	}
	var c sessionClaims
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil || c.Email == "" || c.ID == "" {
		return sessionClaims{}, errTokenMalformed
	}
	if c.Expires == 0 || now.Unix() > c.Expires {
		return sessionClaims{}, errTokenExpired
	}
	return c, nil
}

// issue starts a new session for email.
func (cs cookieSigner) issue(email string, ttl time.Duration, now time.Time) (string, sessionClaims, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return "", sessionClaims{}, errors.New("missing email")
	}
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", sessionClaims{}, err
	}
	c := sessionClaims{Email: email, ID: id.String(), Expires: now.Add(ttl).Unix()}
	tok, err := cs.sign(c)
	return tok, c, err
}

func signingKeyPath(configDir string) string {
	return filepath.Join(configDir, "web", "secret.key")
}

// loadOrInitSigningKey returns the persisted cookie key, generating it once.
func loadOrInitSigningKey(configDir string) ([]byte, error) {
	path := signingKeyPath(configDir)
	if b, err := os.ReadFile(path); err == nil {
		if k := bytes.TrimSpace(b); len(k) > 0 {
			return k, nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	k := base64.RawURLEncoding.EncodeToString(raw)
	if err := store.WriteFileAtomic(path, []byte(k+"\n"), 0o600); err != nil {
		return nil, err
	}
	return []byte(k), nil
}
