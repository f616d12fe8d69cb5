package core

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cliphive/cliphive/config"
	"github.com/cliphive/cliphive/db/mock"
)

// mapCache is a deterministic cache for tests. Ristretto applies sets
// asynchronously, which would make cooldown assertions flaky.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]bool
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]bool)}
}

func (c *mapCache) Get(key string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Set(key string, value bool, cost int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return true
}

func (c *mapCache) SetWithTTL(key string, value bool, cost int64, ttl time.Duration) bool {
	return c.Set(key, value, cost)
}

// testMailer records sends and fails on demand.
type testMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

type sentMail struct {
	email   string
	purpose string
	otp     string
}

func (m *testMailer) SendOtp(ctx context.Context, email, purpose, otp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{email: email, purpose: purpose, otp: otp})
	return nil
}

func (m *testMailer) lastSent(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no mail was sent")
	}
	return m.sent[len(m.sent)-1]
}

func newTestConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Jwt.SessionSecret = "session-secret-session-secret-00"
	cfg.Jwt.RefreshSecret = "refresh-secret-refresh-secret-00"
	cfg.Jwt.RegisterEmailSecret = "register-secret-register-sec-000"
	cfg.Jwt.VerifiedEmailSecret = "verified-secret-verified-sec-000"
	cfg.Jwt.EmailChangeSecret = "emailchg-secret-emailchg-sec-000"
	cfg.Jwt.PasswordResetSecret = "pwreset-secret-pwreset-secret-00"
	cfg.Jwt.VerifiedResetSecret = "vreset-secret-vreset-secret-0000"
	return cfg
}

// newTestApp builds an App on the mock store, a recording mailer and the
// deterministic cache.
func newTestApp(mockDb *mock.Db) (*App, *testMailer, *mapCache) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mailer := &testMailer{}
	cooldowns := newMapCache()
	provider := config.NewProvider(newTestConfig())
	app := NewApp(mockDb, mockDb, cooldowns, provider, logger, mailer)
	return app, mailer, cooldowns
}

// newJsonRequest builds a POST request with a JSON body.
func newJsonRequest(t *testing.T, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeData unmarshals the data field of a JsonWithData response.
func decodeData(t *testing.T, body *bytes.Buffer, out any) {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
}

// responseCode extracts the code field of a response body.
func responseCode(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.Code
}
