package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acertax/connect/internal/auth"
	"github.com/acertax/connect/internal/chat"
	"github.com/acertax/connect/internal/config"
	"github.com/acertax/connect/internal/models"
	"github.com/acertax/connect/internal/store"
	"github.com/acertax/connect/internal/ws"
)

const testSecret = "handler-test-secret"

type stubUsers struct {
	users map[string]*models.User
}

func (s *stubUsers) EnsureProfile(_ context.Context, uid, email string) error {
	if _, ok := s.users[uid]; !ok {
		s.users[uid] = &models.User{UID: uid, Email: email, Role: models.RoleEmployee}
	}
	return nil
}

func (s *stubUsers) SetPresence(context.Context, string, bool) error { return nil }

func (s *stubUsers) Get(_ context.Context, uid string) (*models.User, error) {
	if u, ok := s.users[uid]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (s *stubUsers) List(context.Context) ([]*models.User, error) { return nil, nil }

type stubGroups struct{}

func (stubGroups) Create(_ context.Context, g *models.Group) (string, error) { return g.ID, nil }
func (stubGroups) Get(context.Context, string) (*models.Group, error) {
	return nil, store.ErrNotFound
}
func (stubGroups) ListForUser(context.Context, string) ([]*models.Group, error) { return nil, nil }
func (stubGroups) Delete(context.Context, string) error                         { return store.ErrNotFound }

type stubMessages struct{}

func (stubMessages) Insert(_ context.Context, m *models.Message) (string, error) { return m.ID, nil }
func (stubMessages) History(context.Context, string, store.MessageFilter, int64) ([]*models.Message, error) {
	return nil, nil
}
func (stubMessages) SoftDelete(context.Context, string, store.MessageFilter, int) error { return nil }
func (stubMessages) PurgeGroup(context.Context, string) error                           { return nil }

type stubUnread struct{}

func (stubUnread) Increment(context.Context, *models.UnreadCounter) error { return nil }
func (stubUnread) Reset(context.Context, string, string) error            { return nil }
func (stubUnread) List(context.Context, string) ([]*models.UnreadCounter, error) {
	return nil, nil
}
func (stubUnread) Delete(context.Context, string, string) error { return nil }

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	verifier, err := auth.NewHS256(testSecret)
	require.NoError(t, err)

	log := zap.NewNop().Sugar()
	svc := chat.NewService(
		&stubUsers{users: map[string]*models.User{}},
		stubGroups{}, stubMessages{}, stubUnread{},
		ws.NewHub(log), nil, log,
		chat.Options{CompanyDomain: "acertax.com"},
	)
	cfg := &config.Config{}
	cfg.Chat.CompanyDomain = "acertax.com"
	cfg.Chat.RateLimitPerSec = 20
	return NewServer(svc, ws.NewHub(log), verifier, cfg, log)
}

func signToken(t *testing.T, uid, email string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   uid,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(b, &body))
	return body
}

func TestRequireAuthMissingHeader(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "unauthenticated", body["error"])
}

func TestRequireAuthForeignDomain(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u1", "u1@gmail.com"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", decode(t, resp)["error"])
}

func TestSessionLogin(t *testing.T) {
	app := newTestApp(t)
	payload, _ := json.Marshal(map[string]string{"id_token": signToken(t, "u1", "Jane@acertax.com")})
	req := httptest.NewRequest(http.MethodPost, "/session_login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, true, body["ok"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "jane@acertax.com", user["email"], "email lowercased by the gate")
}

func TestSessionLoginBadToken(t *testing.T) {
	app := newTestApp(t)
	payload, _ := json.Marshal(map[string]string{"id_token": "garbage"})
	req := httptest.NewRequest(http.MethodPost, "/session_login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListUsersEmptyEnvelope(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u1", "u1@acertax.com"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, true, body["ok"])
	users, ok := body["users"].([]any)
	require.True(t, ok, "users must be an array, never null")
	assert.Empty(t, users)
}

func TestGroupInfoNotFound(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/group/missing", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u1", "u1@acertax.com"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decode(t, resp)["error"])
}

func TestMarkReadRequiresThreadID(t *testing.T) {
	app := newTestApp(t)
	payload, _ := json.Marshal(map[string]string{"thread_id": ""})
	req := httptest.NewRequest(http.MethodPost, "/api/mark_read", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u1", "u1@acertax.com"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", decode(t, resp)["error"])
}
