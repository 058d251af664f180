package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"accounts_backend/internal/auth"
	"accounts_backend/internal/auth/token"
	apphttp "accounts_backend/internal/http"
	"accounts_backend/internal/users"
	"accounts_backend/internal/users/domain"
	"accounts_backend/internal/users/repository"
	"accounts_backend/platform/config"
	"accounts_backend/platform/logger"
	"accounts_backend/platform/validator"
)

// memStore is an in-memory repository.Store so the full HTTP stack can run
// without a database.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[int64]domain.User)}
}

func (m *memStore) Create(_ context.Context, username, passwordHash string, role domain.Role) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Username == username {
			return domain.User{}, repository.ErrDuplicateUsername
		}
	}
	m.nextID++
	now := time.Now()
	user := domain.User{ID: m.nextID, Username: username, PasswordHash: passwordHash, Role: role, CreatedAt: now, UpdatedAt: now}
	m.users[user.ID] = user
	return user, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (m *memStore) GetByUsername(_ context.Context, username string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}

func (m *memStore) List(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0, len(m.users))
	for id := int64(1); id <= m.nextID; id++ {
		if user, ok := m.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, id int64, username, passwordHash *string, role *domain.Role) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	if username != nil {
		user.Username = *username
	}
	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	if role != nil {
		user.Role = *role
	}
	user.UpdatedAt = time.Now()
	m.users[id] = user
	return user, nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memStore) SetResetToken(_ context.Context, id int64, tok string, expires time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.ResetToken = &tok
	user.ResetTokenExpires = &expires
	m.users[id] = user
	return nil
}

func (m *memStore) ResetPassword(_ context.Context, id int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.ResetToken = nil
	user.ResetTokenExpires = nil
	m.users[id] = user
	return nil
}

var _ repository.Store = (*memStore)(nil)

type testServer struct {
	engine *gin.Engine
	auth   *auth.Module
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:             "development",
		HTTPAddr:        ":0",
		JWTSecret:       "test-secret",
		SessionTokenTTL: 24 * time.Hour,
		ResetTokenTTL:   10 * time.Minute,
		CORSOrigins:     []string{"http://localhost:4200"},
		CORSAllowCreds:  true,
	}

	log := logger.New("development")
	val := validator.New()
	store := newMemStore()
	codec := token.New(cfg)

	authModule := auth.NewModule(store, codec, cfg, val, log)
	usersModule := users.NewModule(store, val, log)

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Modules: []apphttp.Module{authModule, usersModule},
	}

	return &testServer{
		engine: apphttp.NewRouter(app),
		auth:   authModule,
	}
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	recorder := httptest.NewRecorder()
	s.engine.ServeHTTP(recorder, req)

	var decoded map[string]interface{}
	if len(recorder.Body.Bytes()) > 0 {
		if err := json.Unmarshal(recorder.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
		}
	}
	return recorder, decoded
}

func (s *testServer) login(t *testing.T, username, pass string) string {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": pass})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %v", username, rec.Code, body)
	}
	tok, _ := body["token"].(string)
	if tok == "" {
		t.Fatalf("login %s: missing token in %v", username, body)
	}
	return tok
}

func (s *testServer) seedAdmin(t *testing.T) {
	t.Helper()
	if _, err := s.auth.Service().Register(context.Background(), "admin", "admin123", domain.RoleAdmin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
}

func TestRegisterLoginAndFetchUser(t *testing.T) {
	srv := newTestServer(t)

	rec, body := srv.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "secret1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", rec.Code, body)
	}
	if body["success"] != true {
		t.Fatalf("expected success envelope, got %v", body)
	}
	user, _ := body["user"].(map[string]interface{})
	if user == nil || user["username"] != "alice" {
		t.Fatalf("unexpected user payload: %v", body)
	}
	for _, forbidden := range []string{"password", "passwordHash", "resetToken", "resetTokenExpires"} {
		if _, present := user[forbidden]; present {
			t.Fatalf("register response leaks %q", forbidden)
		}
	}

	sessionToken := srv.login(t, "alice", "secret1")

	rec, body = srv.do(t, http.MethodGet, "/api/users/1", sessionToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, body)
	}
	user, _ = body["user"].(map[string]interface{})
	if user == nil || user["id"] != float64(1) || user["username"] != "alice" {
		t.Fatalf("unexpected user payload: %v", body)
	}
}

func TestRegisterValidationCollectsFieldErrors(t *testing.T) {
	srv := newTestServer(t)

	rec, body := srv.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "ab", "password": "short"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %v", rec.Code, body)
	}
	if body["success"] != false || body["message"] != "Validation failed" {
		t.Fatalf("unexpected envelope: %v", body)
	}
	errs, _ := body["errors"].([]interface{})
	if len(errs) != 2 {
		t.Fatalf("expected both field failures reported together, got %v", body["errors"])
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "secret1"})

	recWrong, bodyWrong := srv.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong-pass"})
	recGhost, bodyGhost := srv.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "noswuchuser", "password": "whatever1"})

	if recWrong.Code != http.StatusUnauthorized || recGhost.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", recWrong.Code, recGhost.Code)
	}
	if bodyWrong["message"] != bodyGhost["message"] {
		t.Fatalf("login failures must be identical: %v vs %v", bodyWrong, bodyGhost)
	}
}

func TestResetRequestShapeIsUniform(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "secret1"})

	recKnown, bodyKnown := srv.do(t, http.MethodPost, "/api/auth/reset-password/request", "", gin.H{"username": "alice"})
	recGhost, bodyGhost := srv.do(t, http.MethodPost, "/api/auth/reset-password/request", "", gin.H{"username": "ghostuser"})

	if recKnown.Code != http.StatusOK || recGhost.Code != http.StatusOK {
		t.Fatalf("expected 200/200, got %d/%d", recKnown.Code, recGhost.Code)
	}
	for _, body := range []map[string]interface{}{bodyKnown, bodyGhost} {
		if body["message"] == "" {
			t.Fatalf("missing message: %v", body)
		}
		tok, _ := body["resetToken"].(string)
		if tok == "" {
			t.Fatalf("missing resetToken: %v", body)
		}
	}
}

func TestUserListIsAdminGatedAndRedacted(t *testing.T) {
	srv := newTestServer(t)
	srv.seedAdmin(t)
	srv.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "secret1"})

	// No token: authentication failure.
	rec, _ := srv.do(t, http.MethodGet, "/api/users", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// Non-admin token: authorization failure.
	aliceToken := srv.login(t, "alice", "secret1")
	rec, _ = srv.do(t, http.MethodGet, "/api/users", aliceToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	// Admin token: full list, redacted.
	adminToken := srv.login(t, "admin", "admin123")
	rec, body := srv.do(t, http.MethodGet, "/api/users", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %v", rec.Code, body)
	}
	list, _ := body["users"].([]interface{})
	if len(list) != 2 {
		t.Fatalf("expected 2 users, got %v", body)
	}
	for _, item := range list {
		record, _ := item.(map[string]interface{})
		for _, forbidden := range []string{"password", "passwordHash", "resetToken", "resetTokenExpires"} {
			if _, present := record[forbidden]; present {
				t.Fatalf("user list leaks %q: %v", forbidden, record)
			}
		}
	}
}

func TestRoleUpdateHonoredOnlyForAdminCaller(t *testing.T) {
	srv := newTestServer(t)
	srv.seedAdmin(t)
	srv.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "secret1"})

	aliceToken := srv.login(t, "alice", "secret1")
	rec, body := srv.do(t, http.MethodPut, "/api/users/2", aliceToken, gin.H{"role": "admin"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, body)
	}
	user, _ := body["user"].(map[string]interface{})
	if user["role"] != "user" {
		t.Fatalf("non-admin role change must be dropped, got %v", user)
	}

	adminToken := srv.login(t, "admin", "admin123")
	rec, body = srv.do(t, http.MethodPut, "/api/users/2", adminToken, gin.H{"role": "admin"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, body)
	}
	user, _ = body["user"].(map[string]interface{})
	if user["role"] != "admin" {
		t.Fatalf("admin role change must be honored, got %v", user)
	}
}

func TestDeleteUserIsAdminGated(t *testing.T) {
	srv := newTestServer(t)
	srv.seedAdmin(t)
	srv.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "secret1"})

	aliceToken := srv.login(t, "alice", "secret1")
	rec, _ := srv.do(t, http.MethodDelete, "/api/users/2", aliceToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin delete, got %d", rec.Code)
	}

	adminToken := srv.login(t, "admin", "admin123")
	rec, body := srv.do(t, http.MethodDelete, "/api/users/2", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin delete, got %d: %v", rec.Code, body)
	}

	rec, _ = srv.do(t, http.MethodGet, "/api/users/2", adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestResetTokenCannotAuthenticateRequests(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "secret1"})

	_, body := srv.do(t, http.MethodPost, "/api/auth/reset-password/request", "", gin.H{"username": "alice"})
	resetToken, _ := body["resetToken"].(string)
	if resetToken == "" {
		t.Fatalf("missing resetToken: %v", body)
	}

	rec, _ := srv.do(t, http.MethodGet, "/api/users/1", resetToken, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("reset token must not act as a session token, got %d", rec.Code)
	}
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	srv := newTestServer(t)

	srv.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "secret1"})
	rec, body := srv.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "different9"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate username, got %d: %v", rec.Code, body)
	}
	if body["message"] != "Username already exists" {
		t.Fatalf("unexpected message: %v", body)
	}
}
