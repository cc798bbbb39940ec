package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/estatedesk/internal/auth"
	"github.com/erazemk/estatedesk/internal/docstore"
	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/notify"
	"github.com/erazemk/estatedesk/internal/store"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	server *httptest.Server
	store  *store.Store
	hub    *notify.Hub
	issuer *auth.Issuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	hub := notify.NewHub(notify.DefaultBuffer)
	st := store.New(docstore.NewTestStore(t, store.Collections()...), hub)
	iss := auth.NewIssuer(testJWTSecret, 0)

	server := httptest.NewServer(NewRouter(Options{Store: st, Issuer: iss, Hub: hub}))
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return &testEnv{server: server, store: st, hub: hub, issuer: iss}
}

// createUser stores a user with the given password.
func (e *testEnv) createUser(t *testing.T, email, password, role string) *model.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u, err := e.store.Users.Create(context.Background(), email, "", string(hash), role)
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return u
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(e.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp authResponse
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}
	return loginResp.Token
}

// setupTestServer returns a server with an admin account and its token.
func setupTestServer(t *testing.T) (*testEnv, string) {
	t.Helper()
	env := newTestEnv(t)
	env.createUser(t, "admin@example.com", "password", model.RoleAdmin)
	return env, env.login(t, "admin@example.com", "password")
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends a request and decodes a JSON response into out, if non-nil.
func do(t *testing.T, method, url, token string, body, out any) int {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestLoginEndpoint(t *testing.T) {
	env, _ := setupTestServer(t)

	// Test invalid credentials.
	status := do(t, "POST", env.server.URL+"/api/auth/login", "", map[string]string{"email": "admin@example.com", "password": "wrong"}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", status)
	}

	status = do(t, "POST", env.server.URL+"/api/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "password"}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown user, got %d", status)
	}

	var body errorBody
	status = do(t, "POST", env.server.URL+"/api/auth/login", "", map[string]string{"email": "not-an-email", "password": "x"}, &body)
	if status != http.StatusBadRequest || body.Field != "email" {
		t.Errorf("expected 400 naming email, got %d %+v", status, body)
	}

	var ok authResponse
	status = do(t, "POST", env.server.URL+"/api/auth/login", "", map[string]string{"email": "ADMIN@example.com", "password": "password"}, &ok)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if ok.User == nil || ok.User.Role != model.RoleAdmin {
		t.Errorf("expected admin user in response, got %+v", ok.User)
	}
}

func TestRegisterBootstrap(t *testing.T) {
	env := newTestEnv(t)
	url := env.server.URL + "/api/auth/register"

	var first authResponse
	status := do(t, "POST", url, "", map[string]string{"email": "owner@example.com", "password": "longenough", "role": "editor"}, &first)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 for bootstrap registration, got %d", status)
	}
	if first.User.Role != model.RoleAdmin {
		t.Errorf("expected first account to be admin, got %q", first.User.Role)
	}

	// Registration is closed to anonymous callers afterwards.
	status = do(t, "POST", url, "", map[string]string{"email": "late@example.com", "password": "longenough"}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 for anonymous registration, got %d", status)
	}

	var second authResponse
	status = do(t, "POST", url, first.Token, map[string]string{"email": "editor@example.com", "password": "longenough"}, &second)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 for admin registration, got %d", status)
	}
	if second.User.Role != model.RoleEditor {
		t.Errorf("expected default role editor, got %q", second.User.Role)
	}

	// Editors cannot register users.
	status = do(t, "POST", url, second.Token, map[string]string{"email": "x@example.com", "password": "longenough"}, nil)
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for editor registration, got %d", status)
	}

	status = do(t, "POST", url, first.Token, map[string]string{"email": "EDITOR@example.com", "password": "longenough"}, nil)
	if status != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", status)
	}

	status = do(t, "POST", url, first.Token, map[string]string{"email": "short@example.com", "password": "short"}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for short password, got %d", status)
	}
}

func TestMeAndLogout(t *testing.T) {
	env, token := setupTestServer(t)

	var me model.User
	if status := do(t, "GET", env.server.URL+"/api/auth/me", token, nil, &me); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if me.Email != "admin@example.com" {
		t.Errorf("unexpected user %+v", me)
	}

	if status := do(t, "POST", env.server.URL+"/api/auth/logout", token, nil, nil); status != http.StatusOK {
		t.Fatalf("expected 200 from logout, got %d", status)
	}

	if status := do(t, "GET", env.server.URL+"/api/auth/me", token, nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", status)
	}
}

func TestChangePassword(t *testing.T) {
	env, token := setupTestServer(t)
	url := env.server.URL + "/api/auth/password"

	status := do(t, "PUT", url, token, map[string]string{"currentPassword": "wrong", "newPassword": "newpassword"}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong current password, got %d", status)
	}

	status = do(t, "PUT", url, token, map[string]string{"currentPassword": "password", "newPassword": "newpassword"}, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	env.login(t, "admin@example.com", "newpassword")
}

func TestUnauthenticatedAccess(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{"POST", "/api/properties"},
		{"GET", "/api/leads"},
		{"GET", "/api/users"},
		{"PUT", "/api/settings"},
		{"GET", "/api/auth/me"},
	} {
		if status := do(t, tc.method, env.server.URL+tc.path, "", map[string]string{}, nil); status != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", tc.method, tc.path, status)
		}
	}

	if status := do(t, "GET", env.server.URL+"/api/leads", "garbage", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 for garbage token, got %d", status)
	}
}

func TestRoleBasedAccess(t *testing.T) {
	env := newTestEnv(t)
	editor := env.createUser(t, "editor@example.com", "password", model.RoleEditor)

	editorToken, _ := env.issuer.Generate(editor.ID, editor.Email, model.RoleEditor)

	// Editors manage content...
	status := do(t, "GET", env.server.URL+"/api/leads", editorToken, nil, nil)
	if status != http.StatusOK {
		t.Errorf("expected 200 for editor listing leads, got %d", status)
	}

	// ...but not users.
	status = do(t, "GET", env.server.URL+"/api/users", editorToken, nil, nil)
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for editor accessing users, got %d", status)
	}
}

func TestUsersEndpoints(t *testing.T) {
	env, token := setupTestServer(t)
	editor := env.createUser(t, "editor@example.com", "password", model.RoleEditor)

	var users []model.User
	if status := do(t, "GET", env.server.URL+"/api/users", token, nil, &users); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	var me model.User
	do(t, "GET", env.server.URL+"/api/auth/me", token, nil, &me)
	if status := do(t, "DELETE", env.server.URL+"/api/users/"+me.ID, token, nil, nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for self-deletion, got %d", status)
	}

	if status := do(t, "DELETE", env.server.URL+"/api/users/"+editor.ID, token, nil, nil); status != http.StatusOK {
		t.Errorf("expected 200, got %d", status)
	}
	if status := do(t, "DELETE", env.server.URL+"/api/users/"+editor.ID, token, nil, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for deleted user, got %d", status)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	var body map[string]string
	if status := do(t, "GET", env.server.URL+"/api/health", "", nil, &body); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	if status := do(t, "GET", env.server.URL+"/api/nothing", "", nil, nil); status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}
