package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, env *testEnv, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(t, env, http.MethodPost, "/api/auth/register",
		`{"name":"Ana","email":"ana@example.com","password":"segredo1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "Ana", resp.Name)
	require.Equal(t, "ana@example.com", resp.Email)
	require.False(t, resp.IsAdmin)
	require.NotEmpty(t, resp.Token)

	claims, err := env.tokens.Verify(resp.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, resp.ID, id)

	stored, ok := env.users.users[resp.ID]
	require.True(t, ok)
	require.NotEqual(t, "segredo1", stored.PasswordHash, "password must not be stored in plaintext")
}

func TestRegisterMissingFields(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(t, env, http.MethodPost, "/api/auth/register",
		`{"name":"Ana","email":"ana@example.com"}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, env.users.users)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv()

	first := doJSON(t, env, http.MethodPost, "/api/auth/register",
		`{"name":"Ana","email":"ana@example.com","password":"segredo1"}`, "")
	require.Equal(t, http.StatusCreated, first.Code)

	second := doJSON(t, env, http.MethodPost, "/api/auth/register",
		`{"name":"Other Ana","email":"ana@example.com","password":"segredo2"}`, "")
	require.Equal(t, http.StatusBadRequest, second.Code)
	require.Len(t, env.users.users, 1)
}

func TestLogin(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(t, "Ana", "ana@example.com", "segredo1", false)

	rec := doJSON(t, env, http.MethodPost, "/api/auth/login",
		`{"email":"ana@example.com","password":"segredo1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, user.ID, resp.ID)

	claims, err := env.tokens.Verify(resp.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, user.ID, id)
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "Ana", "ana@example.com", "segredo1", false)

	wrongPassword := doJSON(t, env, http.MethodPost, "/api/auth/login",
		`{"email":"ana@example.com","password":"nope"}`, "")
	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)

	unknownEmail := doJSON(t, env, http.MethodPost, "/api/auth/login",
		`{"email":"ghost@example.com","password":"segredo1"}`, "")
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)

	// The two failure modes must be indistinguishable to the caller.
	require.JSONEq(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestLoginMissingFields(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(t, env, http.MethodPost, "/api/auth/login", `{"email":"ana@example.com"}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(t, "Ana", "ana@example.com", "segredo1", true)
	token := env.tokenFor(t, user)

	rec := doJSON(t, env, http.MethodGet, "/api/auth/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, `"ana@example.com"`)
	require.NotContains(t, body, user.PasswordHash, "password hash must never be serialized")
}
