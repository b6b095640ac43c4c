package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Dana",
		"email":    "dana@example.com",
		"password": "hunter2hunter2",
		"role":     "hr",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "dana@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Token string `json:"token"`
		User  struct {
			Name string `json:"name"`
			Role string `json:"role"`
		} `json:"user"`
	}
	decodeData(t, w, &data)
	require.NotEmpty(t, data.Token)
	require.Equal(t, "Dana", data.User.Name)
	require.Equal(t, "hr", data.User.Role)

	// the issued token must pass the middleware
	w = env.doJSON(t, http.MethodGet, "/api/expenses", data.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.newUser(t, "Sam", "sam@example.com", "bda")

	w := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "sam@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.newUser(t, "Sam", "sam@example.com", "bda")

	w := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Sam Again",
		"email":    "sam@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterUnknownRole(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Eve",
		"email":    "eve@example.com",
		"password": "password123",
		"role":     "superuser",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
