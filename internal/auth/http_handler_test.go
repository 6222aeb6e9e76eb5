package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"booklibrary/internal/apperr"
	"booklibrary/internal/testutil"
	"booklibrary/internal/user"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPHandler_Register(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			body map[string]any
		}{
			{"bad email", map[string]any{"email": "nope", "password": "secret1", "name": "A"}},
			{"short password", map[string]any{"email": "a@b.co", "password": "12345", "name": "A"}},
			{"missing name", map[string]any{"email": "a@b.co", "password": "secret1", "name": "  "}},
			{"unknown role", map[string]any{"email": "a@b.co", "password": "secret1", "name": "A", "role": "root"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, _ := newTestService(t)
				w := httptest.NewRecorder()

				NewHTTPHandler(svc).Register(w, testutil.NewRequest(http.MethodPost, "/auth/register", tt.body))

				res := testutil.RecordHTTPResponse(w)
				assert.Equal(t, http.StatusBadRequest, res.Code)
				assert.Equal(t, "VALIDATION_ERROR", res.ErrorCode())
			})
		}
	})

	t.Run("created without password hash", func(t *testing.T) {
		svc, users := newTestService(t)
		users.EXPECT().Register(gomock.Any(), "a@b.co", "A", gomock.Any(), "").
			Return(user.User{ID: "u1", Email: "a@b.co", Name: "A", Role: user.RoleUser, PasswordHash: "$2a$hash"}, nil)

		w := httptest.NewRecorder()
		NewHTTPHandler(svc).Register(w, testutil.NewRequest(http.MethodPost, "/auth/register",
			map[string]any{"email": " a@b.co ", "password": "secret1", "name": "A"}))

		res := testutil.RecordHTTPResponse(w)
		require.Equal(t, http.StatusCreated, res.Code)
		data := res.Body["data"].(map[string]any)
		assert.NotEmpty(t, data["token"])
		assert.Equal(t, "u1", data["user"].(map[string]any)["id"])
		assert.False(t, strings.Contains(w.Body.String(), "$2a$hash"))
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, users := newTestService(t)
		users.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(user.User{}, apperr.Conflict("Email already registered"))

		w := httptest.NewRecorder()
		NewHTTPHandler(svc).Register(w, testutil.NewRequest(http.MethodPost, "/auth/register",
			map[string]any{"email": "a@b.co", "password": "secret1", "name": "A"}))

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHTTPHandler_Login(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		svc, _ := newTestService(t)
		r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{"))
		w := httptest.NewRecorder()

		NewHTTPHandler(svc).Login(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc, users := newTestService(t)
		users.EXPECT().GetByEmail(gomock.Any(), "a@b.co").Return(user.User{}, apperr.NotFound("User not found"))

		w := httptest.NewRecorder()
		NewHTTPHandler(svc).Login(w, testutil.NewRequest(http.MethodPost, "/auth/login",
			map[string]any{"email": "a@b.co", "password": "whatever"}))

		res := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Equal(t, "Invalid credentials", res.Body["message"])
	})
}
