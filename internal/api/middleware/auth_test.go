package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacready/bacready-api/internal/service/auth"
)

type stubTokenService struct {
	claims *auth.Claims
	err    error
}

func (s *stubTokenService) GenerateToken(context.Context, uuid.UUID) (string, error) {
	return "", nil
}

func (s *stubTokenService) ValidateToken(context.Context, string) (*auth.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func runAuth(t *testing.T, tokenService auth.TokenService, header string) (*httptest.ResponseRecorder, uuid.UUID, bool) {
	t.Helper()

	var gotID uuid.UUID
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = GetUserID(r)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/schedules/active", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()

	NewAuthMiddleware(tokenService).Authenticate(next).ServeHTTP(rec, req)
	return rec, gotID, gotOK
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	t.Run("valid token reaches the handler with user ID", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		stub := &stubTokenService{claims: &auth.Claims{UserID: userID}}

		rec, gotID, gotOK := runAuth(t, stub, "Bearer sometoken")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, gotOK)
		assert.Equal(t, userID, gotID)
	})

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()
		rec, _, _ := runAuth(t, &stubTokenService{}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		t.Parallel()
		rec, _, _ := runAuth(t, &stubTokenService{}, "Token abc")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		rec, _, _ := runAuth(t, &stubTokenService{err: auth.ErrExpiredToken}, "Bearer expired")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Token expired")
	})

	t.Run("wrong token type", func(t *testing.T) {
		t.Parallel()
		rec, _, _ := runAuth(t, &stubTokenService{err: auth.ErrWrongTokenType}, "Bearer refresh")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
