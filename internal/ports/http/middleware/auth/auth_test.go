package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var params = JwtTokenParams{Issuer: "voting-ledger", Secret: []byte("0123456789abcdef0123456789abcdef")}

func serve(t *testing.T, token string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	validator := NewTokenValidator(zap.NewNop(), params)

	var caller string
	handler := validator.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		caller, err = CallerFromContext(r.Context())
		require.NoError(t, err)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/votes", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, caller
}

func TestValidToken(t *testing.T) {
	token, err := IssueToken(params, "0xAlice", time.Minute)
	require.NoError(t, err)

	rec, caller := serve(t, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0xalice", caller)
}

func TestRejectedTokens(t *testing.T) {
	expired, err := IssueToken(params, "0xalice", -time.Hour)
	require.NoError(t, err)

	foreign, err := IssueToken(JwtTokenParams{Issuer: params.Issuer, Secret: []byte("another secret of enough length!")}, "0xalice", time.Minute)
	require.NoError(t, err)

	wrongIssuer, err := IssueToken(JwtTokenParams{Issuer: "someone-else", Secret: params.Secret}, "0xalice", time.Minute)
	require.NoError(t, err)

	noSubject, err := IssueToken(params, "", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
		{"expired", expired},
		{"foreign key", foreign},
		{"wrong issuer", wrongIssuer},
		{"no subject", noSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, caller := serve(t, tt.token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, caller)
		})
	}
}

func TestCallerFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := CallerFromContext(req.Context())
	assert.ErrorIs(t, err, ErrNoCaller)
}

func TestAuthErrorBodyIsJSON(t *testing.T) {
	validator := NewTokenValidator(zap.NewNop(), params)
	rec := httptest.NewRecorder()

	validator.authError(rec, errors.New("bad \\ token \"x\"\n\x01"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Unauthenticated", body.Error)
	assert.Equal(t, "bad \\ token \"x\"\n\x01", body.Message)
}
