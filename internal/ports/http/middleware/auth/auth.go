package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"voting-ledger/internal/model"

	"go.uber.org/zap"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

const leeway = 30 * time.Second

type contextKey string

const callerKey contextKey = "caller"

var ErrNoCaller = errors.New("request carries no caller identity")

type JwtTokenParams struct {
	Issuer string
	// HS256 key shared with the token issuer
	Secret []byte
}

// TokenValidator authenticates requests by their bearer token. The subject of
// the token is the caller address used by the ledger.
type TokenValidator struct {
	JwtTokenParams
	logger *zap.Logger
}

func NewTokenValidator(logger *zap.Logger, params JwtTokenParams) TokenValidator {
	return TokenValidator{logger: logger, JwtTokenParams: params}
}

func (t TokenValidator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if !strings.HasPrefix(token, "Bearer ") {
			t.authError(w, errors.New("missing bearer token"))
			return
		}

		claims, err := t.parseToken(strings.TrimPrefix(token, "Bearer "))
		if err != nil {
			t.authError(w, errors.New("failed to parse the auth token: "+err.Error()))
			return
		}

		if err := t.validateClaims(claims); err != nil {
			t.authError(w, errors.New("auth token validation: "+err.Error()))
			return
		}

		caller := model.NormalizeAddress(claims.Subject)
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

func (t TokenValidator) authError(w http.ResponseWriter, err error) {
	t.logger.Warn(err.Error())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	body := struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}{Error: "Unauthenticated", Message: err.Error()}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.logger.Error("failed to write the response: " + err.Error())
	}
}

func (t TokenValidator) validateClaims(claims jwt.Claims) error {
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject is missing")
	}
	if claims.Expiry == nil {
		return errors.New("expiry is missing")
	}
	return claims.ValidateWithLeeway(jwt.Expected{
		Issuer: t.Issuer,
		Time:   time.Now(),
	}, leeway)
}

func (t TokenValidator) parseToken(tokenString string) (jwt.Claims, error) {
	var claims jwt.Claims

	token, err := jwt.ParseSigned(tokenString)
	if err != nil {
		return claims, err
	}

	if err := token.Claims(t.Secret, &claims); err != nil {
		return claims, err
	}

	return claims, nil
}

// IssueToken signs a token for subject, valid for ttl.
func IssueToken(params JwtTokenParams, subject string, ttl time.Duration) (string, error) {
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: params.Secret}, (&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return "", errors.New("failed to create the token signer: " + err.Error())
	}

	now := time.Now()
	claims := jwt.Claims{
		Subject:  subject,
		Issuer:   params.Issuer,
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(ttl)),
	}

	return jwt.Signed(signer).Claims(claims).CompactSerialize()
}

func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext returns the address set by Authenticate.
func CallerFromContext(ctx context.Context) (string, error) {
	caller, ok := ctx.Value(callerKey).(string)
	if !ok || caller == "" {
		return "", ErrNoCaller
	}
	return caller, nil
}
