package devserver

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kbukum/archivekit/identity"
)

const tokenIssuer = "archivekit-devserver"

// sessionClaims is the JWT payload behind issued subject tokens. Scoped
// tokens carry the project pair; root tokens leave it empty.
type sessionClaims struct {
	gojwt.RegisteredClaims
	UserName    string `json:"name"`
	ProjectID   string `json:"prj,omitempty"`
	ProjectName string `json:"prj_name,omitempty"`
}

// tokenService issues and verifies HS256 session tokens.
type tokenService struct {
	secret []byte
	ttl    time.Duration
}

func newTokenService(secret string, ttl time.Duration) *tokenService {
	return &tokenService{secret: []byte(secret), ttl: ttl}
}

// issue signs a token for the user, optionally scoped to a project.
func (ts *tokenService) issue(user *userRecord, project *identity.ProjectRef) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(ts.ttl)

	claims := &sessionClaims{
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   user.id,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(expires),
		},
		UserName: user.name,
	}
	if project != nil {
		claims.ProjectID = project.ID
		claims.ProjectName = project.Name
	}

	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("devserver: sign token: %w", err)
	}
	return signed, expires, nil
}

// verify parses and validates a presented token.
func (ts *tokenService) verify(raw string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	token, err := gojwt.ParseWithClaims(raw, claims, ts.keyFunc, gojwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, fmt.Errorf("devserver: parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("devserver: invalid token")
	}
	return claims, nil
}

func (ts *tokenService) keyFunc(token *gojwt.Token) (interface{}, error) {
	if token.Method.Alg() != gojwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("devserver: unexpected signing method: %s", token.Method.Alg())
	}
	return ts.secret, nil
}
