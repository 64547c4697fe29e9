package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const contextPrincipalKey ctxKey = "principal"

// Principal is the authenticated actor attached to a request. AccountID is
// always set; WorkforceUserID is zero when the account has no employee link.
type Principal struct {
	AccountID       int64  `json:"account_id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	IsAdmin         bool   `json:"is_admin"`
	WorkforceUserID int64  `json:"workforce_user_id,omitempty"`
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(contextPrincipalKey).(*Principal)
	return p, ok
}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextPrincipalKey, p)
}

// Claims represents JWT token claims
type Claims struct {
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenGenerator creates and validates the JWT pair. Access and refresh
// tokens are signed with different secrets so one cannot stand in for the
// other.
type TokenGenerator interface {
	GenerateAccessToken(claims Claims) (string, error)
	GenerateRefreshToken(claims Claims) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// ServiceAPI performs authentication-related business logic.
type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	PrincipalFromAccessToken(tokenString string) (*Principal, error)
}
