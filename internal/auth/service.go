package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rotaworks/workforce-auth/internal"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/account"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/employee"
)

// AccountRepository looks up local credentials.
type AccountRepository interface {
	GetByEmail(email string) (*account.Account, error)
	GetByID(id int64) (*account.Account, error)
}

// EmployeeLinkRepository resolves the Workforce employee bound to an account.
type EmployeeLinkRepository interface {
	GetByAccountID(accountID int64) (*employee.RegisteredUser, error)
	GetByEmail(email string) (*employee.RegisteredUser, error)
}

// Service is the main auth service with dependencies
type Service struct {
	accounts AccountRepository
	links    EmployeeLinkRepository
	tokens   TokenGenerator
	logger   *slog.Logger
}

func NewService(accounts AccountRepository, links EmployeeLinkRepository, tokens TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		accounts: accounts,
		links:    links,
		tokens:   tokens,
		logger:   logger,
	}
}

// Authenticate validates credentials and returns tokens. Accounts whose
// registration still awaits administrator approval are refused with a
// distinct message; every other failure collapses into invalid credentials.
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	acct, err := s.accounts.GetByEmail(dto.Email)
	if err != nil {
		// Burn a bcrypt comparison so a missing account costs the same as a
		// wrong password.
		_ = bcrypt.CompareHashAndPassword(
			[]byte("$2a$12$C6UzMDM.H6dfI/f/IKcEeO7Kx4vF/9mhsCt4aR9089RSSYTPWc9V6"),
			[]byte(dto.Password))
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if !acct.IsActive {
		if link, err := s.links.GetByEmail(acct.Email); err == nil && link != nil && link.PendingApproval {
			return AuthTokens{}, internal.ErrPendingApproval
		}
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	return s.issueTokens(acct)
}

// RefreshTokens validates a refresh token and returns a new pair. The account
// is re-read so a deactivation since login takes effect immediately.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	acct, err := s.accounts.GetByID(claims.AccountID)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}
	if !acct.IsActive {
		return AuthTokens{}, internal.ErrInvalidToken
	}

	return s.issueTokens(acct)
}

// PrincipalFromAccessToken resolves the request principal for middleware.
func (s *Service) PrincipalFromAccessToken(tokenString string) (*Principal, error) {
	claims, err := s.tokens.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	acct, err := s.accounts.GetByID(claims.AccountID)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}
	if !acct.IsActive {
		return nil, internal.ErrInvalidToken
	}

	principal := &Principal{
		AccountID: acct.ID,
		Email:     acct.Email,
		Name:      acct.Name,
		IsAdmin:   acct.IsAdmin,
	}

	if link, err := s.links.GetByAccountID(acct.ID); err == nil && link != nil {
		principal.WorkforceUserID = link.WorkforceID
	}

	return principal, nil
}

func (s *Service) issueTokens(acct *account.Account) (AuthTokens, error) {
	claims := Claims{
		AccountID: acct.ID,
		Email:     acct.Email,
		IsAdmin:   acct.IsAdmin,
	}

	accessToken, err := s.tokens.GenerateAccessToken(claims)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign access token", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(claims)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * 7 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

func (j *JWTTokenGenerator) GenerateAccessToken(claims Claims) (string, error) {
	return j.sign(claims, j.AccessTokenSecret, j.AccessTokenTTL)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(claims Claims) (string, error) {
	return j.sign(claims, j.RefreshTokenSecret, j.RefreshTokenTTL)
}

func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) sign(claims Claims, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Subject:   fmt.Sprintf("%d", claims.AccountID),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(secret)
}

func (j *JWTTokenGenerator) validate(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, internal.ErrInvalidToken
}
