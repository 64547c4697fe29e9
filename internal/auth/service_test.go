package auth_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/rotaworks/workforce-auth/internal"
	"github.com/rotaworks/workforce-auth/internal/auth"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/account"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/employee"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

type mockAccountRepo struct {
	byEmail map[string]*account.Account
	byID    map[int64]*account.Account
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{
		byEmail: make(map[string]*account.Account),
		byID:    make(map[int64]*account.Account),
	}
}

func (m *mockAccountRepo) add(acct *account.Account) {
	m.byEmail[acct.Email] = acct
	m.byID[acct.ID] = acct
}

func (m *mockAccountRepo) GetByEmail(email string) (*account.Account, error) {
	acct, ok := m.byEmail[email]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	return acct, nil
}

func (m *mockAccountRepo) GetByID(id int64) (*account.Account, error) {
	acct, ok := m.byID[id]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	return acct, nil
}

type mockLinkRepo struct {
	byAccountID map[int64]*employee.RegisteredUser
	byEmail     map[string]*employee.RegisteredUser
}

func newMockLinkRepo() *mockLinkRepo {
	return &mockLinkRepo{
		byAccountID: make(map[int64]*employee.RegisteredUser),
		byEmail:     make(map[string]*employee.RegisteredUser),
	}
}

func (m *mockLinkRepo) GetByAccountID(accountID int64) (*employee.RegisteredUser, error) {
	link, ok := m.byAccountID[accountID]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	return link, nil
}

func (m *mockLinkRepo) GetByEmail(email string) (*employee.RegisteredUser, error) {
	link, ok := m.byEmail[email]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	return link, nil
}

var _ = Describe("AuthService", func() {
	var (
		accounts *mockAccountRepo
		links    *mockLinkRepo
		tokens   *auth.JWTTokenGenerator
		service  *auth.Service
	)

	hash := func(password string) string {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		return string(h)
	}

	BeforeEach(func() {
		accounts = newMockAccountRepo()
		links = newMockLinkRepo()
		tokens = auth.NewJWTTokenGenerator(
			"access-secret-at-least-32-characters!!",
			"refresh-secret-at-least-32-characters!",
			15*time.Minute, 7*24*time.Hour)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = auth.NewService(accounts, links, tokens, logger)

		accounts.add(&account.Account{
			ID:           1,
			Email:        "jane.doe@example.com",
			Name:         "Jane Doe",
			PasswordHash: hash("correct horse battery"),
			IsActive:     true,
		})
	})

	Describe("Authenticate", func() {
		It("should issue a token pair for valid credentials", func() {
			result, err := service.Authenticate(auth.LoginDTO{
				Email:    "jane.doe@example.com",
				Password: "correct horse battery",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.AccessToken).NotTo(BeEmpty())
			Expect(result.RefreshToken).NotTo(BeEmpty())
			Expect(result.AccessToken).NotTo(Equal(result.RefreshToken))

			claims, err := tokens.ValidateAccessToken(result.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.AccountID).To(Equal(int64(1)))
			Expect(claims.Email).To(Equal("jane.doe@example.com"))
		})

		It("should reject a wrong password", func() {
			_, err := service.Authenticate(auth.LoginDTO{
				Email:    "jane.doe@example.com",
				Password: "wrong",
			})
			Expect(err).To(Equal(internal.ErrInvalidCredentials))
		})

		It("should reject an unknown email with the same error as a wrong password", func() {
			_, err := service.Authenticate(auth.LoginDTO{
				Email:    "nobody@example.com",
				Password: "whatever",
			})
			Expect(err).To(Equal(internal.ErrInvalidCredentials))
		})

		It("should surface pending approval for an inactive account awaiting review", func() {
			accounts.add(&account.Account{
				ID:           2,
				Email:        "new.hire@example.com",
				PasswordHash: hash("secret password"),
				IsActive:     false,
			})
			links.byEmail["new.hire@example.com"] = &employee.RegisteredUser{
				WorkforceID:     202,
				Email:           "new.hire@example.com",
				PendingApproval: true,
			}

			_, err := service.Authenticate(auth.LoginDTO{
				Email:    "new.hire@example.com",
				Password: "secret password",
			})
			Expect(err).To(Equal(internal.ErrPendingApproval))
		})

		It("should treat a deactivated account without a pending link as invalid credentials", func() {
			accounts.add(&account.Account{
				ID:           3,
				Email:        "former@example.com",
				PasswordHash: hash("secret password"),
				IsActive:     false,
			})

			_, err := service.Authenticate(auth.LoginDTO{
				Email:    "former@example.com",
				Password: "secret password",
			})
			Expect(err).To(Equal(internal.ErrInvalidCredentials))
		})

		It("should reject a missing email or password before any lookup", func() {
			_, err := service.Authenticate(auth.LoginDTO{Password: "x"})
			Expect(err).To(HaveOccurred())

			_, err = service.Authenticate(auth.LoginDTO{Email: "jane.doe@example.com"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("RefreshTokens", func() {
		It("should issue a fresh pair for a valid refresh token", func() {
			first, err := service.Authenticate(auth.LoginDTO{
				Email:    "jane.doe@example.com",
				Password: "correct horse battery",
			})
			Expect(err).NotTo(HaveOccurred())

			second, err := service.RefreshTokens(first.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.AccessToken).NotTo(BeEmpty())
			Expect(second.RefreshToken).NotTo(BeEmpty())
		})

		It("should reject an access token used as a refresh token", func() {
			pair, err := service.Authenticate(auth.LoginDTO{
				Email:    "jane.doe@example.com",
				Password: "correct horse battery",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.RefreshTokens(pair.AccessToken)
			Expect(err).To(Equal(internal.ErrInvalidToken))
		})

		It("should reject once the account is deactivated", func() {
			pair, err := service.Authenticate(auth.LoginDTO{
				Email:    "jane.doe@example.com",
				Password: "correct horse battery",
			})
			Expect(err).NotTo(HaveOccurred())

			accounts.byID[1].IsActive = false

			_, err = service.RefreshTokens(pair.RefreshToken)
			Expect(err).To(Equal(internal.ErrInvalidToken))
		})

		It("should reject garbage", func() {
			_, err := service.RefreshTokens("not-a-jwt")
			Expect(err).To(Equal(internal.ErrInvalidToken))
		})
	})

	Describe("PrincipalFromAccessToken", func() {
		It("should resolve the principal with the employee link", func() {
			links.byAccountID[1] = &employee.RegisteredUser{WorkforceID: 101, Email: "jane.doe@example.com"}

			pair, err := service.Authenticate(auth.LoginDTO{
				Email:    "jane.doe@example.com",
				Password: "correct horse battery",
			})
			Expect(err).NotTo(HaveOccurred())

			principal, err := service.PrincipalFromAccessToken(pair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(principal.AccountID).To(Equal(int64(1)))
			Expect(principal.WorkforceUserID).To(Equal(int64(101)))
		})

		It("should leave WorkforceUserID zero for an unlinked account", func() {
			pair, err := service.Authenticate(auth.LoginDTO{
				Email:    "jane.doe@example.com",
				Password: "correct horse battery",
			})
			Expect(err).NotTo(HaveOccurred())

			principal, err := service.PrincipalFromAccessToken(pair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(principal.WorkforceUserID).To(BeZero())
		})

		It("should reject a refresh token used as an access token", func() {
			pair, err := service.Authenticate(auth.LoginDTO{
				Email:    "jane.doe@example.com",
				Password: "correct horse battery",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.PrincipalFromAccessToken(pair.RefreshToken)
			Expect(err).To(Equal(internal.ErrInvalidToken))
		})
	})

	Describe("JWTTokenGenerator", func() {
		It("should report expiry distinctly", func() {
			short := auth.NewJWTTokenGenerator(
				"access-secret-at-least-32-characters!!",
				"refresh-secret-at-least-32-characters!",
				-time.Minute, time.Hour)
			// NewJWTTokenGenerator substitutes the default TTL for
			// non-positive values, so sign with a hand-built generator.
			short.AccessTokenTTL = -time.Minute

			token, err := short.GenerateAccessToken(auth.Claims{AccountID: 1})
			Expect(err).NotTo(HaveOccurred())

			_, err = short.ValidateAccessToken(token)
			Expect(err).To(Equal(internal.ErrTokenExpired))
		})
	})
})
