package registration_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/rotaworks/workforce-auth/internal"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/employee"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/ratelimit"
	"github.com/rotaworks/workforce-auth/internal/registration"
)

type mockDirectory struct {
	byLocation map[int64][]employee.Record
	failing    map[int64]error
	calls      int
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		byLocation: make(map[int64][]employee.Record),
		failing:    make(map[int64]error),
	}
}

func (m *mockDirectory) GetUsers(ctx context.Context, locationID int64) ([]employee.Record, error) {
	m.calls++
	if err := m.failing[locationID]; err != nil {
		return nil, err
	}
	return m.byLocation[locationID], nil
}

type mockUserRepo struct {
	byWorkforceID map[int64]*employee.RegisteredUser
	upserted      []*employee.RegisteredUser
	upsertErr     error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byWorkforceID: make(map[int64]*employee.RegisteredUser)}
}

func (m *mockUserRepo) GetByWorkforceID(workforceID int64) (*employee.RegisteredUser, error) {
	u, ok := m.byWorkforceID[workforceID]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepo) Upsert(user *employee.RegisteredUser) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, user)
	m.byWorkforceID[user.WorkforceID] = user
	return nil
}

func (m *mockUserRepo) LinkAccount(workforceID, accountID int64) error {
	if u, ok := m.byWorkforceID[workforceID]; ok {
		u.AccountID = &accountID
		u.PendingApproval = false
	}
	return nil
}

type mockAccountStore struct {
	emails    map[string]bool
	createErr error
	created   []string
	nextID    int64
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{emails: make(map[string]bool), nextID: 1}
}

func (m *mockAccountStore) EmailExists(email string) (bool, error) {
	return m.emails[email], nil
}

func (m *mockAccountStore) Create(email, name, passwordHash string, active bool) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	if m.emails[email] {
		return 0, internal.ErrEmailTaken
	}
	m.emails[email] = true
	m.created = append(m.created, email)
	id := m.nextID
	m.nextID++
	return id, nil
}

type mockMailer struct {
	approvalRequests []string
	approvalGrants   []string
}

func (m *mockMailer) SendApprovalRequest(adminEmail, registrantEmail string) error {
	m.approvalRequests = append(m.approvalRequests, registrantEmail)
	return nil
}

func (m *mockMailer) SendApprovalGranted(registrantEmail string) error {
	m.approvalGrants = append(m.approvalGrants, registrantEmail)
	return nil
}

type recordingRateLimitRepo struct {
	counters map[string]*ratelimit.Counter
	recorded []string
}

func newRecordingRateLimitRepo() *recordingRateLimitRepo {
	return &recordingRateLimitRepo{counters: make(map[string]*ratelimit.Counter)}
}

func (r *recordingRateLimitRepo) Get(sourceAddr string) (*ratelimit.Counter, error) {
	return r.counters[sourceAddr], nil
}

func (r *recordingRateLimitRepo) RecordAttempt(sourceAddr string, windowExpiredBefore time.Time) error {
	r.recorded = append(r.recorded, sourceAddr)
	counter, ok := r.counters[sourceAddr]
	if !ok || counter.LastAttempt.Before(windowExpiredBefore) {
		r.counters[sourceAddr] = &ratelimit.Counter{SourceAddr: sourceAddr, Attempts: 1, LastAttempt: time.Now()}
		return nil
	}
	counter.Attempts++
	counter.LastAttempt = time.Now()
	return nil
}

var _ = Describe("RegistrationService", func() {
	const sourceAddr = "203.0.113.9"

	var (
		cfg       internal.RegistrationConfig
		dir       *mockDirectory
		users     *mockUserRepo
		accounts  *mockAccountStore
		mailer    *mockMailer
		limitRepo *recordingRateLimitRepo
		sessions  *registration.SessionStore
		service   *registration.Service
		jane      employee.Record
	)

	buildService := func() *registration.Service {
		norm := registration.NewNormalizer("44")
		matcher := registration.NewMatcher(norm, testLogger())
		limiter := registration.NewRateLimiter(limitRepo, cfg.RateLimit, cfg.RateLimitWindow, testLogger())
		sessions = registration.NewSessionStore(cfg.SessionTTL, testLogger())
		return registration.NewService(cfg, []int64{1, 2}, dir, users, accounts,
			matcher, sessions, limiter, mailer, nil, bcrypt.MinCost, testLogger())
	}

	BeforeEach(func() {
		cfg = internal.RegistrationConfig{
			Enabled:           true,
			AutoApprove:       false,
			RateLimit:         3,
			RateLimitWindow:   time.Hour,
			SessionTTL:        10 * time.Minute,
			MinPasswordLength: 8,
			NotificationEmail: "admin@example.com",
		}
		dir = newMockDirectory()
		users = newMockUserRepo()
		accounts = newMockAccountStore()
		mailer = &mockMailer{}
		limitRepo = newRecordingRateLimitRepo()

		jane = employee.Record{
			ID:          101,
			Email:       "jane.doe@example.com",
			Name:        "Jane",
			LastName:    "Doe",
			EmployeeID:  "EMP-42",
			DateOfBirth: "1990-03-17",
			Phone:       "+447911123456",
			Postcode:    "SW1A 1AA",
		}
		dir.byLocation[1] = []employee.Record{jane}
		dir.byLocation[2] = []employee.Record{{ID: 202, Email: "bob@example.com", LastName: "Stone"}}

		service = buildService()
	})

	goodClaim := func() registration.VerifyDTO {
		return registration.VerifyDTO{
			Email:       "Jane.Doe@example.com",
			LastName:    "doe",
			DateOfBirth: "17/03/1990",
			Phone:       "07911 123456",
		}
	}

	Describe("VerifyDetails", func() {
		It("should open a session for a matching claim", func() {
			token, err := service.VerifyDetails(context.Background(), goodClaim(), sourceAddr)
			Expect(err).NotTo(HaveOccurred())
			Expect(token).NotTo(BeEmpty())
			Expect(limitRepo.recorded).To(BeEmpty())

			sess, err := sessions.Peek(token)
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.Email).To(Equal("jane.doe@example.com"))
			Expect(sess.Employee.ID).To(Equal(int64(101)))
		})

		It("should reject a malformed email before counting an attempt", func() {
			dto := goodClaim()
			dto.Email = "not-an-email"

			_, err := service.VerifyDetails(context.Background(), dto, sourceAddr)
			Expect(err).To(HaveOccurred())
			Expect(limitRepo.recorded).To(BeEmpty())
			Expect(dir.calls).To(BeZero())
		})

		It("should reject fewer than three provided fields before counting an attempt", func() {
			dto := registration.VerifyDTO{
				Email:    "jane.doe@example.com",
				LastName: "Doe",
				Phone:    "07911 123456",
			}

			_, err := service.VerifyDetails(context.Background(), dto, sourceAddr)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInsufficientFields))
			Expect(limitRepo.recorded).To(BeEmpty())
			Expect(dir.calls).To(BeZero())
		})

		It("should return the generic failure and count an attempt when nothing matches", func() {
			dto := goodClaim()
			dto.Email = "stranger@example.com"

			_, err := service.VerifyDetails(context.Background(), dto, sourceAddr)
			Expect(err).To(Equal(internal.ErrVerificationFailed))
			Expect(limitRepo.recorded).To(HaveLen(1))
		})

		It("should return the generic failure when the email already has an account", func() {
			accounts.emails["jane.doe@example.com"] = true

			_, err := service.VerifyDetails(context.Background(), goodClaim(), sourceAddr)
			Expect(err).To(Equal(internal.ErrVerificationFailed))
			Expect(limitRepo.recorded).To(HaveLen(1))
			Expect(dir.calls).To(BeZero())
		})

		It("should return the generic failure when the employee is already registered", func() {
			accountID := int64(7)
			users.byWorkforceID[101] = &employee.RegisteredUser{
				WorkforceID: 101,
				AccountID:   &accountID,
			}

			_, err := service.VerifyDetails(context.Background(), goodClaim(), sourceAddr)
			Expect(err).To(Equal(internal.ErrVerificationFailed))
			Expect(limitRepo.recorded).To(HaveLen(1))
		})

		It("should rate limit after the configured number of failures", func() {
			dto := goodClaim()
			dto.Email = "stranger@example.com"

			for i := 0; i < 3; i++ {
				_, err := service.VerifyDetails(context.Background(), dto, sourceAddr)
				Expect(err).To(Equal(internal.ErrVerificationFailed))
			}

			_, err := service.VerifyDetails(context.Background(), dto, sourceAddr)
			Expect(err).To(Equal(internal.ErrTooManyAttempts))
			Expect(limitRepo.recorded).To(HaveLen(3))
		})

		It("should skip a failed location and still match from the others", func() {
			dir.failing[2] = errors.New("timeout")

			token, err := service.VerifyDetails(context.Background(), goodClaim(), sourceAddr)
			Expect(err).NotTo(HaveOccurred())
			Expect(token).NotTo(BeEmpty())
		})

		It("should count an attempt when every location fails", func() {
			dir.failing[1] = errors.New("timeout")
			dir.failing[2] = errors.New("timeout")

			_, err := service.VerifyDetails(context.Background(), goodClaim(), sourceAddr)
			Expect(err).To(Equal(internal.ErrUpstreamUnavailable))
			Expect(limitRepo.recorded).To(HaveLen(1))
		})

		It("should not count an attempt when no locations are configured", func() {
			norm := registration.NewNormalizer("44")
			matcher := registration.NewMatcher(norm, testLogger())
			limiter := registration.NewRateLimiter(limitRepo, cfg.RateLimit, cfg.RateLimitWindow, testLogger())
			unconfigured := registration.NewService(cfg, nil, dir, users, accounts,
				matcher, registration.NewSessionStore(cfg.SessionTTL, testLogger()),
				limiter, mailer, nil, bcrypt.MinCost, testLogger())

			_, err := unconfigured.VerifyDetails(context.Background(), goodClaim(), sourceAddr)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeNoLocations))
			Expect(limitRepo.recorded).To(BeEmpty())
		})

		It("should refuse when registration is disabled", func() {
			cfg.Enabled = false
			service = buildService()

			_, err := service.VerifyDetails(context.Background(), goodClaim(), sourceAddr)
			Expect(err).To(Equal(internal.ErrRegistrationDisabled))
		})
	})

	Describe("CompleteRegistration", func() {
		var token string

		completeDTO := func() registration.CompleteDTO {
			return registration.CompleteDTO{
				Token:           token,
				Password:        "correct horse battery",
				ConfirmPassword: "correct horse battery",
			}
		}

		BeforeEach(func() {
			var err error
			token, err = service.VerifyDetails(context.Background(), goodClaim(), sourceAddr)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should create an inactive account pending approval", func() {
			pending, err := service.CompleteRegistration(context.Background(), completeDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(BeTrue())

			Expect(accounts.created).To(ConsistOf("jane.doe@example.com"))
			Expect(users.upserted).To(HaveLen(1))
			link := users.upserted[0]
			Expect(link.WorkforceID).To(Equal(int64(101)))
			Expect(link.AccountID).To(BeNil())
			Expect(link.PendingApproval).To(BeTrue())
			Expect(mailer.approvalRequests).To(ConsistOf("jane.doe@example.com"))
		})

		It("should consume the session once the account exists", func() {
			_, err := service.CompleteRegistration(context.Background(), completeDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CompleteRegistration(context.Background(), completeDTO())
			Expect(err).To(Equal(internal.ErrSessionExpired))
		})

		It("should link and activate immediately when auto approval is on", func() {
			cfg.AutoApprove = true
			service = buildService()
			token, _ = service.VerifyDetails(context.Background(), goodClaim(), sourceAddr)

			pending, err := service.CompleteRegistration(context.Background(), completeDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(BeFalse())

			link := users.upserted[0]
			Expect(link.AccountID).NotTo(BeNil())
			Expect(link.PendingApproval).To(BeFalse())
			Expect(mailer.approvalRequests).To(BeEmpty())
		})

		It("should reject a short password without consuming the session", func() {
			dto := completeDTO()
			dto.Password = "short"
			dto.ConfirmPassword = "short"

			_, err := service.CompleteRegistration(context.Background(), dto)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeWeakPassword))

			_, err = sessions.Peek(token)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject mismatched confirmation without consuming the session", func() {
			dto := completeDTO()
			dto.ConfirmPassword = "different password"

			_, err := service.CompleteRegistration(context.Background(), dto)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodePasswordMismatch))

			_, err = sessions.Peek(token)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should consume the session when the email turns out to be taken", func() {
			accounts.emails["jane.doe@example.com"] = true

			_, err := service.CompleteRegistration(context.Background(), completeDTO())
			Expect(err).To(Equal(internal.ErrEmailTaken))

			_, err = sessions.Peek(token)
			Expect(err).To(Equal(internal.ErrSessionExpired))
		})

		It("should keep the session when account creation fails transiently", func() {
			accounts.createErr = errors.New("connection refused")

			_, err := service.CompleteRegistration(context.Background(), completeDTO())
			Expect(err).To(HaveOccurred())

			_, err = sessions.Peek(token)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should still succeed when the link upsert fails", func() {
			users.upsertErr = errors.New("deadlock")

			pending, err := service.CompleteRegistration(context.Background(), completeDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(BeTrue())
			Expect(accounts.created).To(HaveLen(1))
		})

		It("should reject an expired token", func() {
			dto := completeDTO()
			dto.Token = "never-issued"

			_, err := service.CompleteRegistration(context.Background(), dto)
			Expect(err).To(Equal(internal.ErrSessionExpired))
		})
	})
})
