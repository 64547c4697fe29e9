package registration

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rotaworks/workforce-auth/internal"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/employee"
	"github.com/rotaworks/workforce-auth/internal/core/events"
	"github.com/rotaworks/workforce-auth/internal/notification"
)

// Service implements the two-step self-registration flow: verify identity
// details against the Workforce directory, then redeem the resulting session
// for a local account.
type Service struct {
	cfg         internal.RegistrationConfig
	locationIDs []int64
	directory   EmployeeDirectory
	users       UserRepository
	accounts    AccountStore
	matcher     *Matcher
	sessions    *SessionStore
	limiter     *RateLimiter
	mailer      notification.Mailer
	bus         *events.EventBus
	bcryptCost  int
	logger      *slog.Logger
}

func NewService(
	cfg internal.RegistrationConfig,
	locationIDs []int64,
	directory EmployeeDirectory,
	users UserRepository,
	accounts AccountStore,
	matcher *Matcher,
	sessions *SessionStore,
	limiter *RateLimiter,
	mailer notification.Mailer,
	bus *events.EventBus,
	bcryptCost int,
	logger *slog.Logger,
) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		cfg:         cfg,
		locationIDs: locationIDs,
		directory:   directory,
		users:       users,
		accounts:    accounts,
		matcher:     matcher,
		sessions:    sessions,
		limiter:     limiter,
		mailer:      mailer,
		bus:         bus,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

// VerifyDetails matches the claim against the employee directory and opens a
// registration session on success.
//
// Failure reporting is deliberately coarse. Whether the email is unknown, the
// fields do not match, or the employee already holds an account, the caller
// sees the same ErrVerificationFailed, and the attempt counts against the
// source address. Malformed requests are rejected before the limiter and
// before any upstream call, and are not counted.
func (s *Service) VerifyDetails(ctx context.Context, dto VerifyDTO, sourceAddr string) (string, error) {
	if !s.cfg.Enabled {
		return "", internal.ErrRegistrationDisabled
	}

	if err := dto.Validate(); err != nil {
		return "", err
	}

	claim := dto.Claim()
	if s.matcher.ProvidedFieldCount(claim) < MatchThreshold {
		return "", internal.NewValidationError(
			"Please provide at least three verification details.",
			internal.ErrCodeInsufficientFields)
	}

	allowed, err := s.limiter.Allow(sourceAddr)
	if err != nil {
		return "", internal.NewInternalError("failed to check rate limit", err)
	}
	if !allowed {
		return "", internal.ErrTooManyAttempts
	}

	email := s.matcher.norm.Email(claim.Email)

	taken, err := s.accounts.EmailExists(email)
	if err != nil {
		return "", internal.NewInternalError("failed to check existing accounts", err)
	}
	if taken {
		s.limiter.RecordAttempt(sourceAddr)
		s.logger.Info("verification rejected: email already has an account")
		return "", internal.ErrVerificationFailed
	}

	pool, err := s.employeePool(ctx)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Code == internal.ErrCodeNoLocations {
			return "", err
		}
		s.limiter.RecordAttempt(sourceAddr)
		return "", err
	}

	rec, ok := s.matcher.Match(claim, pool)
	if !ok {
		s.limiter.RecordAttempt(sourceAddr)
		s.logger.Info("verification rejected: no matching employee record")
		return "", internal.ErrVerificationFailed
	}

	existing, err := s.users.GetByWorkforceID(rec.ID)
	if err != nil && !errors.Is(err, internal.ErrUserNotFound) {
		return "", internal.NewInternalError("failed to check registered users", err)
	}
	if existing != nil && existing.AccountID != nil {
		s.limiter.RecordAttempt(sourceAddr)
		s.logger.Info("verification rejected: employee already registered", "workforce_id", rec.ID)
		return "", internal.ErrVerificationFailed
	}

	token, err := s.sessions.Open(email, *rec)
	if err != nil {
		return "", err
	}

	s.logger.Info("verification succeeded, registration session opened", "workforce_id", rec.ID)
	return token, nil
}

// employeePool fetches the employee roster for every configured location.
// A location that fails to load is skipped; only a total failure is an error.
func (s *Service) employeePool(ctx context.Context) ([]employee.Record, error) {
	if len(s.locationIDs) == 0 {
		return nil, internal.ErrNoLocations
	}

	var pool []employee.Record
	failed := 0
	for _, locationID := range s.locationIDs {
		records, err := s.directory.GetUsers(ctx, locationID)
		if err != nil {
			failed++
			s.logger.Warn("failed to load employees for location",
				"location_id", locationID,
				"error", err)
			continue
		}
		pool = append(pool, records...)
	}

	if failed == len(s.locationIDs) {
		return nil, internal.ErrUpstreamUnavailable
	}
	return pool, nil
}

// CompleteRegistration redeems a session token for a local account. The
// session is only consumed once the outcome is settled: a durable account, or
// an email conflict that no retry can resolve. Transient failures leave the
// token usable.
func (s *Service) CompleteRegistration(ctx context.Context, dto CompleteDTO) (bool, error) {
	if !s.cfg.Enabled {
		return false, internal.ErrRegistrationDisabled
	}

	if err := dto.Validate(); err != nil {
		return false, err
	}

	sess, err := s.sessions.Peek(dto.Token)
	if err != nil {
		return false, err
	}

	if len(dto.Password) < s.cfg.MinPasswordLength {
		return false, internal.NewValidationFieldError("password",
			"password is too short", internal.ErrCodeWeakPassword)
	}
	if dto.Password != dto.ConfirmPassword {
		return false, internal.NewValidationFieldError("confirm_password",
			"passwords do not match", internal.ErrCodePasswordMismatch)
	}

	taken, err := s.accounts.EmailExists(sess.Email)
	if err != nil {
		return false, internal.NewInternalError("failed to check existing accounts", err)
	}
	if taken {
		s.sessions.Close(dto.Token)
		return false, internal.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return false, internal.NewInternalError("failed to hash password", err)
	}

	fullName := strings.TrimSpace(sess.Employee.Name + " " + sess.Employee.LastName)
	accountID, err := s.accounts.Create(sess.Email, fullName, string(hash), s.cfg.AutoApprove)
	if err != nil {
		if errors.Is(err, internal.ErrEmailTaken) {
			// Lost a race with a concurrent completion for the same email.
			s.sessions.Close(dto.Token)
			return false, internal.ErrEmailTaken
		}
		return false, internal.NewInternalError("failed to create account", err)
	}

	pending := !s.cfg.AutoApprove

	user := &employee.RegisteredUser{
		WorkforceID:     sess.Employee.ID,
		Email:           sess.Email,
		Name:            sess.Employee.Name,
		LastName:        sess.Employee.LastName,
		EmployeeID:      sess.Employee.EmployeeID,
		Phone:           sess.Employee.Phone,
		NormalizedPhone: sess.Employee.NormalisedPhone,
		Passcode:        sess.Employee.Passcode,
		Postcode:        sess.Employee.Postcode,
		PendingApproval: pending,
	}
	if sess.Employee.DateOfBirth != "" {
		dob := sess.Employee.DateOfBirth
		user.DateOfBirth = &dob
	}
	if !pending {
		user.AccountID = &accountID
	}
	now := time.Now()
	user.LastSynced = &now

	if err := s.users.Upsert(user); err != nil {
		// The account exists; surfacing an error here would strand the
		// visitor with working credentials and no employee link. Approval
		// tooling can repair the link.
		s.logger.Error("failed to persist employee link after account creation",
			"workforce_id", sess.Employee.ID,
			"account_id", accountID,
			"error", err)
	}

	if pending && s.cfg.NotificationEmail != "" {
		if err := s.mailer.SendApprovalRequest(s.cfg.NotificationEmail, sess.Email); err != nil {
			s.logger.Error("failed to send approval request", "error", err)
		}
	}

	s.sessions.Close(dto.Token)

	if s.bus != nil {
		s.bus.Publish(ctx, events.NewRegistrationCompletedEvent(sess.Employee.ID, accountID, pending))
	}

	s.logger.Info("registration completed",
		"workforce_id", sess.Employee.ID,
		"account_id", accountID,
		"pending_approval", pending)
	return pending, nil
}
