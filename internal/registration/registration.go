package registration

import (
	"context"
	"time"

	"github.com/rotaworks/workforce-auth/internal/core/datamodel/employee"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/ratelimit"
)

// Claim is the set of identity attributes a visitor supplies to prove they
// are a particular employee. Email is required; the rest are optional, but
// at least three must be present before matching is attempted.
type Claim struct {
	Email       string
	LastName    string
	EmployeeID  string
	DateOfBirth string
	Phone       string
	Passcode    string
	Postcode    string
}

// ServiceAPI is the registration flow exposed to the HTTP layer.
type ServiceAPI interface {
	VerifyDetails(ctx context.Context, dto VerifyDTO, sourceAddr string) (string, error)
	CompleteRegistration(ctx context.Context, dto CompleteDTO) (pendingApproval bool, err error)
}

// EmployeeDirectory is the read surface of the Workforce API client the
// registration flow depends on.
type EmployeeDirectory interface {
	GetUsers(ctx context.Context, locationID int64) ([]employee.Record, error)
}

// UserRepository persists the employee-to-account link rows.
type UserRepository interface {
	GetByWorkforceID(workforceID int64) (*employee.RegisteredUser, error)
	Upsert(user *employee.RegisteredUser) error
	LinkAccount(workforceID, accountID int64) error
}

// AccountStore creates local login credentials. Create must fail with
// internal.ErrEmailTaken when the email is already in use; that uniqueness
// constraint is what arbitrates concurrent completions for the same employee.
type AccountStore interface {
	EmailExists(email string) (bool, error)
	Create(email, name, passwordHash string, active bool) (int64, error)
}

// RateLimitRepository persists per-source-address attempt counters.
// RecordAttempt must be an atomic upsert-or-increment: concurrent attempts
// from one address must not lose updates.
type RateLimitRepository interface {
	Get(sourceAddr string) (*ratelimit.Counter, error)
	RecordAttempt(sourceAddr string, windowExpiredBefore time.Time) error
}
