package user

import (
	"github.com/rotaworks/workforce-auth/internal/auth"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/account"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/employee"
)

// ServiceAPI is the account directory exposed to the HTTP layer.
type ServiceAPI interface {
	Me(principal *auth.Principal) (*ProfileDTO, error)
	ListPendingRegistrations() ([]PendingRegistrationDTO, error)
	ApproveRegistration(workforceID int64) error
	RejectRegistration(workforceID int64) error
}

// AccountRepository manages local login accounts.
type AccountRepository interface {
	GetByID(id int64) (*account.Account, error)
	GetByEmail(email string) (*account.Account, error)
	SetActive(id int64, active bool) error
	Delete(id int64) error
}

// EmployeeLinkRepository manages the employee link rows backing approvals.
type EmployeeLinkRepository interface {
	GetByWorkforceID(workforceID int64) (*employee.RegisteredUser, error)
	ListPending() ([]employee.RegisteredUser, error)
	LinkAccount(workforceID, accountID int64) error
	Delete(workforceID int64) error
}
