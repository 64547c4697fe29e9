package permissions

import (
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/permission"
)

// Override is the per-employee decision stored for a permission key. Presence
// of a decision beats whatever the departments say; absence falls through.
type Override int

const (
	OverrideNone Override = iota
	OverrideGrant
	OverrideDeny
)

// Principal identifies the actor whose access is being resolved.
// WorkforceUserID is zero when the account has no employee link, in which
// case only the admin path can grant anything.
type Principal struct {
	AccountID       int64
	WorkforceUserID int64
	IsAdmin         bool
}

// ServiceAPI is the permission surface exposed to the HTTP layer and to
// other services.
type ServiceAPI interface {
	UserCan(principal Principal, key string) (bool, error)
	AllGranted(principal Principal) ([]string, error)

	RegisterPermission(key, name, description, appName string) (*permission.Permission, error)
	ListPermissions(appName string) ([]permission.Permission, error)
	DeletePermission(key string) error

	GrantToDepartment(departmentID int64, key string) error
	RevokeFromDepartment(departmentID int64, key string) error
	ListDepartmentGrants(departmentID int64) ([]permission.DepartmentGrant, error)

	SetOverride(workforceUserID int64, key string, granted bool) error
	ClearOverride(workforceUserID int64, key string) error
	ListOverrides(workforceUserID int64) ([]permission.UserOverride, error)
}

// Repository persists the catalogue, department grants and user overrides.
type Repository interface {
	GetPermission(key string) (*permission.Permission, error)
	UpsertPermission(p *permission.Permission) error
	ListPermissions(appName string) ([]permission.Permission, error)
	// DeletePermission removes the catalogue entry together with every
	// department grant and user override for the key, atomically.
	DeletePermission(key string) error

	GrantToDepartment(departmentID int64, key string) error
	RevokeFromDepartment(departmentID int64, key string) error
	ListDepartmentGrants(departmentID int64) ([]permission.DepartmentGrant, error)

	SetOverride(workforceUserID int64, key string, granted bool) error
	ClearOverride(workforceUserID int64, key string) error
	ListOverrides(workforceUserID int64) ([]permission.UserOverride, error)
	GetOverride(workforceUserID int64, key string) (Override, error)

	// HasDepartmentGrant reports whether any department the employee belongs
	// to carries a grant for key.
	HasDepartmentGrant(workforceUserID int64, key string) (bool, error)
	// DepartmentKeysForUser returns the distinct keys granted to any of the
	// employee's departments.
	DepartmentKeysForUser(workforceUserID int64) ([]string, error)
	// AllKeys returns every registered permission key.
	AllKeys() ([]string, error)

	DepartmentExists(departmentID int64) (bool, error)
}
