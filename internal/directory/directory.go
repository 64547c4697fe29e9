package directory

import (
	"context"

	dirmodel "github.com/rotaworks/workforce-auth/internal/core/datamodel/directory"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/employee"
	"github.com/rotaworks/workforce-auth/internal/workforce"
)

// ServiceAPI is the organisational directory exposed to the HTTP layer.
type ServiceAPI interface {
	SyncAll(ctx context.Context) (*SyncReport, error)
	ListDepartments() ([]dirmodel.Department, error)
	DepartmentMembers(departmentID int64) ([]MemberDTO, error)
	DepartmentsForEmployee(workforceUserID int64) ([]dirmodel.Department, error)
}

// RosterSource is the slice of the Workforce API the sync consumes.
type RosterSource interface {
	GetLocations(ctx context.Context) ([]workforce.Location, error)
	GetDepartments(ctx context.Context, locationIDs []int64) ([]workforce.DepartmentRoster, error)
	GetUsers(ctx context.Context, locationID int64) ([]employee.Record, error)
}

// Repository persists locations, departments and memberships.
type Repository interface {
	UpsertLocation(loc *dirmodel.Location) error
	// UpsertDepartment inserts or refreshes by workforce id and reports the
	// local row id.
	UpsertDepartment(dept *dirmodel.Department) (int64, error)
	// ReplaceMemberships swaps the full member list of a department. The
	// upstream roster is authoritative, not a delta.
	ReplaceMemberships(departmentID int64, members []dirmodel.Membership) error

	ListDepartments() ([]dirmodel.Department, error)
	GetDepartmentByID(id int64) (*dirmodel.Department, error)
	ListMemberships(departmentID int64) ([]dirmodel.Membership, error)
	DepartmentsForEmployee(workforceUserID int64) ([]dirmodel.Department, error)
}

// EmployeeStore receives the employee snapshots gathered during sync.
type EmployeeStore interface {
	Upsert(user *employee.RegisteredUser) error
}

// SyncReport summarises one sync run.
type SyncReport struct {
	Locations   int `json:"locations"`
	Departments int `json:"departments"`
	Employees   int `json:"employees"`
	Memberships int `json:"memberships"`
}

// MemberDTO is one department member with their manager flag.
type MemberDTO struct {
	WorkforceUserID int64 `json:"workforce_user_id"`
	IsManager       bool  `json:"is_manager"`
}
