package postgres

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rotaworks/workforce-auth/internal"
	dirmodel "github.com/rotaworks/workforce-auth/internal/core/datamodel/directory"
)

// DirectoryRepository persists locations, departments and memberships using
// GORM.
type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) UpsertLocation(loc *dirmodel.Location) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workforce_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "address", "last_synced"}),
	}).Create(loc).Error
}

// UpsertDepartment inserts or refreshes by workforce id and returns the local
// row id.
func (r *DirectoryRepository) UpsertDepartment(dept *dirmodel.Department) (int64, error) {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "workforce_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"location_id", "name", "colour", "export_name",
			"record_id", "updated_at", "last_synced",
		}),
	}).Create(dept).Error
	if err != nil {
		return 0, err
	}

	if dept.ID != 0 {
		return dept.ID, nil
	}

	// Conflict path: the insert did not report the surviving row id.
	var existing dirmodel.Department
	if err := r.db.Where("workforce_id = ?", dept.WorkforceID).First(&existing).Error; err != nil {
		return 0, err
	}
	return existing.ID, nil
}

// ReplaceMemberships swaps the full member list of a department in one
// transaction.
func (r *DirectoryRepository) ReplaceMemberships(departmentID int64, members []dirmodel.Membership) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("department_id = ?", departmentID).
			Delete(&dirmodel.Membership{}).Error; err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		return tx.Create(&members).Error
	})
}

func (r *DirectoryRepository) ListDepartments() ([]dirmodel.Department, error) {
	var departments []dirmodel.Department
	err := r.db.Order("name ASC").Find(&departments).Error
	return departments, err
}

func (r *DirectoryRepository) GetDepartmentByID(id int64) (*dirmodel.Department, error) {
	var dept dirmodel.Department
	err := r.db.Where("id = ?", id).First(&dept).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &dept, nil
}

func (r *DirectoryRepository) ListMemberships(departmentID int64) ([]dirmodel.Membership, error) {
	var memberships []dirmodel.Membership
	err := r.db.Where("department_id = ?", departmentID).
		Order("workforce_user_id ASC").
		Find(&memberships).Error
	return memberships, err
}

func (r *DirectoryRepository) DepartmentsForEmployee(workforceUserID int64) ([]dirmodel.Department, error) {
	var departments []dirmodel.Department
	err := r.db.
		Joins("JOIN department_users ON department_users.department_id = departments.id").
		Where("department_users.workforce_user_id = ?", workforceUserID).
		Order("departments.name ASC").
		Find(&departments).Error
	return departments, err
}
