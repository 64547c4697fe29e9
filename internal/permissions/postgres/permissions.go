package postgres

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rotaworks/workforce-auth/internal"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/directory"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/permission"
	"github.com/rotaworks/workforce-auth/internal/permissions"
)

// PermissionRepository implements permissions.Repository using GORM.
type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permissions.Repository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) GetPermission(key string) (*permission.Permission, error) {
	var p permission.Permission
	err := r.db.Where("permission_key = ?", key).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrPermissionNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepository) UpsertPermission(p *permission.Permission) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "permission_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"permission_name", "permission_description", "app_name",
		}),
	}).Create(p).Error
}

func (r *PermissionRepository) ListPermissions(appName string) ([]permission.Permission, error) {
	var perms []permission.Permission
	q := r.db.Order("permission_key ASC")
	if appName != "" {
		q = q.Where("app_name = ?", appName)
	}
	err := q.Find(&perms).Error
	return perms, err
}

// DeletePermission removes the catalogue row and cascades to grants and
// overrides inside one transaction.
func (r *PermissionRepository) DeletePermission(key string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("permission_key = ?", key).Delete(&permission.DepartmentGrant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("permission_key = ?", key).Delete(&permission.UserOverride{}).Error; err != nil {
			return err
		}
		return tx.Where("permission_key = ?", key).Delete(&permission.Permission{}).Error
	})
}

func (r *PermissionRepository) GrantToDepartment(departmentID int64, key string) error {
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&permission.DepartmentGrant{
		DepartmentID: departmentID,
		Key:          key,
	}).Error
}

func (r *PermissionRepository) RevokeFromDepartment(departmentID int64, key string) error {
	return r.db.Where("department_id = ? AND permission_key = ?", departmentID, key).
		Delete(&permission.DepartmentGrant{}).Error
}

func (r *PermissionRepository) ListDepartmentGrants(departmentID int64) ([]permission.DepartmentGrant, error) {
	var grants []permission.DepartmentGrant
	err := r.db.Where("department_id = ?", departmentID).
		Order("permission_key ASC").
		Find(&grants).Error
	return grants, err
}

func (r *PermissionRepository) SetOverride(workforceUserID int64, key string, granted bool) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workforce_user_id"}, {Name: "permission_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_granted"}),
	}).Create(&permission.UserOverride{
		WorkforceUserID: workforceUserID,
		Key:             key,
		IsGranted:       granted,
	}).Error
}

func (r *PermissionRepository) ClearOverride(workforceUserID int64, key string) error {
	return r.db.Where("workforce_user_id = ? AND permission_key = ?", workforceUserID, key).
		Delete(&permission.UserOverride{}).Error
}

func (r *PermissionRepository) ListOverrides(workforceUserID int64) ([]permission.UserOverride, error) {
	var overrides []permission.UserOverride
	err := r.db.Where("workforce_user_id = ?", workforceUserID).
		Order("permission_key ASC").
		Find(&overrides).Error
	return overrides, err
}

func (r *PermissionRepository) GetOverride(workforceUserID int64, key string) (permissions.Override, error) {
	var o permission.UserOverride
	err := r.db.Where("workforce_user_id = ? AND permission_key = ?", workforceUserID, key).
		First(&o).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return permissions.OverrideNone, nil
		}
		return permissions.OverrideNone, err
	}
	if o.IsGranted {
		return permissions.OverrideGrant, nil
	}
	return permissions.OverrideDeny, nil
}

func (r *PermissionRepository) HasDepartmentGrant(workforceUserID int64, key string) (bool, error) {
	var count int64
	err := r.db.Model(&permission.DepartmentGrant{}).
		Joins("JOIN department_users ON department_users.department_id = department_permissions.department_id").
		Where("department_users.workforce_user_id = ? AND department_permissions.permission_key = ?", workforceUserID, key).
		Count(&count).Error
	return count > 0, err
}

func (r *PermissionRepository) DepartmentKeysForUser(workforceUserID int64) ([]string, error) {
	var keys []string
	err := r.db.Model(&permission.DepartmentGrant{}).
		Distinct("department_permissions.permission_key").
		Joins("JOIN department_users ON department_users.department_id = department_permissions.department_id").
		Where("department_users.workforce_user_id = ?", workforceUserID).
		Pluck("department_permissions.permission_key", &keys).Error
	return keys, err
}

func (r *PermissionRepository) AllKeys() ([]string, error) {
	var keys []string
	err := r.db.Model(&permission.Permission{}).
		Order("permission_key ASC").
		Pluck("permission_key", &keys).Error
	return keys, err
}

func (r *PermissionRepository) DepartmentExists(departmentID int64) (bool, error) {
	var count int64
	err := r.db.Model(&directory.Department{}).Where("id = ?", departmentID).Count(&count).Error
	return count > 0, err
}
