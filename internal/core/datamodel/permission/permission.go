package permission

import "time"

// Permission is a catalogue entry registered by a consuming app.
type Permission struct {
	ID          int64     `gorm:"primaryKey"`
	Key         string    `gorm:"column:permission_key;uniqueIndex;not null"`
	Name        string    `gorm:"column:permission_name;not null"`
	Description string    `gorm:"column:permission_description"`
	AppName     string    `gorm:"column:app_name;index"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Permission) TableName() string {
	return "permissions"
}

// DepartmentGrant presence means every member of the department inherits the
// permission.
type DepartmentGrant struct {
	ID           int64     `gorm:"primaryKey"`
	DepartmentID int64     `gorm:"column:department_id;index:idx_dept_perm,unique;not null"`
	Key          string    `gorm:"column:permission_key;index:idx_dept_perm,unique;not null"`
	GrantedAt    time.Time `gorm:"column:granted_at;autoCreateTime"`
}

func (DepartmentGrant) TableName() string {
	return "department_permissions"
}

// UserOverride is an explicit per-employee decision. Presence overrides the
// department-inherited outcome for the key; absence falls through.
type UserOverride struct {
	ID              int64     `gorm:"primaryKey"`
	WorkforceUserID int64     `gorm:"column:workforce_user_id;index:idx_user_perm,unique;not null"`
	Key             string    `gorm:"column:permission_key;index:idx_user_perm,unique;not null"`
	IsGranted       bool      `gorm:"column:is_granted;default:true"`
	GrantedAt       time.Time `gorm:"column:granted_at;autoCreateTime"`
}

func (UserOverride) TableName() string {
	return "user_permissions"
}
