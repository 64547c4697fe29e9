package directory

import "time"

type Location struct {
	ID          int64      `gorm:"primaryKey"`
	WorkforceID int64      `gorm:"column:workforce_id;uniqueIndex;not null"`
	Name        string     `gorm:"column:name;not null"`
	Address     string     `gorm:"column:address"`
	LastSynced  *time.Time `gorm:"column:last_synced"`
}

func (Location) TableName() string {
	return "locations"
}

type Department struct {
	ID          int64      `gorm:"primaryKey"`
	WorkforceID int64      `gorm:"column:workforce_id;uniqueIndex;not null"`
	LocationID  int64      `gorm:"column:location_id;index;not null"`
	Name        string     `gorm:"column:name;not null"`
	Colour      string     `gorm:"column:colour"`
	ExportName  string     `gorm:"column:export_name"`
	RecordID    *int64     `gorm:"column:record_id"`
	UpdatedAt   *int64     `gorm:"column:updated_at"`
	LastSynced  *time.Time `gorm:"column:last_synced"`
}

func (Department) TableName() string {
	return "departments"
}

// Membership rows are fully replaced on each department sync; the upstream
// roster is a complete list, not a delta.
type Membership struct {
	ID              int64     `gorm:"primaryKey"`
	DepartmentID    int64     `gorm:"column:department_id;index:idx_dept_member,unique;not null"`
	WorkforceUserID int64     `gorm:"column:workforce_user_id;index:idx_dept_member,unique;not null"`
	IsManager       bool      `gorm:"column:is_manager;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Membership) TableName() string {
	return "department_users"
}
