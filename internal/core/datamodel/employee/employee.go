package employee

import "time"

// Record is a point-in-time snapshot of an employee as reported by the
// Workforce API. The platform owns these attributes; everything except the
// email may be absent.
type Record struct {
	ID              int64  `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	LastName        string `json:"last_name"`
	EmployeeID      string `json:"employee_id"`
	DateOfBirth     string `json:"date_of_birth"`
	Phone           string `json:"phone"`
	NormalisedPhone string `json:"normalised_phone"`
	Passcode        string `json:"passcode"`
	Postcode        string `json:"postcode"`
}

// RegisteredUser links a Workforce employee to a local account. AccountID
// stays nil while the registration is pending approval.
type RegisteredUser struct {
	ID              int64      `gorm:"primaryKey"`
	WorkforceID     int64      `gorm:"column:workforce_id;uniqueIndex;not null"`
	AccountID       *int64     `gorm:"column:account_id"`
	Email           string     `gorm:"column:email;uniqueIndex;not null"`
	Name            string     `gorm:"column:name"`
	LastName        string     `gorm:"column:last_name"`
	EmployeeID      string     `gorm:"column:employee_id"`
	Phone           string     `gorm:"column:phone"`
	NormalizedPhone string     `gorm:"column:normalized_phone"`
	DateOfBirth     *string    `gorm:"column:date_of_birth"`
	Passcode        string     `gorm:"column:passcode"`
	Postcode        string     `gorm:"column:postcode"`
	PendingApproval bool       `gorm:"column:pending_approval;default:false"`
	LastSynced      *time.Time `gorm:"column:last_synced"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (RegisteredUser) TableName() string {
	return "workforce_users"
}
