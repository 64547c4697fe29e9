package ratelimit

import "time"

// Counter tracks failed verification attempts for one source address inside a
// rolling window. Rows are reset lazily on the first attempt after expiry.
type Counter struct {
	ID          int64     `db:"id" gorm:"primaryKey"`
	SourceAddr  string    `db:"ip_address" gorm:"column:ip_address;uniqueIndex;not null"`
	Attempts    int       `db:"attempts" gorm:"column:attempts;default:1"`
	LastAttempt time.Time `db:"last_attempt" gorm:"column:last_attempt"`
}

func (Counter) TableName() string {
	return "rate_limits"
}
