package user

import "time"

// ProfileDTO is the caller's own account as returned by /users/me.
type ProfileDTO struct {
	ID              int64  `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	IsAdmin         bool   `json:"is_admin"`
	WorkforceUserID int64  `json:"workforce_user_id,omitempty"`
}

// PendingRegistrationDTO is one registration awaiting approval.
type PendingRegistrationDTO struct {
	WorkforceID int64     `json:"workforce_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	LastName    string    `json:"last_name"`
	RequestedAt time.Time `json:"requested_at"`
}
