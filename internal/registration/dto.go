package registration

import (
	"strings"

	"github.com/rotaworks/workforce-auth/internal"
)

// VerifyDTO carries the identity attributes a visitor submits for matching.
type VerifyDTO struct {
	Email       string `json:"email"`
	LastName    string `json:"last_name,omitempty"`
	EmployeeID  string `json:"employee_id,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Passcode    string `json:"passcode,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
}

func (d *VerifyDTO) Validate() error {
	if strings.TrimSpace(d.Email) == "" {
		return internal.NewValidationFieldError("email", "email is required", internal.ErrCodeValidationFailed)
	}
	if !strings.Contains(d.Email, "@") {
		return internal.NewValidationFieldError("email", "email is not valid", internal.ErrCodeValidationFailed)
	}
	return nil
}

// Claim converts the request payload into the matcher's input.
func (d *VerifyDTO) Claim() Claim {
	return Claim{
		Email:       d.Email,
		LastName:    d.LastName,
		EmployeeID:  d.EmployeeID,
		DateOfBirth: d.DateOfBirth,
		Phone:       d.Phone,
		Passcode:    d.Passcode,
		Postcode:    d.Postcode,
	}
}

// CompleteDTO redeems a verification session and sets the credential.
type CompleteDTO struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (d *CompleteDTO) Validate() error {
	if strings.TrimSpace(d.Token) == "" {
		return internal.NewValidationFieldError("token", "token is required", internal.ErrCodeValidationFailed)
	}
	if d.Password == "" {
		return internal.NewValidationFieldError("password", "password is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// VerifyResponse is returned after a successful match.
type VerifyResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// CompleteResponse reports the outcome of redeeming a session.
type CompleteResponse struct {
	PendingApproval bool   `json:"pending_approval"`
	Message         string `json:"message"`
}
