package postgres

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/rotaworks/workforce-auth/internal"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/account"
)

// AccountRepository manages local login accounts using GORM. It backs the
// user directory, the auth service and the registration flow.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(id int64) (*account.Account, error) {
	var acct account.Account
	err := r.db.Where("id = ?", id).First(&acct).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &acct, nil
}

func (r *AccountRepository) GetByEmail(email string) (*account.Account, error) {
	var acct account.Account
	err := r.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&acct).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &acct, nil
}

func (r *AccountRepository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Model(&account.Account{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a new account. The unique index on email arbitrates
// concurrent registrations; a duplicate maps to ErrEmailTaken.
func (r *AccountRepository) Create(email, name, passwordHash string, active bool) (int64, error) {
	acct := account.Account{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         name,
		PasswordHash: passwordHash,
		IsActive:     active,
	}
	if err := r.db.Create(&acct).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, internal.ErrEmailTaken
		}
		return 0, err
	}
	return acct.ID, nil
}

func (r *AccountRepository) SetActive(id int64, active bool) error {
	res := r.db.Model(&account.Account{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *AccountRepository) Delete(id int64) error {
	return r.db.Where("id = ?", id).Delete(&account.Account{}).Error
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
