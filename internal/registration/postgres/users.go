package postgres

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rotaworks/workforce-auth/internal"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/employee"
)

// UserRepository persists the employee link rows using GORM. It backs the
// registration flow and the approval and auth lookups.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByWorkforceID retrieves the employee link row for a Workforce employee.
func (r *UserRepository) GetByWorkforceID(workforceID int64) (*employee.RegisteredUser, error) {
	var user employee.RegisteredUser
	err := r.db.Where("workforce_id = ?", workforceID).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Upsert inserts or refreshes the link row keyed by workforce_id. Local state
// set outside of sync, the account link and the approval flag, is preserved
// unless the caller set it.
func (r *UserRepository) Upsert(user *employee.RegisteredUser) error {
	columns := []string{
		"email", "name", "last_name", "employee_id",
		"phone", "normalized_phone", "date_of_birth",
		"passcode", "postcode", "last_synced",
	}
	if user.AccountID != nil {
		columns = append(columns, "account_id", "pending_approval")
	} else if user.PendingApproval {
		columns = append(columns, "pending_approval")
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workforce_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(user).Error
}

// GetByAccountID retrieves the link row for a local account, if any.
func (r *UserRepository) GetByAccountID(accountID int64) (*employee.RegisteredUser, error) {
	var user employee.RegisteredUser
	err := r.db.Where("account_id = ?", accountID).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(email string) (*employee.RegisteredUser, error) {
	var user employee.RegisteredUser
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListPending returns link rows still awaiting administrator approval.
func (r *UserRepository) ListPending() ([]employee.RegisteredUser, error) {
	var users []employee.RegisteredUser
	err := r.db.Where("pending_approval = ?", true).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

// Delete removes the link row for a rejected registration.
func (r *UserRepository) Delete(workforceID int64) error {
	return r.db.Where("workforce_id = ?", workforceID).
		Delete(&employee.RegisteredUser{}).Error
}

// LinkAccount attaches a local account to the employee link row and clears
// the approval flag.
func (r *UserRepository) LinkAccount(workforceID, accountID int64) error {
	res := r.db.Model(&employee.RegisteredUser{}).
		Where("workforce_id = ?", workforceID).
		Updates(map[string]interface{}{
			"account_id":       accountID,
			"pending_approval": false,
			"last_synced":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}
