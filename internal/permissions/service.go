package permissions

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/rotaworks/workforce-auth/internal"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/permission"
)

// Service resolves permissions and manages the catalogue.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// UserCan resolves one permission key for a principal. The precedence is
// strict: admin, then an explicit per-user decision, then department
// inheritance, then deny.
//
// Admins are granted every key, including keys no app has registered, so an
// administrator can never lock themselves out of a half-configured app.
func (s *Service) UserCan(principal Principal, key string) (bool, error) {
	if principal.IsAdmin {
		return true, nil
	}

	if principal.WorkforceUserID == 0 {
		return false, nil
	}

	override, err := s.repo.GetOverride(principal.WorkforceUserID, key)
	if err != nil {
		return false, err
	}
	switch override {
	case OverrideDeny:
		return false, nil
	case OverrideGrant:
		return true, nil
	}

	return s.repo.HasDepartmentGrant(principal.WorkforceUserID, key)
}

// AllGranted returns the sorted set of keys the principal holds. For admins
// that is the whole catalogue; for everyone else it is the union of
// department grants and override grants, minus override denies.
func (s *Service) AllGranted(principal Principal) ([]string, error) {
	if principal.IsAdmin {
		keys, err := s.repo.AllKeys()
		if err != nil {
			return nil, err
		}
		sort.Strings(keys)
		return keys, nil
	}

	if principal.WorkforceUserID == 0 {
		return []string{}, nil
	}

	granted := make(map[string]bool)

	deptKeys, err := s.repo.DepartmentKeysForUser(principal.WorkforceUserID)
	if err != nil {
		return nil, err
	}
	for _, key := range deptKeys {
		granted[key] = true
	}

	overrides, err := s.repo.ListOverrides(principal.WorkforceUserID)
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		if o.IsGranted {
			granted[o.Key] = true
		} else {
			delete(granted, o.Key)
		}
	}

	keys := make([]string, 0, len(granted))
	for key := range granted {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// RegisterPermission upserts a catalogue entry. Re-registering an existing
// key refreshes its metadata and never disturbs grants.
func (s *Service) RegisterPermission(key, name, description, appName string) (*permission.Permission, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, internal.NewValidationFieldError("key", "permission key is required", internal.ErrCodeInvalidPermission)
	}
	if strings.TrimSpace(name) == "" {
		return nil, internal.NewValidationFieldError("name", "permission name is required", internal.ErrCodeInvalidPermission)
	}

	p := &permission.Permission{
		Key:         key,
		Name:        name,
		Description: description,
		AppName:     appName,
	}
	if err := s.repo.UpsertPermission(p); err != nil {
		return nil, internal.NewInternalError("failed to register permission", err)
	}

	s.logger.Info("permission registered", "key", key, "app", appName)
	return p, nil
}

func (s *Service) ListPermissions(appName string) ([]permission.Permission, error) {
	return s.repo.ListPermissions(appName)
}

// DeletePermission removes a key from the catalogue along with every grant
// and override that references it.
func (s *Service) DeletePermission(key string) error {
	if _, err := s.repo.GetPermission(key); err != nil {
		return err
	}
	if err := s.repo.DeletePermission(key); err != nil {
		return internal.NewInternalError("failed to delete permission", err)
	}
	s.logger.Info("permission deleted", "key", key)
	return nil
}

// GrantToDepartment grants a registered key to a department. Granting an
// already granted key is a no-op.
func (s *Service) GrantToDepartment(departmentID int64, key string) error {
	if _, err := s.repo.GetPermission(key); err != nil {
		return err
	}
	exists, err := s.repo.DepartmentExists(departmentID)
	if err != nil {
		return err
	}
	if !exists {
		return internal.ErrDepartmentNotFound
	}
	return s.repo.GrantToDepartment(departmentID, key)
}

func (s *Service) RevokeFromDepartment(departmentID int64, key string) error {
	return s.repo.RevokeFromDepartment(departmentID, key)
}

func (s *Service) ListDepartmentGrants(departmentID int64) ([]permission.DepartmentGrant, error) {
	return s.repo.ListDepartmentGrants(departmentID)
}

// SetOverride records an explicit per-employee grant or deny for a
// registered key, replacing any previous decision.
func (s *Service) SetOverride(workforceUserID int64, key string, granted bool) error {
	if _, err := s.repo.GetPermission(key); err != nil {
		return err
	}
	return s.repo.SetOverride(workforceUserID, key, granted)
}

// ClearOverride removes the explicit decision so department inheritance
// applies again.
func (s *Service) ClearOverride(workforceUserID int64, key string) error {
	return s.repo.ClearOverride(workforceUserID, key)
}

func (s *Service) ListOverrides(workforceUserID int64) ([]permission.UserOverride, error) {
	return s.repo.ListOverrides(workforceUserID)
}
