package directory

import (
	"context"
	"log/slog"
	"time"

	"github.com/rotaworks/workforce-auth/internal"
	dirmodel "github.com/rotaworks/workforce-auth/internal/core/datamodel/directory"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/employee"
	"github.com/rotaworks/workforce-auth/internal/core/events"
)

// Service syncs the org structure from Workforce and serves reads.
type Service struct {
	source      RosterSource
	repo        Repository
	employees   EmployeeStore
	bus         *events.EventBus
	locationIDs []int64
	logger      *slog.Logger
}

func NewService(source RosterSource, repo Repository, employees EmployeeStore, bus *events.EventBus, locationIDs []int64, logger *slog.Logger) *Service {
	return &Service{
		source:      source,
		repo:        repo,
		employees:   employees,
		bus:         bus,
		locationIDs: locationIDs,
		logger:      logger,
	}
}

// SyncAll refreshes locations, departments, memberships and employee
// snapshots from the upstream rosters. Each department's member list is
// replaced wholesale; employee snapshots never touch the local account link
// or the approval flag.
func (s *Service) SyncAll(ctx context.Context) (*SyncReport, error) {
	if len(s.locationIDs) == 0 {
		return nil, internal.ErrNoLocations
	}

	report := &SyncReport{}
	started := time.Now()

	if err := s.syncLocations(ctx, report); err != nil {
		return nil, err
	}
	if err := s.syncDepartments(ctx, report); err != nil {
		return nil, err
	}
	s.syncEmployees(ctx, report)

	if s.bus != nil {
		s.bus.Publish(ctx, events.NewDirectorySyncedEvent(
			report.Locations, report.Departments, report.Employees, report.Memberships))
	}

	s.logger.Info("directory sync completed",
		"locations", report.Locations,
		"departments", report.Departments,
		"employees", report.Employees,
		"memberships", report.Memberships,
		"duration", time.Since(started))
	return report, nil
}

func (s *Service) syncLocations(ctx context.Context, report *SyncReport) error {
	locations, err := s.source.GetLocations(ctx)
	if err != nil {
		return err
	}

	configured := make(map[int64]bool, len(s.locationIDs))
	for _, id := range s.locationIDs {
		configured[id] = true
	}

	now := time.Now()
	for _, loc := range locations {
		if !configured[loc.ID] {
			continue
		}
		row := &dirmodel.Location{
			WorkforceID: loc.ID,
			Name:        loc.Name,
			Address:     loc.Address,
			LastSynced:  &now,
		}
		if err := s.repo.UpsertLocation(row); err != nil {
			return internal.NewInternalError("failed to store location", err)
		}
		report.Locations++
	}
	return nil
}

func (s *Service) syncDepartments(ctx context.Context, report *SyncReport) error {
	rosters, err := s.source.GetDepartments(ctx, s.locationIDs)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, roster := range rosters {
		dept := &dirmodel.Department{
			WorkforceID: roster.ID,
			LocationID:  roster.LocationID,
			Name:        roster.Name,
			Colour:      roster.Colour,
			ExportName:  roster.ExportName,
			RecordID:    roster.RecordID,
			UpdatedAt:   roster.UpdatedAt,
			LastSynced:  &now,
		}
		departmentID, err := s.repo.UpsertDepartment(dept)
		if err != nil {
			return internal.NewInternalError("failed to store department", err)
		}
		report.Departments++

		members := rosterMembers(departmentID, roster.Staff, roster.Managers)
		if err := s.repo.ReplaceMemberships(departmentID, members); err != nil {
			return internal.NewInternalError("failed to store department members", err)
		}
		report.Memberships += len(members)
	}
	return nil
}

// syncEmployees refreshes the employee snapshots. A location that fails to
// load is logged and skipped so one outage does not abort the whole run.
func (s *Service) syncEmployees(ctx context.Context, report *SyncReport) {
	seen := make(map[int64]bool)
	now := time.Now()

	for _, locationID := range s.locationIDs {
		records, err := s.source.GetUsers(ctx, locationID)
		if err != nil {
			s.logger.Warn("failed to load employees for location",
				"location_id", locationID,
				"error", err)
			continue
		}

		for _, rec := range records {
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true

			row := &employee.RegisteredUser{
				WorkforceID:     rec.ID,
				Email:           rec.Email,
				Name:            rec.Name,
				LastName:        rec.LastName,
				EmployeeID:      rec.EmployeeID,
				Phone:           rec.Phone,
				NormalizedPhone: rec.NormalisedPhone,
				Passcode:        rec.Passcode,
				Postcode:        rec.Postcode,
				LastSynced:      &now,
			}
			if rec.DateOfBirth != "" {
				dob := rec.DateOfBirth
				row.DateOfBirth = &dob
			}

			if err := s.employees.Upsert(row); err != nil {
				s.logger.Warn("failed to store employee snapshot",
					"workforce_id", rec.ID,
					"error", err)
				continue
			}
			report.Employees++
		}
	}
}

// rosterMembers merges the staff list with the manager subset. Managers who
// do not appear in the staff list are still members.
func rosterMembers(departmentID int64, staff, managers []int64) []dirmodel.Membership {
	isManager := make(map[int64]bool, len(managers))
	for _, id := range managers {
		isManager[id] = true
	}

	seen := make(map[int64]bool, len(staff))
	members := make([]dirmodel.Membership, 0, len(staff)+len(managers))
	for _, id := range staff {
		if seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, dirmodel.Membership{
			DepartmentID:    departmentID,
			WorkforceUserID: id,
			IsManager:       isManager[id],
		})
	}
	for _, id := range managers {
		if seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, dirmodel.Membership{
			DepartmentID:    departmentID,
			WorkforceUserID: id,
			IsManager:       true,
		})
	}
	return members
}

func (s *Service) ListDepartments() ([]dirmodel.Department, error) {
	return s.repo.ListDepartments()
}

func (s *Service) DepartmentMembers(departmentID int64) ([]MemberDTO, error) {
	if _, err := s.repo.GetDepartmentByID(departmentID); err != nil {
		return nil, err
	}

	memberships, err := s.repo.ListMemberships(departmentID)
	if err != nil {
		return nil, err
	}

	members := make([]MemberDTO, 0, len(memberships))
	for _, m := range memberships {
		members = append(members, MemberDTO{
			WorkforceUserID: m.WorkforceUserID,
			IsManager:       m.IsManager,
		})
	}
	return members, nil
}

func (s *Service) DepartmentsForEmployee(workforceUserID int64) ([]dirmodel.Department, error) {
	return s.repo.DepartmentsForEmployee(workforceUserID)
}

// RunPeriodic triggers SyncAll on an interval until ctx is cancelled.
func (s *Service) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.SyncAll(ctx); err != nil {
				s.logger.Error("scheduled directory sync failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
