package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rotaworks/workforce-auth/internal"
	"github.com/rotaworks/workforce-auth/internal/auth"
	"github.com/rotaworks/workforce-auth/internal/core/events"
	"github.com/rotaworks/workforce-auth/internal/notification"
)

// Service serves account profiles and the registration approval queue.
type Service struct {
	accounts AccountRepository
	links    EmployeeLinkRepository
	mailer   notification.Mailer
	bus      *events.EventBus
	logger   *slog.Logger
}

func NewService(accounts AccountRepository, links EmployeeLinkRepository, mailer notification.Mailer, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		accounts: accounts,
		links:    links,
		mailer:   mailer,
		bus:      bus,
		logger:   logger,
	}
}

func (s *Service) Me(principal *auth.Principal) (*ProfileDTO, error) {
	acct, err := s.accounts.GetByID(principal.AccountID)
	if err != nil {
		return nil, err
	}
	return &ProfileDTO{
		ID:              acct.ID,
		Email:           acct.Email,
		Name:            acct.Name,
		IsAdmin:         acct.IsAdmin,
		WorkforceUserID: principal.WorkforceUserID,
	}, nil
}

func (s *Service) ListPendingRegistrations() ([]PendingRegistrationDTO, error) {
	pending, err := s.links.ListPending()
	if err != nil {
		return nil, internal.NewInternalError("failed to list pending registrations", err)
	}

	dtos := make([]PendingRegistrationDTO, 0, len(pending))
	for _, p := range pending {
		dtos = append(dtos, PendingRegistrationDTO{
			WorkforceID: p.WorkforceID,
			Email:       p.Email,
			Name:        p.Name,
			LastName:    p.LastName,
			RequestedAt: p.CreatedAt,
		})
	}
	return dtos, nil
}

// ApproveRegistration activates the account created during registration,
// links it to the employee row and notifies the registrant.
func (s *Service) ApproveRegistration(workforceID int64) error {
	link, err := s.links.GetByWorkforceID(workforceID)
	if err != nil {
		return err
	}
	if !link.PendingApproval {
		return internal.NewValidationError("registration is not pending approval", internal.ErrCodeValidationFailed)
	}

	acct, err := s.accounts.GetByEmail(link.Email)
	if err != nil {
		return err
	}

	if err := s.accounts.SetActive(acct.ID, true); err != nil {
		return internal.NewInternalError("failed to activate account", err)
	}
	if err := s.links.LinkAccount(workforceID, acct.ID); err != nil {
		return internal.NewInternalError("failed to link account", err)
	}

	if err := s.mailer.SendApprovalGranted(acct.Email); err != nil {
		s.logger.Error("failed to send approval notice", "error", err)
	}

	if s.bus != nil {
		s.bus.Publish(context.Background(), events.NewRegistrationApprovedEvent(workforceID, acct.ID))
	}

	s.logger.Info("registration approved",
		"workforce_id", workforceID,
		"account_id", acct.ID)
	return nil
}

// RejectRegistration removes the pending link row and the inactive account.
func (s *Service) RejectRegistration(workforceID int64) error {
	link, err := s.links.GetByWorkforceID(workforceID)
	if err != nil {
		return err
	}
	if !link.PendingApproval {
		return internal.NewValidationError("registration is not pending approval", internal.ErrCodeValidationFailed)
	}

	acct, err := s.accounts.GetByEmail(link.Email)
	if err != nil && !errors.Is(err, internal.ErrUserNotFound) {
		return err
	}

	if err := s.links.Delete(workforceID); err != nil {
		return internal.NewInternalError("failed to delete registration", err)
	}
	if acct != nil {
		if err := s.accounts.Delete(acct.ID); err != nil {
			return internal.NewInternalError("failed to delete account", err)
		}
	}

	if s.bus != nil {
		s.bus.Publish(context.Background(), events.NewRegistrationRejectedEvent(workforceID))
	}

	s.logger.Info("registration rejected", "workforce_id", workforceID)
	return nil
}
