package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRegistrationCompleted = "registration.completed"
	EventTypeRegistrationApproved  = "registration.approved"
	EventTypeRegistrationRejected  = "registration.rejected"
	EventTypeDirectorySynced       = "directory.synced"
)

type RegistrationCompletedEvent struct {
	BaseEvent
	WorkforceID     int64 `json:"workforce_id"`
	AccountID       int64 `json:"account_id"`
	PendingApproval bool  `json:"pending_approval"`
}

func NewRegistrationCompletedEvent(workforceID, accountID int64, pendingApproval bool) *RegistrationCompletedEvent {
	return &RegistrationCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRegistrationCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"workforce_id":     workforceID,
				"account_id":       accountID,
				"pending_approval": pendingApproval,
			},
		},
		WorkforceID:     workforceID,
		AccountID:       accountID,
		PendingApproval: pendingApproval,
	}
}

type RegistrationApprovedEvent struct {
	BaseEvent
	WorkforceID int64 `json:"workforce_id"`
	AccountID   int64 `json:"account_id"`
}

func NewRegistrationApprovedEvent(workforceID, accountID int64) *RegistrationApprovedEvent {
	return &RegistrationApprovedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRegistrationApproved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"workforce_id": workforceID,
				"account_id":   accountID,
			},
		},
		WorkforceID: workforceID,
		AccountID:   accountID,
	}
}

type RegistrationRejectedEvent struct {
	BaseEvent
	WorkforceID int64 `json:"workforce_id"`
}

func NewRegistrationRejectedEvent(workforceID int64) *RegistrationRejectedEvent {
	return &RegistrationRejectedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRegistrationRejected,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"workforce_id": workforceID,
			},
		},
		WorkforceID: workforceID,
	}
}

type DirectorySyncedEvent struct {
	BaseEvent
	Locations   int `json:"locations"`
	Departments int `json:"departments"`
	Employees   int `json:"employees"`
	Memberships int `json:"memberships"`
}

func NewDirectorySyncedEvent(locations, departments, employees, memberships int) *DirectorySyncedEvent {
	return &DirectorySyncedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeDirectorySynced,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"locations":   locations,
				"departments": departments,
				"employees":   employees,
				"memberships": memberships,
			},
		},
		Locations:   locations,
		Departments: departments,
		Employees:   employees,
		Memberships: memberships,
	}
}
