package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestType string

const (
	TypeVacation           RequestType = "VACATION"
	TypePersonalDays       RequestType = "PERSONAL_DAYS"
	TypeUnpaidTimeOff      RequestType = "UNPAID_TIME_OFF"
	TypeMaternityPaternity RequestType = "MATERNITY_PATERNITY"
	TypeSickness           RequestType = "SICKNESS"
	TypeChildSickness      RequestType = "CHILD_SICKNESS"
)

type StatusValue string

const (
	StatusPending  StatusValue = "PENDING"
	StatusApproved StatusValue = "APPROVED"
	StatusDeclined StatusValue = "DECLINED"
)

type VacationRequest struct {
	BaseUUIDModel
	PersonID  string      `gorm:"type:varchar(64);not null;index" json:"personId"`
	StartDate time.Time   `gorm:"not null"                        json:"startDate"`
	EndDate   time.Time   `gorm:"not null"                        json:"endDate"`
	Type      RequestType `gorm:"type:varchar(30);not null"       json:"type"`
	Message   string      `gorm:"type:text;not null"              json:"message"`
	Days      int         `gorm:"not null"                        json:"days"` // stored as submitted, never recomputed after storage
	CreatedBy string      `gorm:"type:varchar(64);not null"       json:"createdBy"`
}

// VacationRequestStatus is one decision event in a request's approval
// history. The history is append-only; events are removed only when the
// owning request is deleted. UpdatedAt is deliberately nullable and not
// auto-managed: the reducer treats its absence as "older than any event
// that has one".
type VacationRequestStatus struct {
	ID                string      `gorm:"type:varchar(64);primaryKey"     json:"id"`
	VacationRequestID string      `gorm:"type:varchar(64);not null;index" json:"vacationRequestId"`
	Status            StatusValue `gorm:"type:varchar(20);not null"       json:"status"`
	Message           string      `gorm:"type:text"                       json:"message"`
	CreatedAt         time.Time   `gorm:"autoCreateTime"                  json:"createdAt"`
	CreatedBy         string      `gorm:"type:varchar(64);not null"       json:"createdBy"`
	UpdatedAt         *time.Time  `json:"updatedAt,omitempty"`
	UpdatedBy         *string     `gorm:"type:varchar(64)"                json:"updatedBy,omitempty"`
}

func (s *VacationRequestStatus) BeforeSave(tx *gorm.DB) error {
	if s.ID == "" {
		uuidString, _ := uuid.NewV7()
		s.ID = uuidString.String()
	}
	return nil
}

// CurrentStatuses maps a request id to the single status event
// considered authoritative for it right now. A request with no recorded
// events has no entry.
type CurrentStatuses map[string]VacationRequestStatus

// Buckets is the temporal partition of a request collection that the
// dashboard views read.
type Buckets struct {
	Pending  []VacationRequest `json:"pending"`
	Upcoming []VacationRequest `json:"upcoming"`
	Past     []VacationRequest `json:"past"`
}

// Scope is the visibility boundary for queries and commands: one
// person's own requests, or every person's requests for an
// administrator. It is always passed explicitly, never read from
// ambient session state.
type Scope struct {
	PersonID string `json:"personId"`
	All      bool   `json:"all"`
}

func ScopeFor(personID string) Scope {
	return Scope{PersonID: personID}
}

func ScopeAll() Scope {
	return Scope{All: true}
}

func (s Scope) String() string {
	if s.All {
		return "all"
	}
	return "person:" + s.PersonID
}

type CreateVacationRequest struct {
	PersonID  string      `json:"personId"  validate:"required"`
	StartDate time.Time   `json:"startDate" validate:"required"`
	EndDate   time.Time   `json:"endDate"   validate:"required,gtefield=StartDate"`
	Type      RequestType `json:"type"      validate:"required,oneof=VACATION PERSONAL_DAYS UNPAID_TIME_OFF MATERNITY_PATERNITY SICKNESS CHILD_SICKNESS"`
	Message   string      `json:"message"   validate:"required"`
	Days      int         `json:"days"      validate:"required,gt=0"`
	CreatedBy string      `json:"createdBy" validate:"required"`
}

type UpdateVacationRequest struct {
	StartDate time.Time   `json:"startDate" validate:"required"`
	EndDate   time.Time   `json:"endDate"   validate:"required,gtefield=StartDate"`
	Type      RequestType `json:"type"      validate:"required,oneof=VACATION PERSONAL_DAYS UNPAID_TIME_OFF MATERNITY_PATERNITY SICKNESS CHILD_SICKNESS"`
	Message   string      `json:"message"   validate:"required"`
	Days      int         `json:"days"      validate:"required,gt=0"`
}

type ChangeStatusRequest struct {
	Status  StatusValue `json:"status"  validate:"required,oneof=PENDING APPROVED DECLINED"`
	Message string      `json:"message"`
	ActorID string      `json:"actorId" validate:"required"`
}
