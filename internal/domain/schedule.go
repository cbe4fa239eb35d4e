package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDateOrder         = errors.New("scheduled date must precede the original date")
	ErrInvalidPolicy     = errors.New("policy values must be positive")
)

// Status is the lifecycle state of a writing schedule.
//
// pending → approved | rejected | cancelled
// approved → synced | cancelled
// synced → cancelled (source event deleted after the fact)
type Status int

const (
	StatusPending Status = iota
	StatusApproved
	StatusRejected
	StatusSynced
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	case StatusSynced:
		return "synced"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Schedule is a writing-deadline task derived from a court date found
// on the user's source calendar.
type Schedule struct {
	ID         int64
	UserID     int64
	CalendarID int64 // target-role calendar the approved event goes to

	Title      string
	CaseNumber string // optional, "" = absent
	CaseName   string // optional, "" = absent

	OriginalDate  time.Time // the court date; immutable once set
	ScheduledDate time.Time // computed writing deadline; always < OriginalDate

	Status Status

	SourceEventID  string // calendar event that triggered creation
	CreatedEventID string // calendar event created upon approval

	CancelledAt *time.Time
	SyncedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewSchedule builds a pending schedule, rejecting date orders that
// would put the writing deadline on or after the court date.
func NewSchedule(userID, calendarID int64, title, caseNumber, caseName string, originalDate, scheduledDate time.Time, sourceEventID string) (*Schedule, error) {
	if !scheduledDate.Before(originalDate) {
		return nil, ErrDateOrder
	}
	now := time.Now().UTC()
	return &Schedule{
		UserID:        userID,
		CalendarID:    calendarID,
		Title:         title,
		CaseNumber:    caseNumber,
		CaseName:      caseName,
		OriginalDate:  originalDate,
		ScheduledDate: scheduledDate,
		Status:        StatusPending,
		SourceEventID: sourceEventID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Active reports whether the schedule still counts against weekly capacity.
func (s *Schedule) Active() bool {
	return s.Status == StatusPending || s.Status == StatusApproved
}

// Resolved reports whether a human already acted on the schedule.
func (s *Schedule) Resolved() bool { return s.Status != StatusPending }

// DaysUntil returns whole days from now until the writing deadline.
func (s *Schedule) DaysUntil(now time.Time) int {
	return int(s.ScheduledDate.Sub(DateOnly(now)).Hours() / 24)
}

// Approve moves pending → approved. createdEventID may be set when the
// caller already created the calendar event synchronously.
func (s *Schedule) Approve(createdEventID string) error {
	if s.Status != StatusPending {
		return ErrInvalidTransition
	}
	s.Status = StatusApproved
	if createdEventID != "" {
		s.CreatedEventID = createdEventID
	}
	s.touch()
	return nil
}

// Reject moves pending → rejected.
func (s *Schedule) Reject() error {
	if s.Status != StatusPending {
		return ErrInvalidTransition
	}
	s.Status = StatusRejected
	s.touch()
	return nil
}

// Sync moves approved → synced, recording the calendar event created
// on the target calendar.
func (s *Schedule) Sync(createdEventID string, at time.Time) error {
	if s.Status != StatusApproved {
		return ErrInvalidTransition
	}
	s.Status = StatusSynced
	s.CreatedEventID = createdEventID
	at = at.UTC()
	s.SyncedAt = &at
	s.touch()
	return nil
}

// Cancel marks the schedule cancelled because its source event
// disappeared. Valid from pending, approved and synced; a rejected or
// already-cancelled schedule has nothing left to cancel.
func (s *Schedule) Cancel(at time.Time) error {
	switch s.Status {
	case StatusPending, StatusApproved, StatusSynced:
	default:
		return ErrInvalidTransition
	}
	s.Status = StatusCancelled
	at = at.UTC()
	s.CancelledAt = &at
	s.touch()
	return nil
}

// Reschedule moves the writing deadline of a still-pending schedule.
// The new date must keep preceding the court date.
func (s *Schedule) Reschedule(newDate time.Time) error {
	if s.Status != StatusPending {
		return ErrInvalidTransition
	}
	if !newDate.Before(s.OriginalDate) {
		return ErrDateOrder
	}
	s.ScheduledDate = DateOnly(newDate)
	s.touch()
	return nil
}

func (s *Schedule) touch() { s.UpdatedAt = time.Now().UTC() }
