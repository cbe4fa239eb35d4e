package domain

import "time"

// User is an account provisioned outside this core (web onboarding).
// The scheduler only reads it: Google tokens feed the calendar gateway,
// the Telegram chat ID feeds notifications.
type User struct {
	ID                 int64
	TelegramChatID     int64 // 0 = not linked
	GoogleAccessToken  string
	GoogleRefreshToken string
	GoogleTokenExpiry  *time.Time
	CreatedAt          time.Time
}

// TelegramLinked reports whether the user can receive bot messages.
func (u *User) TelegramLinked() bool { return u.TelegramChatID != 0 }

// GoogleLinked reports whether the user has calendar credentials.
func (u *User) GoogleLinked() bool { return u.GoogleAccessToken != "" }

// Policy holds per-user scheduling preferences. It is read-only input
// to a scheduling decision; changing it never rewrites existing schedules.
type Policy struct {
	UserID          int64
	LeadDays        int // days before the court date the writing task is due
	MaxPerWeek      int // active schedules allowed per calendar week
	ExcludeWeekends bool
}

// DefaultPolicy returns the preferences applied before the user has
// configured anything.
func DefaultPolicy(userID int64) Policy {
	return Policy{UserID: userID, LeadDays: 14, MaxPerWeek: 3, ExcludeWeekends: true}
}

// Validate rejects policies that would make the factory misbehave.
func (p Policy) Validate() error {
	if p.LeadDays <= 0 || p.MaxPerWeek <= 0 {
		return ErrInvalidPolicy
	}
	return nil
}

// Keyword is a user-defined filter term matched against calendar events.
type Keyword struct {
	ID     int64
	UserID int64
	Text   string
	Active bool
}

// CalendarRole distinguishes how a linked calendar participates in the
// pipeline. Exactly one calendar per role per user (enforced by the store).
type CalendarRole int

const (
	// RoleSource is the calendar scanned for court dates.
	RoleSource CalendarRole = iota
	// RoleTarget receives events for approved writing schedules.
	RoleTarget
	// RolePersonal is informational only; never scanned or written to.
	RolePersonal
)

func (r CalendarRole) String() string {
	switch r {
	case RoleSource:
		return "source"
	case RoleTarget:
		return "target"
	case RolePersonal:
		return "personal"
	default:
		return "unknown"
	}
}

// Calendar links a user to one external Google calendar.
type Calendar struct {
	ID       int64
	UserID   int64
	GoogleID string
	Name     string
	Role     CalendarRole
}

// ExternalEvent is a transient view of a calendar event as returned by
// the gateway. It is consumed once per scan and never persisted.
type ExternalEvent struct {
	ID          string
	Summary     string
	Description string
	StartDate   time.Time // date only, midnight UTC
}
