package store

import (
	"context"
	"errors"
	"time"

	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/domain"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// Repo defines storage operations for users, preferences and schedules.
// Consumers should depend on the narrow subset they need; this is the
// full surface the SQLite implementation provides.
type Repo interface {
	// Users
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByChatID(ctx context.Context, chatID int64) (*domain.User, error)
	UpdateGoogleTokens(ctx context.Context, userID int64, accessToken string, expiry time.Time) error

	// Preferences
	GetPolicy(ctx context.Context, userID int64) (domain.Policy, error)
	ActiveKeywords(ctx context.Context, userID int64) ([]string, error)
	CalendarByRole(ctx context.Context, userID int64, role domain.CalendarRole) (*domain.Calendar, error)

	// Schedules
	InsertSchedule(ctx context.Context, s *domain.Schedule) error
	GetSchedule(ctx context.Context, id int64) (*domain.Schedule, error)
	UpdateSchedule(ctx context.Context, s *domain.Schedule) error
	HasScheduleForSource(ctx context.Context, userID int64, sourceEventID string) (bool, error)
	SourceEventIDs(ctx context.Context, userID int64) (map[string]struct{}, error)
	CountActiveInWeek(ctx context.Context, userID int64, weekStart, weekEnd time.Time) (int, error)
	NextPending(ctx context.Context, userID int64) (*domain.Schedule, error)
	CountPending(ctx context.Context, userID int64) (int, error)
	ListReconcilable(ctx context.Context, userID int64) ([]domain.Schedule, error)
	ListByStatusInRange(ctx context.Context, userID int64, statuses []domain.Status, from, to time.Time) ([]domain.Schedule, error)

	Close() error
}
