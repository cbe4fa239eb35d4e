package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// --- Users ---

const userCols = `id, telegram_chat_id, google_access_token, google_refresh_token, google_token_expiry, created_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var (
		u        domain.User
		expiry   sql.NullInt64
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.TelegramChatID, &u.GoogleAccessToken, &u.GoogleRefreshToken, &expiry, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.GoogleTokenExpiry = fromNullInt64(expiry)
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

// ListUsers returns every user in creation order.
func (r *SQLiteRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userCols+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}

func (r *SQLiteRepo) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *SQLiteRepo) GetUserByChatID(ctx context.Context, chatID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE telegram_chat_id = ?`, chatID)
	return scanUser(row)
}

// UpdateGoogleTokens persists a refreshed access token.
func (r *SQLiteRepo) UpdateGoogleTokens(ctx context.Context, userID int64, accessToken string, expiry time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET google_access_token = ?, google_token_expiry = ?
		WHERE id = ?`,
		accessToken, expiry.UTC().Unix(), userID,
	)
	return err
}

// --- Preferences ---

// GetPolicy returns the user's scheduling preferences, falling back to
// defaults when the user never configured any.
func (r *SQLiteRepo) GetPolicy(ctx context.Context, userID int64) (domain.Policy, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT lead_days, max_per_week, exclude_weekends
		FROM policies
		WHERE user_id = ?`, userID)

	p := domain.Policy{UserID: userID}
	var excl int
	if err := row.Scan(&p.LeadDays, &p.MaxPerWeek, &excl); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DefaultPolicy(userID), nil
		}
		return p, err
	}
	p.ExcludeWeekends = excl != 0
	return p, nil
}

// ActiveKeywords returns the user's active filter keywords.
func (r *SQLiteRepo) ActiveKeywords(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT keyword FROM keywords
		WHERE user_id = ? AND is_active = 1
		ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		res = append(res, k)
	}
	return res, rows.Err()
}

func (r *SQLiteRepo) CalendarByRole(ctx context.Context, userID int64, role domain.CalendarRole) (*domain.Calendar, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, google_id, name, role
		FROM calendars
		WHERE user_id = ? AND role = ?`, userID, int(role))

	var c domain.Calendar
	var roleInt int
	if err := row.Scan(&c.ID, &c.UserID, &c.GoogleID, &c.Name, &roleInt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Role = domain.CalendarRole(roleInt)
	return &c, nil
}

// --- Schedules ---

const scheduleCols = `id, user_id, calendar_id, title, case_number, case_name,
	original_date, scheduled_date, status, source_event_id, created_event_id,
	cancelled_at, synced_at, created_at, updated_at`

func scanSchedule(row interface{ Scan(...any) error }) (*domain.Schedule, error) {
	var (
		s                    domain.Schedule
		caseNumber, caseName sql.NullString
		origStr, schedStr    string
		statusInt            int
		sourceID, createdID  sql.NullString
		cancelledAt, syncedAt sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := row.Scan(
		&s.ID, &s.UserID, &s.CalendarID, &s.Title, &caseNumber, &caseName,
		&origStr, &schedStr, &statusInt, &sourceID, &createdID,
		&cancelledAt, &syncedAt, &createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var err error
	if s.OriginalDate, err = dateFromString(origStr); err != nil {
		return nil, fmt.Errorf("original_date: %w", err)
	}
	if s.ScheduledDate, err = dateFromString(schedStr); err != nil {
		return nil, fmt.Errorf("scheduled_date: %w", err)
	}
	s.CaseNumber = fromNullString(caseNumber)
	s.CaseName = fromNullString(caseName)
	s.Status = domain.Status(statusInt)
	s.SourceEventID = fromNullString(sourceID)
	s.CreatedEventID = fromNullString(createdID)
	s.CancelledAt = fromNullInt64(cancelledAt)
	s.SyncedAt = fromNullInt64(syncedAt)
	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	s.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &s, nil
}

// InsertSchedule persists a new schedule and fills in its ID. The
// partial unique index on (user_id, source_event_id) is the safety net
// against duplicate creation races.
func (r *SQLiteRepo) InsertSchedule(ctx context.Context, s *domain.Schedule) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO schedules (
			user_id, calendar_id, title, case_number, case_name,
			original_date, scheduled_date, status, source_event_id, created_event_id,
			cancelled_at, synced_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.UserID, s.CalendarID, s.Title, toNullString(s.CaseNumber), toNullString(s.CaseName),
		dateToString(s.OriginalDate), dateToString(s.ScheduledDate), int(s.Status),
		toNullString(s.SourceEventID), toNullString(s.CreatedEventID),
		toNullInt64(s.CancelledAt), toNullInt64(s.SyncedAt),
		s.CreatedAt.UTC().Unix(), s.UpdatedAt.UTC().Unix(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

func (r *SQLiteRepo) GetSchedule(ctx context.Context, id int64) (*domain.Schedule, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+scheduleCols+` FROM schedules WHERE id = ?`, id)
	return scanSchedule(row)
}

// UpdateSchedule writes back mutable fields after a state transition.
func (r *SQLiteRepo) UpdateSchedule(ctx context.Context, s *domain.Schedule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE schedules
		SET title = ?, scheduled_date = ?, status = ?, created_event_id = ?,
		    cancelled_at = ?, synced_at = ?, updated_at = ?
		WHERE id = ?`,
		s.Title, dateToString(s.ScheduledDate), int(s.Status), toNullString(s.CreatedEventID),
		toNullInt64(s.CancelledAt), toNullInt64(s.SyncedAt), s.UpdatedAt.UTC().Unix(),
		s.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// HasScheduleForSource reports whether the user already has a schedule
// triggered by the given source event. Scoped per user: Google event
// IDs are only unique per calendar.
func (r *SQLiteRepo) HasScheduleForSource(ctx context.Context, userID int64, sourceEventID string) (bool, error) {
	if sourceEventID == "" {
		return false, nil
	}
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM schedules
		WHERE user_id = ? AND source_event_id = ?
		LIMIT 1`, userID, sourceEventID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// SourceEventIDs returns all source event IDs the user has schedules
// for, used to pre-filter a scan window.
func (r *SQLiteRepo) SourceEventIDs(ctx context.Context, userID int64) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT source_event_id FROM schedules
		WHERE user_id = ? AND source_event_id IS NOT NULL`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		res[id] = struct{}{}
	}
	return res, rows.Err()
}

// CountActiveInWeek counts pending/approved schedules whose scheduled
// date falls inside [weekStart, weekEnd], the weekly-capacity input.
func (r *SQLiteRepo) CountActiveInWeek(ctx context.Context, userID int64, weekStart, weekEnd time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM schedules
		WHERE user_id = ?
		  AND status IN (?, ?)
		  AND scheduled_date BETWEEN ? AND ?`,
		userID, int(domain.StatusPending), int(domain.StatusApproved),
		dateToString(weekStart), dateToString(weekEnd),
	).Scan(&n)
	return n, err
}

// NextPending returns the pending schedule with the earliest scheduled
// date, or ErrNotFound when the user has none.
func (r *SQLiteRepo) NextPending(ctx context.Context, userID int64) (*domain.Schedule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+scheduleCols+` FROM schedules
		WHERE user_id = ? AND status = ?
		ORDER BY scheduled_date ASC, id ASC
		LIMIT 1`, userID, int(domain.StatusPending))
	return scanSchedule(row)
}

func (r *SQLiteRepo) CountPending(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM schedules
		WHERE user_id = ? AND status = ?`,
		userID, int(domain.StatusPending)).Scan(&n)
	return n, err
}

// ListReconcilable returns schedules that reference a source event and
// could still be cancelled by an upstream deletion.
func (r *SQLiteRepo) ListReconcilable(ctx context.Context, userID int64) ([]domain.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+scheduleCols+` FROM schedules
		WHERE user_id = ?
		  AND source_event_id IS NOT NULL
		  AND status IN (?, ?, ?)
		ORDER BY id`,
		userID, int(domain.StatusPending), int(domain.StatusApproved), int(domain.StatusSynced))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSchedules(rows)
}

// ListByStatusInRange returns schedules in the given statuses whose
// scheduled date falls inside [from, to], ordered by scheduled date.
func (r *SQLiteRepo) ListByStatusInRange(ctx context.Context, userID int64, statuses []domain.Status, from, to time.Time) ([]domain.Schedule, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(statuses))
	args := []any{userID}
	for i, st := range statuses {
		placeholders[i] = "?"
		args = append(args, int(st))
	}
	args = append(args, dateToString(from), dateToString(to))

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+scheduleCols+` FROM schedules
		WHERE user_id = ?
		  AND status IN (`+strings.Join(placeholders, ", ")+`)
		  AND scheduled_date BETWEEN ? AND ?
		ORDER BY scheduled_date ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSchedules(rows)
}

func collectSchedules(rows *sql.Rows) ([]domain.Schedule, error) {
	var res []domain.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *s)
	}
	return res, rows.Err()
}
