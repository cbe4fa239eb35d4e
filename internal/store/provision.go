package store

import (
	"context"
	"time"

	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/domain"
)

// Provisioning operations. Users, calendar links, keywords and
// policies are managed by the web onboarding surface, which shares
// this store; the scheduling core itself only reads them.

// CreateUser inserts a user and fills in its ID.
func (r *SQLiteRepo) CreateUser(ctx context.Context, u *domain.User) error {
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
		u.CreatedAt = created
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (telegram_chat_id, google_access_token, google_refresh_token, google_token_expiry, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.TelegramChatID, u.GoogleAccessToken, u.GoogleRefreshToken,
		toNullInt64(u.GoogleTokenExpiry), created.UTC().Unix(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// SetPolicy upserts the user's scheduling preferences.
func (r *SQLiteRepo) SetPolicy(ctx context.Context, p domain.Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO policies (user_id, lead_days, max_per_week, exclude_weekends)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			lead_days        = excluded.lead_days,
			max_per_week     = excluded.max_per_week,
			exclude_weekends = excluded.exclude_weekends`,
		p.UserID, p.LeadDays, p.MaxPerWeek, boolToInt(p.ExcludeWeekends),
	)
	return err
}

// AddKeyword registers a filter keyword for the user.
func (r *SQLiteRepo) AddKeyword(ctx context.Context, k *domain.Keyword) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO keywords (user_id, keyword, is_active)
		VALUES (?, ?, ?)`,
		k.UserID, k.Text, boolToInt(k.Active),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	k.ID = id
	return nil
}

// AddCalendar links an external calendar to the user. The
// UNIQUE(user_id, role) constraint enforces one calendar per role.
func (r *SQLiteRepo) AddCalendar(ctx context.Context, c *domain.Calendar) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO calendars (user_id, google_id, name, role)
		VALUES (?, ?, ?, ?)`,
		c.UserID, c.GoogleID, c.Name, int(c.Role),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}
