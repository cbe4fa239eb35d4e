package gcal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/domain"
)

const (
	connectTimeout = 10 * time.Second
	readTimeout    = 15 * time.Second
)

// OAuthConfig carries the application's Google OAuth client credentials.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
}

// TokenSaver persists a refreshed access token for the user.
type TokenSaver func(ctx context.Context, userID int64, accessToken string, expiry time.Time) error

// Google implements Gateway against the Calendar v3 API using the
// user's OAuth tokens.
type Google struct {
	svc *calendar.Service
	log *zap.Logger
}

// NewGoogle builds a per-user gateway. Refreshed tokens are written
// back through save so the next process start reuses them.
func NewGoogle(ctx context.Context, cfg OAuthConfig, user *domain.User, save TokenSaver, log *zap.Logger) (*Google, error) {
	if !user.GoogleLinked() {
		return nil, errors.New("user has no google credentials")
	}

	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarScope},
	}
	tok := &oauth2.Token{
		AccessToken:  user.GoogleAccessToken,
		RefreshToken: user.GoogleRefreshToken,
	}
	if user.GoogleTokenExpiry != nil {
		tok.Expiry = *user.GoogleTokenExpiry
	}

	// Bound network I/O explicitly: connect and overall read.
	base := &http.Client{
		Timeout: readTimeout,
		Transport: &http.Transport{
			DialContext:         (&net.Dialer{Timeout: connectTimeout}).DialContext,
			TLSHandshakeTimeout: connectTimeout,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	ts := &persistingTokenSource{
		src:    conf.TokenSource(ctx, tok),
		userID: user.ID,
		last:   tok.AccessToken,
		save:   save,
	}

	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	return &Google{svc: svc, log: log}, nil
}

// persistingTokenSource writes refreshed access tokens back to the store.
type persistingTokenSource struct {
	src    oauth2.TokenSource
	userID int64
	last   string
	save   TokenSaver
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}
	if p.save != nil && tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := p.save(context.Background(), p.userID, tok.AccessToken, tok.Expiry); err != nil {
			// Losing the persisted token only costs a refresh next start.
			return tok, nil
		}
	}
	return tok, nil
}

// ListEvents returns single (non-recurring-expanded) events ordered by
// start time, mapped to date-only external events.
func (g *Google) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, maxResults int64) ([]domain.ExternalEvent, error) {
	var resp *calendar.Events
	err := withRetry(ctx, func() error {
		var err error
		resp, err = g.svc.Events.List(calendarID).
			TimeMin(timeMin.Format(time.RFC3339)).
			TimeMax(timeMax.Format(time.RFC3339)).
			MaxResults(maxResults).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]domain.ExternalEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		start, ok := eventStartDate(item)
		if !ok {
			g.log.Debug("skipping event without start date", zap.String("event_id", item.Id))
			continue
		}
		events = append(events, domain.ExternalEvent{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			StartDate:   start,
		})
	}
	return events, nil
}

// EventExists fetches the event; a 404 or an upstream "cancelled"
// status both mean the source event is gone.
func (g *Google) EventExists(ctx context.Context, calendarID, eventID string) (bool, error) {
	var ev *calendar.Event
	err := withRetry(ctx, func() error {
		var err error
		ev, err = g.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
		return err
	})
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("get event: %w", err)
	}
	return ev.Status != "cancelled", nil
}

// CreateEvent inserts an all-day event. The Calendar API treats the
// end date as exclusive, hence the extra day.
func (g *Google) CreateEvent(ctx context.Context, calendarID, summary, description string, startDate, endDate time.Time) (string, error) {
	if endDate.Before(startDate) {
		endDate = startDate
	}
	ev := &calendar.Event{
		Summary:     summary,
		Description: description,
		Start:       &calendar.EventDateTime{Date: startDate.Format("2006-01-02")},
		End:         &calendar.EventDateTime{Date: endDate.AddDate(0, 0, 1).Format("2006-01-02")},
	}

	var created *calendar.Event
	err := withRetry(ctx, func() error {
		var err error
		created, err = g.svc.Events.Insert(calendarID, ev).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return created.Id, nil
}

// eventStartDate extracts the calendar date of an event: all-day
// events carry Date, timed events carry DateTime.
func eventStartDate(ev *calendar.Event) (time.Time, bool) {
	if ev.Start == nil {
		return time.Time{}, false
	}
	if ev.Start.Date != "" {
		d, err := time.ParseInLocation("2006-01-02", ev.Start.Date, time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return d, true
	}
	if ev.Start.DateTime != "" {
		ts, err := time.Parse(time.RFC3339, ev.Start.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return domain.DateOnly(ts), true
	}
	return time.Time{}, false
}
