// Package gcal talks to the user's Google Calendar: listing candidate
// court-date events, checking that a source event still exists, and
// creating events for approved writing schedules.
package gcal

import (
	"context"
	"time"

	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/domain"
)

// Gateway is the external-calendar surface the scheduling core consumes.
type Gateway interface {
	// ListEvents returns events in [timeMin, timeMax] in stable
	// (start-time) order.
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, maxResults int64) ([]domain.ExternalEvent, error)

	// EventExists reports whether the event still exists and is not
	// cancelled upstream. A 404 is not an error: the event is gone.
	EventExists(ctx context.Context, calendarID, eventID string) (bool, error)

	// CreateEvent inserts an all-day event and returns its ID.
	CreateEvent(ctx context.Context, calendarID, summary, description string, startDate, endDate time.Time) (string, error)
}
