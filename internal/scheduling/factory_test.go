package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/domain"
)

// fakeStore keeps schedules in memory and mimics the repository
// queries the factory depends on.
type fakeStore struct {
	schedules []*domain.Schedule
	target    *domain.Calendar
	nextID    int64
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		target: &domain.Calendar{ID: 10, UserID: 1, GoogleID: "work", Role: domain.RoleTarget},
	}
}

func (f *fakeStore) HasScheduleForSource(_ context.Context, userID int64, sourceEventID string) (bool, error) {
	for _, s := range f.schedules {
		if s.UserID == userID && s.SourceEventID == sourceEventID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CountActiveInWeek(_ context.Context, userID int64, weekStart, weekEnd time.Time) (int, error) {
	n := 0
	for _, s := range f.schedules {
		if s.UserID == userID && s.Active() &&
			!s.ScheduledDate.Before(weekStart) && !s.ScheduledDate.After(weekEnd) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CalendarByRole(_ context.Context, userID int64, role domain.CalendarRole) (*domain.Calendar, error) {
	if f.target != nil && role == domain.RoleTarget && f.target.UserID == userID {
		return f.target, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeStore) InsertSchedule(_ context.Context, s *domain.Schedule) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.nextID++
	s.ID = f.nextID
	f.schedules = append(f.schedules, s)
	return nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var testUser = &domain.User{ID: 1, TelegramChatID: 42}

func testPolicy() domain.Policy {
	return domain.Policy{UserID: 1, LeadDays: 14, MaxPerWeek: 3, ExcludeWeekends: true}
}

func TestCreate_HappyPath(t *testing.T) {
	store := newFakeStore()
	f := NewFactory(store, zap.NewNop())

	// Court date Monday 2026-03-16; lead 14 days → Monday 2026-03-02.
	res := f.Create(context.Background(), testUser, testPolicy(), domain.ExternalEvent{
		ID:        "evt-1",
		Summary:   "2025나12345 손해배상 변론기일",
		StartDate: date(2026, time.March, 16),
	})

	require.NoError(t, res.Err)
	require.NotNil(t, res.Schedule)
	s := res.Schedule
	assert.Equal(t, date(2026, time.March, 2), s.ScheduledDate)
	assert.Equal(t, date(2026, time.March, 16), s.OriginalDate)
	assert.Equal(t, domain.StatusPending, s.Status)
	assert.Equal(t, "[업무] 2025나12345 손해배상 서면작성", s.Title)
	assert.Equal(t, "2025나12345", s.CaseNumber)
	assert.Equal(t, "손해배상", s.CaseName)
	assert.Equal(t, "evt-1", s.SourceEventID)
	assert.Equal(t, int64(10), s.CalendarID)
	assert.True(t, s.ScheduledDate.Before(s.OriginalDate))
}

func TestCreate_WeekendAdjustment(t *testing.T) {
	store := newFakeStore()
	f := NewFactory(store, zap.NewNop())

	// Court date Sunday 2026-03-15; raw candidate Sunday 2026-03-01
	// adjusts to Friday 2026-02-27.
	res := f.Create(context.Background(), testUser, testPolicy(), domain.ExternalEvent{
		ID: "evt-1", Summary: "변론", StartDate: date(2026, time.March, 15),
	})
	require.NoError(t, res.Err)
	assert.Equal(t, date(2026, time.February, 27), res.Schedule.ScheduledDate)
	assert.Equal(t, time.Friday, res.Schedule.ScheduledDate.Weekday())
}

func TestCreate_WeekendKeptWhenNotExcluded(t *testing.T) {
	store := newFakeStore()
	f := NewFactory(store, zap.NewNop())
	policy := testPolicy()
	policy.ExcludeWeekends = false

	res := f.Create(context.Background(), testUser, policy, domain.ExternalEvent{
		ID: "evt-1", Summary: "변론", StartDate: date(2026, time.March, 15),
	})
	require.NoError(t, res.Err)
	assert.Equal(t, date(2026, time.March, 1), res.Schedule.ScheduledDate)
}

func TestCreate_DuplicateSkipped(t *testing.T) {
	store := newFakeStore()
	f := NewFactory(store, zap.NewNop())
	ev := domain.ExternalEvent{ID: "evt-1", Summary: "변론", StartDate: date(2026, time.March, 16)}

	first := f.Create(context.Background(), testUser, testPolicy(), ev)
	require.NoError(t, first.Err)
	require.NotNil(t, first.Schedule)

	second := f.Create(context.Background(), testUser, testPolicy(), ev)
	assert.Nil(t, second.Schedule)
	assert.Equal(t, SkipDuplicate, second.Skipped)
	assert.Len(t, store.schedules, 1)
}

func TestCreate_CapacityMovesToLaterWeek(t *testing.T) {
	store := newFakeStore()
	f := NewFactory(store, zap.NewNop())
	policy := testPolicy()

	// Fill the week of 2026-03-02 (Mon) with three active schedules.
	for i, day := range []time.Time{
		date(2026, time.March, 2), date(2026, time.March, 4), date(2026, time.March, 6),
	} {
		s, err := domain.NewSchedule(1, 10, "t", "", "", day.AddDate(0, 0, 20), day, "")
		require.NoError(t, err)
		s.SourceEventID = "seed-" + string(rune('a'+i))
		store.schedules = append(store.schedules, s)
	}

	res := f.Create(context.Background(), testUser, policy, domain.ExternalEvent{
		ID: "evt-1", Summary: "변론", StartDate: date(2026, time.March, 16),
	})
	require.NoError(t, res.Err)
	got := res.Schedule.ScheduledDate

	candidateWeek := domain.WeekStart(date(2026, time.March, 2))
	assert.True(t, domain.WeekStart(got).After(candidateWeek),
		"moved into a strictly later week, got %s", got)
	assert.Equal(t, date(2026, time.March, 9), got)
}

func TestCreate_CapacitySearchBounded(t *testing.T) {
	store := newFakeStore()
	f := NewFactory(store, zap.NewNop())
	policy := testPolicy()
	policy.MaxPerWeek = 1
	policy.LeadDays = 35

	// Fill six consecutive weeks starting at the candidate week
	// (court 2026-06-15 minus 35 days = Monday 2026-05-11).
	mon := date(2026, time.May, 11)
	for i := 0; i < 6; i++ {
		day := mon.AddDate(0, 0, 7*i)
		s, err := domain.NewSchedule(1, 10, "t", "", "", day.AddDate(0, 0, 60), day, "")
		require.NoError(t, err)
		store.schedules = append(store.schedules, s)
	}

	res := f.Create(context.Background(), testUser, policy, domain.ExternalEvent{
		ID: "evt-1", Summary: "변론", StartDate: date(2026, time.June, 15),
	})
	require.NoError(t, res.Err)
	// Search stops after four advances: candidate week + 4 weeks,
	// accepted even though that week is also full.
	assert.Equal(t, mon.AddDate(0, 0, 28), res.Schedule.ScheduledDate)
}

func TestCreate_NoTargetCalendar(t *testing.T) {
	store := newFakeStore()
	store.target = nil
	f := NewFactory(store, zap.NewNop())

	res := f.Create(context.Background(), testUser, testPolicy(), domain.ExternalEvent{
		ID: "evt-1", Summary: "변론", StartDate: date(2026, time.March, 16),
	})
	assert.ErrorIs(t, res.Err, ErrNoTargetCalendar)
	assert.Nil(t, res.Schedule)
}

func TestCreate_DateOrderInvariant(t *testing.T) {
	store := newFakeStore()
	f := NewFactory(store, zap.NewNop())
	policy := testPolicy()
	policy.MaxPerWeek = 1

	// A packed calendar pushes the candidate forward past the court
	// date; the invariant rejects it at construction.
	court := date(2026, time.March, 9)
	mon := date(2026, time.February, 23)
	for i := 0; i < 5; i++ {
		day := mon.AddDate(0, 0, 7*i)
		s, err := domain.NewSchedule(1, 10, "t", "", "", day.AddDate(0, 0, 60), day, "")
		require.NoError(t, err)
		store.schedules = append(store.schedules, s)
	}

	res := f.Create(context.Background(), testUser, policy, domain.ExternalEvent{
		ID: "evt-1", Summary: "변론", StartDate: court,
	})
	assert.ErrorIs(t, res.Err, domain.ErrDateOrder)
	assert.Nil(t, res.Schedule)
}

func TestCreateBatch_PartitionsResults(t *testing.T) {
	store := newFakeStore()
	f := NewFactory(store, zap.NewNop())

	// Pre-existing schedule makes evt-2 a duplicate.
	dup, err := domain.NewSchedule(1, 10, "t", "", "",
		date(2026, time.April, 1), date(2026, time.March, 18), "evt-2")
	require.NoError(t, err)
	store.schedules = append(store.schedules, dup)
	store.nextID = 1

	events := []domain.ExternalEvent{
		{ID: "evt-1", Summary: "2025나12345 변론", StartDate: date(2026, time.March, 16)},
		{ID: "evt-2", Summary: "변론", StartDate: date(2026, time.March, 17)},
		{ID: "evt-3", Summary: "변론", StartDate: date(2026, time.March, 24)},
	}

	res := f.CreateBatch(context.Background(), testUser, testPolicy(), events)
	assert.Len(t, res.Created, 2)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "evt-2", res.Skipped[0].EventID)
	assert.Equal(t, SkipDuplicate, res.Skipped[0].Reason)
	assert.Empty(t, res.Failed)
}

func TestCreateBatch_FailureDoesNotAbortBatch(t *testing.T) {
	store := newFakeStore()
	f := NewFactory(store, zap.NewNop())
	policy := testPolicy()
	policy.MaxPerWeek = 1

	// Fill five consecutive weeks so the first event's deadline gets
	// pushed past its own court date and fails the order invariant.
	mon := date(2026, time.February, 23)
	for i := 0; i < 5; i++ {
		day := mon.AddDate(0, 0, 7*i)
		s, err := domain.NewSchedule(1, 10, "t", "", "", day.AddDate(0, 0, 90), day, "")
		require.NoError(t, err)
		store.schedules = append(store.schedules, s)
	}

	events := []domain.ExternalEvent{
		{ID: "bad", Summary: "변론", StartDate: date(2026, time.March, 9)},
		{ID: "good", Summary: "변론", StartDate: date(2026, time.June, 15)},
	}

	res := f.CreateBatch(context.Background(), testUser, policy, events)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "bad", res.Failed[0].EventID)
	require.Len(t, res.Created, 1)
	assert.Equal(t, "good", res.Created[0].SourceEventID)
}
