package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSyncSchedule_CreatesEventAndMarksSynced(t *testing.T) {
	user := linkedUser()
	repo := newFakeRepo(user)
	s := seedSchedule(t, repo, "evt-1", domain.StatusApproved)
	s.CaseNumber = "2025나12345"
	s.CaseName = "손해배상"

	gw := &fakeGateway{}
	notifier := &fakeNotifier{}
	cs := NewCalendarSync(repo, gatewayFor(gw), notifier, zap.NewNop())

	require.NoError(t, cs.SyncSchedule(context.Background(), s.ID))

	assert.Equal(t, domain.StatusSynced, s.Status)
	assert.NotEmpty(t, s.CreatedEventID)
	require.NotNil(t, s.SyncedAt)
	require.Len(t, gw.created, 1)
	require.Len(t, notifier.outcomes, 1)
	assert.Equal(t, domain.StatusSynced, notifier.outcomes[0])
}

func TestSyncSchedule_NonApprovedIsNoOp(t *testing.T) {
	user := linkedUser()
	repo := newFakeRepo(user)
	pending := seedSchedule(t, repo, "evt-1", domain.StatusPending)
	synced := seedSchedule(t, repo, "evt-2", domain.StatusSynced)

	gw := &fakeGateway{}
	cs := NewCalendarSync(repo, gatewayFor(gw), &fakeNotifier{}, zap.NewNop())

	require.NoError(t, cs.SyncSchedule(context.Background(), pending.ID))
	require.NoError(t, cs.SyncSchedule(context.Background(), synced.ID))
	assert.Empty(t, gw.created)
	assert.Equal(t, domain.StatusPending, pending.Status)
}

func TestSyncSchedule_MissingScheduleErrors(t *testing.T) {
	user := linkedUser()
	repo := newFakeRepo(user)
	cs := NewCalendarSync(repo, gatewayFor(&fakeGateway{}), &fakeNotifier{}, zap.NewNop())

	assert.Error(t, cs.SyncSchedule(context.Background(), 999))
}

func TestEventDescription(t *testing.T) {
	s := &domain.Schedule{
		OriginalDate: date(2026, 3, 16), // Monday
		CaseNumber:   "2025나12345",
		CaseName:     "손해배상",
	}
	got := eventDescription(s)
	assert.Equal(t, "원본 변론일: 2026년 03월 16일 (월)\n사건번호: 2025나12345\n사건명: 손해배상", got)

	bare := &domain.Schedule{OriginalDate: date(2026, 3, 16)}
	assert.Equal(t, "원본 변론일: 2026년 03월 16일 (월)", eventDescription(bare))
}
