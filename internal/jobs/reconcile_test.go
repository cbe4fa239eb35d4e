package jobs

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

func seedSchedule(t *testing.T, repo *fakeRepo, sourceEventID string, status domain.Status) *domain.Schedule {
	t.Helper()
	s, err := domain.NewSchedule(1, 2, "[업무] 서면작성", "", "",
		futureDate(20), futureDate(6), sourceEventID)
	require.NoError(t, err)
	switch status {
	case domain.StatusApproved:
		require.NoError(t, s.Approve(""))
	case domain.StatusSynced:
		require.NoError(t, s.Approve(""))
		require.NoError(t, s.Sync("created-1", time.Now()))
	case domain.StatusRejected:
		require.NoError(t, s.Reject())
	}
	repo.nextID++
	s.ID = repo.nextID
	repo.schedules = append(repo.schedules, s)
	return s
}

func TestReconcileUser_CancelsDeletedSourceEvents(t *testing.T) {
	user := linkedUser()
	repo := newFakeRepo(user)
	kept := seedSchedule(t, repo, "evt-kept", domain.StatusPending)
	gone := seedSchedule(t, repo, "evt-gone", domain.StatusApproved)

	gw := &fakeGateway{exists: map[string]bool{"evt-kept": true, "evt-gone": false}}
	notifier := &fakeNotifier{}
	r := NewReconciler(repo, gatewayFor(gw), notifier, zap.NewNop())

	sum, err := r.ReconcileUser(context.Background(), &user)
	require.NoError(t, err)

	assert.Equal(t, Summary{Checked: 2, Cancelled: 1, Errors: 0}, sum)
	assert.Equal(t, domain.StatusPending, kept.Status)
	assert.Equal(t, domain.StatusCancelled, gone.Status)
	require.Len(t, notifier.outcomes, 1)
	assert.Equal(t, domain.StatusCancelled, notifier.outcomes[0])
}

func TestReconcileUser_SyncedScheduleStillCancellable(t *testing.T) {
	user := linkedUser()
	repo := newFakeRepo(user)
	s := seedSchedule(t, repo, "evt-1", domain.StatusSynced)

	gw := &fakeGateway{exists: map[string]bool{"evt-1": false}}
	r := NewReconciler(repo, gatewayFor(gw), &fakeNotifier{}, zap.NewNop())

	sum, err := r.ReconcileUser(context.Background(), &user)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Cancelled)
	assert.Equal(t, domain.StatusCancelled, s.Status)
	require.NotNil(t, s.CancelledAt)
}

func TestReconcileUser_CheckErrorCountedNotFatal(t *testing.T) {
	user := linkedUser()
	repo := newFakeRepo(user)
	seedSchedule(t, repo, "evt-err", domain.StatusPending)
	gone := seedSchedule(t, repo, "evt-gone", domain.StatusPending)

	gw := &fakeGateway{
		exists:    map[string]bool{"evt-gone": false},
		existsErr: map[string]error{"evt-err": errors.New("upstream 503")},
	}
	r := NewReconciler(repo, gatewayFor(gw), &fakeNotifier{}, zap.NewNop())

	sum, err := r.ReconcileUser(context.Background(), &user)
	require.NoError(t, err)
	assert.Equal(t, Summary{Checked: 2, Cancelled: 1, Errors: 1}, sum)
	assert.Equal(t, domain.StatusCancelled, gone.Status)
}

func TestReconcileUser_NothingToCheck(t *testing.T) {
	user := linkedUser()
	repo := newFakeRepo(user)

	r := NewReconciler(repo, gatewayFor(&fakeGateway{}), &fakeNotifier{}, zap.NewNop())
	sum, err := r.ReconcileUser(context.Background(), &user)
	require.NoError(t, err)
	assert.Zero(t, sum.Checked)
}

func TestReconcileUser_RejectedScheduleNotTouched(t *testing.T) {
	user := linkedUser()
	repo := newFakeRepo(user)
	rejected := seedSchedule(t, repo, "evt-1", domain.StatusRejected)

	gw := &fakeGateway{exists: map[string]bool{"evt-1": false}}
	r := NewReconciler(repo, gatewayFor(gw), &fakeNotifier{}, zap.NewNop())

	sum, err := r.ReconcileUser(context.Background(), &user)
	require.NoError(t, err)
	assert.Zero(t, sum.Checked)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
}
