package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "timeoff/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatusRepo struct {
	mu        sync.Mutex
	statuses  map[string][]VacationRequestStatus // keyed by request id
	failFor   map[string]error
	listCalls int

	// when set, the first ListByRequest call signals firstCalled and
	// blocks until release is closed
	firstCalled chan struct{}
	release     chan struct{}
	blocked     bool
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{
		statuses: map[string][]VacationRequestStatus{},
		failFor:  map[string]error{},
	}
}

func (f *fakeStatusRepo) ListByRequest(ctx context.Context, requestID string) ([]VacationRequestStatus, error) {
	f.mu.Lock()
	f.listCalls++
	shouldBlock := f.firstCalled != nil && !f.blocked
	if shouldBlock {
		f.blocked = true
	}
	failErr := f.failFor[requestID]
	out := make([]VacationRequestStatus, len(f.statuses[requestID]))
	copy(out, f.statuses[requestID])
	f.mu.Unlock()

	if shouldBlock {
		close(f.firstCalled)
		<-f.release
	}

	if failErr != nil {
		return nil, failErr
	}
	return out, nil
}

func (f *fakeStatusRepo) Create(ctx context.Context, status *VacationRequestStatus) error {
	return errors.New("not implemented")
}

func (f *fakeStatusRepo) Delete(ctx context.Context, id string) error {
	return errors.New("not implemented")
}

func (f *fakeStatusRepo) DeleteByRequest(ctx context.Context, requestID string) error {
	return errors.New("not implemented")
}

func pendingStatus(id, requestID string) VacationRequestStatus {
	return VacationRequestStatus{
		ID:                id,
		VacationRequestID: requestID,
		Status:            StatusPending,
		CreatedAt:         time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		CreatedBy:         "person-1",
	}
}

func TestStatusLog_LoadMergesFanOut(t *testing.T) {
	repo := newFakeStatusRepo()
	repo.statuses["req-1"] = []VacationRequestStatus{pendingStatus("s-1", "req-1")}
	repo.statuses["req-2"] = []VacationRequestStatus{
		pendingStatus("s-2", "req-2"),
		pendingStatus("s-3", "req-2"),
	}

	log := NewStatusLog(repo, CallPolicy{})

	merged, err := log.Load(context.Background(), []string{"req-1", "req-2", "req-3"}, false)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.listCalls)
	assert.Len(t, merged, 3)
	assert.Len(t, log.Snapshot(), 3)
}

func TestStatusLog_LoadGuard(t *testing.T) {
	repo := newFakeStatusRepo()
	repo.statuses["req-1"] = []VacationRequestStatus{pendingStatus("s-1", "req-1")}

	log := NewStatusLog(repo, CallPolicy{})

	_, err := log.Load(context.Background(), []string{"req-1"}, false)
	require.NoError(t, err)
	_, err = log.Load(context.Background(), []string{"req-1"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls, "same id set must not re-fan-out without force")

	// a different id set always fans out
	_, err = log.Load(context.Background(), []string{"req-1", "req-2"}, false)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.listCalls)
}

func TestStatusLog_LoadGuardCoversEmptyHistories(t *testing.T) {
	repo := newFakeStatusRepo()

	log := NewStatusLog(repo, CallPolicy{})

	// every request in the set has zero recorded events
	merged, err := log.Load(context.Background(), []string{"req-1", "req-2"}, false)
	require.NoError(t, err)
	assert.Empty(t, merged)
	assert.Equal(t, 2, repo.listCalls)

	// the empty-but-covered log counts as loaded
	_, err = log.Load(context.Background(), []string{"req-1", "req-2"}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls, "empty histories must not re-run the fan-out")
}

func TestStatusLog_PartialFailureKeepsSiblings(t *testing.T) {
	repo := newFakeStatusRepo()
	repo.statuses["req-1"] = []VacationRequestStatus{pendingStatus("s-1", "req-1")}
	repo.statuses["req-2"] = []VacationRequestStatus{pendingStatus("s-2", "req-2")}

	log := NewStatusLog(repo, CallPolicy{})
	_, err := log.Load(context.Background(), []string{"req-1", "req-2"}, false)
	require.NoError(t, err)

	// req-2's fetch now fails; req-1 gains an event
	repo.mu.Lock()
	repo.statuses["req-1"] = append(repo.statuses["req-1"], pendingStatus("s-9", "req-1"))
	repo.failFor["req-2"] = errors.New("network down")
	repo.mu.Unlock()

	merged, err := log.Load(context.Background(), []string{"req-1", "req-2"}, true)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSuperseded)
	assert.Len(t, merged, 3, "partial commit comes back alongside the error")

	snapshot := log.Snapshot()
	assert.Len(t, snapshot, 3, "fresh req-1 events and retained req-2 events")

	var req2 []VacationRequestStatus
	for _, status := range snapshot {
		if status.VacationRequestID == "req-2" {
			req2 = append(req2, status)
		}
	}
	require.Len(t, req2, 1, "failed id keeps its previously held statuses")
	assert.Equal(t, "s-2", req2[0].ID)
}

func TestStatusLog_SupersededBatchIsDiscarded(t *testing.T) {
	repo := newFakeStatusRepo()
	repo.statuses["req-1"] = []VacationRequestStatus{pendingStatus("s-1", "req-1")}
	repo.firstCalled = make(chan struct{})
	repo.release = make(chan struct{})

	log := NewStatusLog(repo, CallPolicy{})

	firstDone := make(chan error, 1)
	go func() {
		_, err := log.Load(context.Background(), []string{"req-1"}, true)
		firstDone <- err
	}()

	// wait until the first batch is in flight, then supersede it
	<-repo.firstCalled
	_, err := log.Load(context.Background(), []string{"req-1"}, true)
	require.NoError(t, err)

	close(repo.release)
	err = <-firstDone
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Len(t, log.Snapshot(), 1, "superseded batch must not double-merge")
}

func TestStatusLog_AppendAndRemoveByRequest(t *testing.T) {
	log := NewStatusLog(newFakeStatusRepo(), CallPolicy{})

	log.Append(pendingStatus("s-1", "req-1"))
	log.Append(pendingStatus("s-2", "req-1"))
	log.Append(pendingStatus("s-3", "req-2"))
	assert.Len(t, log.Snapshot(), 3)

	log.RemoveByRequest("req-1")

	snapshot := log.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "req-2", snapshot[0].VacationRequestID)
}
