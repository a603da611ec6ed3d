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

type fakeRequestRepo struct {
	mu        sync.Mutex
	requests  map[string][]VacationRequest // keyed by scope string
	listCalls int
	failList  error
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[string][]VacationRequest{}}
}

func (f *fakeRequestRepo) ListByScope(ctx context.Context, scope Scope) ([]VacationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.failList != nil {
		return nil, f.failList
	}
	out := make([]VacationRequest, len(f.requests[scope.String()]))
	copy(out, f.requests[scope.String()])
	return out, nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id string) (*VacationRequest, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRequestRepo) Create(ctx context.Context, request *VacationRequest) error {
	return errors.New("not implemented")
}

func (f *fakeRequestRepo) Update(ctx context.Context, request *VacationRequest) error {
	return errors.New("not implemented")
}

func (f *fakeRequestRepo) Delete(ctx context.Context, id string) error {
	return errors.New("not implemented")
}

func testRequest(id, personID string) VacationRequest {
	start := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	return VacationRequest{
		BaseUUIDModel: BaseUUIDModel{ID: id},
		PersonID:      personID,
		StartDate:     start,
		EndDate:       start.AddDate(0, 0, 4),
		Type:          TypeVacation,
		Message:       "summer leave",
		Days:          5,
		CreatedBy:     personID,
	}
}

func TestRequestStore_LoadGuard(t *testing.T) {
	repo := newFakeRequestRepo()
	scope := ScopeFor("person-1")
	repo.requests[scope.String()] = []VacationRequest{testRequest("req-1", "person-1")}

	store := NewRequestStore(repo, CallPolicy{})

	loaded, err := store.Load(context.Background(), scope, false)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
	assert.Len(t, loaded, 1)

	// a second load without force must not re-fetch
	held, err := store.Load(context.Background(), scope, false)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
	assert.Len(t, held, 1, "no duplicate entries after repeated load")

	// forced load re-fetches
	_, err = store.Load(context.Background(), scope, true)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestRequestStore_ScopeChangeRefetches(t *testing.T) {
	repo := newFakeRequestRepo()
	self := ScopeFor("person-1")
	all := ScopeAll()
	repo.requests[self.String()] = []VacationRequest{testRequest("req-1", "person-1")}
	repo.requests[all.String()] = []VacationRequest{
		testRequest("req-1", "person-1"),
		testRequest("req-2", "person-2"),
	}

	store := NewRequestStore(repo, CallPolicy{})

	selfView, err := store.Load(context.Background(), self, false)
	require.NoError(t, err)
	assert.Len(t, selfView, 1)

	allView, err := store.Load(context.Background(), all, false)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
	assert.Len(t, allView, 2)
	assert.Equal(t, all, store.Scope())

	// the earlier caller's slice still holds only its own scope
	require.Len(t, selfView, 1)
	assert.Equal(t, "person-1", selfView[0].PersonID)
}

func TestRequestStore_LoadFailureKeepsPriorState(t *testing.T) {
	repo := newFakeRequestRepo()
	scope := ScopeFor("person-1")
	repo.requests[scope.String()] = []VacationRequest{testRequest("req-1", "person-1")}

	store := NewRequestStore(repo, CallPolicy{})
	_, err := store.Load(context.Background(), scope, false)
	require.NoError(t, err)

	repo.failList = errors.New("network down")
	_, err = store.Load(context.Background(), scope, true)
	assert.Error(t, err)
	assert.Len(t, store.Snapshot(), 1, "failed fetch must not clear loaded data")
}

func TestRequestStore_MutationPrimitives(t *testing.T) {
	store := NewRequestStore(newFakeRequestRepo(), CallPolicy{})

	store.Add(testRequest("req-1", "person-1"))
	store.Add(testRequest("req-2", "person-1"))

	updated := testRequest("req-1", "person-1")
	updated.Message = "changed"
	assert.True(t, store.Replace(updated))

	got, ok := store.Get("req-1")
	require.True(t, ok)
	assert.Equal(t, "changed", got.Message)

	assert.False(t, store.Replace(testRequest("req-9", "person-1")), "unknown id is not replaceable")

	assert.True(t, store.Remove("req-2"))
	assert.False(t, store.Remove("req-2"))
	assert.Len(t, store.Snapshot(), 1)
}

func TestRequestStore_SnapshotIsACopy(t *testing.T) {
	store := NewRequestStore(newFakeRequestRepo(), CallPolicy{})
	store.Add(testRequest("req-1", "person-1"))

	snapshot := store.Snapshot()
	snapshot[0].Message = "mutated copy"

	got, ok := store.Get("req-1")
	require.True(t, ok)
	assert.Equal(t, "summer leave", got.Message)
}
