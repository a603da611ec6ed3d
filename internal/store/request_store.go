package store

import (
	"context"
	"sync"
	"timeoff/internal/logger"
	. "timeoff/internal/models"
	"timeoff/internal/repositories"
)

// RequestStore holds the locally loaded vacation-request collection for
// one visibility scope. The lifecycle coordinator is its sole writer;
// readers only ever see committed snapshots.
type RequestStore struct {
	mu       sync.RWMutex
	repo     repositories.RequestRepository
	policy   CallPolicy
	log      logger.Logger
	scope    Scope
	requests []VacationRequest
}

func NewRequestStore(repo repositories.RequestRepository, policy CallPolicy) *RequestStore {
	return &RequestStore{
		repo:   repo,
		policy: policy,
		log:    logger.New("RequestStore"),
	}
}

// Load fetches the request collection for scope and returns a copy of
// what settled for it, so a caller always sees the collection belonging
// to its own scope even when a later load for another scope has since
// replaced the held one. A collection that is already non-empty for the
// same scope is not re-fetched unless forced, so a re-rendering view
// cannot trigger duplicate fetches. A failed fetch leaves the
// previously loaded collection untouched.
func (s *RequestStore) Load(ctx context.Context, scope Scope, force bool) ([]VacationRequest, error) {
	log := s.log.Function("Load")

	s.mu.RLock()
	if !force && scope == s.scope && len(s.requests) > 0 {
		held := make([]VacationRequest, len(s.requests))
		copy(held, s.requests)
		s.mu.RUnlock()
		log.Debug("collection already loaded, skipping fetch", "scope", scope.String())
		return held, nil
	}
	s.mu.RUnlock()

	var fetched []VacationRequest
	err := s.policy.Fetch(ctx, func(callCtx context.Context) error {
		var fetchErr error
		fetched, fetchErr = s.repo.ListByScope(callCtx, scope)
		return fetchErr
	})
	if err != nil {
		return nil, log.Err("failed to load vacation requests", err, "scope", scope.String())
	}
	if fetched == nil {
		fetched = []VacationRequest{}
	}

	s.mu.Lock()
	s.scope = scope
	s.requests = fetched
	s.mu.Unlock()

	out := make([]VacationRequest, len(fetched))
	copy(out, fetched)
	return out, nil
}

func (s *RequestStore) Scope() Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope
}

// Snapshot returns a copy of the held collection.
func (s *RequestStore) Snapshot() []VacationRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]VacationRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *RequestStore) Get(id string) (VacationRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, request := range s.requests {
		if request.ID == id {
			return request, true
		}
	}
	return VacationRequest{}, false
}

func (s *RequestStore) Add(request VacationRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, request)
}

// Replace swaps the held copy of a request by id. Returns false when
// the id is not in the collection.
func (s *RequestStore) Replace(request VacationRequest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.requests {
		if s.requests[i].ID == request.ID {
			s.requests[i] = request
			return true
		}
	}
	return false
}

func (s *RequestStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.requests {
		if s.requests[i].ID == id {
			s.requests = append(s.requests[:i], s.requests[i+1:]...)
			return true
		}
	}
	return false
}
