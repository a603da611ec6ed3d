package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"timeoff/internal/logger"
	. "timeoff/internal/models"
	"timeoff/internal/repositories"

	"golang.org/x/sync/errgroup"
)

// ErrSuperseded reports that a status fan-out settled after a newer
// load had already started; its results were discarded rather than
// merged into a collection they no longer belong to.
var ErrSuperseded = errors.New("status load superseded by a newer load")

const statusFanOutLimit = 8

// StatusLog holds the locally loaded status history across every
// request in the current collection. Loading fans out one fetch per
// request id; each fetch succeeds or fails independently.
type StatusLog struct {
	mu         sync.RWMutex
	repo       repositories.StatusRepository
	policy     CallPolicy
	log        logger.Logger
	statuses   []VacationRequestStatus
	loadedFor  map[string]struct{}
	generation uint64
}

func NewStatusLog(repo repositories.StatusRepository, policy CallPolicy) *StatusLog {
	return &StatusLog{
		repo:      repo,
		policy:    policy,
		log:       logger.New("StatusLog"),
		loadedFor: map[string]struct{}{},
	}
}

// Load fetches the status history for every given request id
// concurrently, commits the merged result, and returns a copy of what
// was committed for this batch. The batch carries a generation stamp
// taken at the start: if another Load begins before this one settles,
// the whole batch is discarded and ErrSuperseded returned. A failure on
// one id keeps that id's previously held statuses and never discards
// successfully fetched siblings; the per-id failures come back joined
// after the partial commit, alongside the committed merge.
func (l *StatusLog) Load(ctx context.Context, requestIDs []string, force bool) ([]VacationRequestStatus, error) {
	log := l.log.Function("Load")

	l.mu.Lock()
	// an empty-but-covered log counts as loaded: a request set with no
	// recorded history must not re-run the fan-out on every refresh
	if !force && l.coversLocked(requestIDs) {
		held := make([]VacationRequestStatus, len(l.statuses))
		copy(held, l.statuses)
		l.mu.Unlock()
		log.Debug("status log already loaded, skipping fan-out", "requests", len(requestIDs))
		return held, nil
	}
	l.generation++
	generation := l.generation
	l.mu.Unlock()

	fetched := make([][]VacationRequestStatus, len(requestIDs))
	failed := make([]error, len(requestIDs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(statusFanOutLimit)
	for i, requestID := range requestIDs {
		group.Go(func() error {
			err := l.policy.Fetch(groupCtx, func(callCtx context.Context) error {
				statuses, fetchErr := l.repo.ListByRequest(callCtx, requestID)
				if fetchErr != nil {
					return fetchErr
				}
				fetched[i] = statuses
				return nil
			})
			if err != nil {
				failed[i] = fmt.Errorf("statuses for request %s: %w", requestID, err)
			}
			return nil
		})
	}
	_ = group.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.generation != generation {
		log.Info("discarding superseded status batch", "generation", generation, "current", l.generation)
		return nil, ErrSuperseded
	}

	merged := make([]VacationRequestStatus, 0, len(l.statuses))
	covered := make(map[string]struct{}, len(requestIDs))
	for i, requestID := range requestIDs {
		if failed[i] != nil {
			// keep whatever we held for this request before
			merged = append(merged, l.forRequestLocked(requestID)...)
			continue
		}
		merged = append(merged, fetched[i]...)
		covered[requestID] = struct{}{}
	}

	l.statuses = merged
	l.loadedFor = covered

	out := make([]VacationRequestStatus, len(merged))
	copy(out, merged)

	var errs []error
	for _, err := range failed {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return out, log.Err("status fan-out settled with failures", errors.Join(errs...), "failed", len(errs), "total", len(requestIDs))
	}

	return out, nil
}

// Snapshot returns a copy of the full, unfiltered status log.
func (l *StatusLog) Snapshot() []VacationRequestStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]VacationRequestStatus, len(l.statuses))
	copy(out, l.statuses)
	return out
}

func (l *StatusLog) Append(status VacationRequestStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = append(l.statuses, status)
	l.loadedFor[status.VacationRequestID] = struct{}{}
}

// RemoveByRequest drops every status event belonging to a request.
// Called only as a consequence of the owning request's deletion.
func (l *StatusLog) RemoveByRequest(requestID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.statuses[:0]
	for _, status := range l.statuses {
		if status.VacationRequestID != requestID {
			kept = append(kept, status)
		}
	}
	l.statuses = kept
	delete(l.loadedFor, requestID)
}

func (l *StatusLog) coversLocked(requestIDs []string) bool {
	if len(requestIDs) != len(l.loadedFor) {
		return false
	}
	for _, id := range requestIDs {
		if _, ok := l.loadedFor[id]; !ok {
			return false
		}
	}
	return true
}

func (l *StatusLog) forRequestLocked(requestID string) []VacationRequestStatus {
	var out []VacationRequestStatus
	for _, status := range l.statuses {
		if status.VacationRequestID == requestID {
			out = append(out, status)
		}
	}
	return out
}
