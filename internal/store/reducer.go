package store

import (
	. "timeoff/internal/models"
)

// CurrentStatus reduces a request's full status history to the single
// event considered authoritative right now. Between two candidates the
// one with a strictly later UpdatedAt wins; an event that defines
// UpdatedAt beats one that does not; equal UpdatedAt keeps the
// earlier-encountered event, so the reduction is deterministic under a
// fixed input order. A request with no events reduces to nothing, not
// to a synthetic PENDING.
func CurrentStatus(requestID string, statuses []VacationRequestStatus) (VacationRequestStatus, bool) {
	var current *VacationRequestStatus
	for i := range statuses {
		candidate := &statuses[i]
		if candidate.VacationRequestID != requestID {
			continue
		}
		if current == nil || isLater(candidate, current) {
			current = candidate
		}
	}

	if current == nil {
		return VacationRequestStatus{}, false
	}
	return *current, true
}

// ReduceCurrentStatuses rebuilds the whole current-status map from scratch.
// Reapplied in full whenever the status log changes; never incremental.
func ReduceCurrentStatuses(requests []VacationRequest, statuses []VacationRequestStatus) CurrentStatuses {
	current := make(CurrentStatuses, len(requests))
	for _, request := range requests {
		if status, ok := CurrentStatus(request.ID, statuses); ok {
			current[request.ID] = status
		}
	}
	return current
}

func isLater(candidate, current *VacationRequestStatus) bool {
	switch {
	case candidate.UpdatedAt == nil:
		return false
	case current.UpdatedAt == nil:
		return true
	default:
		return candidate.UpdatedAt.After(*current.UpdatedAt)
	}
}
