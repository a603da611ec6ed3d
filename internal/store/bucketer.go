package store

import (
	"time"

	. "timeoff/internal/models"
)

// Partition buckets a request collection against a reference instant.
//
// Pending holds requests with no current-status entry at all: absence
// of history, not an explicit PENDING value, marks a request pending
// here. Upcoming holds requests starting strictly after now whose
// current status is not DECLINED. Everything else lands in Past, which
// audit views read but summary cards do not. The visibility scope only
// decides which collection gets bucketed; the rules are the same for
// self-service and administrators.
func Partition(requests []VacationRequest, current CurrentStatuses, now time.Time) Buckets {
	buckets := Buckets{
		Pending:  []VacationRequest{},
		Upcoming: []VacationRequest{},
		Past:     []VacationRequest{},
	}

	for _, request := range requests {
		status, ok := current[request.ID]
		if !ok {
			buckets.Pending = append(buckets.Pending, request)
			continue
		}

		if request.StartDate.After(now) && status.Status != StatusDeclined {
			buckets.Upcoming = append(buckets.Upcoming, request)
			continue
		}

		buckets.Past = append(buckets.Past, request)
	}

	return buckets
}
