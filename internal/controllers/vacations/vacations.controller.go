package vacationsController

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"timeoff/config"
	"timeoff/internal/events"
	"timeoff/internal/logger"
	. "timeoff/internal/models"
	"timeoff/internal/repositories"
	"timeoff/internal/store"

	"github.com/go-playground/validator/v10"
)

// VacationController coordinates the vacation-request lifecycle: it is
// the sole writer of the local request/status collections, keeps them
// consistent with the remote store across create/update/delete and
// status changes, and re-derives the current-status map and buckets
// after every committed change.
type VacationController struct {
	requestRepo repositories.RequestRepository
	statusRepo  repositories.StatusRepository
	personRepo  repositories.PersonRepository

	requests *store.RequestStore
	statuses *store.StatusLog

	eventBus *events.EventBus
	validate *validator.Validate
	policy   store.CallPolicy
	log      logger.Logger

	mu      sync.RWMutex
	current CurrentStatuses
}

func New(
	requestRepo repositories.RequestRepository,
	statusRepo repositories.StatusRepository,
	personRepo repositories.PersonRepository,
	eventBus *events.EventBus,
	config config.Config,
) *VacationController {
	policy := store.CallPolicy{
		Timeout:       config.RemoteCallTimeout,
		RetryAttempts: config.FetchRetryAttempts,
		RetryBackoff:  config.FetchRetryBackoff,
	}

	return &VacationController{
		requestRepo: requestRepo,
		statusRepo:  statusRepo,
		personRepo:  personRepo,
		requests:    store.NewRequestStore(requestRepo, policy),
		statuses:    store.NewStatusLog(statusRepo, policy),
		eventBus:    eventBus,
		validate:    validator.New(),
		policy:      policy,
		current:     CurrentStatuses{},
		log:         logger.New("VacationController"),
	}
}

// View is the settled result of one refresh: the request collection and
// derived current-status map as they stood when the load finished.
// Callers bucket against it rather than the controller's shared state,
// so a later refresh for another scope cannot leak its collection into
// this response.
type View struct {
	Scope    Scope
	Requests []VacationRequest
	Current  CurrentStatuses
}

func (v View) Buckets(now time.Time) Buckets {
	return store.Partition(v.Requests, v.Current, now)
}

func (v View) Pending(now time.Time) []VacationRequest {
	return v.Buckets(now).Pending
}

func (v View) Upcoming(now time.Time) []VacationRequest {
	return v.Buckets(now).Upcoming
}

// Refresh loads the request collection for scope, fans out the status
// fetches, and returns the view that settled for this scope. A refresh
// superseded by a newer one while its fan-out was in flight keeps the
// newer load's log and reports no error. Partial fan-out failures
// commit the successfully fetched siblings, and the joined per-id
// error is returned together with the partial view so callers can
// render what arrived and still surface the failure. A request-load
// failure returns the zero View.
func (vc *VacationController) Refresh(ctx context.Context, scope Scope, force bool) (View, error) {
	requests, err := vc.requests.Load(ctx, scope, force)
	if err != nil {
		return View{}, err
	}

	ids := make([]string, len(requests))
	for i, request := range requests {
		ids[i] = request.ID
	}

	statuses, loadErr := vc.statuses.Load(ctx, ids, force)
	if errors.Is(loadErr, store.ErrSuperseded) {
		// the newer load owns the shared log; derive this scope's view
		// from what it committed
		current := store.ReduceCurrentStatuses(requests, vc.statuses.Snapshot())
		return View{Scope: scope, Requests: requests, Current: current}, nil
	}

	current := store.ReduceCurrentStatuses(requests, statuses)
	vc.commit(ctx, "reconciled", nil, requests, current)

	return View{Scope: scope, Requests: requests, Current: current}, loadErr
}

// CreateRequest validates the submission, creates the request, then
// creates its initial PENDING status event referencing the assigned id.
// If the status creation fails the request stays recorded without
// history, which the Pending bucket treats the same as never having had
// one.
func (vc *VacationController) CreateRequest(ctx context.Context, cmd CreateVacationRequest) (*VacationRequest, error) {
	log := vc.log.Function("CreateRequest")

	if cmd.Days == 0 {
		cmd.Days = vc.computeDays(ctx, cmd.PersonID, cmd.StartDate, cmd.EndDate)
	}

	if err := vc.validate.Struct(cmd); err != nil {
		return nil, log.Err("invalid vacation request", err, "personID", cmd.PersonID)
	}

	request := VacationRequest{
		PersonID:  cmd.PersonID,
		StartDate: cmd.StartDate,
		EndDate:   cmd.EndDate,
		Type:      cmd.Type,
		Message:   cmd.Message,
		Days:      cmd.Days,
		CreatedBy: cmd.CreatedBy,
	}

	err := vc.policy.Mutate(ctx, func(callCtx context.Context) error {
		return vc.requestRepo.Create(callCtx, &request)
	})
	if err != nil {
		return nil, log.Err("failed to create vacation request", err, "personID", cmd.PersonID)
	}

	vc.requests.Add(request)

	// The initial status is sequenced behind the request creation: it
	// needs the id the remote store just assigned.
	status := VacationRequestStatus{
		VacationRequestID: request.ID,
		Status:            StatusPending,
		Message:           cmd.Message,
		CreatedBy:         cmd.CreatedBy,
	}
	err = vc.policy.Mutate(ctx, func(callCtx context.Context) error {
		return vc.statusRepo.Create(callCtx, &status)
	})
	if err != nil {
		log.Warn("initial status creation failed, request stays pending without history",
			"requestID", request.ID, "error", err)
	} else {
		vc.statuses.Append(status)
	}

	vc.reconcile(ctx, "request.created", []string{request.ID})
	return &request, nil
}

// UpdateRequest replaces the mutable fields of a request, preserving
// its identity, requester and audit fields. The status history is
// untouched.
func (vc *VacationController) UpdateRequest(ctx context.Context, id string, cmd UpdateVacationRequest) (*VacationRequest, error) {
	log := vc.log.Function("UpdateRequest")

	existing, ok := vc.requests.Get(id)
	if !ok {
		var fetched *VacationRequest
		err := vc.policy.Fetch(ctx, func(callCtx context.Context) error {
			var fetchErr error
			fetched, fetchErr = vc.requestRepo.GetByID(callCtx, id)
			return fetchErr
		})
		if err != nil {
			return nil, log.Err("vacation request not found", err, "id", id)
		}
		existing = *fetched
	}

	if cmd.Days == 0 {
		cmd.Days = vc.computeDays(ctx, existing.PersonID, cmd.StartDate, cmd.EndDate)
	}

	if err := vc.validate.Struct(cmd); err != nil {
		return nil, log.Err("invalid vacation request update", err, "id", id)
	}

	updated := existing
	updated.StartDate = cmd.StartDate
	updated.EndDate = cmd.EndDate
	updated.Type = cmd.Type
	updated.Message = cmd.Message
	updated.Days = cmd.Days

	err := vc.policy.Mutate(ctx, func(callCtx context.Context) error {
		return vc.requestRepo.Update(callCtx, &updated)
	})
	if err != nil {
		return nil, log.Err("failed to update vacation request", err, "id", id)
	}

	if !vc.requests.Replace(updated) {
		vc.requests.Add(updated)
	}

	vc.reconcile(ctx, "request.updated", []string{id})
	return &updated, nil
}

// DeleteRequests deletes each request together with its whole status
// history, statuses first so no status event can outlive its request.
// Each id succeeds or fails on its own: a failed id keeps its local
// records visible while its siblings in the same batch are removed.
func (vc *VacationController) DeleteRequests(ctx context.Context, ids []string) error {
	log := vc.log.Function("DeleteRequests")

	var failed []error
	var removed []string

	for _, id := range ids {
		err := vc.policy.Mutate(ctx, func(callCtx context.Context) error {
			return vc.statusRepo.DeleteByRequest(callCtx, id)
		})
		if err != nil {
			failed = append(failed, fmt.Errorf("request %s: %w", id, err))
			continue
		}

		err = vc.policy.Mutate(ctx, func(callCtx context.Context) error {
			return vc.requestRepo.Delete(callCtx, id)
		})
		if err != nil {
			failed = append(failed, fmt.Errorf("request %s: %w", id, err))
			continue
		}

		vc.statuses.RemoveByRequest(id)
		vc.requests.Remove(id)
		removed = append(removed, id)
	}

	if len(removed) > 0 {
		vc.reconcile(ctx, "request.deleted", removed)
	}

	if len(failed) > 0 {
		return log.Err("failed to delete vacation requests", errors.Join(failed...), "failed", len(failed), "total", len(ids))
	}

	return nil
}

// ChangeStatus appends one new decision event to a request's history.
// Prior events are never mutated or removed; the current status is
// re-derived from the full log once the event is merged.
func (vc *VacationController) ChangeStatus(ctx context.Context, id string, cmd ChangeStatusRequest) (*VacationRequestStatus, error) {
	log := vc.log.Function("ChangeStatus")

	if err := vc.validate.Struct(cmd); err != nil {
		return nil, log.Err("invalid status change", err, "id", id)
	}

	if _, ok := vc.requests.Get(id); !ok {
		return nil, log.Error("unknown vacation request", "id", id)
	}

	now := time.Now()
	status := VacationRequestStatus{
		VacationRequestID: id,
		Status:            cmd.Status,
		Message:           cmd.Message,
		CreatedBy:         cmd.ActorID,
		UpdatedAt:         &now,
		UpdatedBy:         &cmd.ActorID,
	}

	err := vc.policy.Mutate(ctx, func(callCtx context.Context) error {
		return vc.statusRepo.Create(callCtx, &status)
	})
	if err != nil {
		return nil, log.Err("failed to append status event", err, "id", id)
	}

	vc.statuses.Append(status)

	vc.reconcile(ctx, "status.changed", []string{id})
	return &status, nil
}

// Buckets partitions the held collection against now.
func (vc *VacationController) Buckets(now time.Time) Buckets {
	return store.Partition(vc.requests.Snapshot(), vc.Current(), now)
}

func (vc *VacationController) Pending(now time.Time) []VacationRequest {
	return vc.Buckets(now).Pending
}

func (vc *VacationController) Upcoming(now time.Time) []VacationRequest {
	return vc.Buckets(now).Upcoming
}

func (vc *VacationController) All() []VacationRequest {
	return vc.requests.Snapshot()
}

// Current returns a copy of the derived current-status map.
func (vc *VacationController) Current() CurrentStatuses {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	out := make(CurrentStatuses, len(vc.current))
	for id, status := range vc.current {
		out[id] = status
	}
	return out
}

func (vc *VacationController) Scope() Scope {
	return vc.requests.Scope()
}

// reconcile re-derives the current-status map from the committed
// collections and publishes a change event with the fresh bucket
// counts.
func (vc *VacationController) reconcile(ctx context.Context, eventType string, requestIDs []string) {
	requests := vc.requests.Snapshot()
	current := store.ReduceCurrentStatuses(requests, vc.statuses.Snapshot())
	vc.commit(ctx, eventType, requestIDs, requests, current)
}

// commit installs a freshly derived current-status map and publishes a
// change event with the bucket counts. Publication is best-effort.
func (vc *VacationController) commit(ctx context.Context, eventType string, requestIDs []string, requests []VacationRequest, current CurrentStatuses) {
	log := vc.log.Function("commit")

	vc.mu.Lock()
	vc.current = current
	vc.mu.Unlock()

	if vc.eventBus == nil {
		return
	}

	buckets := store.Partition(requests, current, time.Now())
	event := events.ChangeEvent{
		Type:       eventType,
		Scope:      vc.requests.Scope().String(),
		RequestIDs: requestIDs,
		Pending:    len(buckets.Pending),
		Upcoming:   len(buckets.Upcoming),
		Past:       len(buckets.Past),
	}
	if err := vc.eventBus.Publish(ctx, event); err != nil {
		log.Warn("failed to publish change event", "type", eventType, "error", err)
	}
}

// computeDays derives the working-day count for a date range from the
// requester's working week, falling back to the default Monday-Friday
// pattern when the person cannot be fetched.
func (vc *VacationController) computeDays(ctx context.Context, personID string, start, end time.Time) int {
	log := vc.log.Function("computeDays")

	week := DefaultWorkingWeek
	if personID != "" && vc.personRepo != nil {
		err := vc.policy.Fetch(ctx, func(callCtx context.Context) error {
			person, fetchErr := vc.personRepo.GetByID(callCtx, personID)
			if fetchErr != nil {
				return fetchErr
			}
			week = person.WorkingWeek
			return nil
		})
		if err != nil {
			log.Warn("failed to fetch person, using default working week", "personID", personID, "error", err)
		}
	}

	return CountWorkingDays(start, end, week)
}
