package repositories

import (
	"context"
	"time"
	"timeoff/internal/database"
	"timeoff/internal/logger"
	. "timeoff/internal/models"
	"timeoff/internal/services"

	"gorm.io/gorm"
)

const STATUS_CACHE_EXPIRY = 1 * time.Hour

// StatusRepository is the remote-store contract for the append-only
// status history. ListByRequest is the unit of the reconciliation
// fan-out: one call per request id.
type StatusRepository interface {
	ListByRequest(ctx context.Context, requestID string) ([]VacationRequestStatus, error)
	Create(ctx context.Context, status *VacationRequestStatus) error
	Delete(ctx context.Context, id string) error
	DeleteByRequest(ctx context.Context, requestID string) error
}

type statusRepository struct {
	db  database.DB
	log logger.Logger
}

func NewStatus(db database.DB) StatusRepository {
	return &statusRepository{
		db:  db,
		log: logger.New("statusRepository"),
	}
}

func (r *statusRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *statusRepository) ListByRequest(ctx context.Context, requestID string) ([]VacationRequestStatus, error) {
	log := r.log.Function("ListByRequest")

	var statuses []VacationRequestStatus
	if found, err := r.getCacheByRequest(ctx, requestID, &statuses); err == nil && found {
		return statuses, nil
	}

	if err := r.getDB(ctx).
		Where("vacation_request_id = ?", requestID).
		Order("created_at ASC").
		Find(&statuses).Error; err != nil {
		return nil, log.Err("failed to list statuses", err, "requestID", requestID)
	}

	if err := r.addStatusesToCache(ctx, requestID, statuses); err != nil {
		log.Warn("failed to cache statuses", "requestID", requestID, "error", err)
	}

	return statuses, nil
}

func (r *statusRepository) Create(ctx context.Context, status *VacationRequestStatus) error {
	log := r.log.Function("Create")

	if status.VacationRequestID == "" {
		return log.Error("status has no vacation request id")
	}

	if err := r.getDB(ctx).Create(status).Error; err != nil {
		return log.Err("failed to create status", err, "requestID", status.VacationRequestID)
	}

	r.invalidateRequestCache(status.VacationRequestID)

	return nil
}

func (r *statusRepository) Delete(ctx context.Context, id string) error {
	log := r.log.Function("Delete")

	var status VacationRequestStatus
	if err := r.getDB(ctx).First(&status, "id = ?", id).Error; err != nil {
		return log.Err("failed to find status", err, "id", id)
	}

	if err := r.getDB(ctx).Delete(&VacationRequestStatus{}, "id = ?", id).Error; err != nil {
		return log.Err("failed to delete status", err, "id", id)
	}

	r.invalidateRequestCache(status.VacationRequestID)

	return nil
}

// DeleteByRequest removes a request's whole history. Runs ahead of the
// request's own deletion so no status row can outlive its request.
func (r *statusRepository) DeleteByRequest(ctx context.Context, requestID string) error {
	log := r.log.Function("DeleteByRequest")

	if err := r.getDB(ctx).
		Where("vacation_request_id = ?", requestID).
		Delete(&VacationRequestStatus{}).Error; err != nil {
		return log.Err("failed to delete statuses for request", err, "requestID", requestID)
	}

	r.invalidateRequestCache(requestID)

	return nil
}

func (r *statusRepository) getCacheByRequest(ctx context.Context, requestID string, statuses *[]VacationRequestStatus) (bool, error) {
	found, err := database.NewCacheBuilder(r.db.Cache.Statuses, requestID).
		WithContext(ctx).
		Get(statuses)
	if err != nil {
		return false, r.log.Function("getCacheByRequest").
			Err("failed to get statuses from cache", err, "requestID", requestID)
	}
	return found, nil
}

func (r *statusRepository) addStatusesToCache(ctx context.Context, requestID string, statuses []VacationRequestStatus) error {
	return database.NewCacheBuilder(r.db.Cache.Statuses, requestID).
		WithStruct(statuses).
		WithTTL(STATUS_CACHE_EXPIRY).
		WithContext(ctx).
		Set()
}

func (r *statusRepository) invalidateRequestCache(requestID string) {
	if err := database.NewCacheBuilder(r.db.Cache.Statuses, requestID).Delete(); err != nil {
		r.log.Warn("failed to invalidate status cache", "requestID", requestID, "error", err)
	}
}
