package repositories

import (
	"context"
	"time"
	"timeoff/internal/database"
	"timeoff/internal/logger"
	. "timeoff/internal/models"
	"timeoff/internal/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const REQUEST_CACHE_EXPIRY = 24 * time.Hour

// RequestRepository is the remote-store contract for vacation requests.
// Reads are idempotent; ListByScope returns every request visible under
// the given scope.
type RequestRepository interface {
	ListByScope(ctx context.Context, scope Scope) ([]VacationRequest, error)
	GetByID(ctx context.Context, id string) (*VacationRequest, error)
	Create(ctx context.Context, request *VacationRequest) error
	Update(ctx context.Context, request *VacationRequest) error
	Delete(ctx context.Context, id string) error
}

type requestRepository struct {
	db  database.DB
	log logger.Logger
}

func NewRequest(db database.DB) RequestRepository {
	return &requestRepository{
		db:  db,
		log: logger.New("requestRepository"),
	}
}

func (r *requestRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *requestRepository) ListByScope(ctx context.Context, scope Scope) ([]VacationRequest, error) {
	log := r.log.Function("ListByScope")

	query := r.getDB(ctx).Order("start_date ASC")
	if !scope.All {
		query = query.Where("person_id = ?", scope.PersonID)
	}

	var requests []VacationRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, log.Err("failed to list vacation requests", err, "scope", scope.String())
	}

	return requests, nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*VacationRequest, error) {
	log := r.log.Function("GetByID")

	var request VacationRequest
	if err := r.getCacheByID(ctx, id, &request); err == nil {
		return &request, nil
	}

	if err := r.getDBByID(ctx, id, &request); err != nil {
		return nil, err
	}

	if err := r.addRequestToCache(ctx, &request); err != nil {
		log.Warn("failed to add vacation request to cache", "requestID", id, "error", err)
	}

	return &request, nil
}

func (r *requestRepository) Create(ctx context.Context, request *VacationRequest) error {
	log := r.log.Function("Create")

	if err := r.getDB(ctx).Create(request).Error; err != nil {
		return log.Err("failed to create vacation request", err, "personID", request.PersonID)
	}

	if err := r.addRequestToCache(ctx, request); err != nil {
		log.Warn("failed to add vacation request to cache", "requestID", request.ID, "error", err)
	}

	return nil
}

func (r *requestRepository) Update(ctx context.Context, request *VacationRequest) error {
	log := r.log.Function("Update")

	if err := r.getDB(ctx).Save(request).Error; err != nil {
		return log.Err("failed to update vacation request", err, "requestID", request.ID)
	}

	if err := r.addRequestToCache(ctx, request); err != nil {
		log.Warn("failed to update vacation request in cache", "requestID", request.ID, "error", err)
	}

	return nil
}

func (r *requestRepository) Delete(ctx context.Context, id string) error {
	log := r.log.Function("Delete")

	if err := r.getDB(ctx).Delete(&VacationRequest{}, "id = ?", id).Error; err != nil {
		return log.Err("failed to delete vacation request", err, "id", id)
	}

	if err := database.NewCacheBuilder(r.db.Cache.Requests, id).Delete(); err != nil {
		log.Warn("failed to remove vacation request from cache", "requestID", id, "error", err)
	}

	return nil
}

func (r *requestRepository) getCacheByID(ctx context.Context, requestID string, request *VacationRequest) error {
	found, err := database.NewCacheBuilder(r.db.Cache.Requests, requestID).
		WithContext(ctx).
		Get(request)
	if err != nil {
		return r.log.Function("getCacheByID").
			Err("failed to get vacation request from cache", err, "requestID", requestID)
	}

	if !found {
		return r.log.Function("getCacheByID").
			Error("vacation request not found in cache", "requestID", requestID)
	}

	return nil
}

func (r *requestRepository) addRequestToCache(ctx context.Context, request *VacationRequest) error {
	if err := database.NewCacheBuilder(r.db.Cache.Requests, request.ID).
		WithStruct(request).
		WithTTL(REQUEST_CACHE_EXPIRY).
		WithContext(ctx).
		Set(); err != nil {
		return r.log.Function("addRequestToCache").
			Err("failed to add vacation request to cache", err, "requestID", request.ID)
	}
	return nil
}

func (r *requestRepository) getDBByID(ctx context.Context, requestID string, request *VacationRequest) error {
	log := r.log.Function("getDBByID")

	id, err := uuid.Parse(requestID)
	if err != nil {
		return log.Err("failed to parse requestID", err, "requestID", requestID)
	}

	if err := r.getDB(ctx).First(request, "id = ?", id.String()).Error; err != nil {
		return log.Err("failed to get vacation request by id", err, "id", requestID)
	}

	return nil
}
