package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"timeoff/internal/database"
	. "timeoff/internal/models"
	"timeoff/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens an in-memory sqlite database with an empty cache, so
// every cache lookup is a miss and the SQL paths get exercised.
func newTestDB(t *testing.T) database.DB {
	t.Helper()

	sql, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, sql.AutoMigrate(&Person{}, &VacationRequest{}, &VacationRequestStatus{}))

	return database.DB{SQL: sql}
}

func newRequest(personID string, start time.Time) *VacationRequest {
	return &VacationRequest{
		PersonID:  personID,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 4),
		Type:      TypeVacation,
		Message:   "spring break",
		Days:      5,
		CreatedBy: personID,
	}
}

func TestRequestRepository_CreateAssignsID(t *testing.T) {
	repo := NewRequest(newTestDB(t))
	ctx := context.Background()

	request := newRequest("person-1", time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, request))
	assert.NotEmpty(t, request.ID)

	got, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, request.PersonID, got.PersonID)
	assert.Equal(t, request.Message, got.Message)
}

func TestRequestRepository_ListByScope(t *testing.T) {
	repo := NewRequest(newTestDB(t))
	ctx := context.Background()

	start := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, newRequest("person-1", start)))
	require.NoError(t, repo.Create(ctx, newRequest("person-2", start.AddDate(0, 0, 7))))

	own, err := repo.ListByScope(ctx, ScopeFor("person-1"))
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "person-1", own[0].PersonID)

	all, err := repo.ListByScope(ctx, ScopeAll())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRequestRepository_UpdateReplacesFields(t *testing.T) {
	repo := NewRequest(newTestDB(t))
	ctx := context.Background()

	request := newRequest("person-1", time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, request))

	request.Message = "moved to may"
	request.Type = TypePersonalDays
	require.NoError(t, repo.Update(ctx, request))

	got, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, "moved to may", got.Message)
	assert.Equal(t, TypePersonalDays, got.Type)
}

func TestRequestRepository_DeleteHidesFromList(t *testing.T) {
	repo := NewRequest(newTestDB(t))
	ctx := context.Background()

	request := newRequest("person-1", time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, request))
	require.NoError(t, repo.Delete(ctx, request.ID))

	listed, err := repo.ListByScope(ctx, ScopeFor("person-1"))
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestStatusRepository_ListByRequest(t *testing.T) {
	db := newTestDB(t)
	statusRepo := NewStatus(db)
	ctx := context.Background()

	require.NoError(t, statusRepo.Create(ctx, &VacationRequestStatus{
		VacationRequestID: "req-1",
		Status:            StatusPending,
		CreatedBy:         "person-1",
	}))

	now := time.Now()
	require.NoError(t, statusRepo.Create(ctx, &VacationRequestStatus{
		VacationRequestID: "req-1",
		Status:            StatusApproved,
		CreatedBy:         "admin-1",
		UpdatedAt:         &now,
	}))
	require.NoError(t, statusRepo.Create(ctx, &VacationRequestStatus{
		VacationRequestID: "req-2",
		Status:            StatusPending,
		CreatedBy:         "person-2",
	}))

	statuses, err := statusRepo.ListByRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Len(t, statuses, 2)
	for _, status := range statuses {
		assert.Equal(t, "req-1", status.VacationRequestID)
	}
}

func TestStatusRepository_CreateRequiresRequestID(t *testing.T) {
	statusRepo := NewStatus(newTestDB(t))

	err := statusRepo.Create(context.Background(), &VacationRequestStatus{
		Status:    StatusPending,
		CreatedBy: "person-1",
	})
	assert.Error(t, err)
}

func TestStatusRepository_DeleteByRequest(t *testing.T) {
	statusRepo := NewStatus(newTestDB(t))
	ctx := context.Background()

	for range 3 {
		require.NoError(t, statusRepo.Create(ctx, &VacationRequestStatus{
			VacationRequestID: "req-1",
			Status:            StatusPending,
			CreatedBy:         "person-1",
		}))
	}
	require.NoError(t, statusRepo.Create(ctx, &VacationRequestStatus{
		VacationRequestID: "req-2",
		Status:            StatusPending,
		CreatedBy:         "person-2",
	}))

	require.NoError(t, statusRepo.DeleteByRequest(ctx, "req-1"))

	gone, err := statusRepo.ListByRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Empty(t, gone, "no status record survives its request")

	kept, err := statusRepo.ListByRequest(ctx, "req-2")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestTransactionService_RollsBackAllWrites(t *testing.T) {
	db := newTestDB(t)
	personRepo := NewPerson(db)
	requestRepo := NewRequest(db)
	ctx := context.Background()

	err := services.NewTransactionService(db).Execute(ctx, func(txCtx context.Context) error {
		person := Person{FirstName: "Ada", LastName: "Nowak", DisplayName: "Ada Nowak", WorkingWeek: DefaultWorkingWeek}
		if err := personRepo.Create(txCtx, &person); err != nil {
			return err
		}
		if err := requestRepo.Create(txCtx, newRequest(person.ID, time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC))); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	persons, listErr := personRepo.List(ctx)
	require.NoError(t, listErr)
	assert.Empty(t, persons, "rolled-back person must not persist")

	requests, listErr := requestRepo.ListByScope(ctx, ScopeAll())
	require.NoError(t, listErr)
	assert.Empty(t, requests, "rolled-back request must not persist")
}
