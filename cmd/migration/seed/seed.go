package seed

import (
	"context"
	"time"
	"timeoff/config"
	"timeoff/internal/database"
	"timeoff/internal/logger"
	. "timeoff/internal/models"
	"timeoff/internal/repositories"
	"timeoff/internal/services"
)

func stringPtr(s string) *string {
	return &s
}

// Seed inserts development fixtures in one transaction: three persons
// and a pending vacation request. Safe to run repeatedly.
func Seed(db database.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	personRepo := repositories.NewPerson(db)
	requestRepo := repositories.NewRequest(db)
	statusRepo := repositories.NewStatus(db)
	transactionService := services.NewTransactionService(db)

	persons := []Person{
		{
			FirstName:   "Marta",
			LastName:    "Helwig",
			DisplayName: "Marta Helwig",
			Email:       stringPtr("marta.helwig@example.com"),
			IsAdmin:     true,
			WorkingWeek: DefaultWorkingWeek,
		}, {
			FirstName:   "Jonas",
			LastName:    "Ritter",
			DisplayName: "Jonas Ritter",
			Email:       stringPtr("jonas.ritter@example.com"),
			IsAdmin:     false,
			WorkingWeek: DefaultWorkingWeek,
		}, {
			FirstName:   "Yuki",
			LastName:    "Tanaka",
			DisplayName: "Yuki Tanaka",
			Email:       stringPtr("yuki.tanaka@example.com"),
			IsAdmin:     false,
			// four-day week, Fridays off
			WorkingWeek: DefaultWorkingWeek &^ (1 << time.Friday),
		},
	}

	ctx := context.Background()

	return transactionService.Execute(ctx, func(txCtx context.Context) error {
		for i := range persons {
			var existing Person
			if err := db.SQL.First(&existing, "email = ?", persons[i].Email).Error; err == nil {
				persons[i] = existing
				log.Info("Person already exists", "email", *persons[i].Email)
				continue
			}
			log.Info("Seeding person", "displayName", persons[i].DisplayName)
			if err := personRepo.Create(txCtx, &persons[i]); err != nil {
				return err
			}
		}

		requester := persons[1]

		existing, err := requestRepo.ListByScope(txCtx, ScopeFor(requester.ID))
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			log.Info("Vacation requests already seeded")
			return nil
		}

		nextMonday := nextWeekday(time.Now(), time.Monday)
		request := VacationRequest{
			PersonID:  requester.ID,
			StartDate: nextMonday,
			EndDate:   nextMonday.AddDate(0, 0, 4),
			Type:      TypeVacation,
			Message:   "Hiking week in the Alps",
			Days:      CountWorkingDays(nextMonday, nextMonday.AddDate(0, 0, 4), requester.WorkingWeek),
			CreatedBy: requester.ID,
		}
		if err := requestRepo.Create(txCtx, &request); err != nil {
			return err
		}

		status := VacationRequestStatus{
			VacationRequestID: request.ID,
			Status:            StatusPending,
			Message:           request.Message,
			CreatedBy:         requester.ID,
		}
		if err := statusRepo.Create(txCtx, &status); err != nil {
			return err
		}

		log.Info("Seeded vacation request with pending status", "requestID", request.ID)
		return nil
	})
}

func nextWeekday(from time.Time, day time.Weekday) time.Time {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	offset := (int(day) - int(from.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return from.AddDate(0, 0, offset)
}
