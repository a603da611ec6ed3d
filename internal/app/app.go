package app

import (
	"timeoff/config"
	"timeoff/internal/database"
	"timeoff/internal/events"
	"timeoff/internal/logger"
	"timeoff/internal/repositories"
	"timeoff/internal/services"
	"timeoff/internal/websockets"

	vacationsController "timeoff/internal/controllers/vacations"
)

type App struct {
	Database  database.DB
	Websocket *websockets.Manager
	EventBus  *events.EventBus
	Config    config.Config

	// Services
	TransactionService *services.TransactionService

	// Repositories
	RequestRepo repositories.RequestRepository
	StatusRepo  repositories.StatusRepository
	PersonRepo  repositories.PersonRepository

	// Controllers
	VacationController *vacationsController.VacationController
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	logger.Init(config.Environment)

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events, config)

	// Initialize services
	transactionService := services.NewTransactionService(db)

	// Initialize repositories
	requestRepo := repositories.NewRequest(db)
	statusRepo := repositories.NewStatus(db)
	personRepo := repositories.NewPerson(db)

	// Initialize controllers with repositories and services
	vacationController := vacationsController.New(requestRepo, statusRepo, personRepo, eventBus, config)

	websocket, err := websockets.New(db, eventBus, config)
	if err != nil {
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	app := &App{
		Database:           db,
		Config:             config,
		TransactionService: transactionService,
		RequestRepo:        requestRepo,
		StatusRepo:         statusRepo,
		PersonRepo:         personRepo,
		VacationController: vacationController,
		Websocket:          websocket,
		EventBus:           eventBus,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.TransactionService,
		a.VacationController,
		a.RequestRepo,
		a.StatusRepo,
		a.PersonRepo,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
