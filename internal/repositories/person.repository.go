package repositories

import (
	"context"
	"timeoff/internal/database"
	"timeoff/internal/logger"
	. "timeoff/internal/models"
	"timeoff/internal/services"

	"gorm.io/gorm"
)

type PersonRepository interface {
	GetByID(ctx context.Context, id string) (*Person, error)
	List(ctx context.Context) ([]Person, error)
	Create(ctx context.Context, person *Person) error
}

type personRepository struct {
	db  database.DB
	log logger.Logger
}

func NewPerson(db database.DB) PersonRepository {
	return &personRepository{
		db:  db,
		log: logger.New("personRepository"),
	}
}

func (r *personRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *personRepository) GetByID(ctx context.Context, id string) (*Person, error) {
	log := r.log.Function("GetByID")

	var person Person
	if err := r.getDB(ctx).First(&person, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get person", err, "id", id)
	}

	return &person, nil
}

func (r *personRepository) List(ctx context.Context) ([]Person, error) {
	log := r.log.Function("List")

	var persons []Person
	if err := r.getDB(ctx).Order("display_name ASC").Find(&persons).Error; err != nil {
		return nil, log.Err("failed to list persons", err)
	}

	return persons, nil
}

func (r *personRepository) Create(ctx context.Context, person *Person) error {
	log := r.log.Function("Create")

	if err := r.getDB(ctx).Create(person).Error; err != nil {
		return log.Err("failed to create person", err, "displayName", person.DisplayName)
	}

	return nil
}
