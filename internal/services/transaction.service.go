package services

import (
	"context"
	"timeoff/internal/database"
	"timeoff/internal/logger"

	"gorm.io/gorm"
)

type txContextKey struct{}

// TransactionService runs a function inside a single GORM transaction,
// exposing it to repositories through the context so multi-step writes
// commit or roll back together.
type TransactionService struct {
	db  database.DB
	log logger.Logger
}

func NewTransactionService(db database.DB) *TransactionService {
	return &TransactionService{
		db:  db,
		log: logger.New("TransactionService"),
	}
}

func (s *TransactionService) Execute(ctx context.Context, fn func(txCtx context.Context) error) error {
	log := s.log.Function("Execute")

	return s.db.SQLWithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txContextKey{}, tx)
		if err := fn(txCtx); err != nil {
			log.Warn("rolling back transaction", "error", err)
			return err
		}
		return nil
	})
}

// GetTransaction returns the ambient transaction if the context carries
// one. Repositories fall back to their own connection otherwise.
func GetTransaction(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txContextKey{}).(*gorm.DB)
	return tx, ok
}
