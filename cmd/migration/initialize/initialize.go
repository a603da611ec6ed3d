package initialize

import (
	"embed"
	"timeoff/config"
	"timeoff/internal/logger"

	migrate "github.com/rubenv/sql-migrate"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// InitializeTables brings the schema up to date by running the
// embedded SQL migrations.
func InitializeTables(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")

	sqlDB, err := db.DB()
	if err != nil {
		return log.Err("failed to get raw database handle", err)
	}

	migrations := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationsFS,
		Root:       "migrations",
	}

	applied, err := migrate.Exec(sqlDB, "sqlite3", migrations, migrate.Up)
	if err != nil {
		return log.Err("failed to run migrations", err)
	}

	log.Info("Migrations applied", "count", applied)
	return nil
}
