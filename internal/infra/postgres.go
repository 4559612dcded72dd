package infra

import (
	"os"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tickethub/internal/models/db_models"
)

func InitPostgresql(logger *logrus.Logger) *gorm.DB {
	dsn := os.Getenv("POSTGRES_URL")

	// TranslateError turns driver unique-violations into
	// gorm.ErrDuplicatedKey, which the journal repositories rely on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.WithError(err).Fatal("error connecting to database")
	}

	if err := db.AutoMigrate(
		&db_models.ProviderEventRecord{},
		&db_models.ArtifactGuard{},
	); err != nil {
		logger.WithError(err).Fatal("error migrating journal tables")
	}

	return db
}

func ClosePostgresql(db *gorm.DB, logger *logrus.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.WithError(err).Error("error getting database instance")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.WithError(err).Error("error closing database connection")
	}
}
