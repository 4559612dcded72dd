package db_fx

import (
	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"tickethub/internal/api/controllers"
	"tickethub/internal/infra"
	"tickethub/internal/repositories"
)

var Module = fx.Provide(
	provideDB,
	provideEventRecordRepository,
	provideArtifactGuardRepository,
	controllers.NewHealthController,
)

func provideDB(logger *logrus.Logger) *gorm.DB {
	return infra.InitPostgresql(logger)
}

func provideEventRecordRepository(db *gorm.DB) repositories.EventRecordRepositoryInterface {
	return repositories.NewEventRecordRepository(db)
}

func provideArtifactGuardRepository(db *gorm.DB) repositories.ArtifactGuardRepositoryInterface {
	return repositories.NewArtifactGuardRepository(db)
}
