package fulfillment_fx

import (
	"os"

	"github.com/sirupsen/logrus"
	"go.uber.org/fx"

	"tickethub/internal/api/controllers"
	"tickethub/internal/repositories"
	"tickethub/internal/services"
	mem "tickethub/pkg/memcache"
)

var Module = fx.Provide(
	provideArtifactService,
	provideFulfillmentService,
	provideFulfillmentController,
)

func provideArtifactService(
	logger *logrus.Logger,
	registry *mem.FlightRegistry,
	guards repositories.ArtifactGuardRepositoryInterface,
	store repositories.StoreRepositoryInterface,
	mail services.IMailService,
) services.ArtifactServiceInterface {
	return services.NewArtifactService(logger, registry, guards, store, mail, os.Getenv("APP_BASE_URL"))
}

func provideFulfillmentService(
	logger *logrus.Logger,
	store repositories.StoreRepositoryInterface,
	provider repositories.ProviderRepositoryInterface,
	guards repositories.ArtifactGuardRepositoryInterface,
	reconciler services.ReconcileServiceInterface,
	artifacts services.ArtifactServiceInterface,
) services.FulfillmentServiceInterface {
	return services.NewFulfillmentService(logger, store, provider, guards, reconciler, artifacts)
}

func provideFulfillmentController(logger *logrus.Logger, fulfillmentService services.FulfillmentServiceInterface) *controllers.FulfillmentController {
	return controllers.NewFulfillmentController(logger, fulfillmentService)
}
