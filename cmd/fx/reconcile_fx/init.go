package reconcile_fx

import (
	"github.com/sirupsen/logrus"
	"go.uber.org/fx"

	"tickethub/internal/repositories"
	"tickethub/internal/services"
)

var Module = fx.Provide(
	provideInventoryService,
	provideProfileService,
	provideReconcileService,
)

func provideInventoryService(logger *logrus.Logger, store repositories.StoreRepositoryInterface) services.InventoryServiceInterface {
	return services.NewInventoryService(logger, store)
}

func provideProfileService(logger *logrus.Logger, store repositories.StoreRepositoryInterface) services.ProfileServiceInterface {
	return services.NewProfileService(logger, store)
}

func provideReconcileService(
	logger *logrus.Logger,
	store repositories.StoreRepositoryInterface,
	inventory services.InventoryServiceInterface,
	profiles services.ProfileServiceInterface,
) services.ReconcileServiceInterface {
	return services.NewReconcileService(logger, store, inventory, profiles)
}
