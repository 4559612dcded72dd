package webhook_fx

import (
	"os"

	"github.com/sirupsen/logrus"
	"go.uber.org/fx"

	"tickethub/internal/api/controllers"
	"tickethub/internal/repositories"
	"tickethub/internal/services"
)

var Module = fx.Provide(
	provideFeeService,
	provideWebhookService,
	provideWebhookController,
)

func provideFeeService(
	logger *logrus.Logger,
	store repositories.StoreRepositoryInterface,
	provider repositories.ProviderRepositoryInterface,
	reconciler services.ReconcileServiceInterface,
) services.FeeServiceInterface {
	return services.NewFeeService(logger, store, provider, reconciler)
}

func provideWebhookService(
	logger *logrus.Logger,
	provider repositories.ProviderRepositoryInterface,
	store repositories.StoreRepositoryInterface,
	journal repositories.EventRecordRepositoryInterface,
	reconciler services.ReconcileServiceInterface,
	fees services.FeeServiceInterface,
	artifacts services.ArtifactServiceInterface,
) services.WebhookServiceInterface {
	cfg := services.WebhookConfig{
		ReconcileRefunds: os.Getenv("WEBHOOK_RECONCILE_REFUNDS") == "true",
	}
	return services.NewWebhookService(logger, cfg, provider, store, journal, reconciler, fees, artifacts)
}

func provideWebhookController(logger *logrus.Logger, webhookService services.WebhookServiceInterface) *controllers.WebhookController {
	return controllers.NewWebhookController(logger, webhookService)
}
