package provider_fx

import (
	"os"

	"github.com/sirupsen/logrus"
	"go.uber.org/fx"

	"tickethub/internal/repositories"
)

var Module = fx.Provide(
	provideProviderRepository,
)

func provideProviderRepository(logger *logrus.Logger) repositories.ProviderRepositoryInterface {
	cfg := repositories.ProviderConfig{
		APIKey:        os.Getenv("STRIPE_API_KEY"),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
	}

	instance, err := repositories.NewProviderRepository(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("error initializing payment provider repository")
	}
	return instance
}
