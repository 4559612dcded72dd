package store_fx

import (
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/fx"

	"tickethub/internal/repositories"
)

var Module = fx.Provide(
	provideStoreRepository,
)

func provideStoreRepository(logger *logrus.Logger) repositories.StoreRepositoryInterface {
	cfg := repositories.StoreConfig{
		BaseURL:      os.Getenv("STORE_BASE_URL"),
		ClientID:     os.Getenv("STORE_CLIENT_ID"),
		ClientSecret: os.Getenv("STORE_CLIENT_SECRET"),
	}

	instance, err := repositories.NewStoreRepository(cfg, logger, &http.Client{Timeout: 15 * time.Second})
	if err != nil {
		logger.WithError(err).Fatal("error initializing store repository")
	}
	return instance
}
