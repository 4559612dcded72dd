package refund_fx

import (
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.uber.org/fx"

	"tickethub/internal/api/controllers"
	"tickethub/internal/repositories"
	"tickethub/internal/services"
)

var Module = fx.Provide(
	provideValidator,
	provideRefundService,
	provideRefundController,
)

func provideValidator() *validator.Validate {
	return validator.New()
}

func provideRefundService(
	logger *logrus.Logger,
	store repositories.StoreRepositoryInterface,
	provider repositories.ProviderRepositoryInterface,
) services.RefundServiceInterface {
	return services.NewRefundService(logger, store, provider)
}

func provideRefundController(logger *logrus.Logger, validate *validator.Validate, refundService services.RefundServiceInterface) *controllers.RefundController {
	return controllers.NewRefundController(logger, validate, refundService)
}
