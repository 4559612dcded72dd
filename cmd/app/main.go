package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"tickethub/cmd/fx/db_fx"
	"tickethub/cmd/fx/fulfillment_fx"
	"tickethub/cmd/fx/mail_fx"
	"tickethub/cmd/fx/memcache_fx"
	"tickethub/cmd/fx/provider_fx"
	"tickethub/cmd/fx/reconcile_fx"
	"tickethub/cmd/fx/refund_fx"
	"tickethub/cmd/fx/store_fx"
	"tickethub/cmd/fx/webhook_fx"
	"tickethub/internal/api/controllers"
	"tickethub/internal/infra"
	"tickethub/pkg/middleware"
)

func main() {
	_ = godotenv.Load()

	app := fx.New(
		fx.Provide(provideLogger),
		db_fx.Module,
		store_fx.Module,
		provider_fx.Module,
		mail_fx.Module,
		memcache_fx.Module,
		reconcile_fx.Module,
		fulfillment_fx.Module,
		webhook_fx.Module,
		refund_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func provideLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, db *gorm.DB, logger *logrus.Logger) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.WithField("port", port).Info("starting HTTP server")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.WithError(err).Fatal("server stopped unexpectedly")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			if err := srv.Shutdown(ctx); err != nil {
				logger.WithError(err).Warn("server shutdown error")
			}
			infra.ClosePostgresql(db, logger)
			return nil
		},
	})
}

func ProvideRouter(
	webhookController *controllers.WebhookController,
	fulfillmentController *controllers.FulfillmentController,
	refundController *controllers.RefundController,
	healthController *controllers.HealthController,
) *gin.Engine {

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.CORSMiddleware())

	RegisterRoutes(r, webhookController, fulfillmentController, refundController, healthController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	webhookController *controllers.WebhookController,
	fulfillmentController *controllers.FulfillmentController,
	refundController *controllers.RefundController,
	healthController *controllers.HealthController) {

	r.GET("/healthz", healthController.Healthz)

	webhookGroup := r.Group("/webhooks")
	webhookGroup.POST("/payment-events", webhookController.HandlePaymentEvents)

	fulfillmentGroup := r.Group("/fulfillment")
	fulfillmentGroup.GET("/process", fulfillmentController.GetProcess)
	fulfillmentGroup.POST("/process", fulfillmentController.PostProcess)

	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.BearerAuthMiddleware([]byte(os.Getenv("IDP_JWT_SECRET"))))
	adminGroup.Use(middleware.RoleMiddleware("admin"))
	adminGroup.POST("/transactions/:id/refund", refundController.RefundTransaction)
}
