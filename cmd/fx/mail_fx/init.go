package mail_fx

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"go.uber.org/fx"

	"tickethub/internal/services"
)

var Module = fx.Provide(
	provideMailService,
)

func provideMailService(logger *logrus.Logger) services.IMailService {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if port == 0 {
		port = 587
	}

	cfg := services.SMTPConfig{
		Host:       os.Getenv("SMTP_HOST"),
		Port:       port,
		Username:   os.Getenv("SMTP_USERNAME"),
		Password:   os.Getenv("SMTP_PASSWORD"),
		From:       os.Getenv("SMTP_FROM"),
		FromName:   os.Getenv("SMTP_FROM_NAME"),
		UseSSL:     os.Getenv("SMTP_USE_SSL") == "true",
		RequireTLS: os.Getenv("SMTP_REQUIRE_TLS") == "true",
		AppName:    os.Getenv("APP_NAME"),
		AppBaseURL: os.Getenv("APP_BASE_URL"),
	}

	instance, err := services.NewSMTPMailService(cfg)
	if err != nil {
		logger.WithError(err).Fatal("error initializing mail service")
	}
	return instance
}
