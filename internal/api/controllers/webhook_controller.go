package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tickethub/internal/services"
	"tickethub/pkg/utils"
)

type WebhookController struct {
	logger         *logrus.Logger
	webhookService services.WebhookServiceInterface
}

func NewWebhookController(logger *logrus.Logger, webhookService services.WebhookServiceInterface) *WebhookController {
	return &WebhookController{
		logger:         logger,
		webhookService: webhookService,
	}
}

// HandlePaymentEvents receives the provider's event stream. The body must be
// read raw and unmodified: the signature covers the exact bytes sent.
func (wc *WebhookController) HandlePaymentEvents(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		signature = c.GetHeader("X-Signature")
	}

	err = wc.webhookService.HandleEvent(c.Request.Context(), payload, signature)
	switch {
	case errors.Is(err, utils.ErrMissingWebhookSecret):
		wc.logger.WithContext(c.Request.Context()).Error("webhook secret not configured")
		utils.RespondError(c, http.StatusInternalServerError, "Webhook endpoint is not configured")
	case errors.Is(err, utils.ErrInvalidSignature):
		utils.RespondError(c, http.StatusBadRequest, "Invalid webhook signature")
	default:
		// Internal failures are acknowledged; reconciliation completes via a
		// redelivery or the poll path.
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
