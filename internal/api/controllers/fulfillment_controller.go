package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tickethub/internal/models/request_models"
	"tickethub/internal/services"
	"tickethub/pkg/utils"
)

type FulfillmentController struct {
	logger             *logrus.Logger
	fulfillmentService services.FulfillmentServiceInterface
}

func NewFulfillmentController(logger *logrus.Logger, fulfillmentService services.FulfillmentServiceInterface) *FulfillmentController {
	return &FulfillmentController{
		logger:             logger,
		fulfillmentService: fulfillmentService,
	}
}

// GetProcess is the buyer's polling read: no side effects, returns
// {"transaction": null} until the purchase has been reconciled.
func (fc *FulfillmentController) GetProcess(c *gin.Context) {
	sessionID := c.Query("session_id")
	paymentIntentID := c.Query("pi")

	resp, err := fc.fulfillmentService.Lookup(c.Request.Context(), sessionID, paymentIntentID)
	if err != nil {
		utils.HandleServiceError(c, fc.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PostProcess creates the transaction if the webhook path has not done so
// yet, and triggers artifact delivery unless the client asked to keep that
// on its own single-flight gate.
func (fc *FulfillmentController) PostProcess(c *gin.Context) {
	var req request_models.ProcessFulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	resp, err := fc.fulfillmentService.Process(c.Request.Context(), req.SessionID, req.PaymentIntentID, req.SkipQR)
	if err != nil {
		utils.HandleServiceError(c, fc.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
