package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"tickethub/internal/models/request_models"
	"tickethub/internal/services"
	"tickethub/pkg/utils"
)

type RefundController struct {
	logger        *logrus.Logger
	validate      *validator.Validate
	refundService services.RefundServiceInterface
}

func NewRefundController(logger *logrus.Logger, validate *validator.Validate, refundService services.RefundServiceInterface) *RefundController {
	return &RefundController{
		logger:        logger,
		validate:      validate,
		refundService: refundService,
	}
}

// RefundTransaction is an explicit admin command; unlike the reconciliation
// paths, failures are returned synchronously to the initiating UI action.
func (rc *RefundController) RefundTransaction(c *gin.Context) {
	transactionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var req request_models.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := rc.validate.StructCtx(c.Request.Context(), req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := rc.refundService.RefundTransaction(c.Request.Context(), transactionID, req.Reason)
	if err != nil {
		utils.HandleServiceError(c, rc.logger, err)
		return
	}
	utils.RespondSuccess(c, txn, "Transaction refunded")
}
