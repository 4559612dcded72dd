package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: c.GetString("trace_id"),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: c.GetString("trace_id"),
	})
}

func HandleServiceError(c *gin.Context, logger *logrus.Logger, err error) {
	switch {
	case errors.Is(err, ErrTransactionNotFound):
		RespondError(c, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, ErrTicketTypeNotFound):
		RespondError(c, http.StatusNotFound, "Ticket type not found")
	case errors.Is(err, ErrEventNotFound):
		RespondError(c, http.StatusNotFound, "Event not found")
	case errors.Is(err, ErrMissingCorrelationID):
		RespondError(c, http.StatusBadRequest, "A session_id or pi parameter is required")
	case errors.Is(err, ErrMissingPaymentIntent):
		RespondError(c, http.StatusUnprocessableEntity, "Transaction has no payment intent to refund against")
	case errors.Is(err, ErrStoreUnavailable):
		logger.WithContext(c.Request.Context()).WithError(err).Error("ticketing store unavailable")
		RespondError(c, http.StatusBadGateway, "Ticketing store is unavailable")
	default:
		logger.WithContext(c.Request.Context()).WithError(err).Error("unhandled service error")
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
