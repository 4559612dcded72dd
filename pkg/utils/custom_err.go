package utils

import "errors"

var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrTicketTypeNotFound   = errors.New("ticket type not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrStoreUnavailable     = errors.New("ticketing store unavailable")
	ErrStoreUnauthorized    = errors.New("ticketing store rejected credentials")
	ErrStoreConflict        = errors.New("ticketing store version conflict")
	ErrMissingCorrelationID = errors.New("missing payment correlation id")
	ErrMissingPaymentIntent = errors.New("transaction has no payment intent id")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrMissingWebhookSecret = errors.New("webhook secret is not configured")
	ErrArtifactInFlight     = errors.New("artifact generation already in flight")
)
