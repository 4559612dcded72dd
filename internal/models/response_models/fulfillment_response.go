package response_models

import "tickethub/internal/models/store_models"

// FulfillmentResponse is the shape both the GET and POST process endpoints
// return. Transaction is null while the purchase has not been reconciled yet.
type FulfillmentResponse struct {
	Transaction      *store_models.Transaction      `json:"transaction"`
	EventDetails     *store_models.Event            `json:"eventDetails,omitempty"`
	TransactionItems []store_models.TransactionItem `json:"transactionItems,omitempty"`
	QRCodeData       string                         `json:"qrCodeData,omitempty"`
	HeroImageURL     string                         `json:"heroImageUrl,omitempty"`
}
