package store_models

import "time"

type TransactionStatus string

const (
	TxnStatusPending   TransactionStatus = "PENDING"
	TxnStatusCompleted TransactionStatus = "COMPLETED"
	TxnStatusRefunded  TransactionStatus = "REFUNDED"
)

// Transaction is one purchase as stored by the external ticketing store. The
// store enforces uniqueness of checkoutSessionId and paymentIntentId within a
// tenant; this service always re-queries before creating and treats a
// duplicate as "found".
type Transaction struct {
	ID       int64  `json:"id"`
	TenantID string `json:"tenantId"`

	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`

	Quantity       int     `json:"quantity"`
	TotalAmount    float64 `json:"totalAmount"`
	DiscountCodeID *int64  `json:"discountCodeId,omitempty"`
	DiscountAmount float64 `json:"discountAmount,omitempty"`
	// FinalAmount is the amount the provider actually captured. It is written
	// once at creation and never recomputed, even when it disagrees with
	// totalAmount - discountAmount + fees.
	FinalAmount float64           `json:"finalAmount"`
	Currency    string            `json:"currency,omitempty"`
	Status      TransactionStatus `json:"status"`

	CheckoutSessionID     string   `json:"checkoutSessionId,omitempty"`
	PaymentIntentID       string   `json:"paymentIntentId,omitempty"`
	ProviderCustomerID    string   `json:"providerCustomerId,omitempty"`
	ProviderFeeAmount     *float64 `json:"providerFeeAmount,omitempty"`
	ProviderPaymentStatus string   `json:"providerPaymentStatus,omitempty"`

	RefundAmount *float64   `json:"refundAmount,omitempty"`
	RefundDate   *time.Time `json:"refundDate,omitempty"`
	RefundReason string     `json:"refundReason,omitempty"`

	EventID      int64     `json:"eventId"`
	PurchaseDate time.Time `json:"purchaseDate"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
}

// TransactionItem is one ticket-type line within a Transaction. Items are
// bulk-created right after the owning transaction and never mutated.
type TransactionItem struct {
	ID            int64     `json:"id,omitempty"`
	TransactionID int64     `json:"transactionId"`
	TicketTypeID  int64     `json:"ticketTypeId"`
	Quantity      int       `json:"quantity"`
	PricePerUnit  float64   `json:"pricePerUnit"`
	TotalAmount   float64   `json:"totalAmount"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}
