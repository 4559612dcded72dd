package request_models

// ProcessFulfillmentRequest is the poll path's POST body. skip_qr suppresses
// server-side artifact generation so the browser-side gate stays the sole
// trigger.
type ProcessFulfillmentRequest struct {
	SessionID       string `json:"session_id"`
	PaymentIntentID string `json:"pi"`
	SkipQR          bool   `json:"skip_qr"`
}
