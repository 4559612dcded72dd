package request_models

type RefundRequest struct {
	Reason string `json:"reason" validate:"required,oneof=duplicate fraudulent requested_by_customer"`
}
