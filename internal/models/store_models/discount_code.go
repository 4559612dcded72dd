package store_models

type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "PERCENTAGE"
	DiscountTypeFixedAmount DiscountType = "FIXED_AMOUNT"
)

// DiscountCode is read-only here; the store increments usesCount on
// redemption. Transactions only carry discountCodeId for traceability.
type DiscountCode struct {
	ID            int64        `json:"id"`
	Code          string       `json:"code"`
	DiscountType  DiscountType `json:"discountType"`
	DiscountValue float64      `json:"discountValue"`
	UsesCount     int          `json:"usesCount"`
	MaxUses       int          `json:"maxUses"`
	IsActive      bool         `json:"isActive"`
}
