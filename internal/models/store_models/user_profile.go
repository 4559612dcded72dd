package store_models

// UserProfile is a best-effort buyer record. Upserts run off the
// payment-critical path and failures never block a transaction. UserID may be
// a synthesized guest id when the buyer has no account.
type UserProfile struct {
	ID        int64  `json:"id,omitempty"`
	UserID    string `json:"userId"`
	TenantID  string `json:"tenantId,omitempty"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
	Status    string `json:"status,omitempty"`
}
