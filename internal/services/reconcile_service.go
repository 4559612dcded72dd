package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	stripe "github.com/stripe/stripe-go/v82"

	"tickethub/internal/models/store_models"
	"tickethub/internal/repositories"
	"tickethub/pkg/utils"
)

// ReconcileInput is everything needed to correlate a provider event or poll
// to a transaction, and to create one when it does not exist yet.
type ReconcileInput struct {
	CheckoutSessionID string
	PaymentIntentID   string

	TenantID string
	EventID  int64
	Cart     []store_models.CartItem

	Email     string
	FirstName string
	LastName  string
	Phone     string

	DiscountCodeID *int64
	DiscountAmount float64
	// Subtotal is the pre-discount amount; computed from the cart when zero.
	Subtotal float64
	// FinalAmount is the provider's authoritative captured amount.
	FinalAmount float64
	Currency    string

	ProviderPaymentStatus string
	ProviderCustomerID    string
	PurchaseDate          time.Time
}

// LookupPolicy bounds the find-before-create loop. The fee path waits out a
// possibly in-flight creation on the other path; everything else looks once.
type LookupPolicy struct {
	Attempts int
	Delay    time.Duration
}

var (
	DefaultLookup           = LookupPolicy{Attempts: 1}
	FeeReconciliationLookup = LookupPolicy{Attempts: 5, Delay: 4 * time.Second}
)

type ReconcileServiceInterface interface {
	// EnsureTransaction returns the transaction for the input's correlation
	// id, creating it when absent and the input carries enough metadata.
	// Callers must treat found and created identically; created reports which
	// branch ran so inventory is adjusted exactly once.
	EnsureTransaction(ctx context.Context, in ReconcileInput, policy LookupPolicy) (txn *store_models.Transaction, created bool, err error)
}

type ReconcileService struct {
	logger    *logrus.Logger
	store     repositories.StoreRepositoryInterface
	inventory InventoryServiceInterface
	profiles  ProfileServiceInterface
}

func NewReconcileService(
	logger *logrus.Logger,
	store repositories.StoreRepositoryInterface,
	inventory InventoryServiceInterface,
	profiles ProfileServiceInterface,
) ReconcileServiceInterface {
	return &ReconcileService{
		logger:    logger,
		store:     store,
		inventory: inventory,
		profiles:  profiles,
	}
}

func (s *ReconcileService) EnsureTransaction(ctx context.Context, in ReconcileInput, policy LookupPolicy) (*store_models.Transaction, bool, error) {
	if in.CheckoutSessionID == "" && in.PaymentIntentID == "" {
		s.logger.WithContext(ctx).Warn("reconcile invoked without a correlation id")
		return nil, false, utils.ErrMissingCorrelationID
	}
	if policy.Attempts < 1 {
		policy = DefaultLookup
	}

	var found *store_models.Transaction
	err := utils.FixedDelayRetry(ctx, policy.Attempts, policy.Delay, func() (bool, error) {
		txn, err := s.lookup(ctx, in)
		if err != nil {
			return true, err
		}
		if txn != nil {
			found = txn
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return nil, false, err
	}
	if found != nil {
		return found, false, nil
	}

	if len(in.Cart) == 0 || in.EventID == 0 {
		// Not enough metadata to construct a transaction; the path that owns
		// the cart will create it.
		s.logger.WithContext(ctx).WithFields(logrus.Fields{
			"checkout_session_id": in.CheckoutSessionID,
			"payment_intent_id":   in.PaymentIntentID,
		}).Warn("transaction not found and input has no cart to create from")
		return nil, false, utils.ErrTransactionNotFound
	}

	txn, err := s.create(ctx, in)
	if err != nil {
		// The competing path may have won the create; the store's uniqueness
		// constraint on the correlation id rejects the loser. Re-query once
		// so the caller still gets the transaction.
		if existing, lookupErr := s.lookup(ctx, in); lookupErr == nil && existing != nil {
			return existing, false, nil
		}
		return nil, false, err
	}

	s.inventory.AdjustForPurchase(ctx, in.Cart)

	// Buyer profile upkeep is decoupled from the payment-critical path.
	go s.upsertBuyerProfile(in)

	return txn, true, nil
}

func (s *ReconcileService) lookup(ctx context.Context, in ReconcileInput) (*store_models.Transaction, error) {
	var (
		txns []store_models.Transaction
		err  error
	)
	if in.CheckoutSessionID != "" {
		txns, err = s.store.FindTransactionsByCheckoutSession(ctx, in.TenantID, in.CheckoutSessionID)
	} else {
		txns, err = s.store.FindTransactionsByPaymentIntent(ctx, in.TenantID, in.PaymentIntentID)
	}
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, nil
	}
	return &txns[0], nil
}

func (s *ReconcileService) create(ctx context.Context, in ReconcileInput) (*store_models.Transaction, error) {
	subtotal := in.Subtotal
	if subtotal == 0 {
		subtotal = store_models.CartSubtotal(in.Cart)
	}
	purchaseDate := in.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = time.Now()
	}

	txn := &store_models.Transaction{
		TenantID:              in.TenantID,
		Email:                 in.Email,
		FirstName:             in.FirstName,
		LastName:              in.LastName,
		Phone:                 in.Phone,
		Quantity:              store_models.CartQuantity(in.Cart),
		TotalAmount:           subtotal,
		DiscountCodeID:        in.DiscountCodeID,
		DiscountAmount:        in.DiscountAmount,
		FinalAmount:           in.FinalAmount,
		Currency:              strings.ToUpper(in.Currency),
		Status:                store_models.TxnStatusCompleted,
		CheckoutSessionID:     in.CheckoutSessionID,
		PaymentIntentID:       in.PaymentIntentID,
		ProviderCustomerID:    in.ProviderCustomerID,
		ProviderPaymentStatus: in.ProviderPaymentStatus,
		EventID:               in.EventID,
		PurchaseDate:          purchaseDate,
	}

	created, err := s.store.CreateTransaction(ctx, txn)
	if err != nil {
		return nil, err
	}

	items := make([]store_models.TransactionItem, 0, len(in.Cart))
	for _, line := range in.Cart {
		items = append(items, store_models.TransactionItem{
			TransactionID: created.ID,
			TicketTypeID:  line.TicketTypeID,
			Quantity:      line.Quantity,
			PricePerUnit:  line.PricePerUnit,
			TotalAmount:   line.PricePerUnit * float64(line.Quantity),
		})
	}
	if _, err := s.store.BulkCreateTransactionItems(ctx, items); err != nil {
		// The transaction exists; the sale is final. Items are recoverable
		// from the journal, so log instead of failing the reconciliation.
		s.logger.WithContext(ctx).WithError(err).WithField("transaction_id", created.ID).
			Error("failed to bulk-create transaction items")
	}

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"transaction_id":      created.ID,
		"checkout_session_id": created.CheckoutSessionID,
		"payment_intent_id":   created.PaymentIntentID,
		"final_amount":        created.FinalAmount,
	}).Info("transaction created")

	return created, nil
}

func (s *ReconcileService) upsertBuyerProfile(in ReconcileInput) {
	if in.Email == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.profiles.UpsertBuyer(ctx, store_models.UserProfile{
		TenantID:  in.TenantID,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
	}); err != nil {
		s.logger.WithError(err).WithField("email", in.Email).Warn("buyer profile upsert failed")
	}
}

// InputFromCheckoutSession maps a retrieved checkout session (with
// payment_intent and customer expanded) onto a ReconcileInput. Cart, event
// and tenant ride in the session metadata placed there at checkout creation.
func InputFromCheckoutSession(session *stripe.CheckoutSession) ReconcileInput {
	in := inputFromMetadata(session.Metadata)
	in.CheckoutSessionID = session.ID
	if session.PaymentIntent != nil {
		in.PaymentIntentID = session.PaymentIntent.ID
	}
	if session.Customer != nil {
		in.ProviderCustomerID = session.Customer.ID
	}
	in.FinalAmount = utils.MinorToAmount(session.AmountTotal)
	if session.AmountSubtotal > 0 && in.Subtotal == 0 {
		in.Subtotal = utils.MinorToAmount(session.AmountSubtotal)
	}
	in.Currency = string(session.Currency)
	in.ProviderPaymentStatus = string(session.PaymentStatus)

	if details := session.CustomerDetails; details != nil {
		if in.Email == "" {
			in.Email = details.Email
		}
		if in.FirstName == "" && in.LastName == "" {
			in.FirstName, in.LastName = splitName(details.Name)
		}
		if in.Phone == "" {
			in.Phone = details.Phone
		}
	}
	return in
}

// InputFromPaymentIntent is the fallback mapping when only a payment intent
// is known (direct payment flows, or the fee path's last-resort creation).
func InputFromPaymentIntent(intent *stripe.PaymentIntent) ReconcileInput {
	in := inputFromMetadata(intent.Metadata)
	in.PaymentIntentID = intent.ID
	if intent.Customer != nil {
		in.ProviderCustomerID = intent.Customer.ID
	}
	in.FinalAmount = utils.MinorToAmount(intent.Amount)
	in.Currency = string(intent.Currency)
	in.ProviderPaymentStatus = string(intent.Status)
	return in
}

func inputFromMetadata(md map[string]string) ReconcileInput {
	var in ReconcileInput
	if md == nil {
		return in
	}

	cart, err := store_models.ParseCart(md["cart"])
	if err == nil {
		in.Cart = cart
	}
	in.EventID, _ = strconv.ParseInt(md["event_id"], 10, 64)
	in.TenantID = md["tenant_id"]
	in.Email = md["buyer_email"]
	in.FirstName = md["buyer_first_name"]
	in.LastName = md["buyer_last_name"]
	in.Phone = md["buyer_phone"]

	if raw := md["discount_code_id"]; raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			in.DiscountCodeID = &id
		}
	}
	if raw := md["discount_amount"]; raw != "" {
		in.DiscountAmount, _ = strconv.ParseFloat(raw, 64)
	}
	if raw := md["subtotal"]; raw != "" {
		in.Subtotal, _ = strconv.ParseFloat(raw, 64)
	}
	return in
}

func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
