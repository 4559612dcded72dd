package repositories

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"tickethub/pkg/utils"
)

// ProviderRepositoryInterface wraps the payment provider SDK: webhook
// signature verification plus the retrievals and refund creation the
// reconciliation pipeline needs.
type ProviderRepositoryInterface interface {
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
	GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	GetCustomer(ctx context.Context, id string) (*stripe.Customer, error)
	GetBalanceTransaction(ctx context.Context, id string) (*stripe.BalanceTransaction, error)
	CreateRefund(ctx context.Context, paymentIntentID, reason string, transactionID int64) (*stripe.Refund, error)
}

type ProviderConfig struct {
	APIKey        string
	WebhookSecret string
}

type providerRepository struct {
	cfg    ProviderConfig
	logger *logrus.Logger
	sc     *client.API
}

func NewProviderRepository(cfg ProviderConfig, logger *logrus.Logger) (ProviderRepositoryInterface, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing payment provider api key")
	}

	sc := &client.API{}
	sc.Init(cfg.APIKey, nil)

	return &providerRepository{
		cfg:    cfg,
		logger: logger,
		sc:     sc,
	}, nil
}

// ConstructEvent verifies the HMAC signature (with the SDK's default
// timestamp tolerance) against the raw, unmodified request body.
func (r *providerRepository) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	if r.cfg.WebhookSecret == "" {
		return stripe.Event{}, utils.ErrMissingWebhookSecret
	}
	event, err := webhook.ConstructEvent(payload, signature, r.cfg.WebhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", utils.ErrInvalidSignature, err)
	}
	return event, nil
}

func (r *providerRepository) GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")
	params.AddExpand("customer")

	session, err := r.sc.CheckoutSessions.Get(id, params)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("checkout_session_id", id).Error("failed to retrieve checkout session")
		return nil, err
	}
	return session, nil
}

func (r *providerRepository) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	intent, err := r.sc.PaymentIntents.Get(id, params)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("payment_intent_id", id).Error("failed to retrieve payment intent")
		return nil, err
	}
	return intent, nil
}

func (r *providerRepository) GetCustomer(ctx context.Context, id string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	customer, err := r.sc.Customers.Get(id, params)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("customer_id", id).Error("failed to retrieve customer")
		return nil, err
	}
	return customer, nil
}

func (r *providerRepository) GetBalanceTransaction(ctx context.Context, id string) (*stripe.BalanceTransaction, error) {
	params := &stripe.BalanceTransactionParams{}
	params.Context = ctx

	bt, err := r.sc.BalanceTransactions.Get(id, params)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("balance_transaction_id", id).Error("failed to retrieve balance transaction")
		return nil, err
	}
	return bt, nil
}

// CreateRefund issues a provider-side refund carrying the owning transaction
// id in metadata so provider-side records point back at the store.
func (r *providerRepository) CreateRefund(ctx context.Context, paymentIntentID, reason string, transactionID int64) (*stripe.Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	if reason != "" {
		params.Reason = stripe.String(reason)
	}
	params.AddMetadata("transaction_id", strconv.FormatInt(transactionID, 10))

	refund, err := r.sc.Refunds.New(params)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("payment_intent_id", paymentIntentID).Error("failed to create refund")
		return nil, err
	}
	return refund, nil
}
