package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	stripe "github.com/stripe/stripe-go/v82"

	"tickethub/internal/models/db_models"
	"tickethub/internal/models/store_models"
	"tickethub/internal/repositories"
	"tickethub/pkg/utils"
)

// WebhookConfig controls dispatcher behavior. ReconcileRefunds switches
// provider-initiated refund events from observe-only to reconciling; it
// defaults to off so the admin refund flow stays the single writer of the
// refund fields.
type WebhookConfig struct {
	ReconcileRefunds bool
}

// WebhookServiceInterface is the inbound event dispatcher. Contract: only a
// signature failure or missing configuration may surface as an error; every
// other outcome, including internal processing failures, is acknowledged so
// the provider's retry machinery cannot amplify a downstream outage.
type WebhookServiceInterface interface {
	HandleEvent(ctx context.Context, payload []byte, signature string) error
}

type WebhookService struct {
	logger     *logrus.Logger
	cfg        WebhookConfig
	provider   repositories.ProviderRepositoryInterface
	store      repositories.StoreRepositoryInterface
	journal    repositories.EventRecordRepositoryInterface
	reconciler ReconcileServiceInterface
	fees       FeeServiceInterface
	artifacts  ArtifactServiceInterface
}

func NewWebhookService(
	logger *logrus.Logger,
	cfg WebhookConfig,
	provider repositories.ProviderRepositoryInterface,
	store repositories.StoreRepositoryInterface,
	journal repositories.EventRecordRepositoryInterface,
	reconciler ReconcileServiceInterface,
	fees FeeServiceInterface,
	artifacts ArtifactServiceInterface,
) WebhookServiceInterface {
	return &WebhookService{
		logger:     logger,
		cfg:        cfg,
		provider:   provider,
		store:      store,
		journal:    journal,
		reconciler: reconciler,
		fees:       fees,
		artifacts:  artifacts,
	}
}

func (s *WebhookService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ConstructEvent(payload, signature)
	if err != nil {
		// ErrMissingWebhookSecret and ErrInvalidSignature are the only errors
		// the controller turns into non-200 responses.
		return err
	}

	log := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"provider_event_id": event.ID,
		"event_type":        string(event.Type),
	})

	record, duplicate, err := s.journal.Claim(ctx, event.ID, string(event.Type), payload)
	if err != nil {
		log.WithError(err).Error("failed to journal provider event")
		return nil
	}
	if duplicate && record.Status != db_models.EventStatusFailed {
		// Redelivery of something we already handled (or deliberately
		// ignored); acknowledge without touching the store again.
		log.WithField("status", string(record.Status)).Info("duplicate delivery skipped")
		return nil
	}

	if err := s.dispatch(ctx, event); err != nil {
		log.WithError(err).Error("event processing failed; acknowledged for later reconciliation")
		if markErr := s.journal.MarkFailed(ctx, event.ID, err); markErr != nil {
			log.WithError(markErr).Error("failed to mark event failed")
		}
		return nil
	}

	if err := s.journal.MarkProcessed(ctx, event.ID); err != nil {
		log.WithError(err).Error("failed to mark event processed")
	}
	return nil
}

func (s *WebhookService) dispatch(ctx context.Context, event stripe.Event) error {
	switch string(event.Type) {
	case "checkout.session.completed":
		return s.onCheckoutSessionCompleted(ctx, event)
	case "payment_intent.succeeded":
		return s.onPaymentIntentSucceeded(ctx, event)
	case "charge.succeeded", "charge.updated":
		return s.onCharge(ctx, event)
	case "charge.refunded", "payment_intent.refunded":
		return s.onProviderRefund(ctx, event)
	default:
		s.logger.WithContext(ctx).WithField("event_type", string(event.Type)).
			Info("unhandled event type acknowledged")
		_ = s.journal.MarkIgnored(ctx, event.ID)
		return nil
	}
}

func (s *WebhookService) onCheckoutSessionCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return err
	}

	// The webhook payload carries unexpanded references; retrieve the full
	// session so the payment intent and customer ids are available.
	full, err := s.provider.GetCheckoutSession(ctx, session.ID)
	if err != nil {
		return err
	}

	in := InputFromCheckoutSession(full)
	txn, created, err := s.reconciler.EnsureTransaction(ctx, in, DefaultLookup)
	if err != nil {
		return err
	}

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"transaction_id":      txn.ID,
		"checkout_session_id": session.ID,
		"created":             created,
	}).Info("checkout session reconciled")

	// Push-path artifact delivery. The gate makes this a no-op when the
	// poll path got there first.
	if _, err := s.artifacts.EnsureTicketArtifact(ctx, txn, "webhook:"+session.ID); err != nil && err != utils.ErrArtifactInFlight {
		s.logger.WithContext(ctx).WithError(err).WithField("transaction_id", txn.ID).
			Error("artifact delivery failed on webhook path")
	}
	return nil
}

func (s *WebhookService) onPaymentIntentSucceeded(ctx context.Context, event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return err
	}

	full, err := s.provider.GetPaymentIntent(ctx, intent.ID)
	if err != nil {
		return err
	}

	in := InputFromPaymentIntent(full)
	txn, created, err := s.reconciler.EnsureTransaction(ctx, in, DefaultLookup)
	if err != nil {
		if err == utils.ErrTransactionNotFound {
			// Intent without cart metadata: the checkout-session event owns
			// creation for this purchase.
			s.logger.WithContext(ctx).WithField("payment_intent_id", intent.ID).
				Info("payment intent has no cart metadata; deferring to session path")
			return nil
		}
		return err
	}

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"transaction_id":    txn.ID,
		"payment_intent_id": intent.ID,
		"created":           created,
	}).Info("payment intent reconciled")
	return nil
}

func (s *WebhookService) onCharge(ctx context.Context, event stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return err
	}
	return s.fees.ApplyChargeFee(ctx, &charge)
}

// onProviderRefund handles refunds initiated at the provider. By default it
// only observes: the admin refund flow owns the status and refund fields, and
// writing them here as well would race it.
func (s *WebhookService) onProviderRefund(ctx context.Context, event stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return err
	}

	paymentIntentID := ""
	if charge.PaymentIntent != nil {
		paymentIntentID = charge.PaymentIntent.ID
	}

	log := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"event_type":        string(event.Type),
		"payment_intent_id": paymentIntentID,
		"amount_refunded":   charge.AmountRefunded,
	})

	if !s.cfg.ReconcileRefunds {
		log.Info("provider-initiated refund observed")
		return nil
	}
	if paymentIntentID == "" {
		log.Warn("refund event without payment intent reference")
		return nil
	}

	matches, err := s.store.FindTransactionsByPaymentIntent(ctx, "", paymentIntentID)
	if err != nil {
		return err
	}
	for i := range matches {
		txn := matches[i]
		if txn.Status == store_models.TxnStatusRefunded {
			continue
		}
		if _, err := s.store.PatchTransaction(ctx, txn.ID, map[string]interface{}{
			"status":       store_models.TxnStatusRefunded,
			"refundAmount": utils.MinorToAmount(charge.AmountRefunded),
			"refundDate":   time.Now(),
			"refundReason": "provider_initiated",
		}); err != nil {
			return err
		}
		log.WithField("transaction_id", txn.ID).Info("provider-initiated refund reconciled")
	}
	return nil
}
