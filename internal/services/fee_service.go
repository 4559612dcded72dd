package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	stripe "github.com/stripe/stripe-go/v82"

	"tickethub/internal/repositories"
	"tickethub/pkg/utils"
)

// FeeServiceInterface attaches the provider's processing fee to the owning
// transaction once a charge event makes it known. The charge class arrives
// independently of, and sometimes before, the transaction's own creation.
type FeeServiceInterface interface {
	ApplyChargeFee(ctx context.Context, charge *stripe.Charge) error
}

type FeeService struct {
	logger     *logrus.Logger
	store      repositories.StoreRepositoryInterface
	provider   repositories.ProviderRepositoryInterface
	reconciler ReconcileServiceInterface
}

func NewFeeService(
	logger *logrus.Logger,
	store repositories.StoreRepositoryInterface,
	provider repositories.ProviderRepositoryInterface,
	reconciler ReconcileServiceInterface,
) FeeServiceInterface {
	return &FeeService{
		logger:     logger,
		store:      store,
		provider:   provider,
		reconciler: reconciler,
	}
}

func (s *FeeService) ApplyChargeFee(ctx context.Context, charge *stripe.Charge) error {
	log := s.logger.WithContext(ctx).WithField("charge_id", charge.ID)

	if charge.BalanceTransaction == nil || charge.BalanceTransaction.ID == "" {
		// The provider redelivers the charge once the balance transaction is
		// settled; nothing to do yet.
		log.Info("charge has no balance transaction yet; awaiting redelivery")
		return nil
	}
	if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
		log.Warn("charge carries no payment intent reference; cannot correlate")
		return nil
	}
	paymentIntentID := charge.PaymentIntent.ID

	balanceTxn, err := s.provider.GetBalanceTransaction(ctx, charge.BalanceTransaction.ID)
	if err != nil {
		return err
	}
	fee := utils.MinorToAmount(balanceTxn.Fee)

	intent, err := s.provider.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return err
	}

	// Shared find-or-create: waits out an in-flight creation on the other
	// path, then falls back to creating from the intent's own metadata when
	// the charge event outran transaction creation entirely.
	in := InputFromPaymentIntent(intent)
	if _, _, err := s.reconciler.EnsureTransaction(ctx, in, FeeReconciliationLookup); err != nil {
		if errors.Is(err, utils.ErrTransactionNotFound) {
			log.WithField("payment_intent_id", paymentIntentID).
				Warn("no transaction found or creatable for charge; fee not applied")
			return err
		}
		return err
	}

	matches, err := s.store.FindTransactionsByPaymentIntent(ctx, in.TenantID, paymentIntentID)
	if err != nil {
		return err
	}

	var lastErr error
	for i := range matches {
		txn := matches[i]
		// Patch the fee field only. finalAmount stays exactly as captured,
		// even when it disagrees with a recomputation from items and fees.
		patchErr := utils.BackoffRetry(ctx, 3, time.Second, func() error {
			_, err := s.store.PatchTransaction(ctx, txn.ID, map[string]interface{}{
				"providerFeeAmount": fee,
			})
			return err
		})
		if patchErr != nil {
			log.WithError(patchErr).WithField("transaction_id", txn.ID).Error("failed to patch provider fee")
			lastErr = patchErr
			continue
		}
		log.WithFields(logrus.Fields{
			"transaction_id": txn.ID,
			"fee":            fee,
		}).Info("provider fee reconciled")
	}
	return lastErr
}
