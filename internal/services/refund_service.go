package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"tickethub/internal/models/store_models"
	"tickethub/internal/repositories"
	"tickethub/pkg/utils"
)

// RefundServiceInterface executes admin-initiated refunds. Unlike the passive
// reconciliation paths, failures here are surfaced synchronously to the
// caller; a refund is an explicit command.
type RefundServiceInterface interface {
	RefundTransaction(ctx context.Context, transactionID int64, reason string) (*store_models.Transaction, error)
}

type RefundService struct {
	logger   *logrus.Logger
	store    repositories.StoreRepositoryInterface
	provider repositories.ProviderRepositoryInterface
}

func NewRefundService(
	logger *logrus.Logger,
	store repositories.StoreRepositoryInterface,
	provider repositories.ProviderRepositoryInterface,
) RefundServiceInterface {
	return &RefundService{
		logger:   logger,
		store:    store,
		provider: provider,
	}
}

func (s *RefundService) RefundTransaction(ctx context.Context, transactionID int64, reason string) (*store_models.Transaction, error) {
	txn, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.PaymentIntentID == "" {
		// Fail fast before touching the provider; nothing is mutated.
		return nil, utils.ErrMissingPaymentIntent
	}

	refund, err := s.provider.CreateRefund(ctx, txn.PaymentIntentID, reason, txn.ID)
	if err != nil {
		return nil, err
	}

	refundAmount := utils.MinorToAmount(refund.Amount)
	if refund.Amount == 0 {
		refundAmount = txn.FinalAmount
	}
	now := time.Now()

	patched, err := s.store.PatchTransaction(ctx, txn.ID, map[string]interface{}{
		"status":       store_models.TxnStatusRefunded,
		"refundAmount": refundAmount,
		"refundDate":   now,
		"refundReason": reason,
	})
	if err != nil {
		// The provider refund went through but the store patch did not; this
		// must be visible to the operator rather than silently retried.
		s.logger.WithContext(ctx).WithError(err).WithFields(logrus.Fields{
			"transaction_id": txn.ID,
			"refund_id":      refund.ID,
		}).Error("refund succeeded at provider but store patch failed")
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"transaction_id": txn.ID,
		"refund_id":      refund.ID,
		"refund_amount":  refundAmount,
	}).Info("transaction refunded")

	return patched, nil
}
