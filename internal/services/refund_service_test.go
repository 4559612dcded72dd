package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	stripe "github.com/stripe/stripe-go/v82"

	"tickethub/internal/models/store_models"
	"tickethub/pkg/utils"
)

func TestRefundTransactionHappyPath(t *testing.T) {
	store := &mockStore{
		getTransactionFn: func(ctx context.Context, id int64) (*store_models.Transaction, error) {
			return &store_models.Transaction{
				ID:              id,
				Status:          store_models.TxnStatusCompleted,
				PaymentIntentID: "pi_refund",
				FinalAmount:     92.50,
			}, nil
		},
	}
	provider := &mockProvider{
		createRefundFn: func(ctx context.Context, paymentIntentID, reason string, transactionID int64) (*stripe.Refund, error) {
			if paymentIntentID != "pi_refund" {
				t.Fatalf("refunded wrong intent: %s", paymentIntentID)
			}
			if reason != "requested_by_customer" {
				t.Fatalf("reason not forwarded: %s", reason)
			}
			return &stripe.Refund{ID: "re_1", Amount: 9250}, nil
		},
	}
	svc := NewRefundService(testLogger(), store, provider)

	_, err := svc.RefundTransaction(context.Background(), 5, "requested_by_customer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.patchCalls) != 1 {
		t.Fatalf("expected one patch, got %d", len(store.patchCalls))
	}
	patch := store.patchCalls[0]
	if patch.fields["status"] != store_models.TxnStatusRefunded {
		t.Fatalf("expected status REFUNDED, got %v", patch.fields["status"])
	}
	if patch.fields["refundAmount"] != 92.50 {
		t.Fatalf("expected refund amount 92.50, got %v", patch.fields["refundAmount"])
	}
	if patch.fields["refundReason"] != "requested_by_customer" {
		t.Fatalf("expected the admin's reason recorded, got %v", patch.fields["refundReason"])
	}
}

func TestRefundTransactionWithoutPaymentIntentFailsBeforeMutation(t *testing.T) {
	store := &mockStore{
		getTransactionFn: func(ctx context.Context, id int64) (*store_models.Transaction, error) {
			return &store_models.Transaction{ID: id, Status: store_models.TxnStatusCompleted}, nil
		},
	}
	provider := &mockProvider{}
	svc := NewRefundService(testLogger(), store, provider)

	_, err := svc.RefundTransaction(context.Background(), 5, "duplicate")
	if !errors.Is(err, utils.ErrMissingPaymentIntent) {
		t.Fatalf("expected ErrMissingPaymentIntent, got %v", err)
	}
	if provider.refundCalls != 0 {
		t.Fatal("the provider must not be touched")
	}
	if len(store.patchCalls) != 0 {
		t.Fatal("nothing may be mutated")
	}
}

func TestRefundTransactionUnknownTransaction(t *testing.T) {
	store := &mockStore{
		getTransactionFn: func(ctx context.Context, id int64) (*store_models.Transaction, error) {
			return nil, utils.ErrTransactionNotFound
		},
	}
	provider := &mockProvider{}
	svc := NewRefundService(testLogger(), store, provider)

	_, err := svc.RefundTransaction(context.Background(), 404, "fraudulent")
	if !errors.Is(err, utils.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
	if provider.refundCalls != 0 {
		t.Fatal("the provider must not be touched")
	}
}

func TestRefundTransactionFallsBackToFinalAmount(t *testing.T) {
	store := &mockStore{
		getTransactionFn: func(ctx context.Context, id int64) (*store_models.Transaction, error) {
			return &store_models.Transaction{ID: id, PaymentIntentID: "pi_r", FinalAmount: 42}, nil
		},
	}
	provider := &mockProvider{
		createRefundFn: func(ctx context.Context, paymentIntentID, reason string, transactionID int64) (*stripe.Refund, error) {
			return &stripe.Refund{ID: "re_2"}, nil
		},
	}
	svc := NewRefundService(testLogger(), store, provider)

	if _, err := svc.RefundTransaction(context.Background(), 5, "duplicate"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.patchCalls[0].fields["refundAmount"] != float64(42) {
		t.Fatalf("expected fallback to the captured amount, got %v", store.patchCalls[0].fields["refundAmount"])
	}
}

func TestRefundTransactionSurfacesPatchFailure(t *testing.T) {
	store := &mockStore{
		getTransactionFn: func(ctx context.Context, id int64) (*store_models.Transaction, error) {
			return &store_models.Transaction{ID: id, PaymentIntentID: "pi_r", FinalAmount: 42}, nil
		},
		patchTransactionFn: func(ctx context.Context, id int64, fields map[string]interface{}) (*store_models.Transaction, error) {
			return nil, fmt.Errorf("store write failed")
		},
	}
	provider := &mockProvider{}
	svc := NewRefundService(testLogger(), store, provider)

	_, err := svc.RefundTransaction(context.Background(), 5, "duplicate")
	if err == nil {
		t.Fatal("a store patch failure after a provider refund must be surfaced")
	}
	if provider.refundCalls != 1 {
		t.Fatalf("expected the provider refund to have happened, got %d calls", provider.refundCalls)
	}
}
