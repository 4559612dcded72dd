package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"tickethub/internal/models/response_models"
	"tickethub/internal/models/store_models"
	"tickethub/internal/repositories"
	"tickethub/pkg/utils"
)

// FulfillmentServiceInterface backs the buyer's post-redirect polling. GET is
// a pure read; POST ensures the transaction exists through the same
// reconciler the webhook path uses, so the two paths can race safely.
type FulfillmentServiceInterface interface {
	Lookup(ctx context.Context, sessionID, paymentIntentID string) (*response_models.FulfillmentResponse, error)
	Process(ctx context.Context, sessionID, paymentIntentID string, skipQR bool) (*response_models.FulfillmentResponse, error)
}

type FulfillmentService struct {
	logger     *logrus.Logger
	store      repositories.StoreRepositoryInterface
	provider   repositories.ProviderRepositoryInterface
	guards     repositories.ArtifactGuardRepositoryInterface
	reconciler ReconcileServiceInterface
	artifacts  ArtifactServiceInterface
}

func NewFulfillmentService(
	logger *logrus.Logger,
	store repositories.StoreRepositoryInterface,
	provider repositories.ProviderRepositoryInterface,
	guards repositories.ArtifactGuardRepositoryInterface,
	reconciler ReconcileServiceInterface,
	artifacts ArtifactServiceInterface,
) FulfillmentServiceInterface {
	return &FulfillmentService{
		logger:     logger,
		store:      store,
		provider:   provider,
		guards:     guards,
		reconciler: reconciler,
		artifacts:  artifacts,
	}
}

func (s *FulfillmentService) Lookup(ctx context.Context, sessionID, paymentIntentID string) (*response_models.FulfillmentResponse, error) {
	if sessionID == "" && paymentIntentID == "" {
		return nil, utils.ErrMissingCorrelationID
	}

	txn, err := s.findTransaction(ctx, sessionID, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		// Not created yet; the buyer's page keeps polling.
		return &response_models.FulfillmentResponse{}, nil
	}
	return s.buildResponse(ctx, txn), nil
}

func (s *FulfillmentService) Process(ctx context.Context, sessionID, paymentIntentID string, skipQR bool) (*response_models.FulfillmentResponse, error) {
	if sessionID == "" && paymentIntentID == "" {
		return nil, utils.ErrMissingCorrelationID
	}

	txn, err := s.findTransaction(ctx, sessionID, paymentIntentID)
	if err != nil {
		return nil, err
	}

	if txn == nil {
		in, err := s.inputFromProvider(ctx, sessionID, paymentIntentID)
		if err != nil {
			return nil, err
		}
		created, _, err := s.reconciler.EnsureTransaction(ctx, in, DefaultLookup)
		if err != nil {
			return nil, err
		}
		txn = created
	}

	if !skipQR {
		correlation := sessionID
		if correlation == "" {
			correlation = paymentIntentID
		}
		if _, err := s.artifacts.EnsureTicketArtifact(ctx, txn, "poll:"+correlation); err != nil && err != utils.ErrArtifactInFlight {
			s.logger.WithContext(ctx).WithError(err).WithField("transaction_id", txn.ID).
				Error("artifact delivery failed on poll path")
		}
	}

	return s.buildResponse(ctx, txn), nil
}

func (s *FulfillmentService) findTransaction(ctx context.Context, sessionID, paymentIntentID string) (*store_models.Transaction, error) {
	var (
		txns []store_models.Transaction
		err  error
	)
	if sessionID != "" {
		txns, err = s.store.FindTransactionsByCheckoutSession(ctx, "", sessionID)
	} else {
		txns, err = s.store.FindTransactionsByPaymentIntent(ctx, "", paymentIntentID)
	}
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, nil
	}
	return &txns[0], nil
}

func (s *FulfillmentService) inputFromProvider(ctx context.Context, sessionID, paymentIntentID string) (ReconcileInput, error) {
	if sessionID != "" {
		session, err := s.provider.GetCheckoutSession(ctx, sessionID)
		if err != nil {
			return ReconcileInput{}, err
		}
		return InputFromCheckoutSession(session), nil
	}
	intent, err := s.provider.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return ReconcileInput{}, err
	}
	return InputFromPaymentIntent(intent), nil
}

func (s *FulfillmentService) buildResponse(ctx context.Context, txn *store_models.Transaction) *response_models.FulfillmentResponse {
	resp := &response_models.FulfillmentResponse{Transaction: txn}

	items, err := s.store.ListTransactionItems(ctx, txn.ID)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("transaction_id", txn.ID).
			Warn("could not load transaction items")
	} else {
		resp.TransactionItems = items
	}

	if event, err := s.store.GetEvent(ctx, txn.EventID); err == nil {
		resp.EventDetails = event
		resp.HeroImageURL = event.HeroImageURL
	} else {
		s.logger.WithContext(ctx).WithError(err).WithField("event_id", txn.EventID).
			Warn("could not load event details")
	}

	if guard, err := s.guards.GetCompleted(ctx, GuardKey(txn.EventID, txn.ID)); err == nil && guard != nil {
		resp.QRCodeData = guard.QRData
	}

	return resp
}
