package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"

	"tickethub/internal/models/store_models"
	"tickethub/internal/repositories"
	mem "tickethub/pkg/memcache"
	"tickethub/pkg/utils"
)

// ArtifactServiceInterface guarantees at most one QR generation and one
// ticket email per (eventId, transactionId), no matter how many callers race
// for it. Two layers enforce that: the in-memory flight registry dedups
// concurrent callers in this process, and the durable guard row (claimed
// before any work) dedups across restarts and competing processes.
type ArtifactServiceInterface interface {
	EnsureTicketArtifact(ctx context.Context, txn *store_models.Transaction, sessionKey string) (string, error)
}

type ArtifactService struct {
	logger     *logrus.Logger
	registry   *mem.FlightRegistry
	guards     repositories.ArtifactGuardRepositoryInterface
	store      repositories.StoreRepositoryInterface
	mail       IMailService
	appBaseURL string
}

func NewArtifactService(
	logger *logrus.Logger,
	registry *mem.FlightRegistry,
	guards repositories.ArtifactGuardRepositoryInterface,
	store repositories.StoreRepositoryInterface,
	mail IMailService,
	appBaseURL string,
) ArtifactServiceInterface {
	return &ArtifactService{
		logger:     logger,
		registry:   registry,
		guards:     guards,
		store:      store,
		mail:       mail,
		appBaseURL: appBaseURL,
	}
}

func GuardKey(eventID, transactionID int64) string {
	return fmt.Sprintf("%d:%d", eventID, transactionID)
}

func (s *ArtifactService) EnsureTicketArtifact(ctx context.Context, txn *store_models.Transaction, sessionKey string) (string, error) {
	key := GuardKey(txn.EventID, txn.ID)

	return s.registry.Do(key, func() (string, error) {
		guard, claimed, err := s.guards.Claim(ctx, key, sessionKey)
		if err != nil {
			return "", err
		}
		if !claimed {
			// Someone already attempted this key, possibly in a previous
			// process. Never re-run; surface what that attempt produced.
			switch guard.State {
			case "", "in_flight":
				return "", utils.ErrArtifactInFlight
			case "failed":
				return "", fmt.Errorf("previous artifact attempt failed: %s", guard.LastError)
			default:
				return guard.QRData, nil
			}
		}

		qrData, err := s.generateQR(txn)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("transaction_id", txn.ID).
				Error("qr generation failed")
			if failErr := s.guards.Fail(ctx, key, err); failErr != nil {
				s.logger.WithContext(ctx).WithError(failErr).Error("failed to record guard failure")
			}
			return "", err
		}

		// Email only after a successful artifact fetch, never speculatively.
		emailSent := s.sendTicketEmail(ctx, txn)

		if err := s.guards.Complete(ctx, key, qrData, emailSent); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("guard_key", key).
				Error("failed to record guard completion")
		}
		return qrData, nil
	})
}

func (s *ArtifactService) generateQR(txn *store_models.Transaction) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"transactionId": txn.ID,
		"eventId":       txn.EventID,
		"issuedAt":      time.Now().Unix(),
	})
	if err != nil {
		return "", err
	}

	png, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func (s *ArtifactService) sendTicketEmail(ctx context.Context, txn *store_models.Transaction) bool {
	if txn.Email == "" {
		return false
	}

	data := TicketEmailData{
		BuyerName:   strings.TrimSpace(txn.FirstName + " " + txn.LastName),
		Quantity:    txn.Quantity,
		FinalAmount: txn.FinalAmount,
		Currency:    txn.Currency,
		TicketURL:   fmt.Sprintf("%s/events/%d/tickets/%d", strings.TrimRight(s.appBaseURL, "/"), txn.EventID, txn.ID),
	}
	if data.BuyerName == "" {
		data.BuyerName = "there"
	}

	if event, err := s.store.GetEvent(ctx, txn.EventID); err == nil {
		data.EventName = event.Name
		data.EventVenue = event.Venue
	} else {
		s.logger.WithContext(ctx).WithError(err).WithField("event_id", txn.EventID).
			Warn("could not load event details for ticket email")
		data.EventName = "your event"
	}

	if err := s.mail.SendTicketEmail(txn.Email, data); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("transaction_id", txn.ID).
			Error("ticket email failed")
		return false
	}
	return true
}
