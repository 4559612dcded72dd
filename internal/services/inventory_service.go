package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"tickethub/internal/models/store_models"
	"tickethub/internal/repositories"
	"tickethub/pkg/utils"
)

const inventoryConflictRetries = 3

// InventoryServiceInterface applies sold/available deltas for a purchased
// cart. Adjustment is best-effort per line item: the transaction already
// exists and the sale is final, so one line failing must not stop the rest.
type InventoryServiceInterface interface {
	AdjustForPurchase(ctx context.Context, cart []store_models.CartItem)
}

type InventoryService struct {
	logger *logrus.Logger
	store  repositories.StoreRepositoryInterface
}

func NewInventoryService(logger *logrus.Logger, store repositories.StoreRepositoryInterface) InventoryServiceInterface {
	return &InventoryService{logger: logger, store: store}
}

func (s *InventoryService) AdjustForPurchase(ctx context.Context, cart []store_models.CartItem) {
	for _, line := range cart {
		if err := s.adjustLine(ctx, line); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(logrus.Fields{
				"ticket_type_id": line.TicketTypeID,
				"quantity":       line.Quantity,
			}).Error("inventory adjustment failed for line item")
		}
	}
}

// adjustLine does a read-modify-write on the ticket type's counters. The PUT
// carries the sold count we read; a store that supports conditional writes
// answers 409 on a concurrent update and we re-read and retry a few times.
func (s *InventoryService) adjustLine(ctx context.Context, line store_models.CartItem) error {
	var lastErr error
	for attempt := 0; attempt < inventoryConflictRetries; attempt++ {
		ticketType, err := s.store.GetTicketType(ctx, line.TicketTypeID)
		if err != nil {
			return err
		}

		expectedSold := ticketType.SoldQuantity
		ticketType.SoldQuantity += line.Quantity
		ticketType.AvailableQuantity -= line.Quantity
		if ticketType.AvailableQuantity < 0 {
			s.logger.WithContext(ctx).WithFields(logrus.Fields{
				"ticket_type_id": ticketType.ID,
				"quantity":       line.Quantity,
			}).Warn("inventory adjustment would go negative; clamping available to zero")
			ticketType.AvailableQuantity = 0
		}

		lastErr = s.store.PutTicketType(ctx, ticketType, expectedSold)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, utils.ErrStoreConflict) {
			return lastErr
		}
	}
	return lastErr
}
