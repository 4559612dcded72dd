package services

import (
	"context"
	"fmt"
	"testing"

	"tickethub/internal/models/store_models"
	"tickethub/pkg/utils"
)

func TestAdjustForPurchaseUpdatesCounters(t *testing.T) {
	store := &mockStore{
		getTicketTypeFn: func(ctx context.Context, id int64) (*store_models.TicketType, error) {
			return &store_models.TicketType{ID: id, AvailableQuantity: 48, SoldQuantity: 2}, nil
		},
	}
	svc := NewInventoryService(testLogger(), store)

	svc.AdjustForPurchase(context.Background(), []store_models.CartItem{
		{TicketTypeID: 10, Quantity: 2, PricePerUnit: 50},
	})

	if len(store.putCalls) != 1 {
		t.Fatalf("expected one write, got %d", len(store.putCalls))
	}
	put := store.putCalls[0]
	if put.ticketType.SoldQuantity != 4 {
		t.Fatalf("expected sold 4, got %d", put.ticketType.SoldQuantity)
	}
	if put.ticketType.AvailableQuantity != 46 {
		t.Fatalf("expected available 46, got %d", put.ticketType.AvailableQuantity)
	}
	if put.expectedSold != 2 {
		t.Fatalf("expected the pre-read sold count 2, got %d", put.expectedSold)
	}
}

func TestAdjustForPurchaseClampsAvailableAtZero(t *testing.T) {
	store := &mockStore{
		getTicketTypeFn: func(ctx context.Context, id int64) (*store_models.TicketType, error) {
			return &store_models.TicketType{ID: id, AvailableQuantity: 1, SoldQuantity: 99}, nil
		},
	}
	svc := NewInventoryService(testLogger(), store)

	svc.AdjustForPurchase(context.Background(), []store_models.CartItem{
		{TicketTypeID: 10, Quantity: 3},
	})

	if len(store.putCalls) != 1 {
		t.Fatalf("expected one write, got %d", len(store.putCalls))
	}
	if got := store.putCalls[0].ticketType.AvailableQuantity; got != 0 {
		t.Fatalf("expected available clamped to 0, got %d", got)
	}
	if got := store.putCalls[0].ticketType.SoldQuantity; got != 102 {
		t.Fatalf("expected sold 102, got %d", got)
	}
}

func TestAdjustForPurchaseOneLineFailingDoesNotStopTheRest(t *testing.T) {
	store := &mockStore{
		getTicketTypeFn: func(ctx context.Context, id int64) (*store_models.TicketType, error) {
			if id == 10 {
				return nil, utils.ErrTicketTypeNotFound
			}
			return &store_models.TicketType{ID: id, AvailableQuantity: 20, SoldQuantity: 0}, nil
		},
	}
	svc := NewInventoryService(testLogger(), store)

	svc.AdjustForPurchase(context.Background(), []store_models.CartItem{
		{TicketTypeID: 10, Quantity: 1},
		{TicketTypeID: 11, Quantity: 4},
	})

	if len(store.putCalls) != 1 {
		t.Fatalf("expected the surviving line to be written, got %d writes", len(store.putCalls))
	}
	if store.putCalls[0].ticketType.ID != 11 {
		t.Fatalf("expected ticket type 11 written, got %d", store.putCalls[0].ticketType.ID)
	}
}

func TestAdjustForPurchaseRetriesOnConflict(t *testing.T) {
	sold := 5
	store := &mockStore{}
	store.getTicketTypeFn = func(ctx context.Context, id int64) (*store_models.TicketType, error) {
		return &store_models.TicketType{ID: id, AvailableQuantity: 10, SoldQuantity: sold}, nil
	}
	writes := 0
	store.putTicketTypeFn = func(ctx context.Context, tt *store_models.TicketType, expectedSold int) error {
		writes++
		if writes == 1 {
			// A concurrent purchase advanced the counter between our read
			// and write.
			sold = 6
			return fmt.Errorf("%w: soldQuantity moved", utils.ErrStoreConflict)
		}
		return nil
	}
	svc := NewInventoryService(testLogger(), store)

	svc.AdjustForPurchase(context.Background(), []store_models.CartItem{
		{TicketTypeID: 10, Quantity: 2},
	})

	if writes != 2 {
		t.Fatalf("expected a retry after the conflict, got %d writes", writes)
	}
	last := store.putCalls[len(store.putCalls)-1]
	if last.expectedSold != 6 {
		t.Fatalf("retry must re-read the counter; expectedSold %d", last.expectedSold)
	}
	if last.ticketType.SoldQuantity != 8 {
		t.Fatalf("expected sold 8 after re-read, got %d", last.ticketType.SoldQuantity)
	}
}

func TestAdjustForPurchaseGivesUpAfterRepeatedConflicts(t *testing.T) {
	store := &mockStore{
		putTicketTypeFn: func(ctx context.Context, tt *store_models.TicketType, expectedSold int) error {
			return fmt.Errorf("%w: contended", utils.ErrStoreConflict)
		},
	}
	svc := NewInventoryService(testLogger(), store)

	svc.AdjustForPurchase(context.Background(), []store_models.CartItem{
		{TicketTypeID: 10, Quantity: 1},
	})

	if len(store.putCalls) != inventoryConflictRetries {
		t.Fatalf("expected %d attempts, got %d", inventoryConflictRetries, len(store.putCalls))
	}
}
