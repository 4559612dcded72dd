package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tickethub/internal/models/store_models"
	"tickethub/internal/repositories"
)

// ProfileServiceInterface keeps best-effort buyer records in the store.
// Callers on the payment-critical path must never block or fail on it.
type ProfileServiceInterface interface {
	UpsertBuyer(ctx context.Context, buyer store_models.UserProfile) error
}

type ProfileService struct {
	logger *logrus.Logger
	store  repositories.StoreRepositoryInterface
}

func NewProfileService(logger *logrus.Logger, store repositories.StoreRepositoryInterface) ProfileServiceInterface {
	return &ProfileService{logger: logger, store: store}
}

func (s *ProfileService) UpsertBuyer(ctx context.Context, buyer store_models.UserProfile) error {
	existing, err := s.store.GetUserProfileByEmail(ctx, buyer.TenantID, buyer.Email)
	if err != nil {
		return err
	}

	if existing == nil {
		buyer.UserID = fmt.Sprintf("guest-%s", uuid.New().String())
		buyer.Role = "customer"
		buyer.Status = "guest"
		if _, err := s.store.CreateUserProfile(ctx, &buyer); err != nil {
			return err
		}
		return nil
	}

	changed := false
	if buyer.FirstName != "" && existing.FirstName != buyer.FirstName {
		existing.FirstName = buyer.FirstName
		changed = true
	}
	if buyer.LastName != "" && existing.LastName != buyer.LastName {
		existing.LastName = buyer.LastName
		changed = true
	}
	if buyer.Phone != "" && existing.Phone != buyer.Phone {
		existing.Phone = buyer.Phone
		changed = true
	}
	if !changed {
		return nil
	}
	return s.store.UpdateUserProfile(ctx, existing)
}
