package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tickethub/internal/models/db_models"
)

type ArtifactGuardRepositoryInterface interface {
	// Claim writes the guard row before any artifact work starts. claimed is
	// false when another caller (or a previous session) already holds the
	// key; the existing row is returned so the caller can read its state.
	Claim(ctx context.Context, guardKey, sessionKey string) (*db_models.ArtifactGuard, bool, error)
	Complete(ctx context.Context, guardKey, qrData string, emailSent bool) error
	Fail(ctx context.Context, guardKey string, cause error) error
	GetCompleted(ctx context.Context, guardKey string) (*db_models.ArtifactGuard, error)
}

type ArtifactGuardRepository struct {
	db *gorm.DB
}

func NewArtifactGuardRepository(db *gorm.DB) ArtifactGuardRepositoryInterface {
	return &ArtifactGuardRepository{db: db}
}

func (r *ArtifactGuardRepository) Claim(ctx context.Context, guardKey, sessionKey string) (*db_models.ArtifactGuard, bool, error) {
	guard := &db_models.ArtifactGuard{
		GuardKey:   guardKey,
		SessionKey: sessionKey,
		State:      db_models.GuardStateInFlight,
	}

	err := r.db.WithContext(ctx).Create(guard).Error
	if err == nil {
		return guard, true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, err
	}

	var existing db_models.ArtifactGuard
	if err := r.db.WithContext(ctx).
		First(&existing, "guard_key = ?", guardKey).Error; err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

func (r *ArtifactGuardRepository) Complete(ctx context.Context, guardKey, qrData string, emailSent bool) error {
	return r.db.WithContext(ctx).
		Model(&db_models.ArtifactGuard{}).
		Where("guard_key = ?", guardKey).
		Updates(map[string]interface{}{
			"state":      db_models.GuardStateCompleted,
			"qr_data":    qrData,
			"email_sent": emailSent,
			"last_error": "",
		}).Error
}

func (r *ArtifactGuardRepository) Fail(ctx context.Context, guardKey string, cause error) error {
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	return r.db.WithContext(ctx).
		Model(&db_models.ArtifactGuard{}).
		Where("guard_key = ?", guardKey).
		Updates(map[string]interface{}{
			"state":      db_models.GuardStateFailed,
			"last_error": message,
		}).Error
}

func (r *ArtifactGuardRepository) GetCompleted(ctx context.Context, guardKey string) (*db_models.ArtifactGuard, error) {
	var guard db_models.ArtifactGuard
	err := r.db.WithContext(ctx).
		First(&guard, "guard_key = ? AND state = ?", guardKey, db_models.GuardStateCompleted).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &guard, nil
}
