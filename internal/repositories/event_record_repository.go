package repositories

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"tickethub/internal/models/db_models"
)

type EventRecordRepositoryInterface interface {
	// Claim records the delivery before processing starts. duplicate is true
	// when a row for this provider event id already exists; the existing row
	// is returned so the caller can decide whether to reprocess.
	Claim(ctx context.Context, providerEventID, eventType string, payload []byte) (*db_models.ProviderEventRecord, bool, error)
	MarkProcessed(ctx context.Context, providerEventID string) error
	MarkIgnored(ctx context.Context, providerEventID string) error
	MarkFailed(ctx context.Context, providerEventID string, cause error) error
}

type EventRecordRepository struct {
	db *gorm.DB
}

func NewEventRecordRepository(db *gorm.DB) EventRecordRepositoryInterface {
	return &EventRecordRepository{db: db}
}

func (r *EventRecordRepository) Claim(ctx context.Context, providerEventID, eventType string, payload []byte) (*db_models.ProviderEventRecord, bool, error) {
	record := &db_models.ProviderEventRecord{
		ProviderEventID: providerEventID,
		EventType:       eventType,
		Status:          db_models.EventStatusReceived,
		Attempts:        1,
		RawPayload:      datatypes.JSON(payload),
	}

	err := r.db.WithContext(ctx).Create(record).Error
	if err == nil {
		return record, false, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, err
	}

	var existing db_models.ProviderEventRecord
	if err := r.db.WithContext(ctx).
		First(&existing, "provider_event_id = ?", providerEventID).Error; err != nil {
		return nil, false, err
	}

	// Track redelivery attempts on the existing row.
	_ = r.db.WithContext(ctx).Model(&existing).
		Update("attempts", gorm.Expr("attempts + 1")).Error

	return &existing, true, nil
}

func (r *EventRecordRepository) MarkProcessed(ctx context.Context, providerEventID string) error {
	return r.setStatus(ctx, providerEventID, db_models.EventStatusProcessed, "")
}

func (r *EventRecordRepository) MarkIgnored(ctx context.Context, providerEventID string) error {
	return r.setStatus(ctx, providerEventID, db_models.EventStatusIgnored, "")
}

func (r *EventRecordRepository) MarkFailed(ctx context.Context, providerEventID string, cause error) error {
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	return r.setStatus(ctx, providerEventID, db_models.EventStatusFailed, message)
}

func (r *EventRecordRepository) setStatus(ctx context.Context, providerEventID string, status db_models.EventRecordStatus, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&db_models.ProviderEventRecord{}).
		Where("provider_event_id = ?", providerEventID).
		Updates(map[string]interface{}{
			"status":     status,
			"last_error": lastError,
		}).Error
}
