package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/walletwise/walletwise/internal/domain/subscription"
	vo "github.com/walletwise/walletwise/internal/domain/subscription/valueobjects"
	"github.com/walletwise/walletwise/internal/infrastructure/persistence/mappers"
	"github.com/walletwise/walletwise/internal/infrastructure/persistence/models"
	"github.com/walletwise/walletwise/internal/shared/db"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

var activeStatuses = []string{vo.StatusTrial.String(), vo.StatusActive.String()}

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
	logger logger.Interface
}

func NewSubscriptionRepository(
	db *gorm.DB,
	logger logger.Interface,
) subscription.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mappers.NewSubscriptionMapper(),
		logger: logger,
	}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, subscriptionEntity *subscription.Subscription) error {
	model, err := r.mapper.ToModel(subscriptionEntity)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create subscription in database", "user_id", model.UserID, "error", err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	if err := subscriptionEntity.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set subscription ID", "error", err)
		return fmt.Errorf("failed to set subscription ID: %w", err)
	}

	r.logger.Debugw("subscription created", "id", model.ID, "sid", model.SID, "user_id", model.UserID, "plan", model.Plan, "status", model.Status)
	return nil
}

func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, subscriptionEntity *subscription.Subscription) error {
	model, err := r.mapper.ToModel(subscriptionEntity)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "id", subscriptionEntity.ID(), "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.SubscriptionModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"provider":           model.Provider,
			"provider_reference": model.ProviderReference,
			"plan":               model.Plan,
			"status":             model.Status,
			"started_at":         model.StartedAt,
			"ended_at":           model.EndedAt,
			"metadata":           model.Metadata,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update subscription", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update subscription %d: %w", model.ID, subscription.ErrSubscriptionNotFound)
	}

	r.logger.Debugw("subscription updated", "id", model.ID, "status", model.Status)
	return nil
}

func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	return r.getByID(ctx, db.GetTxFromContext(ctx, r.db), id)
}

// GetByIDForUpdate takes a row lock; outside a transaction the lock is
// released immediately.
func (r *SubscriptionRepositoryImpl) GetByIDForUpdate(ctx context.Context, id uint) (*subscription.Subscription, error) {
	tx := db.GetTxFromContext(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.getByID(ctx, tx, id)
}

func (r *SubscriptionRepositoryImpl) getByID(ctx context.Context, tx *gorm.DB, id uint) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map subscription model to entity", "id", id, "error", err)
		return nil, fmt.Errorf("failed to map subscription: %w", err)
	}

	return entity, nil
}

// FindActiveByUserID picks the most recently started record that grants
// entitlement at now. Ties on started_at fall back to the newest id.
func (r *SubscriptionRepositoryImpl) FindActiveByUserID(ctx context.Context, userID uint, now time.Time) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.
		Where("user_id = ? AND status IN ?", userID, activeStatuses).
		Where("ended_at IS NULL OR ended_at > ?", now.UTC()).
		Order("started_at DESC").
		Order("id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to find active subscription", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to find active subscription: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map subscription model to entity", "id", model.ID, "error", err)
		return nil, fmt.Errorf("failed to map subscription: %w", err)
	}

	return entity, nil
}

func (r *SubscriptionRepositoryImpl) FindExpiredTrials(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	var subscriptionModels []*models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.
		Where("status = ? AND ended_at IS NOT NULL AND ended_at < ?", vo.StatusTrial.String(), now.UTC()).
		Order("ended_at ASC").
		Order("id ASC").
		Find(&subscriptionModels).Error; err != nil {
		r.logger.Errorw("failed to find expired trials", "error", err)
		return nil, fmt.Errorf("failed to find expired trials: %w", err)
	}

	entities, err := r.mapper.ToEntities(subscriptionModels)
	if err != nil {
		r.logger.Errorw("failed to map subscription models to entities", "error", err)
		return nil, fmt.Errorf("failed to map subscriptions: %w", err)
	}

	return entities, nil
}

func (r *SubscriptionRepositoryImpl) ListByUserID(ctx context.Context, userID uint) ([]*subscription.Subscription, error) {
	var subscriptionModels []*models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("user_id = ?", userID).
		Order("started_at DESC").
		Order("id DESC").
		Find(&subscriptionModels).Error; err != nil {
		r.logger.Errorw("failed to list subscriptions by user ID", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	entities, err := r.mapper.ToEntities(subscriptionModels)
	if err != nil {
		r.logger.Errorw("failed to map subscription models to entities", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to map subscriptions: %w", err)
	}

	return entities, nil
}

// HasEverHadTrial counts trials in any status. Only trials are ever
// expired, and a cancelled trial is a cancelled premium record without a
// payment provider.
func (r *SubscriptionRepositoryImpl) HasEverHadTrial(ctx context.Context, userID uint) (bool, error) {
	var count int64

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.SubscriptionModel{}).
		Where("user_id = ?", userID).
		Where("status IN ? OR (status = ? AND plan = ? AND provider IS NULL)",
			[]string{vo.StatusTrial.String(), vo.StatusExpired.String()},
			vo.StatusCancelled.String(), vo.PlanPremium.String()).
		Count(&count).Error; err != nil {
		r.logger.Errorw("failed to check trial history", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to check trial history: %w", err)
	}

	return count > 0, nil
}

func (r *SubscriptionRepositoryImpl) HasEverHadPremium(ctx context.Context, userID uint) (bool, error) {
	var count int64

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.SubscriptionModel{}).
		Where("user_id = ? AND plan = ?", userID, vo.PlanPremium.String()).
		Count(&count).Error; err != nil {
		r.logger.Errorw("failed to check premium history", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to check premium history: %w", err)
	}

	return count > 0, nil
}
