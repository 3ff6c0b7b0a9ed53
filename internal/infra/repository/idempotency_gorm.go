package repository

import (
	"context"

	"ordercore/internal/domain/model"
	repo "ordercore/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IdempotencyGormRepository struct {
	db *gorm.DB
}

func NewIdempotencyGormRepository(db *gorm.DB) *IdempotencyGormRepository {
	return &IdempotencyGormRepository{db: db}
}

func (r *IdempotencyGormRepository) FindForUpdate(ctx context.Context, userID int64, key string) (model.OrderIdempotencyRecord, bool, error) {
	var rec model.OrderIdempotencyRecord
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&rec).Error

	if isNotFound(err) {
		return model.OrderIdempotencyRecord{}, false, nil
	}
	if err != nil {
		return model.OrderIdempotencyRecord{}, false, err
	}
	return rec, true, nil
}

// 同時に同じキーが来た場合、後からの方はユニーク制約で ErrDuplicate
func (r *IdempotencyGormRepository) Create(ctx context.Context, rec *model.OrderIdempotencyRecord) error {
	return translateCreateErr(r.db.WithContext(ctx).Create(rec).Error)
}

func (r *IdempotencyGormRepository) AttachOrder(ctx context.Context, recordID int64, orderID int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.OrderIdempotencyRecord{}).
		Where("id = ?", recordID).
		Update("order_id", orderID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
