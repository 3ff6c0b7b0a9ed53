package repository

import (
	"context"

	"ordercore/internal/domain/model"
	repo "ordercore/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PromotionGormRepository struct {
	db *gorm.DB
}

func NewPromotionGormRepository(db *gorm.DB) *PromotionGormRepository {
	return &PromotionGormRepository{db: db}
}

// SELECT ... FOR UPDATE。codeは保存時に大文字化済みなので等値で引ける。
// ロックは外側のTxが終わるまで保持される
func (r *PromotionGormRepository) FindByCodeForUpdate(ctx context.Context, code string) (model.Promotion, error) {
	var p model.Promotion
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", model.NormalizePromotionCode(code)).
		Take(&p).Error
	if isNotFound(err) {
		return model.Promotion{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Promotion{}, err
	}
	return p, nil
}

// 上限に達していれば更新0件 → ErrNotFound
func (r *PromotionGormRepository) IncrementUsedCount(ctx context.Context, promotionID int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Promotion{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", promotionID).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *PromotionGormRepository) CountUsageByUser(ctx context.Context, promotionID int64, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PromotionUsage{}).
		Where("promotion_id = ? AND user_id = ?", promotionID, userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PromotionGormRepository) CreateUsage(ctx context.Context, usage model.PromotionUsage) error {
	return translateCreateErr(r.db.WithContext(ctx).Create(&usage).Error)
}
