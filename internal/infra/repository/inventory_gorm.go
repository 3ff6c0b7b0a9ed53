package repository

import (
	"context"

	"ordercore/internal/domain/model"
	repo "ordercore/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫が足りるときだけ減らす
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	return decreaseIfEnough(ctx, r.db, &model.Product{}, productID, qty)
}

func (r *InventoryGormRepository) DecreaseVariantStockIfEnough(ctx context.Context, variantID int64, qty int64) (bool, error) {
	return decreaseIfEnough(ctx, r.db, &model.ProductVariant{}, variantID, qty)
}

// 在庫戻し
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	return increase(ctx, r.db, &model.Product{}, productID, qty)
}

func (r *InventoryGormRepository) IncreaseVariantStock(ctx context.Context, variantID int64, qty int64) error {
	return increase(ctx, r.db, &model.ProductVariant{}, variantID, qty)
}

func decreaseIfEnough(ctx context.Context, db *gorm.DB, m interface{}, id int64, qty int64) (bool, error) {
	res := db.WithContext(ctx).
		Model(m).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func increase(ctx context.Context, db *gorm.DB, m interface{}, id int64, qty int64) error {
	res := db.WithContext(ctx).
		Model(m).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
