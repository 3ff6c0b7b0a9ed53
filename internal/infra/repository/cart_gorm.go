package repository

import (
	"context"

	"ordercore/internal/domain/model"
	repo "ordercore/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartsとCartItemsの両方をこれで満たす
type CartGormRepository struct {
	db *gorm.DB
}

func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

func (r *CartGormRepository) FindActiveByUserIDForUpdate(ctx context.Context, userID int64) (model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(&model.Cart{UserID: userID, Status: model.CartStatusActive}).
		Order("id desc").
		Take(&cart).Error
	if isNotFound(err) {
		return model.Cart{}, repo.ErrNotFound
	}
	return cart, err
}

// 明細だけ消してカートはACTIVEのまま残す
func (r *CartGormRepository) Clear(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).Delete(&model.CartItem{}, "cart_id = ?", cartID).Error
}

func (r *CartGormRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	items := []model.CartItem{}
	err := r.db.WithContext(ctx).Where(&model.CartItem{CartID: cartID}).Order("id").Find(&items).Error
	return items, err
}
