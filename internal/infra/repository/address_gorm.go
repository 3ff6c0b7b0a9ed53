package repository

import (
	"context"

	"ordercore/internal/domain/model"
	repo "ordercore/internal/repository"

	"gorm.io/gorm"
)

type AddressGormRepository struct {
	db *gorm.DB
}

func NewAddressGormRepository(db *gorm.DB) *AddressGormRepository {
	return &AddressGormRepository{db: db}
}

// インライン住所は注文ごとに新しい行にする（既存住所は書き換えない）
func (r *AddressGormRepository) Create(ctx context.Context, address model.Address) (model.Address, error) {
	address.ID = 0
	if err := r.db.WithContext(ctx).Create(&address).Error; err != nil {
		return model.Address{}, err
	}
	return address, nil
}

// 所有者チェックは呼び出し側
func (r *AddressGormRepository) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	var a model.Address
	err := r.db.WithContext(ctx).Where("id = ?", addressID).Take(&a).Error
	if isNotFound(err) {
		return model.Address{}, repo.ErrNotFound
	}
	return a, err
}
