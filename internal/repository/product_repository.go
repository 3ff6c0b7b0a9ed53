package repository

import (
	"context"

	"ordercore/internal/domain/model"
)

// 商品はカタログ側の持ち物。注文処理では読み取りと行ロックだけ使う
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)

	//ID昇順で SELECT ... FOR UPDATE（デッドロック回避のため順序固定）
	FindForUpdate(ctx context.Context, ids []int64) ([]model.Product, error)
	FindVariantsForUpdate(ctx context.Context, ids []int64) ([]model.ProductVariant, error)
}

type MerchantRepository interface {
	FindByID(ctx context.Context, id int64) (model.Merchant, error)
}
