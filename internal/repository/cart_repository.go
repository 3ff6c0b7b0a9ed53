package repository

import (
	"context"

	"ordercore/internal/domain/model"
)

// カートの編集はカートサービス側。注文では読み取りとチェックアウト後の明細削除だけ
type CartRepository interface {
	//ACTIVEカートを行ロックして取る。同じカートの同時チェックアウトはここで直列になる
	FindActiveByUserIDForUpdate(ctx context.Context, userID int64) (model.Cart, error)
	Clear(ctx context.Context, cartID int64) error
}

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
}
