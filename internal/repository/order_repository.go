package repository

import (
	"context"

	"ordercore/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order *model.Order) error

	//from -> to の条件付き更新。fromが一致しなければ ErrNotFound
	UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) error

	//prefix+数字だけの注文番号のうち最大のもの。数字以外を含む番号は無視する
	LastOrderNumberWithPrefix(ctx context.Context, prefix string) (string, bool, error)
}

// 日ごとの採番カウンタ
type OrderSequenceRepository interface {
	//その日の行を（無ければ作って）行ロックし、最後の連番を返す
	LockDay(ctx context.Context, day string) (int64, error)
	SetLast(ctx context.Context, day string, seq int64) error
}

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}
