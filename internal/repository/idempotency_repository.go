package repository

import (
	"context"

	"ordercore/internal/domain/model"
)

type IdempotencyRepository interface {
	//(user_id, key)で検索して行ロック。無ければ found=false
	FindForUpdate(ctx context.Context, userID int64, key string) (model.OrderIdempotencyRecord, bool, error)

	//同じ(user_id, key)が既にあれば ErrDuplicate
	Create(ctx context.Context, rec *model.OrderIdempotencyRecord) error

	AttachOrder(ctx context.Context, recordID int64, orderID int64) error
}
