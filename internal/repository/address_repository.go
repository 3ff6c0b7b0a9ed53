package repository

import (
	"context"

	"ordercore/internal/domain/model"
)

// 配送先住所。CRUDは住所サービス側、注文では取得と注文時の新規作成だけ
type AddressRepository interface {
	//作成後はaddress（IDなどが埋まったもの）を返す
	Create(ctx context.Context, address model.Address) (model.Address, error)

	//住所IDから住所を1件取得
	FindByID(ctx context.Context, addressID int64) (model.Address, error)
}
