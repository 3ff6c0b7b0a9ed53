package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"ordercore/internal/domain/model"
	repo "ordercore/internal/repository"
)

// Beginの結果。ExistingOrderIDがあれば再送なので既存注文を返す
type idempotencyOutcome struct {
	RecordID        int64
	ExistingOrderID *int64
}

func (o idempotencyOutcome) Duplicate() bool {
	return o.ExistingOrderID != nil
}

// IdempotencyGuardは(user, key)で注文作成リクエストの重複を防ぐ。
// 注文作成と同じTxの中で使う
type IdempotencyGuard struct{}

func (IdempotencyGuard) Begin(ctx context.Context, r repo.IdempotencyRepository, userID int64, key string, requestHash string) (idempotencyOutcome, error) {
	rec, found, err := r.FindForUpdate(ctx, userID, key)
	if err != nil {
		return idempotencyOutcome{}, err
	}

	if found {
		//同じキーで中身が違う
		if rec.RequestHash != requestHash {
			return idempotencyOutcome{}, NewConflictError(CodeIdempotencyKeyReused, "idempotency key was already used with a different request")
		}
		// 未解決のまま残ったプレースホルダはそのまま使い直す
		return idempotencyOutcome{RecordID: rec.ID, ExistingOrderID: rec.OrderID}, nil
	}

	//まだ無いのでプレースホルダを作る（同時に入った場合は ErrDuplicate）
	rec = model.OrderIdempotencyRecord{
		UserID:         userID,
		IdempotencyKey: key,
		RequestHash:    requestHash,
	}
	if err := r.Create(ctx, &rec); err != nil {
		return idempotencyOutcome{}, err
	}
	return idempotencyOutcome{RecordID: rec.ID}, nil
}

// 注文と紐付ける
func (IdempotencyGuard) Complete(ctx context.Context, r repo.IdempotencyRepository, recordID int64, orderID int64) error {
	return r.AttachOrder(ctx, recordID, orderID)
}

// ハッシュ対象（冪等キーそのものは含めない）
type hashedRequest struct {
	Items         []OrderItemInput `json:"items"`
	AddressID     int64            `json:"address_id"`
	Address       *AddressInput    `json:"address"`
	PaymentMethod string           `json:"payment_method"`
	PromotionCode string           `json:"promotion_code"`
}

// requestHashは正規化済みの入力からsha256を作る
func requestHash(in PlaceOrderInput) (string, error) {
	b, err := json.Marshal(hashedRequest{
		Items:         in.Items,
		AddressID:     in.AddressID,
		Address:       in.Address,
		PaymentMethod: in.PaymentMethod,
		PromotionCode: in.PromotionCode,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
