package repository

import (
	"context"
	"time"

	"ordercore/internal/domain/model"
)

// ゲートウェイから受け取った完了情報
type PaymentCompletion struct {
	TransactionID string
	PaidAt        time.Time
	RawResponse   string
	VerifiedAt    time.Time
}

type PaymentRepository interface {
	//content_hashが重複したら ErrDuplicate
	Create(ctx context.Context, p *model.Payment) error
	FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error)
	FindByContentHash(ctx context.Context, contentHash string) (model.Payment, error)
	FindByContentHashForUpdate(ctx context.Context, contentHash string) (model.Payment, error)

	//PENDINGのときだけ更新する。PENDINGでなければ ErrNotFound
	MarkCompleted(ctx context.Context, paymentID int64, c PaymentCompletion) error
	MarkExpired(ctx context.Context, paymentID int64, at time.Time) error

	TouchVerified(ctx context.Context, paymentID int64, at time.Time, rawResponse string) error
}
