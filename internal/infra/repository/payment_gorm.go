package repository

import (
	"context"
	"time"

	"ordercore/internal/domain/model"
	repo "ordercore/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

func (r *PaymentGormRepository) Create(ctx context.Context, p *model.Payment) error {
	return translateCreateErr(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PaymentGormRepository) FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error) {
	return r.first(r.db.WithContext(ctx).Where("order_id = ?", orderID))
}

func (r *PaymentGormRepository) FindByContentHash(ctx context.Context, contentHash string) (model.Payment, error) {
	return r.first(r.db.WithContext(ctx).Where("content_hash = ?", contentHash))
}

func (r *PaymentGormRepository) FindByContentHashForUpdate(ctx context.Context, contentHash string) (model.Payment, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("content_hash = ?", contentHash))
}

func (r *PaymentGormRepository) first(q *gorm.DB) (model.Payment, error) {
	var p model.Payment
	err := q.First(&p).Error
	if isNotFound(err) {
		return model.Payment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

// PENDINGのときだけCOMPLETEDにする（二重完了しない）
func (r *PaymentGormRepository) MarkCompleted(ctx context.Context, paymentID int64, c repo.PaymentCompletion) error {
	return r.updatePending(ctx, paymentID, map[string]interface{}{
		"status":                 model.PaymentStatusCompleted,
		"gateway_transaction_id": c.TransactionID,
		"paid_at":                c.PaidAt,
		"raw_gateway_response":   c.RawResponse,
		"last_verified_at":       c.VerifiedAt,
	})
}

func (r *PaymentGormRepository) MarkExpired(ctx context.Context, paymentID int64, at time.Time) error {
	return r.updatePending(ctx, paymentID, map[string]interface{}{
		"status":           model.PaymentStatusExpired,
		"last_verified_at": at,
	})
}

func (r *PaymentGormRepository) TouchVerified(ctx context.Context, paymentID int64, at time.Time, rawResponse string) error {
	return r.updatePending(ctx, paymentID, map[string]interface{}{
		"last_verified_at":     at,
		"raw_gateway_response": rawResponse,
	})
}

func (r *PaymentGormRepository) updatePending(ctx context.Context, paymentID int64, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ? AND status = ?", paymentID, model.PaymentStatusPending).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
