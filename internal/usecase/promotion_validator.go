package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ordercore/internal/domain/model"
	"ordercore/internal/domain/pricing"
	repo "ordercore/internal/repository"

	"github.com/shopspring/decimal"
)

// 検証済み・カウント済みのプロモーション
type redemption struct {
	Promotion model.Promotion
	Discount  decimal.Decimal
}

// PromotionValidatorはプロモーション行をロックしたまま検証とused_countの加算を行う。
// 呼び出し側のTxが終わるまでロックは保持される
type PromotionValidator struct {
	now func() time.Time
}

func NewPromotionValidator(now func() time.Time) *PromotionValidator {
	if now == nil {
		now = time.Now
	}
	return &PromotionValidator{now: now}
}

func (v *PromotionValidator) ValidateAndReserve(ctx context.Context, r repo.PromotionRepository, code string, userID int64, subtotal decimal.Decimal) (redemption, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	p, err := r.FindByCodeForUpdate(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return redemption{}, NewHTTPError(http.StatusNotFound, CodePromotionNotFound, "promotion code not found")
	}
	if err != nil {
		return redemption{}, err
	}

	if !p.IsActive {
		return redemption{}, NewHTTPError(http.StatusUnprocessableEntity, CodePromotionInactive, "promotion is not active")
	}
	if !p.InWindow(v.now()) {
		return redemption{}, NewHTTPError(http.StatusUnprocessableEntity, CodePromotionOutsideWindow, "promotion is expired or not yet started")
	}
	if p.MinOrderAmount != nil && subtotal.LessThan(*p.MinOrderAmount) {
		return redemption{}, NewHTTPError(http.StatusUnprocessableEntity, CodePromotionBelowMinimum,
			"order subtotal is below the minimum of "+p.MinOrderAmount.StringFixed(2))
	}
	if p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit {
		return redemption{}, NewConflictError(CodePromotionUsageLimit, "promotion usage limit reached")
	}
	if p.PerUserLimit != nil {
		used, err := r.CountUsageByUser(ctx, p.ID, userID)
		if err != nil {
			return redemption{}, err
		}
		if used >= *p.PerUserLimit {
			return redemption{}, NewConflictError(CodePromotionPerUserLimit, "promotion already used the maximum number of times")
		}
	}

	discount := pricing.Discount(p.Type, p.Value, subtotal, p.MaxDiscount)

	//条件付き加算。ロック下なので失敗するのは上限到達のときだけ
	if err := r.IncrementUsedCount(ctx, p.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return redemption{}, NewConflictError(CodePromotionUsageLimit, "promotion usage limit reached")
		}
		return redemption{}, err
	}
	p.UsedCount++

	return redemption{Promotion: p, Discount: discount}, nil
}

// 注文IDが決まってから利用履歴を残す（同じTx内）
func (v *PromotionValidator) Record(ctx context.Context, r repo.PromotionRepository, red redemption, userID int64, orderID int64) error {
	return r.CreateUsage(ctx, model.PromotionUsage{
		PromotionID:    red.Promotion.ID,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: red.Discount,
		UsedAt:         v.now(),
	})
}
