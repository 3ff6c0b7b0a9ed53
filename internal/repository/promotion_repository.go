package repository

import (
	"context"

	"ordercore/internal/domain/model"
)

type PromotionRepository interface {
	//大文字小文字を区別せずに検索し、Tx終了まで行ロックを保持する。
	//保存されるcodeは常に大文字
	FindByCodeForUpdate(ctx context.Context, code string) (model.Promotion, error)
	IncrementUsedCount(ctx context.Context, promotionID int64) error

	CountUsageByUser(ctx context.Context, promotionID int64, userID int64) (int64, error)
	CreateUsage(ctx context.Context, usage model.PromotionUsage) error
}
