package repository

import (
	"context"

	"ordercore/internal/domain/model"
)

// 決済・注文の状態遷移と在庫戻しの記録
type AuditLogRepository interface {
	Create(ctx context.Context, entry model.AuditLog) error
}
