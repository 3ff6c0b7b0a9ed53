package model

import "time"

// 決済・注文の状態遷移など。
type AuditAction string

const (
	//決済が完了した。
	AuditActionPaymentCompleted AuditAction = "PAYMENT_COMPLETED"
	//決済期限切れ。
	AuditActionPaymentExpired AuditAction = "PAYMENT_EXPIRED"
	//注文ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	//在庫を戻した。
	AuditActionRestoreStock AuditAction = "RESTORE_STOCK"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourcePayment AuditResourceType = "payment"
	AuditResourceOrder   AuditResourceType = "order"
	AuditResourceProduct AuditResourceType = "product"
)

// 監査ログ。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作のきっかけになったユーザー（照会した注文者など）。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
