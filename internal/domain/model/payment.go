package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusExpired   PaymentStatus = "EXPIRED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// PENDINGからのみ遷移できる
func (s PaymentStatus) CanTransitionTo(to PaymentStatus) bool {
	if s != PaymentStatusPending {
		return false
	}
	switch to {
	case PaymentStatusCompleted, PaymentStatusExpired, PaymentStatusFailed:
		return true
	}
	return false
}

// 注文と1対1
type Payment struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;uniqueIndex" json:"order_id"`

	//QRペイロードから作る外部照会キー
	ContentHash string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"content_hash"`
	QRPayload   string          `gorm:"type:text;not null" json:"qr_payload"`
	Method      string          `gorm:"type:varchar(32);not null" json:"method"`
	Status      PaymentStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency    string          `gorm:"type:varchar(8);not null" json:"currency"`

	ExpiresAt      time.Time  `gorm:"not null;index" json:"expires_at"`
	LastVerifiedAt *time.Time `json:"last_verified_at,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`

	//ゲートウェイの取引ID・生レスポンス（監査用）
	GatewayTransactionID string `gorm:"type:varchar(128)" json:"gateway_transaction_id,omitempty"`
	RawGatewayResponse   string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
