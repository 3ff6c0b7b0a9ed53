package model

import "time"

// (user_id, idempotency_key)でユニーク。
// 注文がコミットされるまでOrderIDはnil
type OrderIdempotencyRecord struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64     `gorm:"not null;uniqueIndex:uq_idempotency_user_key" json:"user_id"`
	IdempotencyKey string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_idempotency_user_key" json:"idempotency_key"`
	RequestHash    string    `gorm:"type:varchar(64);not null" json:"request_hash"`
	OrderID        *int64    `gorm:"index" json:"order_id,omitempty"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (OrderIdempotencyRecord) TableName() string {
	return "order_idempotency_records"
}
