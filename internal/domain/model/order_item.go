package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文時点の商品名・価格を保存する（後から商品価格が変わっても変えない）
type OrderItem struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64           `gorm:"not null;index" json:"order_id"`
	ProductID           int64           `gorm:"not null;index" json:"product_id"`
	VariantID           *int64          `gorm:"index" json:"variant_id,omitempty"`
	ProductNameSnapshot string          `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	VariantNameSnapshot string          `gorm:"type:varchar(255)" json:"variant_name_snapshot,omitempty"`
	UnitPriceSnapshot   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price_snapshot"`
	Quantity            int64           `gorm:"not null" json:"quantity"`
	LineSubtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_subtotal"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
