package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PromotionType string

const (
	PromotionTypePercentage  PromotionType = "PERCENTAGE"
	PromotionTypeFixedAmount PromotionType = "FIXED_AMOUNT"
)

// プロモーションコード。codeは大文字に揃えて保存するのでユニークも大文字小文字を区別しない
type Promotion struct {
	ID    int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Code  string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	Type  PromotionType   `gorm:"type:varchar(20);not null" json:"type"`
	Value decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"value"`

	MinOrderAmount *decimal.Decimal `gorm:"type:decimal(12,2)" json:"min_order_amount,omitempty"`
	MaxDiscount    *decimal.Decimal `gorm:"type:decimal(12,2)" json:"max_discount,omitempty"`

	//nilなら無制限。used_count <= usage_limit
	UsageLimit   *int64 `json:"usage_limit,omitempty"`
	UsedCount    int64  `gorm:"not null;default:0" json:"used_count"`
	PerUserLimit *int64 `json:"per_user_limit,omitempty"`

	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// コードの表記ゆれを保存前に揃える
func NormalizePromotionCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (p *Promotion) BeforeSave(tx *gorm.DB) error {
	p.Code = NormalizePromotionCode(p.Code)
	return nil
}

// 利用可能期間内か（両端を含む）
func (p Promotion) InWindow(now time.Time) bool {
	return !now.Before(p.StartDate) && !now.After(p.EndDate)
}

// 1注文につき1回。注文と同じTxで作る
type PromotionUsage struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	PromotionID    int64           `gorm:"not null;uniqueIndex:uq_promotion_usage_order;index:idx_promotion_usage_user" json:"promotion_id"`
	UserID         int64           `gorm:"not null;index:idx_promotion_usage_user" json:"user_id"`
	OrderID        int64           `gorm:"not null;uniqueIndex:uq_promotion_usage_order" json:"order_id"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	UsedAt         time.Time       `gorm:"not null" json:"used_at"`
}
