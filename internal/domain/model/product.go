package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 商品はカタログ側の持ち物。ここでは読み取りと在庫の増減だけ行う
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	MerchantID  int64           `gorm:"not null;index" json:"merchant_id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock       int64           `gorm:"not null;check:stock >= 0" json:"stock"`
	IsActive    bool            `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

type ProductVariant struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64  `gorm:"not null;index" json:"product_id"`
	Name      string `gorm:"type:varchar(255);not null" json:"name"`
	//nilなら商品本体の価格を使う
	Price     *decimal.Decimal `gorm:"type:decimal(12,2)" json:"price,omitempty"`
	Stock     int64            `gorm:"not null;check:stock >= 0" json:"stock"`
	IsActive  bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type Merchant struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Latitude  float64   `gorm:"not null;default:0" json:"latitude"`
	Longitude float64   `gorm:"not null;default:0" json:"longitude"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
