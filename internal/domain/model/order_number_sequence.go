package model

import "time"

// 日ごとの注文番号カウンタ。採番はこの行を行ロックして直列にする
type OrderNumberSequence struct {
	Day       string    `gorm:"primaryKey;type:varchar(8)" json:"day"` // YYYYMMDD
	LastSeq   int64     `gorm:"not null;default:0" json:"last_seq"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
