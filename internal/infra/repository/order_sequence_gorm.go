package repository

import (
	"context"

	"ordercore/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderSequenceGormRepository struct {
	db *gorm.DB
}

func NewOrderSequenceGormRepository(db *gorm.DB) *OrderSequenceGormRepository {
	return &OrderSequenceGormRepository{db: db}
}

// 同じ日の採番はこの行ロックで直列になる。ロックはTx終了まで保持
func (r *OrderSequenceGormRepository) LockDay(ctx context.Context, day string) (int64, error) {
	db := r.db.WithContext(ctx)

	//無ければ作る。同時に作ろうとした側は先のTxの確定を待ってから何もしない
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.OrderNumberSequence{Day: day}).Error; err != nil {
		return 0, err
	}

	var s model.OrderNumberSequence
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("day = ?", day).
		Take(&s).Error
	if err != nil {
		return 0, err
	}
	return s.LastSeq, nil
}

func (r *OrderSequenceGormRepository) SetLast(ctx context.Context, day string, seq int64) error {
	return r.db.WithContext(ctx).
		Model(&model.OrderNumberSequence{}).
		Where("day = ?", day).
		Update("last_seq", seq).Error
}
