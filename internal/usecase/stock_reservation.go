package usecase

import (
	"context"
	"fmt"

	"ordercore/internal/domain/model"
	repo "ordercore/internal/repository"

	"github.com/shopspring/decimal"
)

// 1明細あたりの数量上限
const MaxLineQuantity int64 = 10000

// 行ロック済みの商品（とバリエーション）と数量
type resolvedLine struct {
	Product  model.Product
	Variant  *model.ProductVariant
	Quantity int64
}

// 確定時の現在価格。バリエーションに価格があればそちら
func (l resolvedLine) UnitPrice() decimal.Decimal {
	if l.Variant != nil && l.Variant.Price != nil {
		return *l.Variant.Price
	}
	return l.Product.Price
}

func (l resolvedLine) available() int64 {
	if l.Variant != nil {
		return l.Variant.Stock
	}
	return l.Product.Stock
}

func (l resolvedLine) displayName() string {
	if l.Variant != nil {
		return l.Product.Name + " (" + l.Variant.Name + ")"
	}
	return l.Product.Name
}

func (l resolvedLine) insufficient(available int64) error {
	e := &InsufficientStockError{
		ProductID: l.Product.ID,
		Name:      l.displayName(),
		Requested: l.Quantity,
		Available: available,
	}
	if l.Variant != nil {
		id := l.Variant.ID
		e.VariantID = &id
	}
	return e
}

// StockReservationは全明細の在庫を確認してから減らす（全部か何もしないか）
type StockReservation struct{}

func (StockReservation) Reserve(ctx context.Context, inv repo.InventoryRepository, lines []resolvedLine) error {
	//先に全部チェックする
	for _, l := range lines {
		if l.Quantity < 1 || l.Quantity > MaxLineQuantity {
			return NewValidationError(fmt.Sprintf("invalid quantity %d (product %d)", l.Quantity, l.Product.ID))
		}
		if l.available() < l.Quantity {
			logger.Info().
				Int64("product_id", l.Product.ID).
				Int64("requested", l.Quantity).
				Int64("available", l.available()).
				Msg("insufficient stock")
			return l.insufficient(l.available())
		}
	}

	for _, l := range lines {
		var ok bool
		var err error
		if l.Variant != nil {
			ok, err = inv.DecreaseVariantStockIfEnough(ctx, l.Variant.ID, l.Quantity)
		} else {
			ok, err = inv.DecreaseStockIfEnough(ctx, l.Product.ID, l.Quantity)
		}
		if err != nil {
			return err
		}
		//行ロック中なので通常は起きない
		if !ok {
			return l.insufficient(0)
		}
	}
	return nil
}
