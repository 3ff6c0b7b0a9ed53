// Package pricing は注文金額（税・配送料・割引・合計）を計算する。
// I/Oを持たない純粋関数だけを置く。
package pricing

import (
	"math"

	"ordercore/internal/domain/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

const (
	tier1LimitKm = 5
	tier2LimitKm = 20
)

type Config struct {
	VATRate decimal.Decimal

	//5km以下は一律
	DeliveryBaseFee decimal.Decimal
	//5km超〜20km: base + (d-5) * Tier2Rate
	DeliveryTier2Rate decimal.Decimal
	//20km超: tier3Base + (d-20) * Tier3Rate
	DeliveryTier3Base decimal.Decimal
	DeliveryTier3Rate decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		VATRate:           decimal.RequireFromString("0.10"),
		DeliveryBaseFee:   decimal.RequireFromString("1.50"),
		DeliveryTier2Rate: decimal.RequireFromString("0.10"),
		DeliveryTier3Base: decimal.RequireFromString("3.00"),
		DeliveryTier3Rate: decimal.RequireFromString("0.15"),
	}
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Tax = round2(subtotal * VAT)。0以下なら0
func (e *Engine) Tax(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	return Round2(subtotal.Mul(e.cfg.VATRate))
}

// DeliveryFee は距離(km)の段階制。0以下なら0
func (e *Engine) DeliveryFee(distanceKm float64) decimal.Decimal {
	if distanceKm <= 0 || math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) {
		return decimal.Zero
	}
	d := decimal.NewFromFloat(distanceKm)

	switch {
	case distanceKm <= tier1LimitKm:
		return Round2(e.cfg.DeliveryBaseFee)
	case distanceKm <= tier2LimitKm:
		extra := d.Sub(decimal.NewFromInt(tier1LimitKm))
		return Round2(e.cfg.DeliveryBaseFee.Add(extra.Mul(e.cfg.DeliveryTier2Rate)))
	default:
		extra := d.Sub(decimal.NewFromInt(tier2LimitKm))
		return Round2(e.cfg.DeliveryTier3Base.Add(extra.Mul(e.cfg.DeliveryTier3Rate)))
	}
}

// Discount はプロモーション1件分の割引額。
// maxDiscountで上限をかけ、さらに小計を超えない
func Discount(t model.PromotionType, value decimal.Decimal, subtotal decimal.Decimal, maxDiscount *decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() || !value.IsPositive() {
		return decimal.Zero
	}

	var raw decimal.Decimal
	switch t {
	case model.PromotionTypePercentage:
		raw = subtotal.Mul(value).Div(hundred)
	case model.PromotionTypeFixedAmount:
		raw = value
	default:
		return decimal.Zero
	}

	if maxDiscount != nil && raw.GreaterThan(*maxDiscount) {
		raw = *maxDiscount
	}
	if raw.GreaterThan(subtotal) {
		raw = subtotal
	}
	if raw.IsNegative() {
		return decimal.Zero
	}
	return Round2(raw)
}

// Total = subtotal + tax + fee - discount（0未満にはしない）
func Total(subtotal, tax, deliveryFee, discount decimal.Decimal) decimal.Decimal {
	t := subtotal.Add(tax).Add(deliveryFee).Sub(discount)
	if t.IsNegative() {
		return decimal.Zero
	}
	return Round2(t)
}

func LineSubtotal(unitPrice decimal.Decimal, quantity int64) decimal.Decimal {
	return Round2(unitPrice.Mul(decimal.NewFromInt(quantity)))
}

// 小数2桁・四捨五入（half-up）。金額は0以上なのでRoundで足りる
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

const earthRadiusKm = 6371.0

// DistanceKm は2点間の大円距離(km)。どちらかの座標が未設定(0,0)なら0
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	if (lat1 == 0 && lon1 == 0) || (lat2 == 0 && lon2 == 0) {
		return 0
	}
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return math.Round(earthRadiusKm*c*100) / 100
}
