package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"ordercore/internal/domain/model"
	"ordercore/internal/domain/pricing"
	"ordercore/internal/infra/event"
	"ordercore/internal/infra/gateway"
	"ordercore/internal/metrics"
	repo "ordercore/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// 同じ冪等キーの同時リクエストに負けたときのやり直し回数。再試行で勝った側の注文を返す
const maxPlaceAttempts = 3

// QR決済の発行と照会
type PaymentGateway interface {
	Generate(orderNumber string, amount decimal.Decimal) (gateway.Generated, error)
	CheckStatus(ctx context.Context, contentHash string) (gateway.Status, error)
}

type OrderUsecase struct {
	tx        repo.TransactionManager
	pricing   *pricing.Engine
	gateway   PaymentGateway
	publisher event.Publisher
	metrics   *metrics.Metrics
	currency  string
	now       func() time.Time

	guard  IdempotencyGuard
	stock  StockReservation
	promos *PromotionValidator
}

func NewOrderUsecase(tx repo.TransactionManager, engine *pricing.Engine, gw PaymentGateway, publisher event.Publisher, m *metrics.Metrics, currency string) *OrderUsecase {
	if publisher == nil {
		publisher = event.NoopPublisher{}
	}
	u := &OrderUsecase{
		tx:        tx,
		pricing:   engine,
		gateway:   gw,
		publisher: publisher,
		metrics:   m,
		currency:  currency,
		now:       time.Now,
	}
	u.promos = NewPromotionValidator(func() time.Time { return u.now() })
	return u
}

type OrderItemInput struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Quantity  int64  `json:"quantity"`
}

// 注文時に新規登録する住所
type AddressInput struct {
	PostalCode string  `json:"postal_code"`
	Prefecture string  `json:"prefecture"`
	City       string  `json:"city"`
	Line1      string  `json:"line1"`
	Line2      string  `json:"line2"`
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// Itemsが空ならカートから注文する
type PlaceOrderInput struct {
	Items          []OrderItemInput
	AddressID      int64
	Address        *AddressInput
	PaymentMethod  string
	PromotionCode  string
	IdempotencyKey string
}

type OrderItemOutput struct {
	ProductID    int64           `json:"product_id"`
	VariantID    *int64          `json:"variant_id,omitempty"`
	ProductName  string          `json:"product_name"`
	VariantName  string          `json:"variant_name,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int64           `json:"quantity"`
	LineSubtotal decimal.Decimal `json:"line_subtotal"`
}

type PaymentOutput struct {
	ContentHash string              `json:"content_hash"`
	QRPayload   string              `json:"qr_payload"`
	Method      string              `json:"method"`
	Status      model.PaymentStatus `json:"status"`
	Amount      decimal.Decimal     `json:"amount"`
	Currency    string              `json:"currency"`
	ExpiresAt   time.Time           `json:"expires_at"`
	PaidAt      *time.Time          `json:"paid_at,omitempty"`
}

type OrderOutput struct {
	ID            int64             `json:"id"`
	OrderNumber   string            `json:"order_number"`
	UserID        int64             `json:"user_id"`
	MerchantID    int64             `json:"merchant_id"`
	AddressID     int64             `json:"address_id"`
	Status        model.OrderStatus `json:"status"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	Tax           decimal.Decimal   `json:"tax"`
	DeliveryFee   decimal.Decimal   `json:"delivery_fee"`
	Discount      decimal.Decimal   `json:"discount"`
	Total         decimal.Decimal   `json:"total"`
	PromotionCode string            `json:"promotion_code,omitempty"`
	PaymentMethod string            `json:"payment_method"`
	DistanceKm    float64           `json:"distance_km"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []OrderItemOutput `json:"items"`
	Payment       *PaymentOutput    `json:"payment,omitempty"`
}

type PlaceOrderOutput struct {
	Order OrderOutput
	//冪等キーによる再送で既存注文を返したか
	Replayed bool
}

func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (PlaceOrderOutput, error) {
	if userID <= 0 {
		return PlaceOrderOutput{}, NewUnauthorizedError()
	}
	in, err := normalizePlaceOrder(in)
	if err != nil {
		u.metrics.OrderPlaced("rejected")
		return PlaceOrderOutput{}, err
	}
	hash, err := requestHash(in)
	if err != nil {
		logger.Error().Err(err).Msg("hash order request")
		return PlaceOrderOutput{}, NewInternalError()
	}

	var out PlaceOrderOutput
	for attempt := 1; ; attempt++ {
		out, err = u.placeOnce(ctx, userID, in, hash)
		if !errors.Is(err, repo.ErrDuplicate) {
			break
		}
		logger.Warn().Int64("user_id", userID).Int("attempt", attempt).Msg("order placement lost a uniqueness race, retrying")
		if attempt >= maxPlaceAttempts {
			u.metrics.OrderPlaced("failed")
			return PlaceOrderOutput{}, NewConflictError(CodeConflict, "order could not be placed due to a concurrent request, please retry")
		}
	}

	if err != nil {
		he := ToHTTPError(err)
		if he.Status >= http.StatusInternalServerError {
			u.metrics.OrderPlaced("failed")
			return PlaceOrderOutput{}, internalUnlessTyped(err, "place order")
		}
		logger.Info().Int64("user_id", userID).Str("code", he.Code).Msg("order rejected")
		u.metrics.OrderPlaced("rejected")
		return PlaceOrderOutput{}, err
	}

	if out.Replayed {
		u.metrics.OrderPlaced("replayed")
		return out, nil
	}
	u.metrics.OrderPlaced("created")
	if out.Order.PromotionCode != "" {
		u.metrics.PromotionRedeemed("redeemed")
	}

	//コミット後に送る。失敗しても注文は成功
	u.publish(ctx, event.Event{
		Type:        event.TypeOrderPlaced,
		OrderID:     out.Order.ID,
		OrderNumber: out.Order.OrderNumber,
		UserID:      userID,
		Status:      string(out.Order.Status),
		Amount:      out.Order.Total.StringFixed(2),
		OccurredAt:  u.now(),
	})
	return out, nil
}

func (u *OrderUsecase) placeOnce(ctx context.Context, userID int64, in PlaceOrderInput, hash string) (PlaceOrderOutput, error) {
	var out PlaceOrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//同じキーなら同じ結果
		var recordID int64
		if in.IdempotencyKey != "" {
			outcome, err := u.guard.Begin(ctx, r.Idempotency(), userID, in.IdempotencyKey, hash)
			if err != nil {
				return err
			}
			if outcome.Duplicate() {
				o, err := loadOrderOutput(ctx, r, *outcome.ExistingOrderID)
				if err != nil {
					return err
				}
				out = PlaceOrderOutput{Order: o, Replayed: true}
				return nil
			}
			recordID = outcome.RecordID
		}

		//明細: 指定があればそれ（今すぐ購入）、無ければカート
		items := in.Items
		var cart *model.Cart
		if len(items) == 0 {
			c, cartItems, err := loadCartItems(ctx, r, userID)
			if err != nil {
				return err
			}
			cart = &c
			items = cartItems
		}

		lines, err := resolveLines(ctx, r, items)
		if err != nil {
			return err
		}

		//在庫を確定時に再チェックして減らす
		if err := u.stock.Reserve(ctx, r.Inventory(), lines); err != nil {
			return err
		}

		subtotal := decimal.Zero
		orderItems := make([]model.OrderItem, 0, len(lines))
		for _, l := range lines {
			unit := pricing.Round2(l.UnitPrice())
			lineSubtotal := pricing.LineSubtotal(unit, l.Quantity)
			subtotal = subtotal.Add(lineSubtotal)

			//スナップショット
			oi := model.OrderItem{
				ProductID:           l.Product.ID,
				ProductNameSnapshot: l.Product.Name,
				UnitPriceSnapshot:   unit,
				Quantity:            l.Quantity,
				LineSubtotal:        lineSubtotal,
			}
			if l.Variant != nil {
				vid := l.Variant.ID
				oi.VariantID = &vid
				oi.VariantNameSnapshot = l.Variant.Name
			}
			orderItems = append(orderItems, oi)
		}

		addr, err := resolveAddress(ctx, r, userID, in, u.now())
		if err != nil {
			return err
		}

		merchantID := lines[0].Product.MerchantID
		merchant, err := r.Merchants().FindByID(ctx, merchantID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError(fmt.Sprintf("merchant %d not found", merchantID))
		}
		if err != nil {
			return err
		}
		distance := pricing.DistanceKm(merchant.Latitude, merchant.Longitude, addr.Latitude, addr.Longitude)

		tax := u.pricing.Tax(subtotal)
		fee := u.pricing.DeliveryFee(distance)
		discount := decimal.Zero

		var red *redemption
		if in.PromotionCode != "" {
			rd, err := u.promos.ValidateAndReserve(ctx, r.Promotions(), in.PromotionCode, userID, subtotal)
			if err != nil {
				return err
			}
			red = &rd
			discount = rd.Discount
		}
		total := pricing.Total(subtotal, tax, fee, discount)

		now := u.now()
		orderNumber, err := nextOrderNumber(ctx, r, now)
		if err != nil {
			return err
		}

		order := model.Order{
			OrderNumber:   orderNumber,
			UserID:        userID,
			MerchantID:    merchantID,
			AddressID:     addr.ID,
			Status:        model.OrderStatusPending,
			Subtotal:      subtotal,
			Tax:           tax,
			DeliveryFee:   fee,
			Discount:      discount,
			Total:         total,
			PromotionCode: in.PromotionCode,
			PaymentMethod: in.PaymentMethod,
			DistanceKm:    distance,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := r.Orders().Create(ctx, &order); err != nil {
			return err
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, order.ID, orderItems); err != nil {
			return err
		}

		gen, err := u.gateway.Generate(order.OrderNumber, order.Total)
		if err != nil {
			return err
		}
		payment := model.Payment{
			OrderID:     order.ID,
			ContentHash: gen.ContentHash,
			QRPayload:   gen.QRPayload,
			Method:      in.PaymentMethod,
			Status:      model.PaymentStatusPending,
			Amount:      order.Total,
			Currency:    u.currency,
			ExpiresAt:   gen.ExpiresAt,
		}
		if err := r.Payments().Create(ctx, &payment); err != nil {
			return err
		}

		if red != nil {
			if err := u.promos.Record(ctx, r.Promotions(), *red, userID, order.ID); err != nil {
				return err
			}
		}

		if recordID != 0 {
			if err := u.guard.Complete(ctx, r.Idempotency(), recordID, order.ID); err != nil {
				return err
			}
		}

		//カートからの注文だけ明細を消す
		if cart != nil {
			if err := r.Carts().Clear(ctx, cart.ID); err != nil {
				return err
			}
		}

		o := toOrderOutput(order, orderItems)
		o.Payment = toPaymentOutput(payment)
		out = PlaceOrderOutput{Order: o}
		return nil
	})

	if err != nil {
		return PlaceOrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewUnauthorizedError()
	}

	//ページングでまずは固定で取る
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return err
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, internalUnlessTyped(err, "list orders")
	}
	return outs, nil
}

// 他人の注文は存在しない扱い（404）
func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderNumber string) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewUnauthorizedError()
	}
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return OrderOutput{}, NewValidationError("invalid order number")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByOrderNumber(ctx, orderNumber)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("order not found")
		}
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return NewNotFoundError("order not found")
		}

		out, err = loadOrderOutput(ctx, r, o.ID)
		return err
	})

	if err != nil {
		return OrderOutput{}, internalUnlessTyped(err, "get order")
	}
	return out, nil
}

func (u *OrderUsecase) publish(ctx context.Context, ev event.Event) {
	if err := u.publisher.Publish(ctx, ev); err != nil {
		logger.Warn().Err(err).Str("type", ev.Type).Str("order_number", ev.OrderNumber).Msg("publish event failed")
	}
}

// 入力チェックと正規化。ハッシュはこの結果から作る
func normalizePlaceOrder(in PlaceOrderInput) (PlaceOrderInput, error) {
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	if len(in.IdempotencyKey) > 255 {
		return in, NewValidationError("invalid idempotency_key")
	}

	in.PaymentMethod = strings.ToUpper(strings.TrimSpace(in.PaymentMethod))
	if in.PaymentMethod == "" || len(in.PaymentMethod) > 32 {
		return in, NewValidationError("payment_method is required")
	}
	in.PromotionCode = strings.ToUpper(strings.TrimSpace(in.PromotionCode))
	if len(in.PromotionCode) > 64 {
		return in, NewValidationError("invalid promotion_code")
	}

	//住所はどちらか一方
	if (in.AddressID > 0) == (in.Address != nil) {
		return in, NewValidationError("exactly one of address_id or address is required")
	}
	if in.AddressID < 0 {
		return in, NewValidationError("invalid address_id")
	}
	if in.Address != nil {
		a := normalizeAddress(*in.Address)
		if a.PostalCode == "" || a.Prefecture == "" || a.City == "" || a.Line1 == "" || a.Name == "" {
			return in, NewValidationError("address is incomplete")
		}
		in.Address = &a
	}

	items, err := mergeItems(in.Items)
	if err != nil {
		return in, err
	}
	in.Items = items
	return in, nil
}

func normalizeAddress(a AddressInput) AddressInput {
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Prefecture = strings.TrimSpace(a.Prefecture)
	a.City = strings.TrimSpace(a.City)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.Line2 = strings.TrimSpace(a.Line2)
	a.Name = strings.TrimSpace(a.Name)
	a.Phone = strings.TrimSpace(a.Phone)
	return a
}

type lineKey struct {
	productID int64
	variantID int64
}

// 同じ商品・バリエーションはまとめ、ID順に並べる
func mergeItems(items []OrderItemInput) ([]OrderItemInput, error) {
	if len(items) == 0 {
		return nil, nil
	}
	qty := make(map[lineKey]int64, len(items))
	for _, it := range items {
		if it.ProductID <= 0 {
			return nil, NewValidationError("invalid product_id")
		}
		if it.VariantID != nil && *it.VariantID <= 0 {
			return nil, NewValidationError("invalid variant_id")
		}
		if it.Quantity < 1 {
			return nil, NewValidationError(fmt.Sprintf("quantity must be at least 1 (product %d)", it.ProductID))
		}
		k := lineKey{productID: it.ProductID}
		if it.VariantID != nil {
			k.variantID = *it.VariantID
		}
		//まとめた後の数量にも上限をかける（桁あふれ防止）
		if it.Quantity > MaxLineQuantity || qty[k] > MaxLineQuantity-it.Quantity {
			return nil, NewValidationError(fmt.Sprintf("quantity must be at most %d (product %d)", MaxLineQuantity, it.ProductID))
		}
		qty[k] += it.Quantity
	}

	keys := make([]lineKey, 0, len(qty))
	for k := range qty {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].productID != keys[j].productID {
			return keys[i].productID < keys[j].productID
		}
		return keys[i].variantID < keys[j].variantID
	})

	out := make([]OrderItemInput, 0, len(keys))
	for _, k := range keys {
		it := OrderItemInput{ProductID: k.productID, Quantity: qty[k]}
		if k.variantID != 0 {
			vid := k.variantID
			it.VariantID = &vid
		}
		out = append(out, it)
	}
	return out, nil
}

func loadCartItems(ctx context.Context, r repo.TxRepos, userID int64) (model.Cart, []OrderItemInput, error) {
	//ACTIVEカート取得
	cart, err := r.Carts().FindActiveByUserIDForUpdate(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, nil, NewValidationError("cart is empty")
	}
	if err != nil {
		return model.Cart{}, nil, err
	}

	cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
	if err != nil {
		return model.Cart{}, nil, err
	}
	if len(cartItems) == 0 {
		return model.Cart{}, nil, NewValidationError("cart is empty")
	}

	items := make([]OrderItemInput, 0, len(cartItems))
	for _, ci := range cartItems {
		items = append(items, OrderItemInput{ProductID: ci.ProductID, VariantID: ci.VariantID, Quantity: ci.Quantity})
	}
	merged, err := mergeItems(items)
	if err != nil {
		return model.Cart{}, nil, err
	}
	return cart, merged, nil
}

// resolveLinesは商品・バリエーションを行ロックして、
// 販売可否と加盟店が1つであることを在庫に触る前に確認する
func resolveLines(ctx context.Context, r repo.TxRepos, items []OrderItemInput) ([]resolvedLine, error) {
	productIDs := make([]int64, 0, len(items))
	var variantIDs []int64
	for _, it := range items {
		productIDs = append(productIDs, it.ProductID)
		if it.VariantID != nil {
			variantIDs = append(variantIDs, *it.VariantID)
		}
	}

	products, err := r.Products().FindForUpdate(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	productByID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	variantByID := map[int64]model.ProductVariant{}
	if len(variantIDs) > 0 {
		variants, err := r.Products().FindVariantsForUpdate(ctx, variantIDs)
		if err != nil {
			return nil, err
		}
		for _, v := range variants {
			variantByID[v.ID] = v
		}
	}

	lines := make([]resolvedLine, 0, len(items))
	merchants := map[int64]struct{}{}
	for _, it := range items {
		p, ok := productByID[it.ProductID]
		if !ok {
			return nil, NewNotFoundError(fmt.Sprintf("product %d not found", it.ProductID))
		}
		if !p.IsActive {
			return nil, NewValidationError(fmt.Sprintf("product %s is not available", p.Name))
		}
		l := resolvedLine{Product: p, Quantity: it.Quantity}
		if it.VariantID != nil {
			v, ok := variantByID[*it.VariantID]
			if !ok || v.ProductID != p.ID {
				return nil, NewNotFoundError(fmt.Sprintf("variant %d not found for product %d", *it.VariantID, p.ID))
			}
			if !v.IsActive {
				return nil, NewValidationError(fmt.Sprintf("variant %s of %s is not available", v.Name, p.Name))
			}
			l.Variant = &v
		}
		merchants[p.MerchantID] = struct{}{}
		lines = append(lines, l)
	}

	if len(merchants) > 1 {
		ids := make([]int64, 0, len(merchants))
		for id := range merchants {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return nil, NewValidationError(fmt.Sprintf("all items must belong to one merchant, got merchants %v", ids))
	}
	return lines, nil
}

func resolveAddress(ctx context.Context, r repo.TxRepos, userID int64, in PlaceOrderInput, now time.Time) (model.Address, error) {
	if in.Address == nil {
		//address_idの存在確認＋所有チェック
		addr, err := r.Addresses().FindByID(ctx, in.AddressID)
		if errors.Is(err, repo.ErrNotFound) {
			return model.Address{}, NewNotFoundError("address not found")
		}
		if err != nil {
			return model.Address{}, err
		}
		//他人の住所なら403
		if !addr.OwnedBy(userID) {
			return model.Address{}, NewForbiddenError()
		}
		return addr, nil
	}

	a := in.Address
	return r.Addresses().Create(ctx, model.Address{
		UserID:     userID,
		PostalCode: a.PostalCode,
		Prefecture: a.Prefecture,
		City:       a.City,
		Line1:      a.Line1,
		Line2:      a.Line2,
		Name:       a.Name,
		Phone:      a.Phone,
		Latitude:   a.Latitude,
		Longitude:  a.Longitude,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func loadOrderOutput(ctx context.Context, r repo.TxRepos, orderID int64) (OrderOutput, error) {
	o, err := r.Orders().FindByID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, err
	}
	out := toOrderOutput(o, items)

	p, err := r.Payments().FindByOrderID(ctx, o.ID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, err
	}
	if err == nil {
		out.Payment = toPaymentOutput(p)
	}
	return out, nil
}

// 型付きエラーはそのまま、それ以外はログに出して500にする
func internalUnlessTyped(err error, op string) error {
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	var se *InsufficientStockError
	if errors.As(err, &se) {
		return err
	}
	logger.Error().Err(err).Str("op", op).Msg("unexpected error")
	return NewInternalError()
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	out := OrderOutput{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		MerchantID:    o.MerchantID,
		AddressID:     o.AddressID,
		Status:        o.Status,
		Subtotal:      o.Subtotal,
		Tax:           o.Tax,
		DeliveryFee:   o.DeliveryFee,
		Discount:      o.Discount,
		Total:         o.Total,
		PromotionCode: o.PromotionCode,
		PaymentMethod: o.PaymentMethod,
		DistanceKm:    o.DistanceKm,
		CreatedAt:     o.CreatedAt,
		Items:         make([]OrderItemOutput, 0, len(items)),
	}
	for _, it := range items {
		out.Items = append(out.Items, OrderItemOutput{
			ProductID:    it.ProductID,
			VariantID:    it.VariantID,
			ProductName:  it.ProductNameSnapshot,
			VariantName:  it.VariantNameSnapshot,
			UnitPrice:    it.UnitPriceSnapshot,
			Quantity:     it.Quantity,
			LineSubtotal: it.LineSubtotal,
		})
	}
	return out
}

func toPaymentOutput(p model.Payment) *PaymentOutput {
	return &PaymentOutput{
		ContentHash: p.ContentHash,
		QRPayload:   p.QRPayload,
		Method:      p.Method,
		Status:      p.Status,
		Amount:      p.Amount,
		Currency:    p.Currency,
		ExpiresAt:   p.ExpiresAt,
		PaidAt:      p.PaidAt,
	}
}
