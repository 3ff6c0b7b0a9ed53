package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ordercore/internal/domain/model"
	repo "ordercore/internal/repository"

	"github.com/shopspring/decimal"
)

// テスト用のインメモリDB。
// Txごとに状態を複製し、成功したら差し替える（失敗なら捨てる）。Txは1本ずつ
type memState struct {
	seq        int64
	products   map[int64]model.Product
	variants   map[int64]model.ProductVariant
	merchants  map[int64]model.Merchant
	addresses  map[int64]model.Address
	carts      map[int64]model.Cart
	cartItems  map[int64]model.CartItem
	orders     map[int64]model.Order
	orderItems map[int64]model.OrderItem
	promotions map[int64]model.Promotion
	usages     map[int64]model.PromotionUsage
	idem       map[int64]model.OrderIdempotencyRecord
	payments   map[int64]model.Payment
	sequences  map[string]int64
	audits     []model.AuditLog
}

func newMemState() *memState {
	return &memState{
		products:   map[int64]model.Product{},
		variants:   map[int64]model.ProductVariant{},
		merchants:  map[int64]model.Merchant{},
		addresses:  map[int64]model.Address{},
		carts:      map[int64]model.Cart{},
		cartItems:  map[int64]model.CartItem{},
		orders:     map[int64]model.Order{},
		orderItems: map[int64]model.OrderItem{},
		promotions: map[int64]model.Promotion{},
		usages:     map[int64]model.PromotionUsage{},
		idem:       map[int64]model.OrderIdempotencyRecord{},
		payments:   map[int64]model.Payment{},
		sequences:  map[string]int64{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memState) clone() *memState {
	return &memState{
		seq:        s.seq,
		products:   cloneMap(s.products),
		variants:   cloneMap(s.variants),
		merchants:  cloneMap(s.merchants),
		addresses:  cloneMap(s.addresses),
		carts:      cloneMap(s.carts),
		cartItems:  cloneMap(s.cartItems),
		orders:     cloneMap(s.orders),
		orderItems: cloneMap(s.orderItems),
		promotions: cloneMap(s.promotions),
		usages:     cloneMap(s.usages),
		idem:       cloneMap(s.idem),
		payments:   cloneMap(s.payments),
		sequences:  cloneMap(s.sequences),
		audits:     append([]model.AuditLog(nil), s.audits...),
	}
}

func (s *memState) nextID() int64 {
	s.seq++
	return s.seq
}

type memStore struct {
	mu    sync.Mutex
	state *memState

	// 冪等レコード作成時に呼ばれる（競合の再現用）。errorを返すとそのTxは失敗する
	onIdempotencyCreate func(store *memStore) error
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&memTx{store: m, s: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

// 確定済み状態の読み取り
func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// テストデータ投入
func (m *memStore) seed(fn func(s *memState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.state)
}

type memTx struct {
	store *memStore
	s     *memState
}

func (t *memTx) Orders() repo.OrderRepository                 { return memOrders{t.s} }
func (t *memTx) OrderItems() repo.OrderItemRepository         { return memOrderItems{t.s} }
func (t *memTx) OrderSequences() repo.OrderSequenceRepository { return memSequences{t.s} }
func (t *memTx) Carts() repo.CartRepository                   { return memCarts{t.s} }
func (t *memTx) CartItems() repo.CartItemRepository           { return memCarts{t.s} }
func (t *memTx) Inventory() repo.InventoryRepository          { return memInventory{t.s} }
func (t *memTx) Products() repo.ProductRepository             { return memProducts{t.s} }
func (t *memTx) Merchants() repo.MerchantRepository           { return memMerchants{t.s} }
func (t *memTx) Addresses() repo.AddressRepository            { return memAddresses{t.s} }
func (t *memTx) Promotions() repo.PromotionRepository         { return memPromotions{t.s} }
func (t *memTx) Idempotency() repo.IdempotencyRepository      { return memIdempotency{t.store, t.s} }
func (t *memTx) Payments() repo.PaymentRepository             { return memPayments{t.s} }
func (t *memTx) AuditLogs() repo.AuditLogRepository           { return memAudits{t.s} }

type memOrders struct{ s *memState }

func (r memOrders) FindByID(_ context.Context, id int64) (model.Order, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r memOrders) FindByOrderNumber(_ context.Context, n string) (model.Order, error) {
	for _, o := range r.s.orders {
		if o.OrderNumber == n {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (r memOrders) ListByUserID(_ context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	start := (page - 1) * limit
	if start >= len(out) {
		return []model.Order{}, total, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r memOrders) Create(_ context.Context, o *model.Order) error {
	for _, e := range r.s.orders {
		if e.OrderNumber == o.OrderNumber {
			return repo.ErrDuplicate
		}
	}
	o.ID = r.s.nextID()
	r.s.orders[o.ID] = *o
	return nil
}

func (r memOrders) UpdateStatus(_ context.Context, id int64, from, to model.OrderStatus) error {
	o, ok := r.s.orders[id]
	if !ok || o.Status != from {
		return repo.ErrNotFound
	}
	o.Status = to
	r.s.orders[id] = o
	return nil
}

func (r memOrders) LastOrderNumberWithPrefix(_ context.Context, prefix string) (string, bool, error) {
	var nums []string
	for _, o := range r.s.orders {
		if isDigitSuffix(o.OrderNumber, prefix) {
			nums = append(nums, o.OrderNumber)
		}
	}
	if len(nums) == 0 {
		return "", false, nil
	}
	sort.Slice(nums, func(i, j int) bool {
		if len(nums[i]) != len(nums[j]) {
			return len(nums[i]) > len(nums[j])
		}
		return nums[i] > nums[j]
	})
	return nums[0], true, nil
}

func isDigitSuffix(n, prefix string) bool {
	rest, ok := strings.CutPrefix(n, prefix)
	if !ok || rest == "" {
		return false
	}
	for _, c := range rest {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

type memSequences struct{ s *memState }

func (r memSequences) LockDay(_ context.Context, day string) (int64, error) {
	return r.s.sequences[day], nil
}

func (r memSequences) SetLast(_ context.Context, day string, seq int64) error {
	r.s.sequences[day] = seq
	return nil
}

type memOrderItems struct{ s *memState }

func (r memOrderItems) CreateBulk(_ context.Context, orderID int64, items []model.OrderItem) error {
	for i := range items {
		items[i].OrderID = orderID
		items[i].ID = r.s.nextID()
		r.s.orderItems[items[i].ID] = items[i]
	}
	return nil
}

func (r memOrderItems) ListByOrderID(_ context.Context, orderID int64) ([]model.OrderItem, error) {
	var out []model.OrderItem
	for _, it := range r.s.orderItems {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memCarts struct{ s *memState }

func (r memCarts) FindActiveByUserIDForUpdate(_ context.Context, userID int64) (model.Cart, error) {
	for _, c := range r.s.carts {
		if c.UserID == userID && c.Status == model.CartStatusActive {
			return c, nil
		}
	}
	return model.Cart{}, repo.ErrNotFound
}

func (r memCarts) Clear(_ context.Context, cartID int64) error {
	for id, it := range r.s.cartItems {
		if it.CartID == cartID {
			delete(r.s.cartItems, id)
		}
	}
	return nil
}

func (r memCarts) ListByCartID(_ context.Context, cartID int64) ([]model.CartItem, error) {
	var out []model.CartItem
	for _, it := range r.s.cartItems {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memInventory struct{ s *memState }

func (r memInventory) DecreaseStockIfEnough(_ context.Context, productID int64, qty int64) (bool, error) {
	p, ok := r.s.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	r.s.products[productID] = p
	return true, nil
}

func (r memInventory) DecreaseVariantStockIfEnough(_ context.Context, variantID int64, qty int64) (bool, error) {
	v, ok := r.s.variants[variantID]
	if !ok || v.Stock < qty {
		return false, nil
	}
	v.Stock -= qty
	r.s.variants[variantID] = v
	return true, nil
}

func (r memInventory) IncreaseStock(_ context.Context, productID int64, qty int64) error {
	p, ok := r.s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock += qty
	r.s.products[productID] = p
	return nil
}

func (r memInventory) IncreaseVariantStock(_ context.Context, variantID int64, qty int64) error {
	v, ok := r.s.variants[variantID]
	if !ok {
		return repo.ErrNotFound
	}
	v.Stock += qty
	r.s.variants[variantID] = v
	return nil
}

type memProducts struct{ s *memState }

func (r memProducts) FindByID(_ context.Context, id int64) (model.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memProducts) FindForUpdate(_ context.Context, ids []int64) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProducts) FindVariantsForUpdate(_ context.Context, ids []int64) ([]model.ProductVariant, error) {
	var out []model.ProductVariant
	for _, id := range ids {
		if v, ok := r.s.variants[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

type memMerchants struct{ s *memState }

func (r memMerchants) FindByID(_ context.Context, id int64) (model.Merchant, error) {
	m, ok := r.s.merchants[id]
	if !ok {
		return model.Merchant{}, repo.ErrNotFound
	}
	return m, nil
}

type memAddresses struct{ s *memState }

func (r memAddresses) Create(_ context.Context, a model.Address) (model.Address, error) {
	a.ID = r.s.nextID()
	r.s.addresses[a.ID] = a
	return a, nil
}

func (r memAddresses) FindByID(_ context.Context, id int64) (model.Address, error) {
	a, ok := r.s.addresses[id]
	if !ok {
		return model.Address{}, repo.ErrNotFound
	}
	return a, nil
}

type memPromotions struct{ s *memState }

func (r memPromotions) FindByCodeForUpdate(_ context.Context, code string) (model.Promotion, error) {
	for _, p := range r.s.promotions {
		if p.Code == model.NormalizePromotionCode(code) {
			return p, nil
		}
	}
	return model.Promotion{}, repo.ErrNotFound
}

func (r memPromotions) IncrementUsedCount(_ context.Context, id int64) error {
	p, ok := r.s.promotions[id]
	if !ok || (p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit) {
		return repo.ErrNotFound
	}
	p.UsedCount++
	r.s.promotions[id] = p
	return nil
}

func (r memPromotions) CountUsageByUser(_ context.Context, promotionID int64, userID int64) (int64, error) {
	var n int64
	for _, u := range r.s.usages {
		if u.PromotionID == promotionID && u.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r memPromotions) CreateUsage(_ context.Context, usage model.PromotionUsage) error {
	for _, u := range r.s.usages {
		if u.PromotionID == usage.PromotionID && u.OrderID == usage.OrderID {
			return repo.ErrDuplicate
		}
	}
	usage.ID = r.s.nextID()
	r.s.usages[usage.ID] = usage
	return nil
}

type memIdempotency struct {
	store *memStore
	s     *memState
}

func (r memIdempotency) FindForUpdate(_ context.Context, userID int64, key string) (model.OrderIdempotencyRecord, bool, error) {
	for _, rec := range r.s.idem {
		if rec.UserID == userID && rec.IdempotencyKey == key {
			return rec, true, nil
		}
	}
	return model.OrderIdempotencyRecord{}, false, nil
}

func (r memIdempotency) Create(_ context.Context, rec *model.OrderIdempotencyRecord) error {
	if hook := r.store.onIdempotencyCreate; hook != nil {
		if err := hook(r.store); err != nil {
			return err
		}
	}
	for _, e := range r.s.idem {
		if e.UserID == rec.UserID && e.IdempotencyKey == rec.IdempotencyKey {
			return repo.ErrDuplicate
		}
	}
	rec.ID = r.s.nextID()
	r.s.idem[rec.ID] = *rec
	return nil
}

func (r memIdempotency) AttachOrder(_ context.Context, recordID int64, orderID int64) error {
	rec, ok := r.s.idem[recordID]
	if !ok {
		return repo.ErrNotFound
	}
	rec.OrderID = &orderID
	r.s.idem[recordID] = rec
	return nil
}

type memPayments struct{ s *memState }

func (r memPayments) Create(_ context.Context, p *model.Payment) error {
	for _, e := range r.s.payments {
		if e.ContentHash == p.ContentHash || e.OrderID == p.OrderID {
			return repo.ErrDuplicate
		}
	}
	p.ID = r.s.nextID()
	r.s.payments[p.ID] = *p
	return nil
}

func (r memPayments) find(fn func(model.Payment) bool) (model.Payment, error) {
	for _, p := range r.s.payments {
		if fn(p) {
			return p, nil
		}
	}
	return model.Payment{}, repo.ErrNotFound
}

func (r memPayments) FindByOrderID(_ context.Context, orderID int64) (model.Payment, error) {
	return r.find(func(p model.Payment) bool { return p.OrderID == orderID })
}

func (r memPayments) FindByContentHash(_ context.Context, h string) (model.Payment, error) {
	return r.find(func(p model.Payment) bool { return p.ContentHash == h })
}

func (r memPayments) FindByContentHashForUpdate(ctx context.Context, h string) (model.Payment, error) {
	return r.FindByContentHash(ctx, h)
}

func (r memPayments) updatePending(id int64, fn func(p *model.Payment)) error {
	p, ok := r.s.payments[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return repo.ErrNotFound
	}
	fn(&p)
	r.s.payments[id] = p
	return nil
}

func (r memPayments) MarkCompleted(_ context.Context, id int64, c repo.PaymentCompletion) error {
	return r.updatePending(id, func(p *model.Payment) {
		p.Status = model.PaymentStatusCompleted
		paidAt := c.PaidAt
		verified := c.VerifiedAt
		p.PaidAt = &paidAt
		p.LastVerifiedAt = &verified
		p.GatewayTransactionID = c.TransactionID
		p.RawGatewayResponse = c.RawResponse
	})
}

func (r memPayments) MarkExpired(_ context.Context, id int64, at time.Time) error {
	return r.updatePending(id, func(p *model.Payment) {
		p.Status = model.PaymentStatusExpired
		p.LastVerifiedAt = &at
	})
}

func (r memPayments) TouchVerified(_ context.Context, id int64, at time.Time, raw string) error {
	return r.updatePending(id, func(p *model.Payment) {
		p.LastVerifiedAt = &at
		p.RawGatewayResponse = raw
	})
}

type memAudits struct{ s *memState }

func (r memAudits) Create(_ context.Context, log model.AuditLog) error {
	log.ID = r.s.nextID()
	r.s.audits = append(r.s.audits, log)
	return nil
}

// ---- fixtures ----

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func int64Ptr(v int64) *int64 {
	return &v
}

func decPtr(s string) *decimal.Decimal {
	d := money(s)
	return &d
}
