package usecase

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"ordercore/internal/domain/model"
	"ordercore/internal/infra/event"
	"ordercore/internal/infra/gateway"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Generate(orderNumber string, amount decimal.Decimal) (gateway.Generated, error) {
	args := m.Called(orderNumber, amount)
	return args.Get(0).(gateway.Generated), args.Error(1)
}

func (m *mockGateway) CheckStatus(ctx context.Context, contentHash string) (gateway.Status, error) {
	args := m.Called(ctx, contentHash)
	return args.Get(0).(gateway.Status), args.Error(1)
}

var testHash = fmt.Sprintf("%064x", 77)

const (
	paidOrderID = int64(600)
	paymentID   = int64(601)
)

type paymentFixture struct {
	store     *memStore
	usecase   *PaymentUsecase
	gateway   *mockGateway
	publisher *recordingPublisher
}

// 注文1件（コーヒー2個・ラージ1個の在庫を確保済み）とPENDINGの決済
func newPaymentFixture(t *testing.T, expiresAt time.Time) *paymentFixture {
	t.Helper()
	store := newMemStore()
	store.seed(func(s *memState) {
		seedWorld(s)
		s.orders[paidOrderID] = model.Order{
			ID: paidOrderID, OrderNumber: "ORD-20260102-001", UserID: 1, MerchantID: merchantA,
			Status: model.OrderStatusPending, Total: money("340.00"),
		}
		s.orderItems[602] = model.OrderItem{ID: 602, OrderID: paidOrderID, ProductID: productCoffee, Quantity: 2,
			UnitPriceSnapshot: money("100.00"), LineSubtotal: money("200.00")}
		s.orderItems[603] = model.OrderItem{ID: 603, OrderID: paidOrderID, ProductID: productCoffee, VariantID: int64Ptr(variantLarge), Quantity: 1,
			UnitPriceSnapshot: money("120.00"), LineSubtotal: money("120.00")}
		s.payments[paymentID] = model.Payment{
			ID: paymentID, OrderID: paidOrderID, ContentHash: testHash, Method: "QR",
			Status: model.PaymentStatusPending, Amount: money("340.00"), Currency: "USD", ExpiresAt: expiresAt,
		}
	})

	gw := &mockGateway{}
	pub := &recordingPublisher{}
	u := NewPaymentUsecase(store, gw, pub, nil)
	u.now = func() time.Time { return testNow }
	return &paymentFixture{store: store, usecase: u, gateway: gw, publisher: pub}
}

func TestVerify_Paid(t *testing.T) {
	f := newPaymentFixture(t, testNow.Add(10*time.Minute))
	paidAt := testNow.Add(-time.Minute)
	f.gateway.On("CheckStatus", mock.Anything, testHash).
		Return(gateway.Status{Paid: true, ResponseCode: "00", TransactionID: "TX1", PaidAt: paidAt, RawResponse: `{"responseCode":"00"}`}, nil).
		Once()

	out, err := f.usecase.Verify(context.Background(), 1, testHash)
	require.NoError(t, err)

	assert.True(t, out.Paid)
	assert.Equal(t, model.PaymentStatusCompleted, out.Status)
	assert.Equal(t, model.OrderStatusConfirmed, out.OrderStatus)
	require.NotNil(t, out.PaidAt)
	assert.Equal(t, paidAt, *out.PaidAt)

	s := f.store.snapshot()
	p := s.payments[paymentID]
	assert.Equal(t, model.PaymentStatusCompleted, p.Status)
	assert.Equal(t, "TX1", p.GatewayTransactionID)
	assert.Equal(t, `{"responseCode":"00"}`, p.RawGatewayResponse)
	assert.Equal(t, model.OrderStatusConfirmed, s.orders[paidOrderID].Status)

	actions := make([]model.AuditAction, 0, len(s.audits))
	for _, a := range s.audits {
		actions = append(actions, a.Action)
	}
	assert.Equal(t, []model.AuditAction{model.AuditActionPaymentCompleted, model.AuditActionUpdateOrderStatus}, actions)
	assert.Equal(t, []string{event.TypePaymentCompleted}, f.publisher.types())
	f.gateway.AssertExpectations(t)
}

func TestVerify_CompletedTwiceDoesNotCallGatewayAgain(t *testing.T) {
	f := newPaymentFixture(t, testNow.Add(10*time.Minute))
	f.gateway.On("CheckStatus", mock.Anything, testHash).
		Return(gateway.Status{Paid: true, TransactionID: "TX1", PaidAt: testNow}, nil).
		Once()

	first, err := f.usecase.Verify(context.Background(), 1, testHash)
	require.NoError(t, err)

	f.usecase.now = func() time.Time { return testNow.Add(time.Hour) }
	second, err := f.usecase.Verify(context.Background(), 1, testHash)
	require.NoError(t, err)

	assert.True(t, second.Paid)
	assert.Equal(t, *first.PaidAt, *second.PaidAt)
	assert.Equal(t, testNow, *f.store.snapshot().payments[paymentID].PaidAt)
	f.gateway.AssertNumberOfCalls(t, "CheckStatus", 1)
}

func TestVerify_NotPaidStaysPending(t *testing.T) {
	f := newPaymentFixture(t, testNow.Add(10*time.Minute))
	f.gateway.On("CheckStatus", mock.Anything, testHash).
		Return(gateway.Status{Paid: false, ResponseCode: "01", RawResponse: `{"responseCode":"01"}`}, nil)

	out, err := f.usecase.Verify(context.Background(), 1, testHash)
	require.NoError(t, err)

	assert.False(t, out.Paid)
	assert.False(t, out.Expired)
	assert.Equal(t, model.PaymentStatusPending, out.Status)
	assert.Equal(t, "payment not received yet", out.Message)

	p := f.store.snapshot().payments[paymentID]
	assert.Equal(t, model.PaymentStatusPending, p.Status)
	require.NotNil(t, p.LastVerifiedAt)
	assert.Equal(t, testNow, *p.LastVerifiedAt)
	assert.Empty(t, f.publisher.types())
}

func TestVerify_TransientFailureLeavesStateUntouched(t *testing.T) {
	f := newPaymentFixture(t, testNow.Add(10*time.Minute))
	f.gateway.On("CheckStatus", mock.Anything, testHash).
		Return(gateway.Status{}, fmt.Errorf("%w: status 502", gateway.ErrTransient))

	_, err := f.usecase.Verify(context.Background(), 1, testHash)
	requireCode(t, err, http.StatusServiceUnavailable, CodeGatewayTransient)

	p := f.store.snapshot().payments[paymentID]
	assert.Equal(t, model.PaymentStatusPending, p.Status)
	assert.Nil(t, p.LastVerifiedAt)
}

func TestVerify_ExpiredWithoutCallingGateway(t *testing.T) {
	f := newPaymentFixture(t, testNow.Add(-time.Second))

	out, err := f.usecase.Verify(context.Background(), 1, testHash)
	require.NoError(t, err)

	assert.False(t, out.Paid)
	assert.True(t, out.Expired)
	assert.Equal(t, model.PaymentStatusExpired, out.Status)
	assert.Equal(t, "not paid, payment expired", out.Message)
	assert.Equal(t, model.OrderStatusCancelled, out.OrderStatus)

	s := f.store.snapshot()
	assert.Equal(t, model.PaymentStatusExpired, s.payments[paymentID].Status)
	assert.Equal(t, model.OrderStatusCancelled, s.orders[paidOrderID].Status)
	// 在庫が戻る
	assert.Equal(t, int64(7), s.products[productCoffee].Stock)
	assert.Equal(t, int64(3), s.variants[variantLarge].Stock)

	assert.Equal(t, []string{event.TypePaymentExpired}, f.publisher.types())
	f.gateway.AssertNotCalled(t, "CheckStatus", mock.Anything, mock.Anything)

	// 2回目は何も変わらない
	again, err := f.usecase.Verify(context.Background(), 1, testHash)
	require.NoError(t, err)
	assert.True(t, again.Expired)
	assert.Equal(t, int64(7), f.store.snapshot().products[productCoffee].Stock)
}

// 期限切れでもプロモーションの利用回数は戻さない
func TestVerify_ExpiryKeepsPromotionRedemption(t *testing.T) {
	f := newPaymentFixture(t, testNow.Add(-time.Second))
	f.store.seed(func(s *memState) {
		o := s.orders[paidOrderID]
		o.PromotionCode = "LIMIT3"
		s.orders[paidOrderID] = o
		p := s.promotions[801]
		p.UsedCount = 1
		s.promotions[801] = p
		s.usages[650] = model.PromotionUsage{ID: 650, PromotionID: 801, UserID: 1, OrderID: paidOrderID, DiscountAmount: money("5.00"), UsedAt: testNow}
	})

	out, err := f.usecase.Verify(context.Background(), 1, testHash)
	require.NoError(t, err)
	assert.True(t, out.Expired)

	s := f.store.snapshot()
	assert.Equal(t, int64(1), s.promotions[801].UsedCount)
	assert.Contains(t, s.usages, int64(650))
}

func TestVerify_ExpiryBoundaryIsExpired(t *testing.T) {
	f := newPaymentFixture(t, testNow)

	out, err := f.usecase.Verify(context.Background(), 1, testHash)
	require.NoError(t, err)
	assert.True(t, out.Expired)
}

func TestVerify_AccessRules(t *testing.T) {
	f := newPaymentFixture(t, testNow.Add(10*time.Minute))

	_, err := f.usecase.Verify(context.Background(), 2, testHash)
	requireCode(t, err, http.StatusForbidden, CodeForbidden)

	_, err = f.usecase.Verify(context.Background(), 1, fmt.Sprintf("%064x", 12345))
	requireCode(t, err, http.StatusNotFound, CodeNotFound)

	_, err = f.usecase.Verify(context.Background(), 1, "not-a-hash")
	requireCode(t, err, http.StatusBadRequest, CodeValidation)

	_, err = f.usecase.Verify(context.Background(), 0, testHash)
	requireCode(t, err, http.StatusUnauthorized, CodeUnauthorized)

	f.gateway.AssertNotCalled(t, "CheckStatus", mock.Anything, mock.Anything)
}

// 注文作成から決済完了まで
func TestPlaceThenVerify(t *testing.T) {
	of := newOrderFixture(t)
	placed, err := of.usecase.PlaceOrder(context.Background(), 1, buyNow(OrderItemInput{ProductID: productCoffee, Quantity: 1}))
	require.NoError(t, err)
	hash := placed.Order.Payment.ContentHash

	gw := &mockGateway{}
	gw.On("CheckStatus", mock.Anything, hash).Return(gateway.Status{Paid: true, TransactionID: "TX9", PaidAt: testNow}, nil).Once()
	pu := NewPaymentUsecase(of.store, gw, of.publisher, nil)
	pu.now = func() time.Time { return testNow.Add(time.Minute) }

	out, err := pu.Verify(context.Background(), 1, hash)
	require.NoError(t, err)
	assert.True(t, out.Paid)
	assert.Equal(t, placed.Order.OrderNumber, out.OrderNumber)

	detail, err := of.usecase.GetMyOrderDetail(context.Background(), 1, placed.Order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, detail.Status)
	assert.Equal(t, model.PaymentStatusCompleted, detail.Payment.Status)
	assert.Equal(t, []string{event.TypeOrderPlaced, event.TypePaymentCompleted}, of.publisher.types())
}
