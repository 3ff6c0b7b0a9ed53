package usecase

import (
	"context"
	"net/http"
	"testing"
	"time"

	"ordercore/internal/domain/model"
	repo "ordercore/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validate(t *testing.T, store *memStore, code string, userID int64, subtotal string) (redemption, error) {
	t.Helper()
	v := NewPromotionValidator(func() time.Time { return testNow })

	var red redemption
	err := store.WithinTx(context.Background(), func(r repo.TxRepos) error {
		var err error
		red, err = v.ValidateAndReserve(context.Background(), r.Promotions(), code, userID, money(subtotal))
		return err
	})
	return red, err
}

func TestPromotionValidator_Rules(t *testing.T) {
	store := newMemStore()
	store.seed(func(s *memState) {
		s.promotions[1] = model.Promotion{ID: 1, Code: "OFF", Type: model.PromotionTypePercentage, Value: money("10"),
			StartDate: testNow.Add(-time.Hour), EndDate: testNow.Add(time.Hour), IsActive: false}
		s.promotions[2] = model.Promotion{ID: 2, Code: "LATER", Type: model.PromotionTypePercentage, Value: money("10"),
			StartDate: testNow.Add(time.Hour), EndDate: testNow.Add(2 * time.Hour), IsActive: true}
		s.promotions[3] = model.Promotion{ID: 3, Code: "BIG", Type: model.PromotionTypeFixedAmount, Value: money("10"),
			MinOrderAmount: decPtr("100.00"), StartDate: testNow.Add(-time.Hour), EndDate: testNow.Add(time.Hour), IsActive: true}
		s.promotions[4] = model.Promotion{ID: 4, Code: "GONE", Type: model.PromotionTypeFixedAmount, Value: money("10"),
			UsageLimit: int64Ptr(2), UsedCount: 2, StartDate: testNow.Add(-time.Hour), EndDate: testNow.Add(time.Hour), IsActive: true}
		s.promotions[5] = model.Promotion{ID: 5, Code: "EDGE", Type: model.PromotionTypeFixedAmount, Value: money("10"),
			StartDate: testNow, EndDate: testNow, IsActive: true}
	})

	cases := []struct {
		name   string
		code   string
		status int
		want   string
	}{
		{"not found", "MISSING", http.StatusNotFound, CodePromotionNotFound},
		{"inactive", "off", http.StatusUnprocessableEntity, CodePromotionInactive},
		{"not started", "LATER", http.StatusUnprocessableEntity, CodePromotionOutsideWindow},
		{"below minimum", "BIG", http.StatusUnprocessableEntity, CodePromotionBelowMinimum},
		{"usage limit", "GONE", http.StatusConflict, CodePromotionUsageLimit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validate(t, store, tc.code, 1, "50.00")
			requireCode(t, err, tc.status, tc.want)
		})
	}

	// 期間の両端は含む
	red, err := validate(t, store, "edge", 1, "50.00")
	require.NoError(t, err)
	assert.True(t, money("10.00").Equal(red.Discount))
	assert.Equal(t, int64(1), store.snapshot().promotions[5].UsedCount)
}

func TestPromotionValidator_Discounts(t *testing.T) {
	store := newMemStore()
	store.seed(func(s *memState) {
		s.promotions[1] = model.Promotion{ID: 1, Code: "PCT", Type: model.PromotionTypePercentage, Value: money("15"),
			MaxDiscount: decPtr("100.00"), StartDate: testNow.Add(-time.Hour), EndDate: testNow.Add(time.Hour), IsActive: true}
		s.promotions[2] = model.Promotion{ID: 2, Code: "CAP", Type: model.PromotionTypePercentage, Value: money("50"),
			MaxDiscount: decPtr("20.00"), StartDate: testNow.Add(-time.Hour), EndDate: testNow.Add(time.Hour), IsActive: true}
		s.promotions[3] = model.Promotion{ID: 3, Code: "FIXED", Type: model.PromotionTypeFixedAmount, Value: money("80.00"),
			StartDate: testNow.Add(-time.Hour), EndDate: testNow.Add(time.Hour), IsActive: true}
	})

	cases := []struct {
		code     string
		subtotal string
		want     string
	}{
		{"PCT", "200.00", "30.00"},
		{"CAP", "200.00", "20.00"},
		{"FIXED", "50.00", "50.00"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			red, err := validate(t, store, tc.code, 1, tc.subtotal)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.want).Equal(red.Discount), red.Discount.String())
		})
	}
}

func TestPromotionValidator_FailureDoesNotCount(t *testing.T) {
	store := newMemStore()
	store.seed(func(s *memState) {
		s.promotions[1] = model.Promotion{ID: 1, Code: "PCT", Type: model.PromotionTypePercentage, Value: money("15"),
			StartDate: testNow.Add(-time.Hour), EndDate: testNow.Add(time.Hour), IsActive: true}
	})
	v := NewPromotionValidator(func() time.Time { return testNow })

	// 後続の処理で失敗したらused_countも戻る
	err := store.WithinTx(context.Background(), func(r repo.TxRepos) error {
		if _, err := v.ValidateAndReserve(context.Background(), r.Promotions(), "PCT", 1, money("10.00")); err != nil {
			return err
		}
		return NewValidationError("later step failed")
	})
	require.Error(t, err)
	assert.Equal(t, int64(0), store.snapshot().promotions[1].UsedCount)
}
