package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"time"

	"ordercore/internal/domain/model"
	"ordercore/internal/infra/event"
	"ordercore/internal/infra/gateway"
	"ordercore/internal/metrics"
	repo "ordercore/internal/repository"
)

var contentHashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

type PaymentUsecase struct {
	tx        repo.TransactionManager
	gateway   PaymentGateway
	publisher event.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewPaymentUsecase(tx repo.TransactionManager, gw PaymentGateway, publisher event.Publisher, m *metrics.Metrics) *PaymentUsecase {
	if publisher == nil {
		publisher = event.NoopPublisher{}
	}
	return &PaymentUsecase{tx: tx, gateway: gw, publisher: publisher, metrics: m, now: time.Now}
}

type VerifyPaymentOutput struct {
	Paid        bool                `json:"paid"`
	Expired     bool                `json:"expired"`
	Status      model.PaymentStatus `json:"status"`
	OrderNumber string              `json:"order_number"`
	OrderStatus model.OrderStatus   `json:"order_status"`
	PaidAt      *time.Time          `json:"paid_at,omitempty"`
	Message     string              `json:"message"`
}

// Verifyはcontent hashの決済をゲートウェイに照会して状態を進める。
// ゲートウェイ呼び出し中はどの行ロックも持たない
func (u *PaymentUsecase) Verify(ctx context.Context, userID int64, contentHash string) (VerifyPaymentOutput, error) {
	if userID <= 0 {
		return VerifyPaymentOutput{}, NewUnauthorizedError()
	}
	if !contentHashPattern.MatchString(contentHash) {
		return VerifyPaymentOutput{}, NewValidationError("invalid content hash")
	}

	var p model.Payment
	var o model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		p, err = r.Payments().FindByContentHash(ctx, contentHash)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("payment not found")
		}
		if err != nil {
			return err
		}
		o, err = r.Orders().FindByID(ctx, p.OrderID)
		return err
	})
	if err != nil {
		return VerifyPaymentOutput{}, internalUnlessTyped(err, "load payment")
	}

	//所有チェック（他人の決済なら403）
	if o.UserID != userID {
		return VerifyPaymentOutput{}, NewForbiddenError()
	}

	if p.Status != model.PaymentStatusPending {
		u.metrics.PaymentVerified(outcomeOf(p.Status))
		return settledOutput(p, o), nil
	}

	now := u.now()
	if !now.Before(p.ExpiresAt) {
		return u.expire(ctx, userID, contentHash, now)
	}

	start := time.Now()
	st, err := u.gateway.CheckStatus(ctx, contentHash)
	u.metrics.ObserveGateway(start)
	if err != nil {
		if errors.Is(err, gateway.ErrTransient) {
			logger.Warn().Err(err).Str("content_hash", contentHash).Msg("gateway transient failure")
		} else {
			logger.Error().Err(err).Str("content_hash", contentHash).Msg("gateway lookup failed")
		}
		u.metrics.PaymentVerified("transient")
		return VerifyPaymentOutput{}, NewGatewayTransientError()
	}

	if !st.Paid {
		return u.touch(ctx, p, o, st)
	}
	return u.complete(ctx, userID, contentHash, st)
}

// まだ支払われていない。PENDINGのまま照会時刻だけ残す
func (u *PaymentUsecase) touch(ctx context.Context, p model.Payment, o model.Order, st gateway.Status) (VerifyPaymentOutput, error) {
	now := u.now()
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		err := r.Payments().TouchVerified(ctx, p.ID, now, st.RawResponse)
		//同時に完了・期限切れになった場合は何もしない
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return VerifyPaymentOutput{}, internalUnlessTyped(err, "touch payment")
	}

	u.metrics.PaymentVerified("not_paid")
	return VerifyPaymentOutput{
		Status:      model.PaymentStatusPending,
		OrderNumber: o.OrderNumber,
		OrderStatus: o.Status,
		Message:     "payment not received yet",
	}, nil
}

func (u *PaymentUsecase) complete(ctx context.Context, userID int64, contentHash string, st gateway.Status) (VerifyPaymentOutput, error) {
	now := u.now()
	var out VerifyPaymentOutput
	var completed bool
	var orderID int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByContentHashForUpdate(ctx, contentHash)
		if err != nil {
			return err
		}
		o, err := r.Orders().FindByID(ctx, p.OrderID)
		if err != nil {
			return err
		}

		//ロックを取るまでに別の照会で確定していた
		if !p.Status.CanTransitionTo(model.PaymentStatusCompleted) {
			out = settledOutput(p, o)
			return nil
		}

		paidAt := st.PaidAt
		if paidAt.IsZero() {
			paidAt = now
		}
		if err := r.Payments().MarkCompleted(ctx, p.ID, repo.PaymentCompletion{
			TransactionID: st.TransactionID,
			PaidAt:        paidAt,
			RawResponse:   st.RawResponse,
			VerifiedAt:    now,
		}); err != nil {
			return err
		}
		before := p
		p.Status = model.PaymentStatusCompleted
		p.PaidAt = &paidAt
		p.GatewayTransactionID = st.TransactionID
		if err := writeAudit(ctx, r, userID, model.AuditActionPaymentCompleted, model.AuditResourcePayment, p.ID, paymentAudit(before), paymentAudit(p), now); err != nil {
			return err
		}

		//支払い済みの注文はCONFIRMEDへ
		if o.Status == model.OrderStatusPending && model.CanTransition(o.Status, model.OrderStatusConfirmed) {
			if err := r.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusPending, model.OrderStatusConfirmed); err != nil {
				return err
			}
			if err := writeAudit(ctx, r, userID, model.AuditActionUpdateOrderStatus, model.AuditResourceOrder, o.ID,
				statusAudit(o.Status), statusAudit(model.OrderStatusConfirmed), now); err != nil {
				return err
			}
			o.Status = model.OrderStatusConfirmed
		} else {
			logger.Warn().Str("order_number", o.OrderNumber).Str("status", string(o.Status)).Msg("paid order is not pending")
		}

		completed = true
		orderID = o.ID
		out = settledOutput(p, o)
		return nil
	})
	if err != nil {
		return VerifyPaymentOutput{}, internalUnlessTyped(err, "complete payment")
	}

	u.metrics.PaymentVerified(outcomeOf(out.Status))
	if completed {
		logger.Info().Str("order_number", out.OrderNumber).Str("transaction_id", st.TransactionID).Msg("payment completed")
		u.publish(ctx, event.Event{
			Type:        event.TypePaymentCompleted,
			OrderID:     orderID,
			OrderNumber: out.OrderNumber,
			UserID:      userID,
			Status:      string(out.OrderStatus),
			OccurredAt:  now,
		})
	}
	return out, nil
}

// 期限切れ。ゲートウェイは呼ばずにEXPIREDにし、注文の取消と在庫戻しまで同じTxで行う
func (u *PaymentUsecase) expire(ctx context.Context, userID int64, contentHash string, now time.Time) (VerifyPaymentOutput, error) {
	var out VerifyPaymentOutput
	var expired bool
	var orderID int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByContentHashForUpdate(ctx, contentHash)
		if err != nil {
			return err
		}
		o, err := r.Orders().FindByID(ctx, p.OrderID)
		if err != nil {
			return err
		}
		if !p.Status.CanTransitionTo(model.PaymentStatusExpired) {
			out = settledOutput(p, o)
			return nil
		}

		if err := r.Payments().MarkExpired(ctx, p.ID, now); err != nil {
			return err
		}
		before := p
		p.Status = model.PaymentStatusExpired
		if err := writeAudit(ctx, r, userID, model.AuditActionPaymentExpired, model.AuditResourcePayment, p.ID, paymentAudit(before), paymentAudit(p), now); err != nil {
			return err
		}

		if model.CanTransition(o.Status, model.OrderStatusCancelled) {
			if err := r.Orders().UpdateStatus(ctx, o.ID, o.Status, model.OrderStatusCancelled); err != nil {
				return err
			}
			if err := writeAudit(ctx, r, userID, model.AuditActionUpdateOrderStatus, model.AuditResourceOrder, o.ID,
				statusAudit(o.Status), statusAudit(model.OrderStatusCancelled), now); err != nil {
				return err
			}
			o.Status = model.OrderStatusCancelled

			if err := restoreStock(ctx, r, userID, o.ID, now); err != nil {
				return err
			}
		}

		expired = true
		orderID = o.ID
		out = settledOutput(p, o)
		return nil
	})
	if err != nil {
		return VerifyPaymentOutput{}, internalUnlessTyped(err, "expire payment")
	}

	u.metrics.PaymentVerified(outcomeOf(out.Status))
	if expired {
		logger.Info().Str("order_number", out.OrderNumber).Msg("payment expired")
		u.publish(ctx, event.Event{
			Type:        event.TypePaymentExpired,
			OrderID:     orderID,
			OrderNumber: out.OrderNumber,
			UserID:      userID,
			Status:      string(out.OrderStatus),
			OccurredAt:  now,
		})
	}
	return out, nil
}

// 取消した注文の在庫を戻す
func restoreStock(ctx context.Context, r repo.TxRepos, userID int64, orderID int64, now time.Time) error {
	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.VariantID != nil {
			err = r.Inventory().IncreaseVariantStock(ctx, *it.VariantID, it.Quantity)
		} else {
			err = r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity)
		}
		if err != nil {
			return err
		}
		after, _ := json.Marshal(map[string]any{"order_id": orderID, "variant_id": it.VariantID, "restored": it.Quantity})
		if err := writeAudit(ctx, r, userID, model.AuditActionRestoreStock, model.AuditResourceProduct, it.ProductID, "", string(after), now); err != nil {
			return err
		}
	}
	return nil
}

func (u *PaymentUsecase) publish(ctx context.Context, ev event.Event) {
	if err := u.publisher.Publish(ctx, ev); err != nil {
		logger.Warn().Err(err).Str("type", ev.Type).Str("order_number", ev.OrderNumber).Msg("publish event failed")
	}
}

func settledOutput(p model.Payment, o model.Order) VerifyPaymentOutput {
	out := VerifyPaymentOutput{
		Status:      p.Status,
		OrderNumber: o.OrderNumber,
		OrderStatus: o.Status,
		PaidAt:      p.PaidAt,
	}
	switch p.Status {
	case model.PaymentStatusCompleted:
		out.Paid = true
		out.Message = "payment completed"
	case model.PaymentStatusExpired:
		out.Expired = true
		out.Message = "not paid, payment expired"
	case model.PaymentStatusFailed:
		out.Message = "payment failed"
	default:
		out.Message = "payment not received yet"
	}
	return out
}

func outcomeOf(s model.PaymentStatus) string {
	switch s {
	case model.PaymentStatusCompleted:
		return "paid"
	case model.PaymentStatusExpired:
		return "expired"
	case model.PaymentStatusFailed:
		return "failed"
	}
	return "not_paid"
}

func writeAudit(ctx context.Context, r repo.TxRepos, actor int64, action model.AuditAction, resource model.AuditResourceType, resourceID int64, before, after string, at time.Time) error {
	return r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actor,
		Action:       action,
		ResourceType: resource,
		ResourceID:   resourceID,
		BeforeJSON:   before,
		AfterJSON:    after,
		CreatedAt:    at,
	})
}

func paymentAudit(p model.Payment) string {
	b, _ := json.Marshal(map[string]any{
		"status":         p.Status,
		"paid_at":        p.PaidAt,
		"transaction_id": p.GatewayTransactionID,
	})
	return string(b)
}

func statusAudit(s model.OrderStatus) string {
	b, _ := json.Marshal(map[string]any{"status": s})
	return string(b)
}
