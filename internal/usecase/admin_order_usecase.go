package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ordercore/internal/domain/model"
	"ordercore/internal/infra/event"
	repo "ordercore/internal/repository"
)

// 店舗・運用側の注文ステータス操作
type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	publisher event.Publisher
	now       func() time.Time
}

func NewAdminOrderUsecase(tx repo.TransactionManager, publisher event.Publisher) *AdminOrderUsecase {
	if publisher == nil {
		publisher = event.NoopPublisher{}
	}
	return &AdminOrderUsecase{tx: tx, publisher: publisher, now: time.Now}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// ステータス更新。CANCELLEDなら未払いの決済を失効させて在庫を戻す
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderNumber string, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewUnauthorizedError()
	}
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return OrderOutput{}, NewValidationError("order number is required")
	}

	newStatus := model.OrderStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	switch newStatus {
	case model.OrderStatusConfirmed, model.OrderStatusPreparing, model.OrderStatusReady,
		model.OrderStatusDelivering, model.OrderStatusDelivered, model.OrderStatusCancelled:
	case model.OrderStatusPending:
		return OrderOutput{}, NewValidationError("status cannot be set back to PENDING")
	default:
		return OrderOutput{}, NewValidationError("invalid status")
	}

	now := u.now()
	var out OrderOutput
	var changed bool

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByOrderNumber(ctx, orderNumber)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("order not found")
		}
		if err != nil {
			return err
		}

		// すでに同じなら何もしない
		if o.Status != newStatus {
			if !model.CanTransition(o.Status, newStatus) {
				return NewConflictError(CodeInvalidTransition, "cannot change order from "+string(o.Status)+" to "+string(newStatus))
			}
			// 支払い確認はゲートウェイ照会でのみ行う
			if o.Status == model.OrderStatusPending && newStatus == model.OrderStatusConfirmed {
				return NewConflictError(CodeInvalidTransition, "order is awaiting payment")
			}

			if newStatus == model.OrderStatusCancelled {
				if err := u.expirePendingPayment(ctx, r, actorAdminUserID, o.ID, now); err != nil {
					return err
				}
			}

			if err := r.Orders().UpdateStatus(ctx, o.ID, o.Status, newStatus); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return NewConflictError(CodeConflict, "order status changed concurrently")
				}
				return err
			}
			if err := writeAudit(ctx, r, actorAdminUserID, model.AuditActionUpdateOrderStatus, model.AuditResourceOrder, o.ID,
				statusAudit(o.Status), statusAudit(newStatus), now); err != nil {
				return err
			}

			if newStatus == model.OrderStatusCancelled {
				if err := restoreStock(ctx, r, actorAdminUserID, o.ID, now); err != nil {
					return err
				}
			}
			changed = true
		}

		out, err = loadOrderOutput(ctx, r, o.ID)
		return err
	})
	if err != nil {
		return OrderOutput{}, internalUnlessTyped(err, "update order status")
	}

	if changed {
		logger.Info().Int64("actor_user_id", actorAdminUserID).Str("order_number", out.OrderNumber).Str("status", string(out.Status)).Msg("order status updated")
		if err := u.publisher.Publish(ctx, event.Event{
			Type:        event.TypeOrderStatusChanged,
			OrderID:     out.ID,
			OrderNumber: out.OrderNumber,
			UserID:      out.UserID,
			Status:      string(out.Status),
			OccurredAt:  now,
		}); err != nil {
			logger.Warn().Err(err).Str("order_number", out.OrderNumber).Msg("publish event failed")
		}
	}
	return out, nil
}

// 取消後に照会されても完了にならないようにする
func (u *AdminOrderUsecase) expirePendingPayment(ctx context.Context, r repo.TxRepos, actor int64, orderID int64, now time.Time) error {
	p, err := r.Payments().FindByOrderID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !p.Status.CanTransitionTo(model.PaymentStatusExpired) {
		return nil
	}
	if err := r.Payments().MarkExpired(ctx, p.ID, now); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusConflict, CodeConflict, "payment status changed concurrently")
		}
		return err
	}
	before := p
	p.Status = model.PaymentStatusExpired
	return writeAudit(ctx, r, actor, model.AuditActionPaymentExpired, model.AuditResourcePayment, p.ID, paymentAudit(before), paymentAudit(p), now)
}
