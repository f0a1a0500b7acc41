package orders

import (
	"context"
	"errors"
	"time"

	"github.com/fitstack/fitstack-orders/internal/domain"
)

// VerifyResult is returned by VerifyPayment.
type VerifyResult struct {
	Paid  bool
	Order *domain.Order
}

// VerifyPayment reconciles an order against the gateway's authoritative
// payment state for its checkout session. Safe to call repeatedly: an order
// already marked paid is returned as-is without re-activation.
func (s *Service) VerifyPayment(ctx context.Context, sessionID string) (*VerifyResult, error) {
	if sessionID == "" {
		return nil, domain.NewOrderError(domain.ErrInvalidOrder,
			"session_id is required", "VALIDATION_ERROR")
	}

	order, err := s.repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, domain.NewOrderError(err,
				"no order for session "+sessionID, "ORDER_NOT_FOUND")
		}
		return nil, domain.NewOrderError(domain.ErrStoreUnavailable,
			"failed to load order", "STORE_ERROR")
	}

	state, err := s.gateway.RetrieveTransaction(ctx, sessionID, order.OrderNumber)
	if err != nil {
		s.log.Infof("Failed to retrieve transaction %s: %v", sessionID, err)
		return nil, domain.NewOrderError(domain.ErrPaymentGatewayError,
			"failed to retrieve transaction state", "GATEWAY_ERROR")
	}

	if state.Paid {
		order, err = s.markPaid(ctx, order.OrderNumber, state.TransactionID, state.PaidAt)
	} else {
		order, err = s.markFailed(ctx, order.OrderNumber)
	}
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		Paid:  order.Payment.Status == domain.PaymentStatusPaid,
		Order: order,
	}, nil
}

// ProcessGatewayNotification handles a Mercado Pago payment notification:
// it fetches the payment details, normalizes them into a gateway event and
// dispatches it. Signature validation has already happened at the transport
// boundary.
func (s *Service) ProcessGatewayNotification(ctx context.Context, paymentID string) error {
	info, err := s.gateway.RetrievePayment(ctx, paymentID)
	if err != nil {
		s.log.Infof("Failed to get payment info %s: %v", paymentID, err)
		return domain.NewOrderError(domain.ErrPaymentGatewayError,
			"failed to get payment info", "GATEWAY_ERROR")
	}
	return s.HandleGatewayEvent(ctx, eventFromPayment(info))
}

// HandleGatewayEvent applies an asynchronous gateway notification to the
// matching order. Events may arrive out of order or be redelivered; each
// handled kind is an idempotent transition. Unknown kinds are logged and
// ignored.
func (s *Service) HandleGatewayEvent(ctx context.Context, evt domain.GatewayEvent) error {
	switch evt.Kind {
	case domain.EventCheckoutCompleted, domain.EventPaymentSucceeded:
		order, err := s.findByEvent(ctx, evt)
		if err != nil {
			return err
		}
		_, err = s.markPaid(ctx, order.OrderNumber, evt.TransactionID, evt.OccurredAt)
		return err

	case domain.EventPaymentFailed:
		order, err := s.findByEvent(ctx, evt)
		if err != nil {
			return err
		}
		_, err = s.markFailed(ctx, order.OrderNumber)
		return err

	default:
		s.log.Infof("Ignoring gateway event kind: %s", evt.Kind)
		return nil
	}
}

// findByEvent locates the order an event refers to, trying the payment-intent
// id, then the session id, then the order-number correlation token.
func (s *Service) findByEvent(ctx context.Context, evt domain.GatewayEvent) (*domain.Order, error) {
	if evt.PaymentIntentID != "" {
		order, err := s.repo.GetByPaymentIntentID(ctx, evt.PaymentIntentID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
	}
	if evt.SessionID != "" {
		order, err := s.repo.GetBySessionID(ctx, evt.SessionID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
	}
	if evt.CorrelationToken != "" {
		order, err := s.repo.GetByNumber(ctx, evt.CorrelationToken)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
	}
	return nil, domain.NewOrderError(domain.ErrOrderNotFound,
		"no order matches gateway event", "ORDER_NOT_FOUND")
}

// loadOrder reads an order during reconciliation, mapping store failures
// into the domain error taxonomy.
func (s *Service) loadOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	order, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, domain.NewOrderError(err,
				"order "+orderNumber+" not found", "ORDER_NOT_FOUND")
		}
		return nil, domain.NewOrderError(domain.ErrStoreUnavailable,
			"failed to load order", "STORE_ERROR")
	}
	return order, nil
}

// markPaid transitions an order to paid and activates its subscription.
// The per-order lock serializes concurrent reconciliation attempts for the
// same order; the fresh read inside the lock makes redelivery a no-op.
func (s *Service) markPaid(ctx context.Context, orderNumber, transactionID string, paidAt time.Time) (*domain.Order, error) {
	acquired, err := s.locker.Acquire(ctx, orderNumber)
	if err != nil {
		return nil, domain.NewOrderError(domain.ErrStoreUnavailable,
			"failed to acquire reconciliation lock", "LOCK_ERROR")
	}
	if !acquired {
		// Another reconciliation holds the lock; report current state
		// without mutating.
		s.log.Infof("Order %s is being reconciled concurrently", orderNumber)
		return s.loadOrder(ctx, orderNumber)
	}
	defer func() {
		if err := s.locker.Release(ctx, orderNumber); err != nil {
			s.log.Infof("Failed to release reconciliation lock for %s: %v", orderNumber, err)
		}
	}()

	order, err := s.loadOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if order.Payment.Status == domain.PaymentStatusPaid {
		// Already reconciled; do not re-activate.
		return order, nil
	}

	if paidAt.IsZero() {
		paidAt = s.now()
	}
	order.Payment.Status = domain.PaymentStatusPaid
	order.Payment.PaidAt = &paidAt
	order.Payment.TransactionID = transactionID
	if order.Payment.IntentID == "" {
		order.Payment.IntentID = transactionID
	}

	s.activate(order)

	if err := s.repo.Save(ctx, order); err != nil {
		return nil, domain.NewOrderError(domain.ErrStoreUnavailable,
			"failed to persist paid order", "STORE_ERROR")
	}

	s.log.Infof("Order %s paid, subscription active until %s",
		order.OrderNumber, order.Subscription.EndDate.Format("2006-01-02"))

	if s.notifier != nil {
		if err := s.notifier.NotifyActivated(ctx, order); err != nil {
			// Activation already persisted; the callback is best-effort.
			s.log.Infof("Failed to notify core about order %s: %v", order.OrderNumber, err)
		}
	}

	return order, nil
}

// markFailed records a failed payment outcome and cancels the order.
// A paid order is never downgraded by a late or out-of-order failure report.
func (s *Service) markFailed(ctx context.Context, orderNumber string) (*domain.Order, error) {
	acquired, err := s.locker.Acquire(ctx, orderNumber)
	if err != nil {
		return nil, domain.NewOrderError(domain.ErrStoreUnavailable,
			"failed to acquire reconciliation lock", "LOCK_ERROR")
	}
	if !acquired {
		s.log.Infof("Order %s is being reconciled concurrently", orderNumber)
		return s.loadOrder(ctx, orderNumber)
	}
	defer func() {
		if err := s.locker.Release(ctx, orderNumber); err != nil {
			s.log.Infof("Failed to release reconciliation lock for %s: %v", orderNumber, err)
		}
	}()

	order, err := s.loadOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if order.Payment.Status == domain.PaymentStatusPaid {
		return order, nil
	}
	if order.Payment.Status == domain.PaymentStatusFailed {
		return order, nil
	}

	order.Payment.Status = domain.PaymentStatusFailed
	order.Status = domain.OrderStatusCancelled

	if err := s.repo.Save(ctx, order); err != nil {
		return nil, domain.NewOrderError(domain.ErrStoreUnavailable,
			"failed to persist failed order", "STORE_ERROR")
	}

	s.log.Infof("Order %s marked failed", order.OrderNumber)
	return order, nil
}

// eventFromPayment maps a Mercado Pago payment to a normalized gateway event.
func eventFromPayment(info *domain.PaymentInfo) domain.GatewayEvent {
	var kind domain.EventKind
	switch info.Status {
	case "approved":
		kind = domain.EventPaymentSucceeded
	case "rejected", "cancelled":
		kind = domain.EventPaymentFailed
	default:
		// pending, in_process, refunded... - not reconciled here.
		kind = domain.EventKind("payment." + info.Status)
	}

	return domain.GatewayEvent{
		Kind:             kind,
		PaymentIntentID:  info.PaymentID,
		CorrelationToken: info.ExternalRef,
		TransactionID:    info.PaymentID,
		OccurredAt:       info.ApprovedAt,
	}
}
