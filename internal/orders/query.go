package orders

import (
	"context"
	"errors"

	"github.com/fitstack/fitstack-orders/internal/domain"
)

// GetOrder fetches a single order by number. When userID is non-empty the
// lookup is scoped to that owner: an order belonging to someone else is
// reported as not found.
func (s *Service) GetOrder(ctx context.Context, orderNumber, userID string) (*domain.Order, error) {
	order, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, domain.NewOrderError(err,
				"order "+orderNumber+" not found", "ORDER_NOT_FOUND")
		}
		return nil, domain.NewOrderError(domain.ErrStoreUnavailable,
			"failed to load order", "STORE_ERROR")
	}
	if userID != "" && order.UserID != userID {
		return nil, domain.NewOrderError(domain.ErrOrderNotFound,
			"order "+orderNumber+" not found", "ORDER_NOT_FOUND")
	}
	return order, nil
}

// ListOrders returns orders matching the filter plus the total match count.
func (s *Service) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	if filter.Status != "" && !domain.ValidOrderStatus(filter.Status) {
		return nil, 0, domain.NewOrderError(domain.ErrInvalidStatus,
			"unknown status '"+string(filter.Status)+"'", "VALIDATION_ERROR")
	}

	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, domain.NewOrderError(domain.ErrStoreUnavailable,
			"failed to list orders", "STORE_ERROR")
	}
	return list, total, nil
}

// UpdateStatus sets the overall order status (admin-only operation).
// Transitioning to cancelled or suspended force-clears the subscription
// active flag; the payment record is left untouched.
func (s *Service) UpdateStatus(ctx context.Context, orderNumber string, status domain.OrderStatus) (*domain.Order, error) {
	if !domain.ValidOrderStatus(status) {
		return nil, domain.NewOrderError(domain.ErrInvalidStatus,
			"unknown status '"+string(status)+"'", "VALIDATION_ERROR")
	}

	order, err := s.GetOrder(ctx, orderNumber, "")
	if err != nil {
		return nil, err
	}

	order.Status = status
	if status == domain.OrderStatusCancelled || status == domain.OrderStatusSuspended {
		order.Subscription.IsActive = false
	}

	if err := s.repo.Save(ctx, order); err != nil {
		return nil, domain.NewOrderError(domain.ErrStoreUnavailable,
			"failed to persist status update", "STORE_ERROR")
	}

	s.log.Infof("Order %s status updated to %s", order.OrderNumber, status)
	return order, nil
}

// CancelSubscription cancels an order's subscription (user- or
// admin-initiated). Fails with ErrAlreadyCancelled if the order is already
// cancelled, leaving the state unchanged.
func (s *Service) CancelSubscription(ctx context.Context, orderNumber, userID string) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, orderNumber, userID)
	if err != nil {
		return nil, err
	}

	if order.Status == domain.OrderStatusCancelled {
		return nil, domain.NewOrderError(domain.ErrAlreadyCancelled,
			"order "+orderNumber+" is already cancelled", "ALREADY_CANCELLED")
	}

	order.Status = domain.OrderStatusCancelled
	order.Subscription.IsActive = false
	order.Subscription.AutoRenew = false

	if err := s.repo.Save(ctx, order); err != nil {
		return nil, domain.NewOrderError(domain.ErrStoreUnavailable,
			"failed to persist cancellation", "STORE_ERROR")
	}

	s.log.Infof("Order %s subscription cancelled", order.OrderNumber)
	return order, nil
}

// SubscriptionStatus reports whether an order's subscription is active right
// now, applying the same owner scoping as GetOrder.
func (s *Service) SubscriptionStatus(ctx context.Context, orderNumber, userID string) (bool, *domain.Order, error) {
	order, err := s.GetOrder(ctx, orderNumber, userID)
	if err != nil {
		return false, nil, err
	}
	return order.IsSubscriptionActive(s.now()), order, nil
}
