// Package orders implements the core business logic for the package-order
// payment lifecycle. This is the service/use-case layer in Clean Architecture.
package orders

import (
	"time"

	"go.uber.org/zap"

	"github.com/fitstack/fitstack-orders/internal/domain"
)

// Service implements the package-order business logic.
// It orchestrates between the catalog (to resolve packages), the payment
// gateway (to create and verify checkout transactions) and the order store.
type Service struct {
	repo     domain.OrderRepository
	catalog  domain.CatalogRepository
	gateway  domain.PaymentGateway
	notifier domain.ActivationNotifier
	locker   domain.ReconcileLocker
	log      *zap.SugaredLogger

	// now is swappable in tests.
	now func() time.Time
}

// NewService creates a new order service with the required dependencies.
func NewService(
	repo domain.OrderRepository,
	catalog domain.CatalogRepository,
	gateway domain.PaymentGateway,
	notifier domain.ActivationNotifier,
	locker domain.ReconcileLocker,
	logger *zap.SugaredLogger,
) *Service {
	return &Service{
		repo:     repo,
		catalog:  catalog,
		gateway:  gateway,
		notifier: notifier,
		locker:   locker,
		log:      logger,
		now:      time.Now,
	}
}
