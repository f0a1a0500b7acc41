package orders

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fitstack/fitstack-orders/internal/domain"
)

// activate flips an order into an active subscription. The caller is
// responsible for persisting the order and must only invoke this once the
// payment is paid.
func (s *Service) activate(order *domain.Order) {
	start := s.now()
	end := subscriptionEnd(order.Package.Period, start)

	order.Subscription.IsActive = true
	order.Subscription.StartDate = &start
	order.Subscription.EndDate = &end
	if order.Subscription.AutoRenew {
		order.Subscription.RenewalDate = &end
	}
	order.Status = domain.OrderStatusActive
}

var periodCount = regexp.MustCompile(`\d+`)

// subscriptionEnd computes the subscription end date from the denormalized
// package period string. Periods containing a month count add that many
// months, year counts add years, and everything else ("Custom", "B2B Deal")
// falls back to a 30-day term even when it contains a number.
func subscriptionEnd(period string, start time.Time) time.Time {
	p := strings.ToLower(period)

	n := 1
	if match := periodCount.FindString(p); match != "" {
		if v, err := strconv.Atoi(match); err == nil && v > 0 {
			n = v
		}
	}

	switch {
	case strings.Contains(p, "month"):
		return start.AddDate(0, n, 0)
	case strings.Contains(p, "year"):
		return start.AddDate(n, 0, 0)
	default:
		return start.AddDate(0, 0, 30)
	}
}
