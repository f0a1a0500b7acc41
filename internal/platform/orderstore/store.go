package orderstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fitstack/fitstack-orders/internal/domain"
)

// Store implements domain.OrderRepository.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new order store backed by the given database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create persists a new order.
func (s *Store) Create(ctx context.Context, order *domain.Order) error {
	return s.db.WithContext(ctx).Create(order).Error
}

// GetByNumber retrieves an order by its order number.
func (s *Store) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return s.getOne(ctx, "order_number = ?", number)
}

// GetBySessionID retrieves an order by the gateway checkout session id.
func (s *Store) GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	return s.getOne(ctx, "payment_session_id = ?", sessionID)
}

// GetByPaymentIntentID retrieves an order by the gateway payment-intent id.
func (s *Store) GetByPaymentIntentID(ctx context.Context, intentID string) (*domain.Order, error) {
	return s.getOne(ctx, "payment_intent_id = ?", intentID)
}

func (s *Store) getOne(ctx context.Context, query string, arg string) (*domain.Order, error) {
	var order domain.Order
	err := s.db.WithContext(ctx).Where(query, arg).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// List returns orders matching the filter, newest first, plus the total
// match count before pagination.
func (s *Store) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	q := s.db.WithContext(ctx).Model(&domain.Order{})

	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		q = q.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.Search != "" {
		// LOWER keeps the match case-insensitive on Postgres too, where
		// plain LIKE is case-sensitive.
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where(
			"LOWER(order_number) LIKE ? OR LOWER(customer_email) LIKE ? OR LOWER(customer_full_name) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := filter.Offset()

	var list []domain.Order
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Save persists mutations to an existing order.
func (s *Store) Save(ctx context.Context, order *domain.Order) error {
	return s.db.WithContext(ctx).Save(order).Error
}

// orderCounter holds one monotonically increasing sequence per calendar
// month. The upsert in NextOrderNumber is the single atomic increment point;
// there is no query-max-then-increment window.
type orderCounter struct {
	MonthKey string `gorm:"primaryKey;size:8"`
	Seq      int
}

func (orderCounter) TableName() string {
	return "order_counters"
}

// NextOrderNumber atomically reserves the next order number for the calendar
// month containing now. The sequence starts at 1 for each new month prefix.
func (s *Store) NextOrderNumber(ctx context.Context, now time.Time) (string, error) {
	prefix := domain.OrderNumberPrefix(now)

	var counter orderCounter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "month_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"seq": gorm.Expr("order_counters.seq + 1")}),
		}).Create(&orderCounter{MonthKey: prefix, Seq: 1}).Error; err != nil {
			return err
		}
		return tx.First(&counter, "month_key = ?", prefix).Error
	})
	if err != nil {
		return "", err
	}

	return domain.FormatOrderNumber(prefix, counter.Seq), nil
}
