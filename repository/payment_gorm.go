package repository

import (
	"context"
	"time"

	domainPayment "github.com/AzielCF/az-post/domains/payment"
	"gorm.io/gorm"
)

// IPaymentRepository is the persistence contract for the payment ledger.
type IPaymentRepository interface {
	InitSchema(ctx context.Context) error
	Create(ctx context.Context, payment *domainPayment.Payment) error
	LatestVerified(ctx context.Context, userID string, services []string) (*domainPayment.Payment, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domainPayment.Payment, error)
}

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

func (r *PaymentGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&domainPayment.Payment{})
}

func (r *PaymentGormRepository) Create(ctx context.Context, payment *domainPayment.Payment) error {
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(payment).Error
}

// LatestVerified returns the most recent verified payment matching any of the
// given services, or nil when the user has none.
func (r *PaymentGormRepository) LatestVerified(ctx context.Context, userID string, services []string) (*domainPayment.Payment, error) {
	var m domainPayment.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND service IN ?", userID, domainPayment.StatusVerified, services).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *PaymentGormRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domainPayment.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	var payments []domainPayment.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}
