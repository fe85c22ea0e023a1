package payment

import (
	"context"
	"time"
)

const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusRefunded = "refunded"
)

const (
	ServiceLinkedInPost          = "linkedin_post"
	ServiceLinkedInPostWithImage = "linkedin_post_with_image"
)

type Payment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index"`
	TxHash    string    `json:"tx_hash"`
	Amount    string    `json:"amount"`
	Service   string    `json:"service"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type PaymentStatus struct {
	HasPaid bool     `json:"has_paid"`
	Payment *Payment `json:"payment,omitempty"`
}

type RecordPaymentRequest struct {
	TxHash  string `json:"tx_hash"`
	Amount  string `json:"amount"`
	Service string `json:"service"`
}

type IPaymentUsecase interface {
	CheckPaymentStatus(ctx context.Context, userID, service string) (PaymentStatus, error)
	RecordPayment(ctx context.Context, userID string, request RecordPaymentRequest) (Payment, error)
	ListPayments(ctx context.Context, userID string, limit int) ([]Payment, error)
}
