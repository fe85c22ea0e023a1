package usecase

import (
	"context"

	domainPayment "github.com/AzielCF/az-post/domains/payment"
	"github.com/AzielCF/az-post/repository"
	"github.com/AzielCF/az-post/validations"
	"github.com/sirupsen/logrus"
)

type servicePayment struct {
	repo repository.IPaymentRepository
}

func NewPaymentService(repo repository.IPaymentRepository) domainPayment.IPaymentUsecase {
	return &servicePayment{repo: repo}
}

// CheckPaymentStatus reports whether the user holds a verified payment for
// the given service. A with-image payment also covers plain posts.
func (service servicePayment) CheckPaymentStatus(ctx context.Context, userID, serviceName string) (domainPayment.PaymentStatus, error) {
	services := []string{serviceName}
	if serviceName == domainPayment.ServiceLinkedInPost {
		services = append(services, domainPayment.ServiceLinkedInPostWithImage)
	}

	latest, err := service.repo.LatestVerified(ctx, userID, services)
	if err != nil {
		return domainPayment.PaymentStatus{}, err
	}
	if latest == nil {
		return domainPayment.PaymentStatus{HasPaid: false}, nil
	}

	return domainPayment.PaymentStatus{HasPaid: true, Payment: latest}, nil
}

// RecordPayment stores an already verified transaction. On-chain verification
// happens upstream before the transaction hash reaches this API.
func (service servicePayment) RecordPayment(ctx context.Context, userID string, request domainPayment.RecordPaymentRequest) (domainPayment.Payment, error) {
	if err := validations.ValidateRecordPayment(ctx, request); err != nil {
		return domainPayment.Payment{}, err
	}

	payment := domainPayment.Payment{
		UserID:  userID,
		TxHash:  request.TxHash,
		Amount:  request.Amount,
		Service: request.Service,
		Status:  domainPayment.StatusVerified,
	}
	if err := service.repo.Create(ctx, &payment); err != nil {
		return domainPayment.Payment{}, err
	}

	logrus.Infof("[PAYMENT] Recorded %s payment for user %s (tx %s)", payment.Service, userID, payment.TxHash)
	return payment, nil
}

func (service servicePayment) ListPayments(ctx context.Context, userID string, limit int) ([]domainPayment.Payment, error) {
	return service.repo.ListByUser(ctx, userID, limit)
}
