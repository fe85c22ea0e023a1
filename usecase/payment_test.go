package usecase

import (
	"context"
	"testing"
	"time"

	domainPayment "github.com/AzielCF/az-post/domains/payment"
	"github.com/AzielCF/az-post/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newPaymentRepo(t *testing.T) repository.IPaymentRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	repo := repository.NewPaymentGormRepository(db)
	require.NoError(t, repo.InitSchema(context.Background()))
	return repo
}

func TestRecordAndCheckPayment(t *testing.T) {
	service := NewPaymentService(newPaymentRepo(t))
	ctx := context.Background()

	status, err := service.CheckPaymentStatus(ctx, "user-1", domainPayment.ServiceLinkedInPost)
	require.NoError(t, err)
	assert.False(t, status.HasPaid)

	payment, err := service.RecordPayment(ctx, "user-1", domainPayment.RecordPaymentRequest{
		TxHash:  "0xabc123",
		Amount:  "5.00",
		Service: domainPayment.ServiceLinkedInPost,
	})
	require.NoError(t, err)
	assert.Equal(t, domainPayment.StatusVerified, payment.Status)

	status, err = service.CheckPaymentStatus(ctx, "user-1", domainPayment.ServiceLinkedInPost)
	require.NoError(t, err)
	assert.True(t, status.HasPaid)
	require.NotNil(t, status.Payment)
	assert.Equal(t, "0xabc123", status.Payment.TxHash)

	// Payments never bleed across users.
	status, err = service.CheckPaymentStatus(ctx, "user-2", domainPayment.ServiceLinkedInPost)
	require.NoError(t, err)
	assert.False(t, status.HasPaid)
}

func TestWithImagePaymentCoversPlainPosts(t *testing.T) {
	service := NewPaymentService(newPaymentRepo(t))
	ctx := context.Background()

	_, err := service.RecordPayment(ctx, "user-1", domainPayment.RecordPaymentRequest{
		TxHash:  "0xdef456",
		Service: domainPayment.ServiceLinkedInPostWithImage,
	})
	require.NoError(t, err)

	status, err := service.CheckPaymentStatus(ctx, "user-1", domainPayment.ServiceLinkedInPost)
	require.NoError(t, err)
	assert.True(t, status.HasPaid)

	// The reverse does not hold: a plain payment is not an image payment.
	plain := NewPaymentService(newPaymentRepo(t))
	_, err = plain.RecordPayment(ctx, "user-2", domainPayment.RecordPaymentRequest{
		TxHash:  "0x789",
		Service: domainPayment.ServiceLinkedInPost,
	})
	require.NoError(t, err)
	status, err = plain.CheckPaymentStatus(ctx, "user-2", domainPayment.ServiceLinkedInPostWithImage)
	require.NoError(t, err)
	assert.False(t, status.HasPaid)
}

func TestRecordPaymentValidation(t *testing.T) {
	service := NewPaymentService(newPaymentRepo(t))
	ctx := context.Background()

	_, err := service.RecordPayment(ctx, "user-1", domainPayment.RecordPaymentRequest{
		Service: domainPayment.ServiceLinkedInPost,
	})
	require.Error(t, err, "tx hash is required")

	_, err = service.RecordPayment(ctx, "user-1", domainPayment.RecordPaymentRequest{
		TxHash:  "0xabc",
		Service: "sms_blast",
	})
	require.Error(t, err, "unknown service is rejected")
}

func TestListPayments(t *testing.T) {
	service := NewPaymentService(newPaymentRepo(t))
	ctx := context.Background()

	for _, tx := range []string{"0x1", "0x2", "0x3"} {
		_, err := service.RecordPayment(ctx, "user-1", domainPayment.RecordPaymentRequest{
			TxHash:  tx,
			Service: domainPayment.ServiceLinkedInPost,
		})
		require.NoError(t, err)
		// Distinct timestamps keep the newest-first ordering deterministic.
		time.Sleep(5 * time.Millisecond)
	}

	payments, err := service.ListPayments(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "0x3", payments[0].TxHash)
	assert.Equal(t, "0x2", payments[1].TxHash)
}
