package validations

import (
	"context"

	domainPayment "github.com/AzielCF/az-post/domains/payment"
	domainReview "github.com/AzielCF/az-post/domains/review"
	domainSchedule "github.com/AzielCF/az-post/domains/schedule"
	pkgError "github.com/AzielCF/az-post/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

func ValidateCreateSchedule(ctx context.Context, request domainSchedule.CreateScheduleRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Topic, validation.Required.When(request.CustomText == "").Error("either topic or custom_text is required")),
		validation.Field(&request.Schedule, validation.Required.When(request.ScheduledAt == "").Error("either schedule or scheduled_at is required")),
		validation.Field(&request.ScheduledAt, validation.Empty.When(request.Schedule != "").Error("provide either schedule or scheduled_at, not both")),
		validation.Field(&request.TeamEmails, validation.Each(is.EmailFormat)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateUpdateSchedule(ctx context.Context, request domainSchedule.UpdateScheduleRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Schedule, validation.Length(0, 100)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateSubmitReview(ctx context.Context, request domainReview.SubmitRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Token, validation.Required),
		validation.Field(&request.Action, validation.Required, validation.In(domainReview.ActionApprove, domainReview.ActionReject)),
		validation.Field(&request.ReviewerEmail, is.EmailFormat),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateRecordPayment(ctx context.Context, request domainPayment.RecordPaymentRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.TxHash, validation.Required),
		validation.Field(&request.Service, validation.Required, validation.In(
			domainPayment.ServiceLinkedInPost,
			domainPayment.ServiceLinkedInPostWithImage,
		)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
