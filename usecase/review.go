package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	domainReview "github.com/AzielCF/az-post/domains/review"
	domainSchedule "github.com/AzielCF/az-post/domains/schedule"
	pkgError "github.com/AzielCF/az-post/pkg/error"
	"github.com/AzielCF/az-post/repository"
	"github.com/AzielCF/az-post/validations"
	"github.com/sirupsen/logrus"
)

type serviceReview struct {
	repo repository.IScheduleRepository
}

func NewReviewService(repo repository.IScheduleRepository) domainReview.IReviewUsecase {
	return &serviceReview{repo: repo}
}

// findByToken resolves a review token, falling back to schedule ID so older
// links built from the ID keep working.
func (service serviceReview) findByToken(ctx context.Context, token string) (domainSchedule.ScheduledPost, error) {
	post, err := service.repo.GetScheduledPostByReviewToken(ctx, token)
	if err == nil {
		return post, nil
	}
	if err != domainSchedule.ErrScheduleNotFound {
		return domainSchedule.ScheduledPost{}, err
	}

	post, err = service.repo.GetScheduledPost(ctx, token)
	if err == domainSchedule.ErrScheduleNotFound {
		return domainSchedule.ScheduledPost{}, domainSchedule.ErrTokenNotFound
	}
	return post, err
}

func emailAuthorized(email string, teamEmails []string) bool {
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, team := range teamEmails {
		if strings.ToLower(strings.TrimSpace(team)) == needle {
			return true
		}
	}
	return false
}

func (service serviceReview) VerifyReviewerEmail(ctx context.Context, token, email string) (domainReview.VerifyResult, error) {
	post, err := service.findByToken(ctx, token)
	if err != nil {
		return domainReview.VerifyResult{}, err
	}

	// No reviewer list means the link itself is the credential.
	if len(post.TeamEmails) == 0 {
		return domainReview.VerifyResult{Verified: true, ScheduleID: post.ID}, nil
	}

	if emailAuthorized(email, post.TeamEmails) {
		return domainReview.VerifyResult{Verified: true, ScheduleID: post.ID}, nil
	}

	return domainReview.VerifyResult{
		Verified: false,
		Message:  fmt.Sprintf("Email '%s' is not authorized to review this post", email),
	}, nil
}

func (service serviceReview) GetScheduleForReview(ctx context.Context, token, email string) (domainReview.Snapshot, error) {
	post, err := service.findByToken(ctx, token)
	if err != nil {
		return domainReview.Snapshot{}, err
	}

	requiresVerification := len(post.TeamEmails) > 0

	if requiresVerification {
		if email == "" {
			// Reveal nothing but the reviewer list until an email is given.
			return domainReview.Snapshot{
				ScheduleID:                post.ID,
				TeamEmails:                post.TeamEmails,
				RequiresEmailVerification: true,
			}, nil
		}
		if !emailAuthorized(email, post.TeamEmails) {
			return domainReview.Snapshot{}, pkgError.AuthorizationError(fmt.Sprintf("Email '%s' is not authorized to review this post", email))
		}
	}

	if post.Status != domainSchedule.StatusPendingApproval && post.Status != domainSchedule.StatusPending {
		return domainReview.Snapshot{}, pkgError.ValidationError(fmt.Sprintf("Schedule status is '%s'. Only 'pending' or 'pending_approval' posts can be reviewed", post.Status))
	}

	scheduledAt := post.ScheduledAt
	return domainReview.Snapshot{
		ScheduleID:                post.ID,
		Content:                   post.Content,
		ImageURL:                  post.ImageURL,
		ScheduledAt:               &scheduledAt,
		Status:                    string(post.Status),
		Platform:                  post.Platform,
		TeamEmails:                post.TeamEmails,
		RequiresEmailVerification: requiresVerification,
		ReviewComments:            post.ReviewComments,
	}, nil
}

// SubmitReview applies one reviewer's verdict.
//
// Reject is terminal regardless of how many approvals were already recorded.
// Approve appends the reviewer to approved_emails (atomically, so two
// concurrent reviewers cannot drop each other) and promotes the post to
// pending only once every configured reviewer has approved. With no reviewer
// list a single approval promotes immediately.
func (service serviceReview) SubmitReview(ctx context.Context, request domainReview.SubmitRequest) (domainReview.Outcome, error) {
	if err := validations.ValidateSubmitReview(ctx, request); err != nil {
		return domainReview.Outcome{}, err
	}

	post, err := service.findByToken(ctx, request.Token)
	if err != nil {
		return domainReview.Outcome{}, err
	}

	if post.Status != domainSchedule.StatusPendingApproval && post.Status != domainSchedule.StatusPending {
		return domainReview.Outcome{}, pkgError.ValidationError(fmt.Sprintf("Schedule found but status is '%s'. Only 'pending' or 'pending_approval' posts can be reviewed", post.Status))
	}

	now := time.Now().UTC()

	if request.Action == domainReview.ActionReject {
		post.Status = domainSchedule.StatusRejected
		if request.Comments != "" {
			post.ReviewComments = request.Comments
		}
		post.ReviewedAt = &now
		if err := service.repo.UpdateReviewState(ctx, post); err != nil {
			return domainReview.Outcome{}, err
		}

		logrus.Infof("[REVIEW] Schedule %s rejected", post.ID)
		return domainReview.Outcome{
			Success:    true,
			Message:    "Post rejected",
			ScheduleID: post.ID,
		}, nil
	}

	approvedEmails := post.ApprovedEmails
	if request.ReviewerEmail != "" && len(post.TeamEmails) > 0 {
		if !emailAuthorized(request.ReviewerEmail, post.TeamEmails) {
			return domainReview.Outcome{}, pkgError.AuthorizationError(fmt.Sprintf("Email '%s' is not authorized to review this post", request.ReviewerEmail))
		}
		approvedEmails, err = service.repo.AppendApproval(ctx, post.ID, request.ReviewerEmail)
		if err != nil {
			return domainReview.Outcome{}, err
		}
	}

	fullyApproved := true
	for _, team := range post.TeamEmails {
		if !emailAuthorized(team, approvedEmails) {
			fullyApproved = false
			break
		}
	}

	post.Status = domainSchedule.StatusPendingApproval
	if fullyApproved {
		post.Status = domainSchedule.StatusPending
	}
	if request.Comments != "" {
		post.ReviewComments = request.Comments
	}
	post.ReviewedAt = &now
	if err := service.repo.UpdateReviewState(ctx, post); err != nil {
		return domainReview.Outcome{}, err
	}

	totalRequired := len(post.TeamEmails)
	if totalRequired == 0 {
		totalRequired = 1
	}

	outcome := domainReview.Outcome{
		Success:        true,
		ScheduleID:     post.ID,
		ApprovalsCount: len(approvedEmails),
		TotalRequired:  totalRequired,
		FullyApproved:  fullyApproved,
	}
	if fullyApproved && len(post.TeamEmails) > 0 {
		outcome.Message = "Post approved by all team members. Will be posted at scheduled time."
	} else if len(post.TeamEmails) > 0 {
		outcome.Message = fmt.Sprintf("Post approved (%d/%d approvals)", len(approvedEmails), len(post.TeamEmails))
	} else {
		outcome.Message = "Post approved and scheduled"
	}

	logrus.Infof("[REVIEW] Schedule %s approval recorded (%d/%d)", post.ID, outcome.ApprovalsCount, outcome.TotalRequired)
	return outcome, nil
}

func (service serviceReview) ApprovalStatus(ctx context.Context, userID, scheduleID string) (domainReview.ApprovalStatus, error) {
	post, err := service.repo.GetScheduledPost(ctx, scheduleID)
	if err != nil {
		return domainReview.ApprovalStatus{}, err
	}
	if post.UserID != userID {
		return domainReview.ApprovalStatus{}, domainSchedule.ErrScheduleNotFound
	}

	teamEmails := post.TeamEmails
	if teamEmails == nil {
		teamEmails = []string{}
	}
	approvedEmails := post.ApprovedEmails
	if approvedEmails == nil {
		approvedEmails = []string{}
	}

	return domainReview.ApprovalStatus{
		ScheduleID:     post.ID,
		Status:         string(post.Status),
		TeamEmails:     teamEmails,
		ApprovedEmails: approvedEmails,
	}, nil
}
