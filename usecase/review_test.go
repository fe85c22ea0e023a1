package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	domainReview "github.com/AzielCF/az-post/domains/review"
	domainSchedule "github.com/AzielCF/az-post/domains/schedule"
	pkgError "github.com/AzielCF/az-post/pkg/error"
	"github.com/AzielCF/az-post/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createReviewedSchedule(t *testing.T, repo repository.IScheduleRepository, teamEmails []string) domainSchedule.CreateScheduleResult {
	t.Helper()

	result, err := NewScheduleService(repo, nil).Create(context.Background(), "user-1", domainSchedule.CreateScheduleRequest{
		Topic:           "Go tips",
		Schedule:        "0 9 * * *",
		RequireApproval: true,
		TeamEmails:      teamEmails,
	})
	require.NoError(t, err)
	return result
}

func TestVerifyReviewerEmail(t *testing.T) {
	repo := newScheduleRepo(t)
	service := NewReviewService(repo)
	ctx := context.Background()

	created := createReviewedSchedule(t, repo, []string{"a@example.com"})

	verified, err := service.VerifyReviewerEmail(ctx, created.ReviewToken, "A@Example.com")
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.Equal(t, created.ScheduleID, verified.ScheduleID)

	denied, err := service.VerifyReviewerEmail(ctx, created.ReviewToken, "stranger@example.com")
	require.NoError(t, err)
	assert.False(t, denied.Verified)
	assert.Contains(t, denied.Message, "not authorized")

	// Without a reviewer list the link alone is enough.
	open := createReviewedSchedule(t, repo, nil)
	verified, err = service.VerifyReviewerEmail(ctx, open.ReviewToken, "")
	require.NoError(t, err)
	assert.True(t, verified.Verified)
}

func TestGetScheduleForReview(t *testing.T) {
	repo := newScheduleRepo(t)
	service := NewReviewService(repo)
	ctx := context.Background()

	created := createReviewedSchedule(t, repo, []string{"a@example.com"})

	// No email yet: only the reviewer list is revealed.
	snapshot, err := service.GetScheduleForReview(ctx, created.ReviewToken, "")
	require.NoError(t, err)
	assert.True(t, snapshot.RequiresEmailVerification)
	assert.Empty(t, snapshot.Content)
	assert.Nil(t, snapshot.ScheduledAt)
	assert.Equal(t, []string{"a@example.com"}, snapshot.TeamEmails)

	snapshot, err = service.GetScheduleForReview(ctx, created.ReviewToken, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Go tips", snapshot.Content)
	assert.Equal(t, string(domainSchedule.StatusPendingApproval), snapshot.Status)
	require.NotNil(t, snapshot.ScheduledAt)
	assert.False(t, snapshot.ScheduledAt.IsZero())

	_, err = service.GetScheduleForReview(ctx, created.ReviewToken, "stranger@example.com")
	require.Error(t, err)
	_, isAuth := err.(pkgError.AuthorizationError)
	assert.True(t, isAuth)

	_, err = service.GetScheduleForReview(ctx, "bogus-token", "")
	assert.Equal(t, domainSchedule.ErrTokenNotFound, err)
}

func TestSubmitReviewApprovalFanIn(t *testing.T) {
	// Full approval must come out the same regardless of reviewer order.
	orders := map[string][]string{
		"a then b": {"a@example.com", "b@example.com"},
		"b then a": {"b@example.com", "a@example.com"},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			repo := newScheduleRepo(t)
			service := NewReviewService(repo)
			ctx := context.Background()

			created := createReviewedSchedule(t, repo, []string{"a@example.com", "b@example.com"})

			first, err := service.SubmitReview(ctx, domainReview.SubmitRequest{
				Token:         created.ReviewToken,
				Action:        domainReview.ActionApprove,
				ReviewerEmail: order[0],
			})
			require.NoError(t, err)
			assert.Equal(t, 1, first.ApprovalsCount)
			assert.Equal(t, 2, first.TotalRequired)
			assert.False(t, first.FullyApproved)
			assert.Equal(t, "Post approved (1/2 approvals)", first.Message)

			// Partial approval keeps the post awaiting the remaining reviewers.
			post, err := repo.GetScheduledPost(ctx, created.ScheduleID)
			require.NoError(t, err)
			assert.Equal(t, domainSchedule.StatusPendingApproval, post.Status)

			// Re-approving is idempotent.
			again, err := service.SubmitReview(ctx, domainReview.SubmitRequest{
				Token:         created.ReviewToken,
				Action:        domainReview.ActionApprove,
				ReviewerEmail: strings.ToUpper(order[0]),
			})
			require.NoError(t, err)
			assert.Equal(t, 1, again.ApprovalsCount)

			second, err := service.SubmitReview(ctx, domainReview.SubmitRequest{
				Token:         created.ReviewToken,
				Action:        domainReview.ActionApprove,
				ReviewerEmail: order[1],
			})
			require.NoError(t, err)
			assert.Equal(t, 2, second.ApprovalsCount)
			assert.True(t, second.FullyApproved)
			assert.Equal(t, "Post approved by all team members. Will be posted at scheduled time.", second.Message)

			post, err = repo.GetScheduledPost(ctx, created.ScheduleID)
			require.NoError(t, err)
			assert.Equal(t, domainSchedule.StatusPending, post.Status)
		})
	}
}

// heldBackReviewRepo delays partial-approval status writes until released,
// forcing the interleaving where a slower reviewer's pending_approval write
// lands after a promoting pending write.
type heldBackReviewRepo struct {
	repository.IScheduleRepository
	release chan struct{}
}

func (r *heldBackReviewRepo) UpdateReviewState(ctx context.Context, post domainSchedule.ScheduledPost) error {
	if post.Status == domainSchedule.StatusPendingApproval {
		<-r.release
	}
	return r.IScheduleRepository.UpdateReviewState(ctx, post)
}

func TestSubmitReviewConcurrentApprovalKeepsPromotion(t *testing.T) {
	repo := newScheduleRepo(t)
	created := createReviewedSchedule(t, repo, []string{"a@example.com", "b@example.com"})

	gated := &heldBackReviewRepo{IScheduleRepository: repo, release: make(chan struct{})}
	service := NewReviewService(gated)
	ctx := context.Background()

	// Reviewer A's approval is appended, then its status write stalls.
	done := make(chan error, 1)
	go func() {
		_, err := service.SubmitReview(ctx, domainReview.SubmitRequest{
			Token:         created.ReviewToken,
			Action:        domainReview.ActionApprove,
			ReviewerEmail: "a@example.com",
		})
		done <- err
	}()

	require.Eventually(t, func() bool {
		post, err := repo.GetScheduledPost(ctx, created.ScheduleID)
		return err == nil && len(post.ApprovedEmails) == 1
	}, 5*time.Second, 5*time.Millisecond)

	// Reviewer B completes the set and promotes the post.
	outcome, err := service.SubmitReview(ctx, domainReview.SubmitRequest{
		Token:         created.ReviewToken,
		Action:        domainReview.ActionApprove,
		ReviewerEmail: "b@example.com",
	})
	require.NoError(t, err)
	assert.True(t, outcome.FullyApproved)

	// A's stale partial write lands last and must not undo the promotion.
	close(gated.release)
	require.NoError(t, <-done)

	post, err := repo.GetScheduledPost(ctx, created.ScheduleID)
	require.NoError(t, err)
	assert.Len(t, post.ApprovedEmails, 2)
	assert.Equal(t, domainSchedule.StatusPending, post.Status)
}

func TestSubmitReviewOpenApproval(t *testing.T) {
	repo := newScheduleRepo(t)
	service := NewReviewService(repo)
	ctx := context.Background()

	created := createReviewedSchedule(t, repo, nil)

	outcome, err := service.SubmitReview(ctx, domainReview.SubmitRequest{
		Token:  created.ReviewToken,
		Action: domainReview.ActionApprove,
	})
	require.NoError(t, err)
	assert.True(t, outcome.FullyApproved)
	assert.Equal(t, "Post approved and scheduled", outcome.Message)

	post, err := repo.GetScheduledPost(ctx, created.ScheduleID)
	require.NoError(t, err)
	assert.Equal(t, domainSchedule.StatusPending, post.Status)
}

func TestSubmitReviewRejectIsTerminal(t *testing.T) {
	repo := newScheduleRepo(t)
	service := NewReviewService(repo)
	ctx := context.Background()

	created := createReviewedSchedule(t, repo, []string{"a@example.com"})

	outcome, err := service.SubmitReview(ctx, domainReview.SubmitRequest{
		Token:    created.ReviewToken,
		Action:   domainReview.ActionReject,
		Comments: "tone is off",
	})
	require.NoError(t, err)
	assert.Equal(t, "Post rejected", outcome.Message)

	post, err := repo.GetScheduledPost(ctx, created.ScheduleID)
	require.NoError(t, err)
	assert.Equal(t, domainSchedule.StatusRejected, post.Status)
	assert.Equal(t, "tone is off", post.ReviewComments)
	assert.NotNil(t, post.ReviewedAt)

	// A rejected post cannot be approved afterwards.
	_, err = service.SubmitReview(ctx, domainReview.SubmitRequest{
		Token:         created.ReviewToken,
		Action:        domainReview.ActionApprove,
		ReviewerEmail: "a@example.com",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestSubmitReviewUnauthorizedEmail(t *testing.T) {
	repo := newScheduleRepo(t)
	service := NewReviewService(repo)

	created := createReviewedSchedule(t, repo, []string{"a@example.com"})

	_, err := service.SubmitReview(context.Background(), domainReview.SubmitRequest{
		Token:         created.ReviewToken,
		Action:        domainReview.ActionApprove,
		ReviewerEmail: "stranger@example.com",
	})
	require.Error(t, err)
	_, isAuth := err.(pkgError.AuthorizationError)
	assert.True(t, isAuth)
}

func TestSubmitReviewFallsBackToScheduleID(t *testing.T) {
	repo := newScheduleRepo(t)
	service := NewReviewService(repo)

	created := createReviewedSchedule(t, repo, nil)

	// Older links carry the schedule ID instead of the token.
	outcome, err := service.SubmitReview(context.Background(), domainReview.SubmitRequest{
		Token:  created.ScheduleID,
		Action: domainReview.ActionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ScheduleID, outcome.ScheduleID)
}

func TestApprovalStatus(t *testing.T) {
	repo := newScheduleRepo(t)
	service := NewReviewService(repo)
	ctx := context.Background()

	created := createReviewedSchedule(t, repo, []string{"a@example.com", "b@example.com"})

	_, err := service.SubmitReview(ctx, domainReview.SubmitRequest{
		Token:         created.ReviewToken,
		Action:        domainReview.ActionApprove,
		ReviewerEmail: "a@example.com",
	})
	require.NoError(t, err)

	status, err := service.ApprovalStatus(ctx, "user-1", created.ScheduleID)
	require.NoError(t, err)
	assert.Equal(t, string(domainSchedule.StatusPendingApproval), status.Status)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, status.TeamEmails)
	assert.Equal(t, []string{"a@example.com"}, status.ApprovedEmails)

	_, err = service.ApprovalStatus(ctx, "user-2", created.ScheduleID)
	assert.Equal(t, domainSchedule.ErrScheduleNotFound, err)
}
