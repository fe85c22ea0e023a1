package repository

import (
	"context"
	"time"

	domainSchedule "github.com/AzielCF/az-post/domains/schedule"
)

// IScheduleRepository is the persistence contract for scheduled posts.
//
// Mutations are scoped: UpdateOwnedScheduledPost and DeleteScheduledPost
// match on (id, user_id), the review-path updates on id after a token lookup.
// AppendApproval must be atomic so concurrent reviewer approvals cannot lose
// each other.
type IScheduleRepository interface {
	Init(ctx context.Context) error

	CreateScheduledPost(ctx context.Context, post domainSchedule.ScheduledPost) error
	GetScheduledPost(ctx context.Context, id string) (domainSchedule.ScheduledPost, error)
	GetScheduledPostByReviewToken(ctx context.Context, token string) (domainSchedule.ScheduledPost, error)
	ListScheduledPostsByUser(ctx context.Context, userID string) ([]domainSchedule.ScheduledPost, error)
	FindPendingRecurringDuplicate(ctx context.Context, userID, content, cronExpr string) (domainSchedule.ScheduledPost, error)
	ListDueScheduledPosts(ctx context.Context, now time.Time) ([]domainSchedule.ScheduledPost, error)

	UpdateOwnedScheduledPost(ctx context.Context, post domainSchedule.ScheduledPost) error
	UpdateReviewState(ctx context.Context, post domainSchedule.ScheduledPost) error
	UpdateExecutionState(ctx context.Context, post domainSchedule.ScheduledPost) error
	AppendApproval(ctx context.Context, id, email string) ([]string, error)

	DeleteScheduledPost(ctx context.Context, userID, id string) error
}
