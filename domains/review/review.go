package review

import (
	"context"
	"time"
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Snapshot is the read-only projection rendered on the public review page.
// When reviewers are configured and the caller has not verified an email,
// only RequiresEmailVerification and TeamEmails are populated.
type Snapshot struct {
	ScheduleID                string     `json:"schedule_id"`
	Content                   string     `json:"content,omitempty"`
	ImageURL                  string     `json:"image_url,omitempty"`
	ScheduledAt               *time.Time `json:"scheduled_at,omitempty"`
	Status                    string     `json:"status,omitempty"`
	Platform                  string     `json:"platform,omitempty"`
	TeamEmails                []string   `json:"team_emails,omitempty"`
	RequiresEmailVerification bool       `json:"requires_email_verification"`
	ReviewComments            string     `json:"review_comments,omitempty"`
}

type SubmitRequest struct {
	Token         string `json:"token"`
	Action        string `json:"action"`
	Comments      string `json:"comments,omitempty"`
	ReviewerEmail string `json:"email,omitempty"`
}

type Outcome struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ScheduleID     string `json:"schedule_id"`
	ApprovalsCount int    `json:"approvals_count,omitempty"`
	TotalRequired  int    `json:"total_required,omitempty"`
	FullyApproved  bool   `json:"-"`
}

type VerifyResult struct {
	Verified   bool   `json:"verified"`
	ScheduleID string `json:"schedule_id,omitempty"`
	Message    string `json:"message,omitempty"`
}

// ApprovalStatus is the owner-facing projection for dashboards. Unlike the
// token-scoped operations above, it is owner-authenticated.
type ApprovalStatus struct {
	ScheduleID     string   `json:"schedule_id"`
	Status         string   `json:"status"`
	TeamEmails     []string `json:"team_emails"`
	ApprovedEmails []string `json:"approved_emails"`
}

type IReviewUsecase interface {
	VerifyReviewerEmail(ctx context.Context, token, email string) (VerifyResult, error)
	GetScheduleForReview(ctx context.Context, token, email string) (Snapshot, error)
	SubmitReview(ctx context.Context, request SubmitRequest) (Outcome, error)
	ApprovalStatus(ctx context.Context, userID, scheduleID string) (ApprovalStatus, error)
}
