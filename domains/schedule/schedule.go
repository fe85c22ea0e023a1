package schedule

import (
	"context"
	"time"
)

type ScheduleStatus string

const (
	StatusPendingApproval ScheduleStatus = "pending_approval"
	StatusPending         ScheduleStatus = "pending"
	StatusPosted          ScheduleStatus = "posted"
	StatusRejected        ScheduleStatus = "rejected"
	StatusCancelled       ScheduleStatus = "cancelled"
	StatusFailed          ScheduleStatus = "failed"
)

// ContentSource says whether Content is ready-to-publish text or a topic the
// executor must expand through the content generator. It is fixed at
// creation/update time so the executor never has to guess from length.
type ContentSource string

const (
	SourceTopic ContentSource = "topic"
	SourceFinal ContentSource = "final"
)

// ImageGenerateMarker stored in ImageURL means "generate the image at
// execution time from the finalized post text".
const ImageGenerateMarker = "__GENERATE_ON_EXECUTION__"

const PlatformLinkedIn = "linkedin"

// ScheduledPost is a persisted intent to publish content at a future time,
// possibly recurring.
type ScheduledPost struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	Platform       string         `json:"platform"`
	Content        string         `json:"content"`
	ContentSource  ContentSource  `json:"content_source"`
	ImageURL       string         `json:"image_url,omitempty"`
	CronExpression string         `json:"cron_expression,omitempty"`
	ScheduledAt    time.Time      `json:"scheduled_at"`
	Status         ScheduleStatus `json:"status"`
	ReviewToken    string         `json:"review_token,omitempty"`
	TeamEmails     []string       `json:"team_emails,omitempty"`
	ApprovedEmails []string       `json:"approved_emails,omitempty"`
	ReviewComments string         `json:"review_comments,omitempty"`
	ReviewedAt     *time.Time     `json:"reviewed_at,omitempty"`
	PostID         string         `json:"post_id,omitempty"`
	PostURL        string         `json:"post_url,omitempty"`
	PostedAt       *time.Time     `json:"posted_at,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Recurring reports whether the post re-arms after a successful publish.
func (p ScheduledPost) Recurring() bool {
	return p.CronExpression != ""
}

type CreateScheduleRequest struct {
	Topic           string   `json:"topic"`
	CustomText      string   `json:"custom_text,omitempty"`
	Schedule        string   `json:"schedule,omitempty"`     // cron expression
	ScheduledAt     string   `json:"scheduled_at,omitempty"` // one-time absolute timestamp
	IncludeImage    bool     `json:"include_image"`
	ImageURL        string   `json:"image_url,omitempty"`
	RequireApproval bool     `json:"require_approval"`
	TeamEmails      []string `json:"team_emails,omitempty"`
}

type CreateScheduleResult struct {
	Message     string    `json:"message"`
	ScheduleID  string    `json:"schedule_id"`
	NextPostAt  time.Time `json:"next_post_at"`
	ReviewLink  string    `json:"review_link,omitempty"`
	ReviewToken string    `json:"review_token,omitempty"`
	TeamEmails  []string  `json:"team_emails,omitempty"`
	Existing    bool      `json:"-"`
}

type UpdateScheduleRequest struct {
	Topic        string `json:"topic,omitempty"`
	Content      string `json:"content,omitempty"`
	Schedule     string `json:"schedule,omitempty"`
	ScheduledAt  string `json:"scheduled_at,omitempty"`
	IncludeImage *bool  `json:"include_image,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
}

// DateOccurrence pairs a schedule with one concrete cron occurrence on a
// requested calendar day.
type DateOccurrence struct {
	Schedule ScheduledPost `json:"schedule"`
	Date     time.Time     `json:"date"`
}

type IScheduleUsecase interface {
	Create(ctx context.Context, userID string, request CreateScheduleRequest) (CreateScheduleResult, error)
	List(ctx context.Context, userID string) ([]ScheduledPost, error)
	Update(ctx context.Context, userID, scheduleID string, request UpdateScheduleRequest) (ScheduledPost, error)
	Activate(ctx context.Context, userID, scheduleID string) error
	Deactivate(ctx context.Context, userID, scheduleID string) error
	Delete(ctx context.Context, userID, scheduleID string) error
	ScheduledDatesForMonth(ctx context.Context, userID string, year, month int) ([]string, error)
	OccurrencesForDate(ctx context.Context, userID, date string) ([]DateOccurrence, error)
	PreviewOccurrences(cronExpr string, count int) []time.Time
}
