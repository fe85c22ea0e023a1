package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AzielCF/az-post/config"
	domainNotify "github.com/AzielCF/az-post/domains/notify"
	domainSchedule "github.com/AzielCF/az-post/domains/schedule"
	pkgError "github.com/AzielCF/az-post/pkg/error"
	"github.com/AzielCF/az-post/pkg/recurrence"
	"github.com/AzielCF/az-post/repository"
	"github.com/AzielCF/az-post/validations"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type serviceSchedule struct {
	repo     repository.IScheduleRepository
	notifier domainNotify.INotifier
}

func NewScheduleService(repo repository.IScheduleRepository, notifier domainNotify.INotifier) domainSchedule.IScheduleUsecase {
	return &serviceSchedule{
		repo:     repo,
		notifier: notifier,
	}
}

func (service serviceSchedule) Create(ctx context.Context, userID string, request domainSchedule.CreateScheduleRequest) (domainSchedule.CreateScheduleResult, error) {
	if err := validations.ValidateCreateSchedule(ctx, request); err != nil {
		return domainSchedule.CreateScheduleResult{}, err
	}

	// Resolve the first execution time. Validation guarantees exactly one of
	// scheduled_at and schedule is set.
	var nextPostAt time.Time
	if request.ScheduledAt != "" {
		parsed, ok := recurrence.ParseOneTime(request.ScheduledAt)
		if !ok {
			return domainSchedule.CreateScheduleResult{}, pkgError.ValidationError(fmt.Sprintf("invalid scheduled_at format: %s", request.ScheduledAt))
		}
		nextPostAt = parsed
	} else {
		next, ok := recurrence.NextOccurrence(request.Schedule, time.Now().UTC())
		if !ok {
			return domainSchedule.CreateScheduleResult{}, pkgError.ValidationError("invalid cron expression format")
		}
		nextPostAt = next
	}

	content := request.CustomText
	contentSource := domainSchedule.SourceFinal
	if content == "" {
		content = request.Topic
		contentSource = domainSchedule.SourceTopic
	}

	cronExpr := ""
	if request.ScheduledAt == "" {
		cronExpr = request.Schedule
	}

	// Recurring schedules dedupe on (user, content, cron) while pending.
	// One-time posts are allowed to repeat.
	if cronExpr != "" {
		existing, err := service.repo.FindPendingRecurringDuplicate(ctx, userID, content, cronExpr)
		if err == nil {
			return domainSchedule.CreateScheduleResult{
				Message:    "Schedule already exists",
				ScheduleID: existing.ID,
				NextPostAt: existing.ScheduledAt,
				Existing:   true,
			}, nil
		}
		if err != domainSchedule.ErrScheduleNotFound {
			return domainSchedule.CreateScheduleResult{}, err
		}
	}

	now := time.Now().UTC()
	post := domainSchedule.ScheduledPost{
		ID:             uuid.NewString(),
		UserID:         userID,
		Platform:       domainSchedule.PlatformLinkedIn,
		Content:        content,
		ContentSource:  contentSource,
		CronExpression: cronExpr,
		ScheduledAt:    nextPostAt,
		Status:         domainSchedule.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if request.RequireApproval {
		post.ReviewToken = uuid.NewString()
		post.Status = domainSchedule.StatusPendingApproval
		post.TeamEmails = normalizeEmails(request.TeamEmails)
	}

	switch {
	case request.ImageURL != "":
		post.ImageURL = request.ImageURL
	case request.IncludeImage:
		post.ImageURL = domainSchedule.ImageGenerateMarker
	}

	if err := service.repo.CreateScheduledPost(ctx, post); err != nil {
		return domainSchedule.CreateScheduleResult{}, err
	}

	result := domainSchedule.CreateScheduleResult{
		Message:    "Scheduled post created successfully",
		ScheduleID: post.ID,
		NextPostAt: nextPostAt,
	}

	if request.RequireApproval {
		reviewLink := fmt.Sprintf("%s/review/%s", strings.TrimRight(config.FrontendURL, "/"), post.ReviewToken)
		result.ReviewLink = reviewLink
		result.ReviewToken = post.ReviewToken
		result.TeamEmails = post.TeamEmails
		if result.TeamEmails == nil {
			result.TeamEmails = []string{}
		}

		if service.notifier != nil {
			message := fmt.Sprintf("📅 New scheduled post created! First post %s.\nReview Link: %s",
				humanize.Time(nextPostAt), reviewLink)
			if err := service.notifier.Notify(ctx, userID, message); err != nil {
				logrus.WithError(err).Warnf("[SCHEDULER] Review notification failed for schedule %s", post.ID)
			}
		}
	}

	logrus.Infof("[SCHEDULER] Created schedule %s for user %s, next post at %s", post.ID, userID, nextPostAt.Format(time.RFC3339))
	return result, nil
}

func (service serviceSchedule) List(ctx context.Context, userID string) ([]domainSchedule.ScheduledPost, error) {
	return service.repo.ListScheduledPostsByUser(ctx, userID)
}

func (service serviceSchedule) Update(ctx context.Context, userID, scheduleID string, request domainSchedule.UpdateScheduleRequest) (domainSchedule.ScheduledPost, error) {
	if err := validations.ValidateUpdateSchedule(ctx, request); err != nil {
		return domainSchedule.ScheduledPost{}, err
	}

	post, err := service.repo.GetScheduledPost(ctx, scheduleID)
	if err != nil {
		return domainSchedule.ScheduledPost{}, err
	}
	if post.UserID != userID {
		return domainSchedule.ScheduledPost{}, domainSchedule.ErrScheduleNotFound
	}

	changed := false

	switch {
	case request.Content != "":
		post.Content = request.Content
		post.ContentSource = domainSchedule.SourceFinal
		changed = true
	case request.Topic != "":
		post.Content = request.Topic
		post.ContentSource = domainSchedule.SourceTopic
		changed = true
	}

	if request.ScheduledAt != "" {
		parsed, ok := recurrence.ParseOneTime(request.ScheduledAt)
		if !ok {
			return domainSchedule.ScheduledPost{}, pkgError.ValidationError(fmt.Sprintf("invalid scheduled_at format: %s", request.ScheduledAt))
		}
		post.ScheduledAt = parsed
		changed = true
	} else if request.Schedule != "" {
		next, ok := recurrence.NextOccurrence(request.Schedule, time.Now().UTC())
		if !ok {
			return domainSchedule.ScheduledPost{}, pkgError.ValidationError("invalid cron expression format")
		}
		post.CronExpression = request.Schedule
		post.ScheduledAt = next
		changed = true
	}

	if request.IncludeImage != nil {
		switch {
		case *request.IncludeImage && request.ImageURL != "":
			post.ImageURL = request.ImageURL
		case *request.IncludeImage:
			post.ImageURL = domainSchedule.ImageGenerateMarker
		default:
			post.ImageURL = ""
		}
		changed = true
	}

	if !changed {
		return domainSchedule.ScheduledPost{}, pkgError.ValidationError("no fields to update")
	}

	if err := service.repo.UpdateOwnedScheduledPost(ctx, post); err != nil {
		return domainSchedule.ScheduledPost{}, err
	}

	return service.repo.GetScheduledPost(ctx, scheduleID)
}

// Activate re-arms a recurring schedule: status back to pending with
// scheduled_at at the next cron occurrence. One-time schedules cannot be
// re-activated because there is no expression to compute the next run from.
func (service serviceSchedule) Activate(ctx context.Context, userID, scheduleID string) error {
	post, err := service.repo.GetScheduledPost(ctx, scheduleID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return domainSchedule.ErrScheduleNotFound
	}

	if post.CronExpression == "" {
		return pkgError.ValidationError("invalid cron expression")
	}

	next, ok := recurrence.NextOccurrence(post.CronExpression, time.Now().UTC())
	if !ok {
		return pkgError.ValidationError("invalid cron expression")
	}

	post.Status = domainSchedule.StatusPending
	post.ScheduledAt = next
	return service.repo.UpdateOwnedScheduledPost(ctx, post)
}

func (service serviceSchedule) Deactivate(ctx context.Context, userID, scheduleID string) error {
	post, err := service.repo.GetScheduledPost(ctx, scheduleID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return domainSchedule.ErrScheduleNotFound
	}

	post.Status = domainSchedule.StatusCancelled
	return service.repo.UpdateOwnedScheduledPost(ctx, post)
}

func (service serviceSchedule) Delete(ctx context.Context, userID, scheduleID string) error {
	return service.repo.DeleteScheduledPost(ctx, userID, scheduleID)
}

// ScheduledDatesForMonth projects active recurring schedules onto a calendar
// month, returning the distinct YYYY-MM-DD days with at least one occurrence.
func (service serviceSchedule) ScheduledDatesForMonth(ctx context.Context, userID string, year, month int) ([]string, error) {
	posts, err := service.repo.ListScheduledPostsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	dates := []string{}
	now := time.Now().UTC()

	for _, post := range posts {
		if post.Status != domainSchedule.StatusPending || post.CronExpression == "" {
			continue
		}
		for _, occ := range recurrence.Occurrences(post.CronExpression, now, 60) {
			if occ.Year() != year || int(occ.Month()) != month {
				continue
			}
			day := occ.Format("2006-01-02")
			if !seen[day] {
				seen[day] = true
				dates = append(dates, day)
			}
		}
	}

	sort.Strings(dates)
	return dates, nil
}

// OccurrencesForDate lists every cron occurrence of the user's active
// recurring schedules falling on the given YYYY-MM-DD day, soonest first.
func (service serviceSchedule) OccurrencesForDate(ctx context.Context, userID, date string) ([]domainSchedule.DateOccurrence, error) {
	target, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, pkgError.ValidationError(fmt.Sprintf("invalid date format, expected YYYY-MM-DD: %s", date))
	}

	posts, listErr := service.repo.ListScheduledPostsByUser(ctx, userID)
	if listErr != nil {
		return nil, listErr
	}

	occurrences := []domainSchedule.DateOccurrence{}
	now := time.Now().UTC()

	for _, post := range posts {
		if post.Status != domainSchedule.StatusPending || post.CronExpression == "" {
			continue
		}
		for _, occ := range recurrence.Occurrences(post.CronExpression, now, 60) {
			if occ.Year() == target.Year() && occ.Month() == target.Month() && occ.Day() == target.Day() {
				occurrences = append(occurrences, domainSchedule.DateOccurrence{Schedule: post, Date: occ})
			}
		}
	}

	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].Date.Before(occurrences[j].Date)
	})

	return occurrences, nil
}

func (service serviceSchedule) PreviewOccurrences(cronExpr string, count int) []time.Time {
	if count <= 0 {
		count = 30
	}
	return recurrence.Occurrences(cronExpr, time.Now().UTC(), count)
}

func normalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	for _, email := range emails {
		email = strings.TrimSpace(email)
		if email != "" {
			out = append(out, email)
		}
	}
	return out
}
