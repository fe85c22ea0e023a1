package usecase

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	domainNotify "github.com/AzielCF/az-post/domains/notify"
	domainSchedule "github.com/AzielCF/az-post/domains/schedule"
	pkgError "github.com/AzielCF/az-post/pkg/error"
	"github.com/AzielCF/az-post/repository"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduleRepo(t *testing.T) repository.IScheduleRepository {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSQLiteRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

type fakeNotifier struct {
	messages []string
}

func (n *fakeNotifier) Notify(_ context.Context, _ string, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

var _ domainNotify.INotifier = (*fakeNotifier)(nil)

func TestCreateScheduleRecurring(t *testing.T) {
	repo := newScheduleRepo(t)
	service := NewScheduleService(repo, nil)

	result, err := service.Create(context.Background(), "user-1", domainSchedule.CreateScheduleRequest{
		Topic:    "Go concurrency patterns",
		Schedule: "0 9 * * 1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.ScheduleID)
	assert.False(t, result.Existing)
	assert.True(t, result.NextPostAt.After(time.Now().UTC()))

	posts, err := service.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, domainSchedule.SourceTopic, posts[0].ContentSource)
	assert.Equal(t, domainSchedule.StatusPending, posts[0].Status)
	assert.Equal(t, "0 9 * * 1", posts[0].CronExpression)
}

func TestCreateScheduleDeduplicatesRecurring(t *testing.T) {
	repo := newScheduleRepo(t)
	service := NewScheduleService(repo, nil)
	ctx := context.Background()

	request := domainSchedule.CreateScheduleRequest{
		Topic:    "Go concurrency patterns",
		Schedule: "0 9 * * 1",
	}

	first, err := service.Create(ctx, "user-1", request)
	require.NoError(t, err)

	second, err := service.Create(ctx, "user-1", request)
	require.NoError(t, err)
	assert.True(t, second.Existing)
	assert.Equal(t, first.ScheduleID, second.ScheduleID)
	assert.Equal(t, "Schedule already exists", second.Message)

	// Same content for another user is a new schedule.
	other, err := service.Create(ctx, "user-2", request)
	require.NoError(t, err)
	assert.False(t, other.Existing)
	assert.NotEqual(t, first.ScheduleID, other.ScheduleID)
}

func TestCreateScheduleOneTimeAllowsRepeats(t *testing.T) {
	repo := newScheduleRepo(t)
	service := NewScheduleService(repo, nil)
	ctx := context.Background()

	request := domainSchedule.CreateScheduleRequest{
		CustomText:  "Launching today!",
		ScheduledAt: "2027-01-15T09:00:00Z",
	}

	first, err := service.Create(ctx, "user-1", request)
	require.NoError(t, err)
	second, err := service.Create(ctx, "user-1", request)
	require.NoError(t, err)
	assert.NotEqual(t, first.ScheduleID, second.ScheduleID)

	posts, err := service.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, domainSchedule.SourceFinal, posts[0].ContentSource)
	assert.Empty(t, posts[0].CronExpression)
}

func TestCreateScheduleValidation(t *testing.T) {
	service := NewScheduleService(newScheduleRepo(t), nil)
	ctx := context.Background()

	_, err := service.Create(ctx, "user-1", domainSchedule.CreateScheduleRequest{
		Schedule: "0 9 * * *",
	})
	require.Error(t, err, "topic or custom text is required")

	_, err = service.Create(ctx, "user-1", domainSchedule.CreateScheduleRequest{
		Topic:    "Go tips",
		Schedule: "not a cron",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron expression")

	_, err = service.Create(ctx, "user-1", domainSchedule.CreateScheduleRequest{
		Topic:       "Go tips",
		ScheduledAt: "next tuesday",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scheduled_at format")

	// Recurrence rule and absolute timestamp are mutually exclusive.
	_, err = service.Create(ctx, "user-1", domainSchedule.CreateScheduleRequest{
		Topic:       "Go tips",
		Schedule:    "0 9 * * *",
		ScheduledAt: "2027-01-15T09:00:00Z",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not both")
}

func TestCreateScheduleWithApproval(t *testing.T) {
	repo := newScheduleRepo(t)
	notifier := &fakeNotifier{}
	service := NewScheduleService(repo, notifier)

	result, err := service.Create(context.Background(), "user-1", domainSchedule.CreateScheduleRequest{
		Topic:           "Go tips",
		Schedule:        "0 9 * * *",
		RequireApproval: true,
		TeamEmails:      []string{" a@example.com ", "b@example.com"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.ReviewToken)
	assert.True(t, strings.HasSuffix(result.ReviewLink, "/review/"+result.ReviewToken))
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, result.TeamEmails)

	posts, err := service.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, domainSchedule.StatusPendingApproval, posts[0].Status)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], result.ReviewLink)
}

func TestUpdateSchedule(t *testing.T) {
	repo := newScheduleRepo(t)
	service := NewScheduleService(repo, nil)
	ctx := context.Background()

	created, err := service.Create(ctx, "user-1", domainSchedule.CreateScheduleRequest{
		Topic:    "Go tips",
		Schedule: "0 9 * * *",
	})
	require.NoError(t, err)

	updated, err := service.Update(ctx, "user-1", created.ScheduleID, domainSchedule.UpdateScheduleRequest{
		Content: "Final text, no generation needed",
	})
	require.NoError(t, err)
	assert.Equal(t, "Final text, no generation needed", updated.Content)
	assert.Equal(t, domainSchedule.SourceFinal, updated.ContentSource)

	// Empty update is rejected.
	_, err = service.Update(ctx, "user-1", created.ScheduleID, domainSchedule.UpdateScheduleRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fields to update")

	// Another user cannot touch the schedule.
	_, err = service.Update(ctx, "user-2", created.ScheduleID, domainSchedule.UpdateScheduleRequest{Content: "hijack"})
	assert.Equal(t, domainSchedule.ErrScheduleNotFound, err)
}

func TestUpdateScheduleImageToggle(t *testing.T) {
	repo := newScheduleRepo(t)
	service := NewScheduleService(repo, nil)
	ctx := context.Background()

	created, err := service.Create(ctx, "user-1", domainSchedule.CreateScheduleRequest{
		Topic:        "Go tips",
		Schedule:     "0 9 * * *",
		IncludeImage: true,
	})
	require.NoError(t, err)

	includeImage := false
	updated, err := service.Update(ctx, "user-1", created.ScheduleID, domainSchedule.UpdateScheduleRequest{
		IncludeImage: &includeImage,
	})
	require.NoError(t, err)
	assert.Empty(t, updated.ImageURL)

	includeImage = true
	updated, err = service.Update(ctx, "user-1", created.ScheduleID, domainSchedule.UpdateScheduleRequest{
		IncludeImage: &includeImage,
		ImageURL:     "https://example.com/pic.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/pic.png", updated.ImageURL)
}

func TestActivateDeactivate(t *testing.T) {
	repo := newScheduleRepo(t)
	service := NewScheduleService(repo, nil)
	ctx := context.Background()

	created, err := service.Create(ctx, "user-1", domainSchedule.CreateScheduleRequest{
		Topic:    "Go tips",
		Schedule: "0 9 * * *",
	})
	require.NoError(t, err)

	require.NoError(t, service.Deactivate(ctx, "user-1", created.ScheduleID))
	posts, err := service.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domainSchedule.StatusCancelled, posts[0].Status)

	require.NoError(t, service.Activate(ctx, "user-1", created.ScheduleID))
	posts, err = service.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domainSchedule.StatusPending, posts[0].Status)
	assert.True(t, posts[0].ScheduledAt.After(time.Now().UTC()))

	// One-time schedules cannot be re-armed.
	oneTime, err := service.Create(ctx, "user-1", domainSchedule.CreateScheduleRequest{
		CustomText:  "one shot",
		ScheduledAt: "2027-01-15T09:00:00Z",
	})
	require.NoError(t, err)
	err = service.Activate(ctx, "user-1", oneTime.ScheduleID)
	require.Error(t, err)
	_, isValidation := err.(pkgError.ValidationError)
	assert.True(t, isValidation)
}

func TestScheduledDatesForMonth(t *testing.T) {
	repo := newScheduleRepo(t)
	service := NewScheduleService(repo, nil)
	ctx := context.Background()

	_, err := service.Create(ctx, "user-1", domainSchedule.CreateScheduleRequest{
		Topic:    "daily tips",
		Schedule: "0 9 * * *",
	})
	require.NoError(t, err)

	nextMonth := time.Now().UTC().AddDate(0, 1, 0)
	dates, err := service.ScheduledDatesForMonth(ctx, "user-1", nextMonth.Year(), int(nextMonth.Month()))
	require.NoError(t, err)
	assert.NotEmpty(t, dates)
	for i, day := range dates {
		parsed, parseErr := time.Parse("2006-01-02", day)
		require.NoError(t, parseErr)
		assert.Equal(t, nextMonth.Month(), parsed.Month())
		if i > 0 {
			assert.Greater(t, day, dates[i-1])
		}
	}

	// Other users see nothing.
	dates, err = service.ScheduledDatesForMonth(ctx, "user-2", nextMonth.Year(), int(nextMonth.Month()))
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestOccurrencesForDate(t *testing.T) {
	repo := newScheduleRepo(t)
	service := NewScheduleService(repo, nil)
	ctx := context.Background()

	_, err := service.Create(ctx, "user-1", domainSchedule.CreateScheduleRequest{
		Topic:    "daily tips",
		Schedule: "0 9 * * *",
	})
	require.NoError(t, err)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	occurrences, err := service.OccurrencesForDate(ctx, "user-1", tomorrow)
	require.NoError(t, err)
	require.Len(t, occurrences, 1)
	assert.Equal(t, 9, occurrences[0].Date.Hour())

	_, err = service.OccurrencesForDate(ctx, "user-1", "15/01/2027")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date format")
}

func TestPreviewOccurrences(t *testing.T) {
	service := NewScheduleService(newScheduleRepo(t), nil)

	occurrences := service.PreviewOccurrences("0 9 * * *", 5)
	assert.Len(t, occurrences, 5)

	// Bad expression previews as empty rather than erroring.
	assert.Empty(t, service.PreviewOccurrences("bogus", 5))
}
