package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	domainAI "github.com/AzielCF/az-post/domains/ai"
	domainPayment "github.com/AzielCF/az-post/domains/payment"
	domainPublisher "github.com/AzielCF/az-post/domains/publisher"
	domainSchedule "github.com/AzielCF/az-post/domains/schedule"
	"github.com/AzielCF/az-post/pkg/postworker"
	"github.com/AzielCF/az-post/pkg/recurrence"
	"github.com/AzielCF/az-post/repository"
	"github.com/sirupsen/logrus"
)

// postExecutionTimeout bounds one full pipeline run (content generation,
// image generation and publish) so a hung upstream cannot wedge a worker.
const postExecutionTimeout = 5 * time.Minute

// ExecutorService periodically sweeps due scheduled posts and runs each one
// through the publish pipeline on a per-owner worker.
type ExecutorService struct {
	repo      repository.IScheduleRepository
	payments  domainPayment.IPaymentUsecase
	generator domainAI.IContentGenerator
	publisher domainPublisher.IPublisher
	pool      *postworker.Pool

	sweeping int32
	inFlight sync.Map // schedule ID -> struct{}
}

func NewExecutorService(
	repo repository.IScheduleRepository,
	payments domainPayment.IPaymentUsecase,
	generator domainAI.IContentGenerator,
	publisher domainPublisher.IPublisher,
	pool *postworker.Pool,
) *ExecutorService {
	return &ExecutorService{
		repo:      repo,
		payments:  payments,
		generator: generator,
		publisher: publisher,
		pool:      pool,
	}
}

// Run starts the worker pool and blocks sweeping on the given interval until
// the context is cancelled.
func (service *ExecutorService) Run(ctx context.Context, interval time.Duration) {
	service.pool.Start(ctx)
	defer service.pool.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logrus.Infof("[EXECUTOR] Started, sweeping every %s", interval)

	for {
		select {
		case <-ctx.Done():
			logrus.Info("[EXECUTOR] Stopped")
			return
		case <-ticker.C:
			if err := service.Sweep(ctx); err != nil {
				logrus.WithError(err).Error("[EXECUTOR] Sweep failed")
			}
		}
	}
}

// Sweep fetches posts whose scheduled_at has passed and dispatches each to
// its owner's worker. Overlapping sweeps are skipped rather than queued, and
// posts already dispatched stay out of later sweeps until their run ends.
func (service *ExecutorService) Sweep(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&service.sweeping, 0, 1) {
		logrus.Debug("[EXECUTOR] Previous sweep still running, skipping")
		return nil
	}
	defer atomic.StoreInt32(&service.sweeping, 0)

	due, err := service.repo.ListDueScheduledPosts(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	for _, post := range due {
		if _, loaded := service.inFlight.LoadOrStore(post.ID, struct{}{}); loaded {
			continue
		}

		job := post
		dispatched := service.pool.TryDispatch(postworker.Job{
			OwnerID:    job.UserID,
			ScheduleID: job.ID,
			Handler: func(workerCtx context.Context) {
				defer service.inFlight.Delete(job.ID)
				service.executePost(workerCtx, job)
			},
		})
		if !dispatched {
			service.inFlight.Delete(job.ID)
		}
	}

	return nil
}

// executePost runs the full pipeline for one due post. Failures are isolated
// per record: the post is marked failed with the error and the sweep carries
// on with the rest.
func (service *ExecutorService) executePost(ctx context.Context, post domainSchedule.ScheduledPost) {
	ctx, cancel := context.WithTimeout(ctx, postExecutionTimeout)
	defer cancel()

	// Image intent is carried in image_url: the generation marker means
	// render one from the finalized text, an http(s) URL is used as-is.
	needsImageGeneration := post.ImageURL == domainSchedule.ImageGenerateMarker
	providedImageURL := ""
	if !needsImageGeneration && strings.HasPrefix(post.ImageURL, "http") {
		providedImageURL = post.ImageURL
	}

	// Payment gate runs before any generation so unpaid accounts never burn
	// AI quota or publish.
	paymentStatus, err := service.payments.CheckPaymentStatus(ctx, post.UserID, domainPayment.ServiceLinkedInPost)
	if err != nil {
		service.markFailed(ctx, post, fmt.Sprintf("Payment check failed: %s", err))
		return
	}
	if !paymentStatus.HasPaid {
		service.markFailed(ctx, post, fmt.Sprintf("Payment required for %s. Please pay before scheduling.", domainPayment.ServiceLinkedInPost))
		return
	}

	fullText := post.Content
	if post.ContentSource == domainSchedule.SourceTopic {
		draft, genErr := service.generator.GeneratePost(ctx, post.Content, "en")
		if genErr != nil {
			service.markFailed(ctx, post, fmt.Sprintf("Post content generation failed: %s", genErr))
			return
		}
		fullText = draft.Text
		if len(draft.Hashtags) > 0 {
			fullText += "\n\n" + strings.Join(draft.Hashtags, " ")
		}
	}

	imageURL := providedImageURL
	if needsImageGeneration {
		prompt, promptErr := service.generator.GenerateImagePrompt(ctx, truncate(fullText, 500))
		if promptErr != nil {
			logrus.WithError(promptErr).Warnf("[EXECUTOR] Image prompt generation failed for schedule %s, posting without image", post.ID)
		} else {
			generated, imgErr := service.generator.GenerateImage(ctx, prompt, truncate(fullText, 200))
			if imgErr != nil {
				logrus.WithError(imgErr).Warnf("[EXECUTOR] Image generation failed for schedule %s, posting without image", post.ID)
			} else {
				imageURL = generated
			}
		}
	}

	var result domainPublisher.PublishResult
	if imageURL != "" {
		result, err = service.publisher.PostWithImage(ctx, post.UserID, fullText, imageURL)
	} else {
		result, err = service.publisher.PostText(ctx, post.UserID, fullText)
	}
	if err != nil {
		service.markFailed(ctx, post, err.Error())
		return
	}

	now := time.Now().UTC()
	post.PostID = result.PostID
	post.PostURL = result.PostURL
	post.PostedAt = &now
	post.ErrorMessage = ""

	// Recurring schedules re-arm at the next cron occurrence; a one-time
	// post (or an expression that stopped yielding occurrences) is terminal.
	post.Status = domainSchedule.StatusPosted
	if post.Recurring() {
		if next, ok := recurrence.NextOccurrence(post.CronExpression, now); ok {
			post.Status = domainSchedule.StatusPending
			post.ScheduledAt = next
		}
	}

	if err := service.repo.UpdateExecutionState(ctx, post); err != nil {
		logrus.WithError(err).Errorf("[EXECUTOR] Failed to persist publish outcome for schedule %s", post.ID)
		return
	}

	logrus.Infof("[EXECUTOR] Published schedule %s as %s", post.ID, result.PostID)
}

// markFailed persists on a fresh context so a pipeline timeout cannot also
// swallow the failure write.
func (service *ExecutorService) markFailed(_ context.Context, post domainSchedule.ScheduledPost, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	post.Status = domainSchedule.StatusFailed
	post.ErrorMessage = message
	if err := service.repo.UpdateExecutionState(ctx, post); err != nil {
		logrus.WithError(err).Errorf("[EXECUTOR] Failed to mark schedule %s as failed", post.ID)
	}
	logrus.Warnf("[EXECUTOR] Schedule %s failed: %s", post.ID, message)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
