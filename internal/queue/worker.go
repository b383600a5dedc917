package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/calebfds/postline/internal/models"
	"github.com/calebfds/postline/internal/platform"
	"github.com/calebfds/postline/internal/repository"
)

// CredentialSource yields decrypted publish credentials for an account.
type CredentialSource interface {
	Credentials(ctx context.Context, accountID string) (platform.Credentials, error)
}

// Worker consumes due publish jobs. The post record is authoritative: a
// delivered job is only acted on if the record is still SCHEDULED, which is
// what makes cancel/reschedule races and redeliveries safe.
type Worker struct {
	pr             repository.PostRepository
	pa             repository.PublishAttemptRepository
	creds          CredentialSource
	registry       platform.Registry
	publishTimeout time.Duration
}

func NewWorker(
	pr repository.PostRepository,
	pa repository.PublishAttemptRepository,
	creds CredentialSource,
	registry platform.Registry,
	publishTimeout time.Duration) *Worker {
	return &Worker{
		pr:             pr,
		pa:             pa,
		creds:          creds,
		registry:       registry,
		publishTimeout: publishTimeout,
	}
}

func (w *Worker) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.Error("malformed publish task payload", "error", err)
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	return w.PublishPost(ctx, payload.PostID)
}

// PublishPost runs one delivery. Publish failures terminate in FAILED and
// are not returned to the broker; only infrastructure errors seen before
// the record is settled bubble up for redelivery.
func (w *Worker) PublishPost(ctx context.Context, postID string) error {
	post, err := w.pr.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// The record was deleted after enqueue. Legitimate race, drop.
			slog.Info("post no longer exists, dropping job", "post_id", postID)
			return nil
		}
		return err
	}

	if post.Status != models.PostStatusScheduled {
		slog.Info("post no longer scheduled, dropping job", "post_id", postID, "status", post.Status)
		return nil
	}

	platformPostID, err := w.attemptPublish(ctx, post)
	if err != nil {
		return w.markFailed(ctx, post, err)
	}

	if err := w.pr.UpdateStatus(ctx, post.ID, models.PostStatusPublished, platformPostID, ""); err != nil {
		slog.Error("failed to mark post published", "post_id", post.ID, "error", err)
		return err
	}

	w.recordAttempt(ctx, post, "")
	slog.Info("post published", "post_id", post.ID, "platform", post.Platform, "platform_post_id", platformPostID)
	return nil
}

func (w *Worker) attemptPublish(ctx context.Context, post *models.Post) (string, error) {
	client, err := w.registry.For(post.Platform)
	if err != nil {
		return "", err
	}

	creds, err := w.creds.Credentials(ctx, post.SocialAccountID)
	if err != nil {
		return "", fmt.Errorf("loading credentials: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, w.publishTimeout)
	defer cancel()

	return client.Publish(publishCtx, creds, post.Content)
}

// markFailed is terminal. There is no automatic re-queue of a FAILED post;
// retrying against a possibly revoked token requires an explicit user
// action, so the handler swallows the publish error after recording it.
func (w *Worker) markFailed(ctx context.Context, post *models.Post, publishErr error) error {
	slog.Error("publish failed", "post_id", post.ID, "platform", post.Platform, "error", publishErr)

	if err := w.pr.UpdateStatus(ctx, post.ID, models.PostStatusFailed, "", publishErr.Error()); err != nil {
		slog.Error("failed to mark post failed", "post_id", post.ID, "error", err)
		return err
	}

	w.recordAttempt(ctx, post, publishErr.Error())
	return nil
}

func (w *Worker) recordAttempt(ctx context.Context, post *models.Post, errorMessage string) {
	attempt := models.PublishAttempt{
		PostID:       post.ID,
		AccountID:    post.SocialAccountID,
		Succeeded:    errorMessage == "",
		ErrorMessage: errorMessage,
	}
	if _, err := w.pa.Create(ctx, &attempt); err != nil {
		slog.Error("failed to record publish attempt", "post_id", post.ID, "error", err)
	}
}
