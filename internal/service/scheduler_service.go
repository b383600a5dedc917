package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/calebfds/postline/internal/models"
	"github.com/calebfds/postline/internal/queue"
	"github.com/calebfds/postline/internal/repository"
	"github.com/calebfds/postline/internal/transfer"
)

type SchedulerService interface {
	Schedule(ctx context.Context, userID string, pc *transfer.PostCreation) (*models.Post, error)
	Cancel(ctx context.Context, id, userID string) (*models.Post, error)
	Reschedule(ctx context.Context, id, userID string, newTime time.Time) (*models.Post, error)
	Delete(ctx context.Context, id, userID string) error
	Get(ctx context.Context, id, userID string) (*models.Post, error)
	List(ctx context.Context, userID string, status models.PostStatus) ([]*models.Post, error)
}

type schedulerService struct {
	pr repository.PostRepository
	sa repository.SocialAccountRepository
	dq queue.DelayQueue
}

func NewSchedulerService(
	pr repository.PostRepository,
	sa repository.SocialAccountRepository,
	dq queue.DelayQueue) SchedulerService {
	return &schedulerService{
		pr: pr,
		sa: sa,
		dq: dq,
	}
}

// Schedule validates the target account, persists the post as SCHEDULED and
// enqueues its delivery. Record and queue entry are one logical unit: if the
// enqueue fails the record is rolled back and the whole call fails, so a
// SCHEDULED row never exists without a matching queue entry.
func (s *schedulerService) Schedule(ctx context.Context, userID string, pc *transfer.PostCreation) (*models.Post, error) {
	if pc == nil || pc.Content == "" {
		return nil, fmt.Errorf("%w: content cannot be empty", ErrInvalidInput)
	}
	if pc.ScheduledFor.IsZero() {
		return nil, fmt.Errorf("%w: scheduled_for is required", ErrInvalidInput)
	}

	platform := models.Platform(pc.Platform)
	if !platform.Valid() {
		return nil, fmt.Errorf("%w: unknown platform %q", ErrInvalidInput, pc.Platform)
	}

	account, err := s.sa.GetByID(ctx, pc.SocialAccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountInvalid
		}
		return nil, err
	}
	if account.UserID != userID || !account.IsActive {
		return nil, ErrAccountInvalid
	}
	if account.Platform != platform {
		return nil, ErrPlatformMismatch
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:              id,
		UserID:          userID,
		SocialAccountID: account.ID,
		Platform:        platform,
		Content:         pc.Content,
		ScheduledFor:    pc.ScheduledFor,
		Status:          models.PostStatusScheduled,
	}

	if err := s.pr.Create(ctx, nil, post); err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	if err := s.dq.Enqueue(ctx, post.ID, post.ScheduledFor); err != nil {
		// Roll the record back rather than strand a post that will
		// never publish and never error.
		if rbErr := s.pr.Remove(ctx, post.ID); rbErr != nil {
			slog.Error("failed to roll back post after enqueue failure", "post_id", post.ID, "error", rbErr)
		}
		return nil, fmt.Errorf("error queueing post: %w", err)
	}

	slog.Info("post scheduled", "post_id", post.ID, "platform", post.Platform, "scheduled_for", post.ScheduledFor)
	return post, nil
}

func (s *schedulerService) Cancel(ctx context.Context, id, userID string) (*models.Post, error) {
	post, err := s.getScheduledOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if err := s.removeQueueEntry(ctx, post.ID); err != nil {
		return nil, err
	}

	if err := s.pr.UpdateStatus(ctx, post.ID, models.PostStatusCancelled, "", ""); err != nil {
		return nil, err
	}
	post.Status = models.PostStatusCancelled

	slog.Info("post cancelled", "post_id", post.ID)
	return post, nil
}

func (s *schedulerService) Reschedule(ctx context.Context, id, userID string, newTime time.Time) (*models.Post, error) {
	if newTime.IsZero() {
		return nil, fmt.Errorf("%w: scheduled_for is required", ErrInvalidInput)
	}

	post, err := s.getScheduledOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if err := s.pr.UpdateScheduledFor(ctx, post.ID, newTime); err != nil {
		return nil, err
	}
	post.ScheduledFor = newTime

	if err := s.dq.Reschedule(ctx, post.ID, newTime); err != nil {
		return nil, fmt.Errorf("error rescheduling queue entry: %w", err)
	}

	slog.Info("post rescheduled", "post_id", post.ID, "scheduled_for", newTime)
	return post, nil
}

func (s *schedulerService) Delete(ctx context.Context, id, userID string) error {
	post, err := s.getScheduledOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.removeQueueEntry(ctx, post.ID); err != nil {
		return err
	}

	if err := s.pr.Remove(ctx, post.ID); err != nil {
		return err
	}

	slog.Info("post deleted", "post_id", post.ID)
	return nil
}

func (s *schedulerService) Get(ctx context.Context, id, userID string) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	if post.UserID != userID {
		return nil, ErrNotOwner
	}
	return post, nil
}

func (s *schedulerService) List(ctx context.Context, userID string, status models.PostStatus) ([]*models.Post, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return s.pr.ListByUserID(ctx, userID, status)
}

// getScheduledOwned loads the post and enforces the shared preconditions of
// cancel, reschedule and delete: it exists, the caller owns it, and it has
// not reached a terminal state.
func (s *schedulerService) getScheduledOwned(ctx context.Context, id, userID string) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if post.UserID != userID {
		return nil, ErrNotOwner
	}
	if post.Status != models.PostStatusScheduled {
		return nil, fmt.Errorf("%w: post is %s", ErrInvalidState, post.Status)
	}

	return post, nil
}

// removeQueueEntry tolerates a missing job: the entry may already have been
// delivered, in which case the worker's status check is the backstop.
func (s *schedulerService) removeQueueEntry(ctx context.Context, postID string) error {
	err := s.dq.Remove(ctx, postID)
	if err != nil && !errors.Is(err, queue.ErrJobNotFound) {
		return err
	}
	if err != nil {
		slog.Info("queue entry already gone", "post_id", postID)
	}
	return nil
}
