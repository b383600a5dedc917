package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/calebfds/postline/internal/models"
	"github.com/calebfds/postline/internal/queue"
	"github.com/calebfds/postline/internal/repository"
	"github.com/calebfds/postline/internal/transfer"
)

type fakePostRepo struct {
	posts      map[string]*models.Post
	failCreate bool
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*models.Post)}
}

func (r *fakePostRepo) Create(_ context.Context, _ *sql.Tx, post *models.Post) error {
	if r.failCreate {
		return errors.New("store unreachable")
	}
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *fakePostRepo) GetByID(_ context.Context, id string) (*models.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *post
	return &cp, nil
}

func (r *fakePostRepo) ListByUserID(_ context.Context, userID string, status models.PostStatus) ([]*models.Post, error) {
	var out []*models.Post
	for _, p := range r.posts {
		if p.UserID == userID && (status == "" || p.Status == status) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakePostRepo) ListDue(_ context.Context, before time.Time) ([]*models.Post, error) {
	var out []*models.Post
	for _, p := range r.posts {
		if p.Status == models.PostStatusScheduled && !p.ScheduledFor.After(before) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakePostRepo) UpdateScheduledFor(_ context.Context, id string, scheduledFor time.Time) error {
	post, ok := r.posts[id]
	if !ok {
		return repository.ErrNotFound
	}
	post.ScheduledFor = scheduledFor
	return nil
}

func (r *fakePostRepo) UpdateStatus(_ context.Context, id string, status models.PostStatus, platformPostID, errorMessage string) error {
	post, ok := r.posts[id]
	if !ok {
		return repository.ErrNotFound
	}
	post.Status = status
	if status == models.PostStatusPublished {
		now := time.Now()
		post.PublishedAt = &now
		post.PlatformPostID = platformPostID
	}
	if status == models.PostStatusFailed {
		post.ErrorMessage = errorMessage
	}
	return nil
}

func (r *fakePostRepo) Remove(_ context.Context, id string) error {
	if _, ok := r.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

type fakeAccountRepo struct {
	accounts map[string]*models.SocialAccount
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*models.SocialAccount, error) {
	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return account, nil
}

func (r *fakeAccountRepo) ListByUserID(_ context.Context, userID string) ([]*models.SocialAccount, error) {
	var out []*models.SocialAccount
	for _, a := range r.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) Deactivate(_ context.Context, id, userID string) error {
	account, ok := r.accounts[id]
	if !ok || account.UserID != userID {
		return repository.ErrNotFound
	}
	account.IsActive = false
	return nil
}

// fakeQueue mirrors the delay queue contract: one live entry per post id,
// ErrJobNotFound on removing an absent entry.
type fakeQueue struct {
	entries     map[string]time.Time
	failEnqueue bool
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{entries: make(map[string]time.Time)}
}

func (q *fakeQueue) Enqueue(_ context.Context, postID string, dueAt time.Time) error {
	if q.failEnqueue {
		return errors.New("broker unreachable")
	}
	if _, ok := q.entries[postID]; ok {
		return queue.ErrDuplicateJob
	}
	q.entries[postID] = dueAt
	return nil
}

func (q *fakeQueue) Remove(_ context.Context, postID string) error {
	if _, ok := q.entries[postID]; !ok {
		return queue.ErrJobNotFound
	}
	delete(q.entries, postID)
	return nil
}

func (q *fakeQueue) Reschedule(ctx context.Context, postID string, newDueAt time.Time) error {
	_ = q.Remove(ctx, postID)
	return q.Enqueue(ctx, postID, newDueAt)
}

func testScheduler() (SchedulerService, *fakePostRepo, *fakeAccountRepo, *fakeQueue) {
	pr := newFakePostRepo()
	sa := &fakeAccountRepo{accounts: map[string]*models.SocialAccount{
		"acc_active": {ID: "acc_active", UserID: "usr_1", Platform: models.PlatformTwitter, IsActive: true},
		"acc_dead":   {ID: "acc_dead", UserID: "usr_1", Platform: models.PlatformTwitter, IsActive: false},
		"acc_other":  {ID: "acc_other", UserID: "usr_2", Platform: models.PlatformTwitter, IsActive: true},
	}}
	dq := newFakeQueue()
	return NewSchedulerService(pr, sa, dq), pr, sa, dq
}

func validCreation() *transfer.PostCreation {
	return &transfer.PostCreation{
		SocialAccountID: "acc_active",
		Platform:        "twitter",
		Content:         "hello world",
		ScheduledFor:    time.Now().Add(time.Hour),
	}
}

func TestSchedule_CreatesRecordAndQueueEntry(t *testing.T) {
	s, pr, _, dq := testScheduler()

	pc := validCreation()
	post, err := s.Schedule(context.Background(), "usr_1", pc)
	assert.NoError(t, err)
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, models.PostStatusScheduled, post.Status)

	stored, err := pr.GetByID(context.Background(), post.ID)
	assert.NoError(t, err)
	assert.Equal(t, "usr_1", stored.UserID)

	// One live queue entry, due exactly at scheduled_for.
	dueAt, ok := dq.entries[post.ID]
	assert.True(t, ok)
	assert.True(t, dueAt.Equal(pc.ScheduledFor))
}

func TestSchedule_InactiveAccount(t *testing.T) {
	s, pr, _, dq := testScheduler()

	pc := validCreation()
	pc.SocialAccountID = "acc_dead"

	_, err := s.Schedule(context.Background(), "usr_1", pc)
	assert.ErrorIs(t, err, ErrAccountInvalid)
	assert.Empty(t, pr.posts)
	assert.Empty(t, dq.entries)
}

func TestSchedule_ForeignAccount(t *testing.T) {
	s, _, _, _ := testScheduler()

	pc := validCreation()
	pc.SocialAccountID = "acc_other"

	_, err := s.Schedule(context.Background(), "usr_1", pc)
	assert.ErrorIs(t, err, ErrAccountInvalid)
}

func TestSchedule_PlatformMismatch(t *testing.T) {
	s, pr, _, _ := testScheduler()

	pc := validCreation()
	pc.Platform = "mastodon"

	_, err := s.Schedule(context.Background(), "usr_1", pc)
	assert.ErrorIs(t, err, ErrPlatformMismatch)
	assert.Empty(t, pr.posts)
}

func TestSchedule_EmptyContent(t *testing.T) {
	s, _, _, _ := testScheduler()

	pc := validCreation()
	pc.Content = ""

	_, err := s.Schedule(context.Background(), "usr_1", pc)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSchedule_EnqueueFailureRollsBackRecord(t *testing.T) {
	s, pr, _, dq := testScheduler()
	dq.failEnqueue = true

	_, err := s.Schedule(context.Background(), "usr_1", validCreation())
	assert.Error(t, err)

	// No stranded SCHEDULED record without a queue entry.
	assert.Empty(t, pr.posts)
}

func TestCancel_RemovesQueueEntry(t *testing.T) {
	s, pr, _, dq := testScheduler()

	post, err := s.Schedule(context.Background(), "usr_1", validCreation())
	assert.NoError(t, err)

	cancelled, err := s.Cancel(context.Background(), post.ID, "usr_1")
	assert.NoError(t, err)
	assert.Equal(t, models.PostStatusCancelled, cancelled.Status)

	// Round-trip: nothing left to deliver.
	assert.Empty(t, dq.entries)
	stored, _ := pr.GetByID(context.Background(), post.ID)
	assert.Equal(t, models.PostStatusCancelled, stored.Status)
}

func TestCancel_ToleratesMissingQueueEntry(t *testing.T) {
	s, _, _, dq := testScheduler()

	post, err := s.Schedule(context.Background(), "usr_1", validCreation())
	assert.NoError(t, err)

	// Simulate the entry having already been delivered.
	delete(dq.entries, post.ID)

	cancelled, err := s.Cancel(context.Background(), post.ID, "usr_1")
	assert.NoError(t, err)
	assert.Equal(t, models.PostStatusCancelled, cancelled.Status)
}

func TestCancel_WrongOwner(t *testing.T) {
	s, _, _, _ := testScheduler()

	post, err := s.Schedule(context.Background(), "usr_1", validCreation())
	assert.NoError(t, err)

	_, err = s.Cancel(context.Background(), post.ID, "usr_2")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestCancel_TerminalState(t *testing.T) {
	s, pr, _, _ := testScheduler()

	post, err := s.Schedule(context.Background(), "usr_1", validCreation())
	assert.NoError(t, err)

	assert.NoError(t, pr.UpdateStatus(context.Background(), post.ID, models.PostStatusPublished, "tw_1", ""))

	_, err = s.Cancel(context.Background(), post.ID, "usr_1")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancel_NotFound(t *testing.T) {
	s, _, _, _ := testScheduler()

	_, err := s.Cancel(context.Background(), "missing", "usr_1")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestReschedule_MovesQueueEntry(t *testing.T) {
	s, pr, _, dq := testScheduler()

	post, err := s.Schedule(context.Background(), "usr_1", validCreation())
	assert.NoError(t, err)

	newTime := time.Now().Add(30 * time.Minute)
	updated, err := s.Reschedule(context.Background(), post.ID, "usr_1", newTime)
	assert.NoError(t, err)
	assert.True(t, updated.ScheduledFor.Equal(newTime))

	stored, _ := pr.GetByID(context.Background(), post.ID)
	assert.True(t, stored.ScheduledFor.Equal(newTime))
	assert.Equal(t, models.PostStatusScheduled, stored.Status)

	dueAt, ok := dq.entries[post.ID]
	assert.True(t, ok)
	assert.True(t, dueAt.Equal(newTime))
	assert.Len(t, dq.entries, 1)
}

func TestReschedule_TerminalState(t *testing.T) {
	s, pr, _, _ := testScheduler()

	post, err := s.Schedule(context.Background(), "usr_1", validCreation())
	assert.NoError(t, err)

	assert.NoError(t, pr.UpdateStatus(context.Background(), post.ID, models.PostStatusFailed, "", "boom"))

	_, err = s.Reschedule(context.Background(), post.ID, "usr_1", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDelete_RemovesRecordAndQueueEntry(t *testing.T) {
	s, pr, _, dq := testScheduler()

	post, err := s.Schedule(context.Background(), "usr_1", validCreation())
	assert.NoError(t, err)

	err = s.Delete(context.Background(), post.ID, "usr_1")
	assert.NoError(t, err)
	assert.Empty(t, dq.entries)

	_, err = pr.GetByID(context.Background(), post.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDelete_WrongOwner(t *testing.T) {
	s, _, _, _ := testScheduler()

	post, err := s.Schedule(context.Background(), "usr_1", validCreation())
	assert.NoError(t, err)

	err = s.Delete(context.Background(), post.ID, "usr_2")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestGet_OwnerOnly(t *testing.T) {
	s, _, _, _ := testScheduler()

	post, err := s.Schedule(context.Background(), "usr_1", validCreation())
	assert.NoError(t, err)

	got, err := s.Get(context.Background(), post.ID, "usr_1")
	assert.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)

	_, err = s.Get(context.Background(), post.ID, "usr_2")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestList_UnknownStatus(t *testing.T) {
	s, _, _, _ := testScheduler()

	_, err := s.List(context.Background(), "usr_1", models.PostStatus("bogus"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
