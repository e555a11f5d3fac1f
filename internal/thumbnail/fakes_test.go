package thumbnail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/slidecast/slidecast/internal/db"
	"github.com/slidecast/slidecast/internal/quota"
)

func newUUID() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}

// fakeStore backs every store interface in this package with maps, so a
// single fixture serves submitter, webhook, and sweep tests.
type fakeStore struct {
	slides map[string]*db.Slide
	events map[string]*db.Event
	jobs   []*db.ThumbnailJob

	failures     []db.InsertFailureLogParams
	failureCount int64

	backlog []db.Slide
	expired []db.Slide

	processingErr    error
	createJobErr     error
	completeErr      error
	failSlideErr     error
	resetErr         error
	softDeleteErr    error
	insertFailureErr error
	backlogErr       error
	expiredErr       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		slides: make(map[string]*db.Slide),
		events: make(map[string]*db.Event),
	}
}

func (f *fakeStore) addEvent(enabled bool) db.Event {
	e := db.Event{ID: newUUID(), TenantID: newUUID(), Name: "launch", ThumbnailsEnabled: enabled}
	f.events[uuidString(e.ID)] = &e
	return e
}

func (f *fakeStore) addSlide(event db.Event, mimeType string, status db.ThumbnailStatus) db.Slide {
	s := db.Slide{
		ID:              newUUID(),
		TenantID:        event.TenantID,
		EventID:         event.ID,
		FileName:        "deck.pptx",
		MimeType:        mimeType,
		StorageKey:      "uploads/deck.pptx",
		ThumbnailStatus: status,
		UploadedAt:      pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.slides[uuidString(s.ID)] = &s
	return s
}

func (f *fakeStore) addJob(slide db.Slide, externalID string) *db.ThumbnailJob {
	j := &db.ThumbnailJob{
		ID:             newUUID(),
		TenantID:       slide.TenantID,
		SlideID:        slide.ID,
		ExternalJobID:  externalID,
		Status:         db.JobStatusPending,
		IdempotencyKey: uuid.NewString(),
		StartedAt:      pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.jobs = append(f.jobs, j)
	return j
}

func (f *fakeStore) GetSlide(_ context.Context, id pgtype.UUID) (db.Slide, error) {
	s, ok := f.slides[uuidString(id)]
	if !ok || s.DeletedAt.Valid {
		return db.Slide{}, pgx.ErrNoRows
	}
	return *s, nil
}

func (f *fakeStore) GetEvent(_ context.Context, id pgtype.UUID) (db.Event, error) {
	e, ok := f.events[uuidString(id)]
	if !ok {
		return db.Event{}, pgx.ErrNoRows
	}
	return *e, nil
}

func (f *fakeStore) SetSlideThumbnailProcessing(_ context.Context, id pgtype.UUID) error {
	if f.processingErr != nil {
		return f.processingErr
	}
	if s, ok := f.slides[uuidString(id)]; ok {
		s.ThumbnailStatus = db.ThumbnailStatusProcessing
	}
	return nil
}

func (f *fakeStore) ResetSlideThumbnail(_ context.Context, id pgtype.UUID) error {
	if f.resetErr != nil {
		return f.resetErr
	}
	if s, ok := f.slides[uuidString(id)]; ok {
		s.ThumbnailStatus = db.ThumbnailStatusNone
		s.ThumbnailKey = nil
	}
	return nil
}

func (f *fakeStore) CreateThumbnailJob(_ context.Context, arg db.CreateThumbnailJobParams) (db.ThumbnailJob, error) {
	if f.createJobErr != nil {
		return db.ThumbnailJob{}, f.createJobErr
	}
	for _, j := range f.jobs {
		if j.SlideID == arg.SlideID {
			j.ExternalJobID = arg.ExternalJobID
			j.Status = db.JobStatusPending
			j.IdempotencyKey = arg.IdempotencyKey
			j.ErrorMessage = nil
			j.CompletedAt = pgtype.Timestamptz{}
			j.WebhookReceivedAt = pgtype.Timestamptz{}
			return *j, nil
		}
	}
	j := &db.ThumbnailJob{
		ID:             newUUID(),
		TenantID:       arg.TenantID,
		SlideID:        arg.SlideID,
		ExternalJobID:  arg.ExternalJobID,
		Status:         db.JobStatusPending,
		IdempotencyKey: arg.IdempotencyKey,
		StartedAt:      pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.jobs = append(f.jobs, j)
	return *j, nil
}

func (f *fakeStore) GetThumbnailJobByExternalID(_ context.Context, externalJobID string) (db.ThumbnailJob, error) {
	for _, j := range f.jobs {
		if j.ExternalJobID == externalJobID {
			return *j, nil
		}
	}
	return db.ThumbnailJob{}, pgx.ErrNoRows
}

func (f *fakeStore) MarkThumbnailJobTerminal(_ context.Context, arg db.MarkThumbnailJobTerminalParams) (bool, error) {
	for _, j := range f.jobs {
		if j.ID != arg.ID {
			continue
		}
		if j.WebhookReceivedAt.Valid {
			return false, nil
		}
		now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
		j.Status = arg.Status
		j.ErrorMessage = arg.ErrorMessage
		j.CompletedAt = now
		j.WebhookReceivedAt = now
		return true, nil
	}
	return false, nil
}

func (f *fakeStore) CompleteSlideThumbnail(_ context.Context, arg db.CompleteSlideThumbnailParams) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	if s, ok := f.slides[uuidString(arg.ID)]; ok {
		key := arg.ThumbnailKey
		s.ThumbnailStatus = db.ThumbnailStatusCompleted
		s.ThumbnailKey = &key
	}
	return nil
}

func (f *fakeStore) FailSlideThumbnail(_ context.Context, id pgtype.UUID) error {
	if f.failSlideErr != nil {
		return f.failSlideErr
	}
	if s, ok := f.slides[uuidString(id)]; ok {
		s.ThumbnailStatus = db.ThumbnailStatusFailed
		s.ThumbnailKey = nil
	}
	return nil
}

func (f *fakeStore) InsertFailureLog(_ context.Context, arg db.InsertFailureLogParams) error {
	if f.insertFailureErr != nil {
		return f.insertFailureErr
	}
	f.failures = append(f.failures, arg)
	return nil
}

func (f *fakeStore) CountFailuresSince(_ context.Context, arg db.CountFailuresSinceParams) (int64, error) {
	if f.failureCount > 0 {
		return f.failureCount, nil
	}
	var n int64
	for _, entry := range f.failures {
		if entry.EventID == arg.EventID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListThumbnailBacklog(_ context.Context, _ db.ListThumbnailBacklogParams) ([]db.Slide, error) {
	if f.backlogErr != nil {
		return nil, f.backlogErr
	}
	return f.backlog, nil
}

func (f *fakeStore) ListRetentionExpiredSlides(_ context.Context, _ db.ListRetentionExpiredSlidesParams) ([]db.Slide, error) {
	if f.expiredErr != nil {
		return nil, f.expiredErr
	}
	return f.expired, nil
}

func (f *fakeStore) SoftDeleteSlide(_ context.Context, id pgtype.UUID) error {
	if f.softDeleteErr != nil {
		return f.softDeleteErr
	}
	if s, ok := f.slides[uuidString(id)]; ok {
		s.DeletedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	}
	return nil
}

// fakeLedger implements QuotaLedger with in-process counters.
type fakeLedger struct {
	used, total int32
	reserves    int
	rollbacks   int
	reserveErr  error
	statusErr   error
}

func (l *fakeLedger) Reserve(_ context.Context, _ pgtype.UUID) (quota.Snapshot, error) {
	if l.reserveErr != nil {
		return quota.Snapshot{}, l.reserveErr
	}
	l.reserves++
	if l.used >= l.total {
		return quota.Snapshot{Used: l.used, Total: l.total}, nil
	}
	l.used++
	return quota.Snapshot{Available: true, Used: l.used, Total: l.total, Remaining: l.total - l.used}, nil
}

func (l *fakeLedger) Rollback(_ context.Context, _ pgtype.UUID) error {
	l.rollbacks++
	if l.used > 0 {
		l.used--
	}
	return nil
}

func (l *fakeLedger) Status(_ context.Context, _ pgtype.UUID) (quota.Snapshot, error) {
	if l.statusErr != nil {
		return quota.Snapshot{}, l.statusErr
	}
	return quota.Snapshot{Available: l.used < l.total, Used: l.used, Total: l.total, Remaining: l.total - l.used}, nil
}

// fakeSigner avoids MemoryStorage's object-must-exist rule in tests that
// never touch real objects.
type fakeSigner struct {
	err error
}

func (f *fakeSigner) SignDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://signed.test/" + key, nil
}

var errBoom = errors.New("boom")

func requireNoFailures(t *testing.T, store *fakeStore) {
	t.Helper()
	if len(store.failures) != 0 {
		t.Fatalf("unexpected failure log entries: %+v", store.failures)
	}
}
