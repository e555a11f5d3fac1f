package thumbnail

import (
	"bytes"
	"context"
	"testing"

	"github.com/slidecast/slidecast/internal/db"
	"github.com/slidecast/slidecast/internal/storage"
)

func newRetentionFixture(t *testing.T) (*fakeStore, *storage.MemoryStorage, *RetentionSweeper) {
	t.Helper()
	store := newFakeStore()
	objects := storage.NewMemoryStorage()
	sweeper := NewRetentionSweeper(RetentionSweeperConfig{Store: store, Storage: objects})
	return store, objects, sweeper
}

func uploadFor(t *testing.T, objects *storage.MemoryStorage, key string) {
	t.Helper()
	if err := objects.Upload(context.Background(), key, bytes.NewReader([]byte("data")), "application/pdf", 4); err != nil {
		t.Fatalf("seed object %q: %v", key, err)
	}
}

func TestRetentionSweepDeletesExpiredSlides(t *testing.T) {
	store, objects, sweeper := newRetentionFixture(t)
	event := store.addEvent(true)

	a := store.addSlide(event, mimePDF, db.ThumbnailStatusNone)
	b := store.addSlide(event, mimePDF, db.ThumbnailStatusCompleted)
	thumbKey := ThumbnailKey(b)
	store.slides[uuidString(b.ID)].ThumbnailKey = &thumbKey
	store.slides[uuidString(a.ID)].StorageKey = "uploads/a.pdf"
	store.slides[uuidString(b.ID)].StorageKey = "uploads/b.pdf"
	store.expired = []db.Slide{*store.slides[uuidString(a.ID)], *store.slides[uuidString(b.ID)]}

	uploadFor(t, objects, "uploads/a.pdf")
	uploadFor(t, objects, "uploads/b.pdf")
	uploadFor(t, objects, thumbKey)

	summary, err := sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.ProcessedCount != 2 || summary.DeletedCount != 2 || len(summary.Errors) != 0 {
		t.Fatalf("summary = %+v, want processed=2 deleted=2", summary)
	}
	if objects.Count() != 0 {
		t.Errorf("object count = %d, want all objects removed", objects.Count())
	}
	for _, s := range []db.Slide{a, b} {
		if !store.slides[uuidString(s.ID)].DeletedAt.Valid {
			t.Errorf("slide %s not soft-deleted", uuidString(s.ID))
		}
	}
}

func TestRetentionSweepMissingObjectStillSoftDeletes(t *testing.T) {
	store, _, sweeper := newRetentionFixture(t)
	event := store.addEvent(true)
	slide := store.addSlide(event, mimePDF, db.ThumbnailStatusNone)
	store.expired = []db.Slide{*store.slides[uuidString(slide.ID)]}

	summary, err := sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.DeletedCount != 1 {
		t.Errorf("summary = %+v, a previously removed object must not block the soft delete", summary)
	}
	if !store.slides[uuidString(slide.ID)].DeletedAt.Valid {
		t.Error("slide not soft-deleted")
	}
}

func TestRetentionSweepObjectDeleteErrorLeavesSlide(t *testing.T) {
	store, objects, sweeper := newRetentionFixture(t)
	event := store.addEvent(true)

	bad := store.addSlide(event, mimePDF, db.ThumbnailStatusNone)
	good := store.addSlide(event, mimePDF, db.ThumbnailStatusNone)
	store.slides[uuidString(bad.ID)].StorageKey = "uploads/bad.pdf"
	store.slides[uuidString(good.ID)].StorageKey = "uploads/good.pdf"
	store.expired = []db.Slide{*store.slides[uuidString(bad.ID)], *store.slides[uuidString(good.ID)]}

	uploadFor(t, objects, "uploads/bad.pdf")
	uploadFor(t, objects, "uploads/good.pdf")
	objects.DeleteErr = errBoom
	objects.FailKeys = map[string]bool{"uploads/bad.pdf": true}

	summary, err := sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, one bad object must not abort the batch", err)
	}
	if summary.DeletedCount != 1 || len(summary.Errors) != 1 {
		t.Fatalf("summary = %+v, want deleted=1 errors=1", summary)
	}
	if summary.Errors[0].StorageKey != "uploads/bad.pdf" {
		t.Errorf("error entry = %+v, want the failing key", summary.Errors[0])
	}
	if store.slides[uuidString(bad.ID)].DeletedAt.Valid {
		t.Error("failed slide must stay un-soft-deleted for the next run")
	}
	if !store.slides[uuidString(good.ID)].DeletedAt.Valid {
		t.Error("healthy slide should be soft-deleted")
	}
}

func TestRetentionSweepSoftDeleteErrorCollected(t *testing.T) {
	store, objects, sweeper := newRetentionFixture(t)
	event := store.addEvent(true)
	slide := store.addSlide(event, mimePDF, db.ThumbnailStatusNone)
	store.expired = []db.Slide{*store.slides[uuidString(slide.ID)]}
	store.softDeleteErr = errBoom
	uploadFor(t, objects, slide.StorageKey)

	summary, err := sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.DeletedCount != 0 || len(summary.Errors) != 1 {
		t.Errorf("summary = %+v, want deleted=0 errors=1", summary)
	}
}

func TestRetentionSweepEmptyIsNoOp(t *testing.T) {
	_, _, sweeper := newRetentionFixture(t)

	summary, err := sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.ProcessedCount != 0 || summary.DeletedCount != 0 {
		t.Errorf("summary = %+v, want empty no-op", summary)
	}
}
