package thumbnail

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/slidecast/slidecast/internal/db"
)

// fakeSubmitter scripts per-slide outcomes for sweep tests.
type fakeSubmitter struct {
	results map[string]*SubmitResult
	errs    map[string]error
	calls   []string
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{
		results: make(map[string]*SubmitResult),
		errs:    make(map[string]error),
	}
}

func (f *fakeSubmitter) Submit(_ context.Context, slideID pgtype.UUID) (*SubmitResult, error) {
	id := uuidString(slideID)
	f.calls = append(f.calls, id)
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	if r, ok := f.results[id]; ok {
		return r, nil
	}
	return &SubmitResult{Success: true, Status: StatusProcessing}, nil
}

func backlogSlides(store *fakeStore, event db.Event, n int) []db.Slide {
	var slides []db.Slide
	for i := 0; i < n; i++ {
		slides = append(slides, store.addSlide(event, mimePPTX, db.ThumbnailStatusNone))
	}
	return slides
}

func newRetroSweeper(store *fakeStore, sub SlideSubmitter, ledger QuotaLedger, mutate func(*RetroSweeperConfig)) *RetroSweeper {
	cfg := RetroSweeperConfig{
		Store:     store,
		Submitter: sub,
		Ledger:    ledger,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewRetroSweeper(cfg)
}

func TestRetroSweepEmptyBacklog(t *testing.T) {
	store := newFakeStore()
	sweeper := newRetroSweeper(store, newFakeSubmitter(), &fakeLedger{total: 10}, nil)

	summary, err := sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Total != 0 || summary.Processed != 0 || len(summary.Errors) != 0 {
		t.Errorf("summary = %+v, want empty no-op", summary)
	}
}

func TestRetroSweepPerTenantCap(t *testing.T) {
	store := newFakeStore()
	event := store.addEvent(true)
	store.backlog = backlogSlides(store, event, 12)
	sub := newFakeSubmitter()
	sweeper := newRetroSweeper(store, sub, &fakeLedger{total: 100}, nil)

	summary, err := sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Total != 12 || summary.Processed != 10 || summary.Skipped != 2 {
		t.Errorf("summary = %+v, want total=12 processed=10 skipped=2", summary)
	}
	if len(sub.calls) != 10 {
		t.Errorf("submissions = %d, want 10", len(sub.calls))
	}
}

func TestRetroSweepPerTenantCapCountsFailedAttempts(t *testing.T) {
	store := newFakeStore()
	eventA := store.addEvent(true)
	eventB := store.addEvent(true)
	failing := backlogSlides(store, eventA, 30)
	store.backlog = append(failing, backlogSlides(store, eventB, 4)...)
	sub := newFakeSubmitter()
	for _, s := range failing {
		sub.errs[uuidString(s.ID)] = errBoom
	}
	sweeper := newRetroSweeper(store, sub, &fakeLedger{total: 100}, nil)

	summary, err := sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(sub.calls) != 14 {
		t.Errorf("submissions = %d, want 10 for the failing tenant + 4 for the healthy one", len(sub.calls))
	}
	if summary.Failed != 10 || summary.Processed != 4 || summary.Skipped != 20 {
		t.Errorf("summary = %+v, want failed=10 processed=4 skipped=20", summary)
	}
}

func TestRetroSweepGlobalCapCountsFailedAttempts(t *testing.T) {
	store := newFakeStore()
	event := store.addEvent(true)
	slides := backlogSlides(store, event, 30)
	store.backlog = slides
	sub := newFakeSubmitter()
	for _, s := range slides {
		sub.errs[uuidString(s.ID)] = errBoom
	}
	sweeper := newRetroSweeper(store, sub, &fakeLedger{total: 100}, func(cfg *RetroSweeperConfig) {
		cfg.PerTenantCap = 30
		cfg.GlobalCap = 5
	})

	summary, err := sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(sub.calls) != 5 {
		t.Errorf("submissions = %d, want the global cap to bound attempts", len(sub.calls))
	}
	if summary.Failed != 5 || summary.Skipped != 25 {
		t.Errorf("summary = %+v, want failed=5 skipped=25", summary)
	}
}

func TestRetroSweepGlobalCapIsFairAcrossTenants(t *testing.T) {
	store := newFakeStore()
	eventA := store.addEvent(true)
	eventB := store.addEvent(true)
	store.backlog = append(backlogSlides(store, eventA, 4), backlogSlides(store, eventB, 4)...)
	sub := newFakeSubmitter()
	sweeper := newRetroSweeper(store, sub, &fakeLedger{total: 100}, func(cfg *RetroSweeperConfig) {
		cfg.GlobalCap = 5
	})

	summary, err := sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Processed != 5 || summary.Skipped != 3 {
		t.Errorf("summary = %+v, want processed=5 skipped=3", summary)
	}
}

func TestRetroSweepSkipsTenantWithNoQuota(t *testing.T) {
	store := newFakeStore()
	event := store.addEvent(true)
	store.backlog = backlogSlides(store, event, 3)
	sub := newFakeSubmitter()
	sweeper := newRetroSweeper(store, sub, &fakeLedger{used: 5, total: 5}, nil)

	summary, err := sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Skipped != 3 || summary.Processed != 0 {
		t.Errorf("summary = %+v, want all skipped", summary)
	}
	if len(sub.calls) != 0 {
		t.Errorf("submissions = %d, exhausted tenant must not be attempted", len(sub.calls))
	}
}

func TestRetroSweepStopsTenantOnMidRunExhaustion(t *testing.T) {
	store := newFakeStore()
	event := store.addEvent(true)
	slides := backlogSlides(store, event, 3)
	store.backlog = slides
	sub := newFakeSubmitter()
	sub.results[uuidString(slides[1].ID)] = &SubmitResult{Status: StatusQuotaExhausted}
	sweeper := newRetroSweeper(store, sub, &fakeLedger{total: 100}, nil)

	summary, err := sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Processed != 1 || summary.QuotaExhausted != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want processed=1 quota_exhausted=1 skipped=1", summary)
	}
	if len(sub.calls) != 2 {
		t.Errorf("submissions = %d, the tenant's tail must not be retried this run", len(sub.calls))
	}
}

func TestRetroSweepCollectsPerSlideErrors(t *testing.T) {
	store := newFakeStore()
	event := store.addEvent(true)
	slides := backlogSlides(store, event, 3)
	store.backlog = slides
	sub := newFakeSubmitter()
	sub.errs[uuidString(slides[0].ID)] = errBoom
	sweeper := newRetroSweeper(store, sub, &fakeLedger{total: 100}, nil)

	summary, err := sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, one bad slide must not abort the run", err)
	}
	if summary.Failed != 1 || summary.Processed != 2 {
		t.Errorf("summary = %+v, want failed=1 processed=2", summary)
	}
	if len(summary.Errors) != 1 {
		t.Errorf("errors = %v, want one entry", summary.Errors)
	}
}

func TestRetroSweepListError(t *testing.T) {
	store := newFakeStore()
	store.backlogErr = errBoom
	sweeper := newRetroSweeper(store, newFakeSubmitter(), &fakeLedger{total: 10}, nil)

	if _, err := sweeper.Run(context.Background()); err == nil {
		t.Fatal("expected error when the backlog query fails")
	}
}
