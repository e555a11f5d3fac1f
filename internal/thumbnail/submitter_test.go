package thumbnail

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/slidecast/slidecast/internal/apperror"
	"github.com/slidecast/slidecast/internal/converter"
	"github.com/slidecast/slidecast/internal/db"
)

type submitterFixture struct {
	store  *fakeStore
	ledger *fakeLedger
	signer *fakeSigner
	conv   *converter.MockClient
	sub    *Submitter
}

func newSubmitterFixture() *submitterFixture {
	store := newFakeStore()
	ledger := &fakeLedger{total: 10}
	signer := &fakeSigner{}
	conv := &converter.MockClient{}
	sub := NewSubmitter(SubmitterConfig{
		Store:       store,
		Ledger:      ledger,
		Signer:      signer,
		Converter:   conv,
		Failures:    NewRecorder(store),
		CallbackURL: "https://api.slidecast.test/v1/callbacks/convert",
	})
	return &submitterFixture{store: store, ledger: ledger, signer: signer, conv: conv, sub: sub}
}

func TestSubmitDisabledEvent(t *testing.T) {
	f := newSubmitterFixture()
	event := f.store.addEvent(false)
	slide := f.store.addSlide(event, mimePPTX, db.ThumbnailStatusNone)

	result, err := f.sub.Submit(context.Background(), slide.ID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Status != StatusDisabled {
		t.Errorf("status = %q, want %q", result.Status, StatusDisabled)
	}
	if f.ledger.reserves != 0 {
		t.Error("disabled event must not touch quota")
	}
}

func TestSubmitUnsupportedType(t *testing.T) {
	f := newSubmitterFixture()
	event := f.store.addEvent(true)
	slide := f.store.addSlide(event, "image/png", db.ThumbnailStatusNone)

	result, err := f.sub.Submit(context.Background(), slide.ID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Status != StatusFailed {
		t.Errorf("status = %q, want %q", result.Status, StatusFailed)
	}
	if !strings.Contains(result.Message, "unsupported") {
		t.Errorf("message %q should mention the unsupported type", result.Message)
	}
	if f.ledger.reserves != 0 {
		t.Error("unsupported type must not touch quota")
	}
}

func TestSubmitAlreadyCompleted(t *testing.T) {
	f := newSubmitterFixture()
	event := f.store.addEvent(true)
	slide := f.store.addSlide(event, mimePDF, db.ThumbnailStatusCompleted)
	key := "tenants/x/thumb.png"
	f.store.slides[uuidString(slide.ID)].ThumbnailKey = &key

	result, err := f.sub.Submit(context.Background(), slide.ID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Status != StatusCompleted || !result.Success {
		t.Errorf("result = %+v, want successful completed", result)
	}
	if f.ledger.reserves != 0 || f.ledger.rollbacks != 0 {
		t.Error("no-op request must have net zero quota cost")
	}
}

func TestSubmitQuotaExhausted(t *testing.T) {
	f := newSubmitterFixture()
	f.ledger.used = 10
	event := f.store.addEvent(true)
	slide := f.store.addSlide(event, mimePPT, db.ThumbnailStatusNone)

	result, err := f.sub.Submit(context.Background(), slide.ID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Status != StatusQuotaExhausted {
		t.Errorf("status = %q, want %q", result.Status, StatusQuotaExhausted)
	}
	if result.Quota == nil || result.Quota.Used != 10 {
		t.Errorf("quota snapshot = %+v, want used=10", result.Quota)
	}
	if result.UpgradeHint == "" {
		t.Error("exhausted quota should carry an upgrade hint")
	}
	if f.ledger.used != 10 {
		t.Errorf("used = %d, want unchanged 10", f.ledger.used)
	}
}

func TestSubmitSignURLFailureRollsBack(t *testing.T) {
	f := newSubmitterFixture()
	f.signer.err = errBoom
	event := f.store.addEvent(true)
	slide := f.store.addSlide(event, mimePPTX, db.ThumbnailStatusNone)

	if _, err := f.sub.Submit(context.Background(), slide.ID); err == nil {
		t.Fatal("expected error when signing fails")
	}
	if f.ledger.rollbacks != 1 || f.ledger.used != 0 {
		t.Errorf("rollbacks = %d, used = %d; want 1 and 0", f.ledger.rollbacks, f.ledger.used)
	}
	requireNoFailures(t, f.store)
}

func TestSubmitConverterFailureRollsBackAndLogs(t *testing.T) {
	f := newSubmitterFixture()
	event := f.store.addEvent(true)
	slide := f.store.addSlide(event, mimePPTX, db.ThumbnailStatusNone)
	f.conv.On("Submit", mock.Anything, mock.Anything).Return(nil, errBoom)

	_, err := f.sub.Submit(context.Background(), slide.ID)
	if err == nil {
		t.Fatal("expected error when submission fails")
	}
	if apperror.Code(err) != apperror.ErrConverterUnavailable.Code {
		t.Errorf("error code = %q, want %q", apperror.Code(err), apperror.ErrConverterUnavailable.Code)
	}
	if f.ledger.rollbacks != 1 || f.ledger.used != 0 {
		t.Errorf("rollbacks = %d, used = %d; want 1 and 0", f.ledger.rollbacks, f.ledger.used)
	}
	if len(f.store.failures) != 1 || f.store.failures[0].ErrorType != ErrorTypeSubmission {
		t.Errorf("failures = %+v, want one submission-error entry", f.store.failures)
	}
}

func TestSubmitSuccess(t *testing.T) {
	f := newSubmitterFixture()
	event := f.store.addEvent(true)
	slide := f.store.addSlide(event, mimePPTX, db.ThumbnailStatusNone)

	var captured *converter.SubmitRequest
	f.conv.On("Submit", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(*converter.SubmitRequest)
	}).Return(&converter.SubmitResponse{ExternalJobID: "ext-42"}, nil)

	result, err := f.sub.Submit(context.Background(), slide.ID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Status != StatusProcessing || !result.Success {
		t.Fatalf("result = %+v, want successful processing", result)
	}
	if result.JobID != "ext-42" {
		t.Errorf("job id = %q, want ext-42", result.JobID)
	}
	if f.ledger.used != 1 {
		t.Errorf("quota used = %d, want 1", f.ledger.used)
	}

	if captured.InputFormat != string(FormatPPTX) {
		t.Errorf("input format = %q, want pptx", captured.InputFormat)
	}
	if !strings.HasPrefix(captured.SourceURL, "https://signed.test/") {
		t.Errorf("source url = %q, want signed url", captured.SourceURL)
	}
	if !strings.Contains(captured.CallbackURL, "slide_id="+uuidString(slide.ID)) {
		t.Errorf("callback url %q should carry the slide id", captured.CallbackURL)
	}

	stored := f.store.slides[uuidString(slide.ID)]
	if stored.ThumbnailStatus != db.ThumbnailStatusProcessing {
		t.Errorf("slide status = %q, want processing", stored.ThumbnailStatus)
	}
	if len(f.store.jobs) != 1 || f.store.jobs[0].ExternalJobID != "ext-42" {
		t.Fatalf("jobs = %+v, want one pending job for ext-42", f.store.jobs)
	}
	if f.store.jobs[0].IdempotencyKey == "" {
		t.Error("job should carry a fresh idempotency key")
	}
}

func TestSubmitBookkeepingFailureIsNotFatal(t *testing.T) {
	f := newSubmitterFixture()
	event := f.store.addEvent(true)
	slide := f.store.addSlide(event, mimePDF, db.ThumbnailStatusNone)
	f.store.processingErr = errBoom
	f.store.createJobErr = errBoom
	f.conv.On("Submit", mock.Anything, mock.Anything).Return(&converter.SubmitResponse{ExternalJobID: "ext-7"}, nil)

	result, err := f.sub.Submit(context.Background(), slide.ID)
	if err != nil {
		t.Fatalf("Submit() error = %v, local bookkeeping must not fail the call", err)
	}
	if result.Status != StatusProcessing {
		t.Errorf("status = %q, want %q", result.Status, StatusProcessing)
	}
	if f.ledger.rollbacks != 0 {
		t.Error("quota must stay charged once the external job exists")
	}
}

func TestSubmitSlideNotFound(t *testing.T) {
	f := newSubmitterFixture()

	_, err := f.sub.Submit(context.Background(), newUUID())
	if err == nil {
		t.Fatal("expected error for unknown slide")
	}
	if apperror.Code(err) != apperror.ErrNotFound.Code {
		t.Errorf("error code = %q, want %q", apperror.Code(err), apperror.ErrNotFound.Code)
	}
}

func TestRetryResetsFailedSlide(t *testing.T) {
	f := newSubmitterFixture()
	event := f.store.addEvent(true)
	slide := f.store.addSlide(event, mimePPTX, db.ThumbnailStatusFailed)
	f.conv.On("Submit", mock.Anything, mock.Anything).Return(&converter.SubmitResponse{ExternalJobID: "ext-2"}, nil)

	result, err := f.sub.Retry(context.Background(), slide.ID)
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if result.Status != StatusProcessing {
		t.Errorf("status = %q, want %q", result.Status, StatusProcessing)
	}
	if f.ledger.used != 1 {
		t.Errorf("retry must consume quota again, used = %d", f.ledger.used)
	}
}
