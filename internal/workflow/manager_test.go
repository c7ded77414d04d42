package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vithaluntold/rai-compliance-client/internal/core/domain"
	"github.com/vithaluntold/rai-compliance-client/internal/infra/api"
	"github.com/vithaluntold/rai-compliance-client/internal/infra/session"
	"github.com/vithaluntold/rai-compliance-client/internal/infra/storage"
)

// fakeClient implements api.Client with pluggable behavior per method.
// Unconfigured methods fail loudly so a test cannot silently exercise an
// unexpected call path.
type fakeClient struct {
	upload          func(ctx context.Context, path string) (*api.UploadResponse, error)
	getDocument     func(ctx context.Context, documentID string) (*domain.Document, error)
	getFrameworks   func(ctx context.Context) ([]domain.Framework, error)
	selectFramework func(ctx context.Context, documentID string, sel api.FrameworkSelection) error
	startAnalysis   func(ctx context.Context, documentID string) error
	getProgress     func(ctx context.Context, documentID string) (*domain.Progress, error)
	getResults      func(ctx context.Context, documentID string) (*domain.AnalysisResults, error)
}

var errUnexpectedCall = errors.New("unexpected client call")

func (c *fakeClient) Upload(ctx context.Context, path string) (*api.UploadResponse, error) {
	if c.upload == nil {
		return nil, errUnexpectedCall
	}
	return c.upload(ctx, path)
}

func (c *fakeClient) GetDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	if c.getDocument == nil {
		return nil, errUnexpectedCall
	}
	return c.getDocument(ctx, documentID)
}

func (c *fakeClient) GetFrameworks(ctx context.Context) ([]domain.Framework, error) {
	if c.getFrameworks == nil {
		return nil, errUnexpectedCall
	}
	return c.getFrameworks(ctx)
}

func (c *fakeClient) SelectFramework(ctx context.Context, documentID string, sel api.FrameworkSelection) error {
	if c.selectFramework == nil {
		return errUnexpectedCall
	}
	return c.selectFramework(ctx, documentID, sel)
}

func (c *fakeClient) StartAnalysis(ctx context.Context, documentID string) error {
	if c.startAnalysis == nil {
		return errUnexpectedCall
	}
	return c.startAnalysis(ctx, documentID)
}

func (c *fakeClient) GetProgress(ctx context.Context, documentID string) (*domain.Progress, error) {
	if c.getProgress == nil {
		return nil, errUnexpectedCall
	}
	return c.getProgress(ctx, documentID)
}

func (c *fakeClient) GetResults(ctx context.Context, documentID string) (*domain.AnalysisResults, error) {
	if c.getResults == nil {
		return nil, errUnexpectedCall
	}
	return c.getResults(ctx, documentID)
}

func (c *fakeClient) Probe(ctx context.Context) error { return nil }

// eventRecorder collects workflow events for assertion.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) observe(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) count(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (r *eventRecorder) last(t EventType) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == t {
			return r.events[i], true
		}
	}
	return Event{}, false
}

func newTestManager(client api.Client, opts Options) (*Manager, *eventRecorder, *[]time.Duration) {
	delays := &[]time.Duration{}
	opts.Client = client
	opts.Sleep = noSleep(delays)
	mgr := NewManager(opts)
	rec := &eventRecorder{}
	mgr.Notifier().Subscribe(rec.observe)
	return mgr, rec, delays
}

func hasStep(mgr *Manager, step string, status string) bool {
	for _, rec := range mgr.Log().Snapshot().Steps {
		if rec.Step == step && string(rec.Status) == status {
			return true
		}
	}
	return false
}

func TestUploadMissingDocumentID(t *testing.T) {
	client := &fakeClient{
		upload: func(ctx context.Context, path string) (*api.UploadResponse, error) {
			return &api.UploadResponse{Status: "processing"}, nil
		},
	}
	mgr, rec, _ := newTestManager(client, Options{})

	_, err := mgr.Upload(context.Background(), "statement.pdf")
	if !errors.Is(err, ErrMissingDocumentID) {
		t.Fatalf("err = %v, want ErrMissingDocumentID", err)
	}
	if got := rec.count(EventStepFailed); got != 1 {
		t.Errorf("step_failed events = %d, want exactly 1", got)
	}
	if mgr.Log().DocumentID() != "" {
		t.Error("document ID must not be recorded on a logical upload failure")
	}
}

func TestUploadRetriesTransientFailures(t *testing.T) {
	calls := 0
	client := &fakeClient{
		upload: func(ctx context.Context, path string) (*api.UploadResponse, error) {
			calls++
			if calls < 3 {
				return nil, &api.HTTPError{Status: 503}
			}
			return &api.UploadResponse{DocumentID: "doc-1", Status: "processing"}, nil
		},
	}
	mgr, rec, _ := newTestManager(client, Options{})

	resp, err := mgr.Upload(context.Background(), "statement.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.DocumentID != "doc-1" || calls != 3 {
		t.Errorf("got %q after %d calls, want doc-1 after 3", resp.DocumentID, calls)
	}
	if got := rec.count(EventRetryScheduled); got != 2 {
		t.Errorf("retry events = %d, want 2", got)
	}
	if got := rec.count(EventStepFailed); got != 0 {
		t.Errorf("step_failed events = %d, want 0 while retries succeed", got)
	}
	if mgr.Log().DocumentID() != "doc-1" {
		t.Error("document ID not recorded after successful upload")
	}
}

func TestPollMetadataCompletesOnCompanyName(t *testing.T) {
	calls := 0
	client := &fakeClient{
		getDocument: func(ctx context.Context, documentID string) (*domain.Document, error) {
			calls++
			if calls < 3 {
				return &domain.Document{ID: documentID, Status: domain.StatusProcessing}, nil
			}
			return &domain.Document{
				ID:       documentID,
				Status:   domain.StatusProcessing,
				Metadata: &domain.Metadata{CompanyName: "Acme"},
			}, nil
		},
	}
	mgr, rec, delays := newTestManager(client, Options{})

	meta, err := mgr.PollMetadata(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.CompanyName != "Acme" {
		t.Errorf("CompanyName = %q, want Acme", meta.CompanyName)
	}
	if calls != 3 {
		t.Errorf("polled %d times, want exactly 3", calls)
	}

	wantDelays := []time.Duration{2 * time.Second, 3 * time.Second}
	if len(*delays) != len(wantDelays) {
		t.Fatalf("slept %d times, want %d", len(*delays), len(wantDelays))
	}
	for i, d := range *delays {
		if d != wantDelays[i] {
			t.Errorf("delay[%d] = %v, want %v", i, d, wantDelays[i])
		}
	}

	if !hasStep(mgr, "metadata_extraction", "completed") {
		t.Error("metadata_extraction completion not recorded")
	}
	if got := rec.count(EventStepCompleted); got != 1 {
		t.Errorf("step_completed events = %d, want 1", got)
	}
}

func TestPollMetadataServerFailure(t *testing.T) {
	client := &fakeClient{
		getDocument: func(ctx context.Context, documentID string) (*domain.Document, error) {
			return &domain.Document{
				ID:      documentID,
				Status:  domain.StatusFailed,
				Message: "corrupt file",
			}, nil
		},
	}
	mgr, rec, _ := newTestManager(client, Options{})

	_, err := mgr.PollMetadata(context.Background(), "doc-1")
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *api.Error", err)
	}
	if apiErr.Message != "corrupt file" {
		t.Errorf("Message = %q, want the server's message", apiErr.Message)
	}
	if apiErr.Retryable {
		t.Error("a server-reported failure must not be retryable")
	}
	if got := rec.count(EventStepFailed); got != 1 {
		t.Errorf("step_failed events = %d, want exactly 1", got)
	}
	if !hasStep(mgr, "metadata_extraction", "failed") {
		t.Error("metadata_extraction failure not recorded")
	}
}

func TestPollMetadataExhaustion(t *testing.T) {
	calls := 0
	client := &fakeClient{
		getDocument: func(ctx context.Context, documentID string) (*domain.Document, error) {
			calls++
			return &domain.Document{ID: documentID, Status: domain.StatusProcessing}, nil
		},
	}
	polling := DefaultPollingConfig
	polling.MetadataMaxAttempts = 3
	mgr, rec, _ := newTestManager(client, Options{Polling: polling})

	_, err := mgr.PollMetadata(context.Background(), "doc-1")
	if !errors.Is(err, ErrExtractionTimeout) {
		t.Fatalf("err = %v, want ErrExtractionTimeout", err)
	}
	if calls != 3 {
		t.Errorf("polled %d times, want the configured ceiling of 3", calls)
	}
	if !hasStep(mgr, "metadata_extraction_timeout", "failed") {
		t.Error("exhaustion not recorded under metadata_extraction_timeout")
	}
	snap := mgr.Log().Snapshot()
	if len(snap.CriticalErrors) != 1 {
		t.Errorf("critical errors = %d, want 1", len(snap.CriticalErrors))
	}
	if got := rec.count(EventStepFailed); got != 1 {
		t.Errorf("step_failed events = %d, want exactly 1", got)
	}
}

func TestPollMetadataToleratesTransientErrors(t *testing.T) {
	calls := 0
	client := &fakeClient{
		getDocument: func(ctx context.Context, documentID string) (*domain.Document, error) {
			calls++
			if calls == 1 {
				return nil, &api.HTTPError{Status: 503}
			}
			return &domain.Document{
				ID:       documentID,
				Metadata: &domain.Metadata{CompanyName: "Acme"},
			}, nil
		},
	}
	mgr, _, _ := newTestManager(client, Options{})

	meta, err := mgr.PollMetadata(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.CompanyName != "Acme" {
		t.Errorf("CompanyName = %q, want Acme", meta.CompanyName)
	}
	snap := mgr.Log().Snapshot()
	if len(snap.Warnings) != 1 {
		t.Errorf("warnings = %d, want the transient poll failure recorded once", len(snap.Warnings))
	}
}

func TestLoadFrameworksRejectsEmptyList(t *testing.T) {
	client := &fakeClient{
		getFrameworks: func(ctx context.Context) ([]domain.Framework, error) {
			return []domain.Framework{}, nil
		},
	}
	mgr, _, _ := newTestManager(client, Options{})

	_, err := mgr.LoadFrameworks(context.Background())
	if !errors.Is(err, ErrNoFrameworks) {
		t.Fatalf("err = %v, want ErrNoFrameworks", err)
	}
}

func TestPollProgressServerFailureNotRetried(t *testing.T) {
	calls := 0
	client := &fakeClient{
		getProgress: func(ctx context.Context, documentID string) (*domain.Progress, error) {
			calls++
			return &domain.Progress{
				DocumentID: documentID,
				Status:     domain.StatusFailed,
				Message:    "bad input",
			}, nil
		},
	}
	mgr, rec, _ := newTestManager(client, Options{})

	_, err := mgr.PollProgress(context.Background(), "doc-1")
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *api.Error", err)
	}
	if apiErr.Message != "bad input" {
		t.Errorf("Message = %q, want the server's message verbatim", apiErr.Message)
	}
	if calls != 1 {
		t.Errorf("polled %d times after a server-reported failure, want 1", calls)
	}
	if got := rec.count(EventRetryScheduled); got != 0 {
		t.Errorf("retry events = %d, want 0 for a terminal server failure", got)
	}
	if got := rec.count(EventStepFailed); got != 1 {
		t.Errorf("step_failed events = %d, want exactly 1", got)
	}
	if !hasStep(mgr, "analysis_progress", "failed") {
		t.Error("analysis_progress failure not recorded")
	}
}

func TestPollProgressNonRetryableCallFailure(t *testing.T) {
	client := &fakeClient{
		getProgress: func(ctx context.Context, documentID string) (*domain.Progress, error) {
			return nil, &api.HTTPError{Status: 404, Detail: "unknown document"}
		},
	}
	mgr, _, _ := newTestManager(client, Options{})

	_, err := mgr.PollProgress(context.Background(), "doc-1")
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Code != api.CodeNotFound {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	if !hasStep(mgr, "analysis_api_call_failed", "failed") {
		t.Error("failure not recorded under analysis_api_call_failed")
	}
}

func TestPollProgressCompletedFetchesResults(t *testing.T) {
	calls := 0
	client := &fakeClient{
		getProgress: func(ctx context.Context, documentID string) (*domain.Progress, error) {
			calls++
			if calls == 1 {
				return &domain.Progress{
					DocumentID:      documentID,
					Status:          domain.StatusProcessing,
					Percentage:      50,
					CurrentStandard: "IAS 1",
				}, nil
			}
			return &domain.Progress{DocumentID: documentID, Status: domain.StatusCompleted, Percentage: 100}, nil
		},
		getResults: func(ctx context.Context, documentID string) (*domain.AnalysisResults, error) {
			return &domain.AnalysisResults{
				DocumentID: documentID,
				Status:     "COMPLETED",
				Sections:   []domain.AnalysisSection{{Standard: "IAS 1"}},
			}, nil
		},
	}
	mgr, rec, _ := newTestManager(client, Options{})

	results, err := mgr.PollProgress(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results.Sections) != 1 {
		t.Errorf("sections = %d, want 1", len(results.Sections))
	}

	// 50% server progress maps into the upper 90% of the combined bar.
	found := false
	rec.mu.Lock()
	for _, ev := range rec.events {
		if ev.Type == EventProgress && ev.Message == "IAS 1" {
			found = true
			if ev.Fraction < 0.549 || ev.Fraction > 0.551 {
				t.Errorf("fraction = %v, want 0.55", ev.Fraction)
			}
		}
	}
	rec.mu.Unlock()
	if !found {
		t.Error("no progress event carried the current standard")
	}
	if !hasStep(mgr, "analysis_progress", "completed") {
		t.Error("analysis_progress completion not recorded")
	}
}

func TestPollProgressExhaustion(t *testing.T) {
	client := &fakeClient{
		getProgress: func(ctx context.Context, documentID string) (*domain.Progress, error) {
			return &domain.Progress{DocumentID: documentID, Status: domain.StatusProcessing, Percentage: 10}, nil
		},
	}
	polling := DefaultPollingConfig
	polling.ProgressMaxAttempts = 2
	mgr, _, delays := newTestManager(client, Options{Polling: polling})

	_, err := mgr.PollProgress(context.Background(), "doc-1")
	if !errors.Is(err, ErrAnalysisTimeout) {
		t.Fatalf("err = %v, want ErrAnalysisTimeout", err)
	}
	if len(*delays) != 1 {
		t.Fatalf("slept %d times, want 1 between 2 attempts", len(*delays))
	}
	if (*delays)[0] != polling.ProgressInterval {
		t.Errorf("delay = %v, want the fixed interval %v", (*delays)[0], polling.ProgressInterval)
	}
	if !hasStep(mgr, "analysis_progress", "failed") {
		t.Error("exhaustion not recorded against analysis_progress")
	}
}

func TestSingleFlightPerDocumentStep(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	client := &fakeClient{
		getProgress: func(ctx context.Context, documentID string) (*domain.Progress, error) {
			close(started)
			<-release
			return &domain.Progress{DocumentID: documentID, Status: domain.StatusCompleted}, nil
		},
		getResults: func(ctx context.Context, documentID string) (*domain.AnalysisResults, error) {
			return &domain.AnalysisResults{DocumentID: documentID, Status: "COMPLETED"}, nil
		},
	}
	mgr, _, _ := newTestManager(client, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := mgr.PollProgress(context.Background(), "doc-1")
		done <- err
	}()
	<-started

	if _, err := mgr.PollProgress(context.Background(), "doc-1"); !errors.Is(err, ErrStepInFlight) {
		t.Errorf("concurrent poll err = %v, want ErrStepInFlight", err)
	}

	// Same step for a different document is unaffected.
	if err := mgr.beginStep("doc-2", domain.StepAnalysisProgress); err != nil {
		t.Errorf("different document blocked: %v", err)
	}
	mgr.endStep("doc-2", domain.StepAnalysisProgress)

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first poll failed: %v", err)
	}

	// The slot is free again once the first attempt finished.
	if err := mgr.beginStep("doc-1", domain.StepAnalysisProgress); err != nil {
		t.Errorf("slot not released: %v", err)
	}
	mgr.endStep("doc-1", domain.StepAnalysisProgress)
}

func TestRecoverPartialState(t *testing.T) {
	client := &fakeClient{
		getDocument: func(ctx context.Context, documentID string) (*domain.Document, error) {
			return &domain.Document{
				ID:       documentID,
				Status:   domain.StatusCompleted,
				Metadata: &domain.Metadata{CompanyName: "Acme"},
			}, nil
		},
		getResults: func(ctx context.Context, documentID string) (*domain.AnalysisResults, error) {
			return nil, &api.HTTPError{Status: 500}
		},
	}
	mgr, _, _ := newTestManager(client, Options{})

	state, err := mgr.Recover(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("partial reconstruction must succeed, got %v", err)
	}
	if state.Results != nil {
		t.Error("results should be absent when the report fetch failed")
	}
	if !state.Metadata.Extracted() {
		t.Error("recovered metadata lost")
	}
	snap := mgr.Log().Snapshot()
	if len(snap.Warnings) != 1 {
		t.Errorf("warnings = %d, want the missing results recorded once", len(snap.Warnings))
	}
	if !hasStep(mgr, "metadata_extraction", "skipped") {
		t.Error("server-finished extraction not marked skipped")
	}
}

func TestRecoverFetchFailureNotRetryable(t *testing.T) {
	client := &fakeClient{
		getDocument: func(ctx context.Context, documentID string) (*domain.Document, error) {
			return nil, &api.HTTPError{Status: 503}
		},
	}
	mgr, _, _ := newTestManager(client, Options{})

	_, err := mgr.Recover(context.Background(), "doc-1")
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *api.Error", err)
	}
	if apiErr.Retryable {
		t.Error("recovery failures must never be retryable")
	}
	if !strings.HasPrefix(apiErr.Message, "Could not recover the session") {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestRunHappyPath(t *testing.T) {
	progressCalls := 0
	client := &fakeClient{
		upload: func(ctx context.Context, path string) (*api.UploadResponse, error) {
			return &api.UploadResponse{DocumentID: "doc-1", Status: "processing"}, nil
		},
		getDocument: func(ctx context.Context, documentID string) (*domain.Document, error) {
			return &domain.Document{
				ID:       documentID,
				Status:   domain.StatusProcessing,
				Metadata: &domain.Metadata{CompanyName: "Acme"},
			}, nil
		},
		getFrameworks: func(ctx context.Context) ([]domain.Framework, error) {
			return []domain.Framework{{ID: "IFRS", Name: "IFRS"}}, nil
		},
		selectFramework: func(ctx context.Context, documentID string, sel api.FrameworkSelection) error {
			return nil
		},
		startAnalysis: func(ctx context.Context, documentID string) error {
			return nil
		},
		getProgress: func(ctx context.Context, documentID string) (*domain.Progress, error) {
			progressCalls++
			if progressCalls == 1 {
				return &domain.Progress{DocumentID: documentID, Status: domain.StatusProcessing, Percentage: 40}, nil
			}
			return &domain.Progress{DocumentID: documentID, Status: domain.StatusCompleted, Percentage: 100}, nil
		},
		getResults: func(ctx context.Context, documentID string) (*domain.AnalysisResults, error) {
			return &domain.AnalysisResults{DocumentID: documentID, Status: "COMPLETED"}, nil
		},
	}

	sessions := session.NewMemoryStore()
	archive := storage.NewMemoryRunRepo()
	mgr, rec, _ := newTestManager(client, Options{Sessions: sessions, Archive: archive})

	results, err := mgr.Run(context.Background(),
		"statement.pdf", api.FrameworkSelection{Framework: "IFRS", Standards: []string{"IAS 1"}})
	if err != nil {
		t.Fatalf("saga failed: %v", err)
	}
	if results.DocumentID != "doc-1" {
		t.Errorf("DocumentID = %q", results.DocumentID)
	}

	if got := rec.count(EventTerminal); got != 1 {
		t.Errorf("terminal events = %d, want exactly 1", got)
	}
	if ev, ok := rec.last(EventTerminal); !ok || !ev.Success {
		t.Error("terminal event should report success")
	}
	if got := rec.count(EventStepFailed); got != 0 {
		t.Errorf("step_failed events = %d, want 0", got)
	}

	// Session cleaned up on success; run archived for fleet diagnostics.
	stored, err := sessions.List(context.Background())
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("resume sessions left behind = %d, want 0", len(stored))
	}
	runs, err := archive.GetByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != "completed" {
		t.Errorf("archived runs = %+v, want one completed run", runs)
	}
}

func TestRunStopsAtFirstFailedStage(t *testing.T) {
	client := &fakeClient{
		upload: func(ctx context.Context, path string) (*api.UploadResponse, error) {
			return nil, &api.HTTPError{Status: 413}
		},
	}
	mgr, rec, _ := newTestManager(client, Options{})

	_, err := mgr.Run(context.Background(), "huge.pdf", api.FrameworkSelection{Framework: "IFRS"})
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Code != api.CodePayloadTooLarge {
		t.Fatalf("err = %v, want PAYLOAD_TOO_LARGE", err)
	}
	if got := rec.count(EventTerminal); got != 1 {
		t.Errorf("terminal events = %d, want exactly 1", got)
	}
	if ev, _ := rec.last(EventTerminal); ev.Success {
		t.Error("terminal event should report failure")
	}
	if mgr.Log().Snapshot().OverallStatus != "failed" {
		t.Error("pipeline log not closed as failed")
	}
}

func TestRunRejectsUnknownFramework(t *testing.T) {
	client := &fakeClient{
		upload: func(ctx context.Context, path string) (*api.UploadResponse, error) {
			return &api.UploadResponse{DocumentID: "doc-1"}, nil
		},
		getDocument: func(ctx context.Context, documentID string) (*domain.Document, error) {
			return &domain.Document{ID: documentID, Metadata: &domain.Metadata{CompanyName: "Acme"}}, nil
		},
		getFrameworks: func(ctx context.Context) ([]domain.Framework, error) {
			return []domain.Framework{{ID: "IFRS", Name: "IFRS"}}, nil
		},
	}
	mgr, _, _ := newTestManager(client, Options{})

	_, err := mgr.Run(context.Background(), "statement.pdf", api.FrameworkSelection{Framework: "NOPE"})
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Code != api.CodeBadRequest {
		t.Fatalf("err = %v, want BAD_REQUEST for an unavailable framework", err)
	}
	if mgr.Log().Snapshot().OverallStatus != "failed" {
		t.Error("pipeline log not closed as failed")
	}
}
