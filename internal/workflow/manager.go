// Package workflow drives the multi-stage compliance saga from the client:
// upload, metadata polling, framework selection, analysis polling, export
// and recovery, with retry policy and step-level observability.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vithaluntold/rai-compliance-client/internal/core/domain"
	"github.com/vithaluntold/rai-compliance-client/internal/infra/api"
	"github.com/vithaluntold/rai-compliance-client/internal/infra/netmon"
	"github.com/vithaluntold/rai-compliance-client/internal/infra/session"
	"github.com/vithaluntold/rai-compliance-client/internal/infra/storage"
	"github.com/vithaluntold/rai-compliance-client/internal/metrics"
	"github.com/vithaluntold/rai-compliance-client/internal/pipeline"
)

// PollingConfig holds the per-step polling ceilings and delays.
type PollingConfig struct {
	MetadataBaseDelay   time.Duration
	MetadataMaxDelay    time.Duration
	MetadataMaxAttempts int
	ProgressInterval    time.Duration
	ProgressMaxAttempts int
}

// DefaultPollingConfig provides sensible defaults: a gentle growing backoff
// for metadata (waiting for a result, not retrying a failure) and a fixed
// 5s interval with a 5-minute ceiling for analysis progress.
var DefaultPollingConfig = PollingConfig{
	MetadataBaseDelay:   2 * time.Second,
	MetadataMaxDelay:    10 * time.Second,
	MetadataMaxAttempts: 30,
	ProgressInterval:    5 * time.Second,
	ProgressMaxAttempts: 60,
}

// uploadTimeout is the per-attempt allowance for document uploads.
const uploadTimeout = 30 * time.Second

// initiationShare is the fraction of the combined analysis progress range
// occupied by initiation, so one continuous bar spans initiation + polling.
const initiationShare = 0.1

// Options configures a Manager. Client is required; Monitor, Sessions and
// Archive are optional collaborators.
type Options struct {
	Client    api.Client
	Monitor   *netmon.Monitor
	Log       *pipeline.Log
	Sessions  session.Store
	Archive   storage.RunRepository
	Notifier  *Notifier
	Retry     RetryConfig
	Polling   PollingConfig
	Sleep     SleepFunc
	SessionID string
}

type inflightKey struct {
	documentID string
	step       domain.WorkflowStep
}

// Manager coordinates one or more document sagas. Stages within one
// document are strictly sequential; sagas for different documents are
// independent and may interleave freely.
type Manager struct {
	client    api.Client
	monitor   *netmon.Monitor
	log       *pipeline.Log
	sessions  session.Store
	archive   storage.RunRepository
	notifier  *Notifier
	retryCfg  RetryConfig
	polling   PollingConfig
	sleep     SleepFunc
	sessionID string

	mu       sync.Mutex
	inflight map[inflightKey]struct{}
}

// NewManager creates a workflow manager.
func NewManager(opts Options) *Manager {
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	if opts.Notifier == nil {
		opts.Notifier = NewNotifier()
	}
	if opts.Log == nil {
		opts.Log = pipeline.NewLog(opts.SessionID, nil)
	}
	if opts.Retry.BackoffFactor == 0 {
		opts.Retry = DefaultRetryConfig
	}
	if opts.Polling.MetadataMaxAttempts == 0 {
		opts.Polling = DefaultPollingConfig
	}
	if opts.Sleep == nil {
		opts.Sleep = DefaultSleep
	}

	return &Manager{
		client:    opts.Client,
		monitor:   opts.Monitor,
		log:       opts.Log,
		sessions:  opts.Sessions,
		archive:   opts.Archive,
		notifier:  opts.Notifier,
		retryCfg:  opts.Retry,
		polling:   opts.Polling,
		sleep:     opts.Sleep,
		sessionID: opts.SessionID,
		inflight:  make(map[inflightKey]struct{}),
	}
}

// Notifier returns the event channel observers subscribe to.
func (m *Manager) Notifier() *Notifier {
	return m.notifier
}

// Log returns the pipeline log for this manager's session.
func (m *Manager) Log() *pipeline.Log {
	return m.log
}

// beginStep enforces the central saga invariant: never two concurrent
// attempts for the same (documentID, step) pair.
func (m *Manager) beginStep(documentID string, step domain.WorkflowStep) error {
	key := inflightKey{documentID: documentID, step: step}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.inflight[key]; dup {
		return fmt.Errorf("%w: %s/%s", ErrStepInFlight, documentID, step)
	}
	m.inflight[key] = struct{}{}
	return nil
}

func (m *Manager) endStep(documentID string, step domain.WorkflowStep) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflight, inflightKey{documentID: documentID, step: step})
}

// failFast returns ErrOffline when the monitor reports definitely offline,
// so callers fail immediately instead of retrying into a dead network.
func (m *Manager) failFast() *api.Error {
	if m.monitor != nil && !m.monitor.IsOnline() {
		return ErrOffline
	}
	return nil
}

// retryStep wraps op with the retry engine, routing retry notifications to
// the observers and metrics. Terminal outcomes notify exactly once; retries
// only ever produce non-alarming retry events.
func retryStep[T any](
	m *Manager,
	ctx context.Context,
	step domain.WorkflowStep,
	cfg RetryConfig,
	op func(ctx context.Context) (T, error),
) (T, error) {
	return WithRetry(ctx, cfg, m.sleep, func(attempt int, delay time.Duration, err *api.Error) {
		metrics.RetriesTotal.WithLabelValues(string(step)).Inc()
		slog.Debug("Retrying step", "step", step, "attempt", attempt, "delay", delay, "error", err)
		m.notifier.RetryScheduled(step, attempt, delay, err)
	}, op)
}

// failStep records and reports a stage's terminal failure exactly once.
func (m *Manager) failStep(step domain.WorkflowStep, err *api.Error) *api.Error {
	m.log.StepFailed(string(step), err)
	m.log.AddCriticalError(fmt.Sprintf("%s failed: %s", step, err.Message))
	m.notifier.StepFailed(step, err)
	return err
}

// Upload sends the document and establishes its server identity. A 2xx
// response without a document ID is a logical failure.
func (m *Manager) Upload(ctx context.Context, path string) (*api.UploadResponse, error) {
	if err := m.beginStep("", domain.StepUpload); err != nil {
		return nil, err
	}
	defer m.endStep("", domain.StepUpload)

	m.log.StepStarted(string(domain.StepUpload), map[string]any{"file": path})
	m.notifier.StepStarted(domain.StepUpload, "Uploading document")
	start := time.Now()

	if offline := m.failFast(); offline != nil {
		return nil, m.failStep(domain.StepUpload, offline)
	}

	cfg := m.retryCfg
	cfg.MaxRetries = 2
	resp, err := retryStep(m, ctx, domain.StepUpload, cfg, func(ctx context.Context) (*api.UploadResponse, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
		defer cancel()
		return m.client.Upload(attemptCtx, path)
	})
	if err != nil {
		return nil, m.failStep(domain.StepUpload, api.Classify(err))
	}
	if resp.DocumentID == "" {
		return nil, m.failStep(domain.StepUpload, ErrMissingDocumentID)
	}

	m.log.SetDocumentID(resp.DocumentID)
	m.log.StepCompleted(string(domain.StepUpload), map[string]any{
		"document_id": resp.DocumentID,
		"status":      resp.Status,
	})
	metrics.StepDuration.WithLabelValues(string(domain.StepUpload)).Observe(time.Since(start).Seconds())
	m.notifier.StepCompleted(domain.StepUpload, "Document uploaded")

	m.saveSession(ctx, resp.DocumentID, domain.StepMetadataExtraction, "")
	return resp, nil
}

// PollMetadata polls document status until extraction completes. Success is
// a domain signal, a non-empty company name, not mere HTTP success. The
// inter-poll delay grows gently and exhaustion is a recoverable domain
// timeout, not a transport failure.
func (m *Manager) PollMetadata(ctx context.Context, documentID string) (*domain.Metadata, error) {
	if err := m.beginStep(documentID, domain.StepMetadataExtraction); err != nil {
		return nil, err
	}
	defer m.endStep(documentID, domain.StepMetadataExtraction)

	m.log.StepStarted(string(domain.StepMetadataExtraction), map[string]any{"document_id": documentID})
	m.notifier.StepStarted(domain.StepMetadataExtraction, "Extracting document metadata")
	start := time.Now()

	pollCfg := RetryConfig{
		BaseDelay:     m.polling.MetadataBaseDelay,
		MaxDelay:      m.polling.MetadataMaxDelay,
		BackoffFactor: 1.5,
	}
	maxAttempts := m.polling.MetadataMaxAttempts

	for attempt := 0; attempt < maxAttempts; attempt++ {
		doc, err := m.client.GetDocument(ctx, documentID)
		switch {
		case err != nil:
			apiErr := api.Classify(err)
			if !apiErr.Retryable {
				return nil, m.failStep(domain.StepMetadataExtraction, apiErr)
			}
			// Transient poll failure: keep polling, the attempt still counts.
			m.log.AddWarning(fmt.Sprintf("metadata poll attempt %d failed: %s", attempt+1, apiErr.Message))
		case doc.Status == domain.StatusFailed:
			apiErr := &api.Error{
				Message: serverMessage(doc.Message, "Document processing failed on the server."),
				Code:    api.CodeUnknownError,
			}
			return nil, m.failStep(domain.StepMetadataExtraction, apiErr)
		case doc.Metadata.Extracted() || (doc.MetadataExtraction == domain.PhaseCompleted && doc.Metadata != nil):
			m.log.StepCompleted(string(domain.StepMetadataExtraction), map[string]any{
				"company_name": doc.Metadata.CompanyName,
				"attempts":     attempt + 1,
			})
			metrics.StepDuration.WithLabelValues(string(domain.StepMetadataExtraction)).Observe(time.Since(start).Seconds())
			m.notifier.StepCompleted(domain.StepMetadataExtraction, "Metadata extracted")
			return doc.Metadata, nil
		}

		m.notifier.Progress(domain.StepMetadataExtraction,
			float64(attempt+1)/float64(maxAttempts), "Waiting for metadata extraction")

		if attempt == maxAttempts-1 {
			break
		}
		if err := m.sleep(ctx, Backoff(pollCfg, attempt)); err != nil {
			return nil, m.failStep(domain.StepMetadataExtraction, api.Classify(err))
		}
	}

	// Ceiling exhausted. Recorded under its own step name so diagnosis can
	// tell "backend stuck" apart from a transport timeout.
	m.log.StepFailed("metadata_extraction_timeout", ErrExtractionTimeout)
	m.log.AddCriticalError("metadata extraction exceeded the polling ceiling")
	m.notifier.StepFailed(domain.StepMetadataExtraction, ErrExtractionTimeout)
	return nil, ErrExtractionTimeout
}

// LoadFrameworks fetches the available frameworks. An empty list is not
// accepted as a valid success.
func (m *Manager) LoadFrameworks(ctx context.Context) ([]domain.Framework, error) {
	m.log.StepStarted(string(domain.StepFrameworkLoading), nil)
	m.notifier.StepStarted(domain.StepFrameworkLoading, "Loading frameworks")

	if offline := m.failFast(); offline != nil {
		return nil, m.failStep(domain.StepFrameworkLoading, offline)
	}

	frameworks, err := retryStep(m, ctx, domain.StepFrameworkLoading, m.retryCfg,
		func(ctx context.Context) ([]domain.Framework, error) {
			return m.client.GetFrameworks(ctx)
		})
	if err != nil {
		return nil, m.failStep(domain.StepFrameworkLoading, api.Classify(err))
	}
	if len(frameworks) == 0 {
		return nil, m.failStep(domain.StepFrameworkLoading, ErrNoFrameworks)
	}

	m.log.StepCompleted(string(domain.StepFrameworkLoading), map[string]any{"count": len(frameworks)})
	m.notifier.StepCompleted(domain.StepFrameworkLoading, "Frameworks loaded")
	return frameworks, nil
}

// SelectFramework records the framework and standards choice for a document.
func (m *Manager) SelectFramework(ctx context.Context, documentID string, sel api.FrameworkSelection) error {
	if err := m.beginStep(documentID, domain.StepStandardsSelection); err != nil {
		return err
	}
	defer m.endStep(documentID, domain.StepStandardsSelection)

	m.log.StepStarted(string(domain.StepStandardsSelection), map[string]any{
		"framework": sel.Framework,
		"standards": len(sel.Standards),
	})
	m.notifier.StepStarted(domain.StepStandardsSelection, "Selecting framework")

	_, err := retryStep(m, ctx, domain.StepStandardsSelection, m.retryCfg,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, m.client.SelectFramework(ctx, documentID, sel)
		})
	if err != nil {
		return m.failStep(domain.StepStandardsSelection, api.Classify(err))
	}

	// Recorded under the name diagnosis looks for.
	m.log.StepCompleted("framework_selected", map[string]any{"framework": sel.Framework})
	m.notifier.StepCompleted(domain.StepStandardsSelection, "Framework selected")
	m.saveSession(ctx, documentID, domain.StepAnalysisInitiation, sel.Framework)
	return nil
}

// StartAnalysis kicks off server-side compliance analysis.
func (m *Manager) StartAnalysis(ctx context.Context, documentID string) error {
	if err := m.beginStep(documentID, domain.StepAnalysisInitiation); err != nil {
		return err
	}
	defer m.endStep(documentID, domain.StepAnalysisInitiation)

	m.log.StepStarted(string(domain.StepAnalysisInitiation), map[string]any{"document_id": documentID})
	m.notifier.StepStarted(domain.StepAnalysisInitiation, "Starting compliance analysis")

	if offline := m.failFast(); offline != nil {
		return m.failStep(domain.StepAnalysisInitiation, offline)
	}

	_, err := retryStep(m, ctx, domain.StepAnalysisInitiation, m.retryCfg,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, m.client.StartAnalysis(ctx, documentID)
		})
	if err != nil {
		return m.failStep(domain.StepAnalysisInitiation, api.Classify(err))
	}

	m.log.StepCompleted(string(domain.StepAnalysisInitiation), nil)
	m.notifier.Progress(domain.StepAnalysisProgress, initiationShare, "Analysis started")
	m.saveSession(ctx, documentID, domain.StepAnalysisProgress, "")
	return nil
}

// PollProgress polls analysis progress at a fixed interval until the server
// reports a terminal status. COMPLETED fetches the final results; FAILED
// surfaces the server's message; anything else keeps polling. Fractions are
// scaled so initiation and polling render as one continuous bar.
func (m *Manager) PollProgress(ctx context.Context, documentID string) (*domain.AnalysisResults, error) {
	if err := m.beginStep(documentID, domain.StepAnalysisProgress); err != nil {
		return nil, err
	}
	defer m.endStep(documentID, domain.StepAnalysisProgress)

	m.log.StepStarted(string(domain.StepAnalysisProgress), map[string]any{"document_id": documentID})
	start := time.Now()

	maxAttempts := m.polling.ProgressMaxAttempts
	for attempt := 0; attempt < maxAttempts; attempt++ {
		progress, err := m.client.GetProgress(ctx, documentID)
		switch {
		case err != nil:
			apiErr := api.Classify(err)
			if !apiErr.Retryable {
				// Recorded under the name diagnosis looks for.
				m.log.StepFailed("analysis_api_call_failed", apiErr)
				m.log.AddCriticalError(fmt.Sprintf("analysis progress call failed: %s", apiErr.Message))
				m.notifier.StepFailed(domain.StepAnalysisProgress, apiErr)
				return nil, apiErr
			}
			m.log.AddWarning(fmt.Sprintf("progress poll attempt %d failed: %s", attempt+1, apiErr.Message))
		case progress.Status == domain.StatusFailed:
			apiErr := &api.Error{
				Message: serverMessage(progress.Message, "Analysis failed on the server."),
				Code:    api.CodeUnknownError,
			}
			return nil, m.failStep(domain.StepAnalysisProgress, apiErr)
		case progress.Status == domain.StatusCompleted:
			results, err := retryStep(m, ctx, domain.StepAnalysisProgress, m.retryCfg,
				func(ctx context.Context) (*domain.AnalysisResults, error) {
					return m.client.GetResults(ctx, documentID)
				})
			if err != nil {
				return nil, m.failStep(domain.StepAnalysisProgress, api.Classify(err))
			}
			m.log.StepCompleted(string(domain.StepAnalysisProgress), map[string]any{"attempts": attempt + 1})
			metrics.StepDuration.WithLabelValues(string(domain.StepAnalysisProgress)).Observe(time.Since(start).Seconds())
			m.notifier.Progress(domain.StepAnalysisProgress, 1.0, "Analysis complete")
			m.notifier.StepCompleted(domain.StepAnalysisProgress, "Analysis complete")
			return results, nil
		default:
			fraction := initiationShare + (1-initiationShare)*progress.Percentage/100
			m.notifier.Progress(domain.StepAnalysisProgress, fraction, progress.CurrentStandard)
		}

		if attempt == maxAttempts-1 {
			break
		}
		if err := m.sleep(ctx, m.polling.ProgressInterval); err != nil {
			return nil, m.failStep(domain.StepAnalysisProgress, api.Classify(err))
		}
	}

	m.log.StepFailed(string(domain.StepAnalysisProgress), ErrAnalysisTimeout)
	m.log.AddCriticalError("analysis progress exceeded the polling ceiling")
	m.notifier.StepFailed(domain.StepAnalysisProgress, ErrAnalysisTimeout)
	return nil, ErrAnalysisTimeout
}

// Export fetches final results and builds the exportable artifact. Always
// re-invocable; a failure here never corrupts the underlying analysis.
func (m *Manager) Export(ctx context.Context, documentID string) ([]byte, error) {
	if err := m.beginStep(documentID, domain.StepResultsExport); err != nil {
		return nil, err
	}
	defer m.endStep(documentID, domain.StepResultsExport)

	m.log.StepStarted(string(domain.StepResultsExport), map[string]any{"document_id": documentID})
	m.notifier.StepStarted(domain.StepResultsExport, "Exporting results")

	results, err := retryStep(m, ctx, domain.StepResultsExport, m.retryCfg,
		func(ctx context.Context) (*domain.AnalysisResults, error) {
			return m.client.GetResults(ctx, documentID)
		})
	if err != nil {
		return nil, m.failStep(domain.StepResultsExport, api.Classify(err))
	}

	artifact, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, m.failStep(domain.StepResultsExport, api.Classify(err))
	}

	m.log.StepCompleted(string(domain.StepResultsExport), map[string]any{"bytes": len(artifact)})
	m.notifier.StepCompleted(domain.StepResultsExport, "Results exported")
	return artifact, nil
}

// RecoveredState is the workflow state reconstructed from the server after
// a restart. Partial reconstruction is success.
type RecoveredState struct {
	Document *domain.Document
	Metadata *domain.Metadata
	Results  *domain.AnalysisResults
}

// Recover rebuilds as much workflow state as the server will report for a
// document ID. Failing to even fetch status is non-recoverable and never
// retried: there is no well-defined retry target for lost state.
func (m *Manager) Recover(ctx context.Context, documentID string) (*RecoveredState, error) {
	if err := m.beginStep(documentID, domain.StepSessionRecovery); err != nil {
		return nil, err
	}
	defer m.endStep(documentID, domain.StepSessionRecovery)

	m.log.StepStarted(string(domain.StepSessionRecovery), map[string]any{"document_id": documentID})
	m.notifier.StepStarted(domain.StepSessionRecovery, "Recovering session")

	doc, err := m.client.GetDocument(ctx, documentID)
	if err != nil {
		return nil, m.failStep(domain.StepSessionRecovery, recoveryError(err))
	}

	m.log.SetDocumentID(documentID)
	state := &RecoveredState{Document: doc, Metadata: doc.Metadata}

	// Stages the server already finished are marked skipped, not re-run.
	if doc.Metadata.Extracted() {
		m.log.StepSkipped(string(domain.StepMetadataExtraction), "already completed on the server")
	}
	if doc.ComplianceAnalysis == domain.PhaseCompleted || doc.Status == domain.StatusCompleted {
		m.log.StepSkipped(string(domain.StepAnalysisProgress), "already completed on the server")
	}

	if doc.Status == domain.StatusCompleted {
		results, err := m.client.GetResults(ctx, documentID)
		if err != nil {
			// Best-effort: status alone is a usable partial reconstruction.
			m.log.AddWarning(fmt.Sprintf("recovered status but not results: %s", api.Classify(err).Message))
		} else {
			state.Results = results
		}
	}

	m.log.StepCompleted(string(domain.StepSessionRecovery), map[string]any{
		"status":      doc.Status,
		"has_results": state.Results != nil,
	})
	m.notifier.StepCompleted(domain.StepSessionRecovery, "Session recovered")
	return state, nil
}

// Run drives the whole saga for one document. A later stage is never
// entered before the previous one reports success.
func (m *Manager) Run(ctx context.Context, path string, sel api.FrameworkSelection) (*domain.AnalysisResults, error) {
	upload, err := m.Upload(ctx, path)
	if err != nil {
		return nil, m.finish(ctx, "", err)
	}
	documentID := upload.DocumentID

	if _, err := m.PollMetadata(ctx, documentID); err != nil {
		return nil, m.finish(ctx, documentID, err)
	}

	frameworks, err := m.LoadFrameworks(ctx)
	if err != nil {
		return nil, m.finish(ctx, documentID, err)
	}
	if err := validateSelection(frameworks, sel); err != nil {
		return nil, m.finish(ctx, documentID, m.failStep(domain.StepStandardsSelection, api.Classify(err)))
	}

	if err := m.SelectFramework(ctx, documentID, sel); err != nil {
		return nil, m.finish(ctx, documentID, err)
	}
	if err := m.StartAnalysis(ctx, documentID); err != nil {
		return nil, m.finish(ctx, documentID, err)
	}

	results, err := m.PollProgress(ctx, documentID)
	if err != nil {
		return nil, m.finish(ctx, documentID, err)
	}

	_ = m.finish(ctx, documentID, nil)
	return results, nil
}

// finish closes the saga: one terminal notification, pipeline log closure,
// session cleanup on success and best-effort archiving.
func (m *Manager) finish(ctx context.Context, documentID string, err error) error {
	if err == nil {
		m.log.Complete()
		m.notifier.Terminal(true, "Compliance analysis completed")
		metrics.SagasTotal.WithLabelValues("completed").Inc()
		if m.sessions != nil && documentID != "" {
			if derr := m.sessions.Delete(ctx, documentID); derr != nil {
				slog.Warn("Failed to delete session", "document_id", documentID, "error", derr)
			}
		}
	} else {
		apiErr := api.Classify(err)
		m.log.Fail(apiErr.Message)
		m.notifier.Terminal(false, apiErr.Message)
		metrics.SagasTotal.WithLabelValues("failed").Inc()
	}

	m.archiveRun(ctx)
	return err
}

// archiveRun stores the finished pipeline log for fleet diagnostics.
// Best-effort: archive failures never affect the saga outcome.
func (m *Manager) archiveRun(ctx context.Context) {
	if m.archive == nil {
		return
	}

	snap := m.log.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Warn("Failed to serialize pipeline snapshot", "error", err)
		return
	}

	endedAt := time.Now()
	if snap.EndTime != nil {
		endedAt = *snap.EndTime
	}
	run := &storage.RunRecord{
		ID:         uuid.NewString(),
		SessionID:  snap.SessionID,
		DocumentID: snap.DocumentID,
		Status:     string(snap.OverallStatus),
		StartedAt:  snap.StartTime,
		EndedAt:    endedAt,
		Snapshot:   data,
		Criticals:  len(snap.CriticalErrors),
		Warnings:   len(snap.Warnings),
	}
	if err := m.archive.Insert(ctx, run); err != nil {
		slog.Warn("Failed to archive pipeline run", "error", err)
	}
}

// saveSession persists resume state. Best-effort.
func (m *Manager) saveSession(ctx context.Context, documentID string, step domain.WorkflowStep, framework string) {
	if m.sessions == nil {
		return
	}

	sess := session.Session{
		SessionID:  m.sessionID,
		DocumentID: documentID,
		Step:       step,
		Framework:  framework,
		UpdatedAt:  time.Now(),
	}
	if err := m.sessions.Save(ctx, sess); err != nil {
		slog.Warn("Failed to save session", "document_id", documentID, "error", err)
	}
}

func validateSelection(frameworks []domain.Framework, sel api.FrameworkSelection) error {
	for _, f := range frameworks {
		if f.ID == sel.Framework || f.Name == sel.Framework {
			return nil
		}
	}
	return &api.Error{
		Message: fmt.Sprintf("Framework %q is not available.", sel.Framework),
		Code:    api.CodeBadRequest,
	}
}

func serverMessage(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
