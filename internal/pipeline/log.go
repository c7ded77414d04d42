// Package pipeline provides the append-only, per-document timeline of
// workflow steps used for production diagnosis of stuck analyses.
package pipeline

import (
	"encoding/json"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// StepStatus is the recorded outcome of a step transition.
type StepStatus string

const (
	StepStarted   StepStatus = "started"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// OverallStatus is the state of the whole document-processing attempt.
// "stalled" is only ever produced by diagnosis, never set by the log itself.
type OverallStatus string

const (
	StatusInProgress OverallStatus = "in_progress"
	StatusCompleted  OverallStatus = "completed"
	StatusFailed     OverallStatus = "failed"
	StatusStalled    OverallStatus = "stalled"
)

// StepRecord is one append-only timeline entry. Once written it is never
// mutated; a completed/failed record carries the duration computed from the
// matching started record.
type StepRecord struct {
	Step      string         `json:"step"`
	Status    StepStatus     `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Duration  *time.Duration `json:"duration,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	Runtime   *RuntimeStats  `json:"runtime,omitempty"`
}

// RuntimeStats is a lightweight best-effort process snapshot embedded in
// each record.
type RuntimeStats struct {
	Goroutines int    `json:"goroutines"`
	HeapBytes  uint64 `json:"heap_bytes"`
}

// Snapshot is a full-fidelity copy of the log for download or inspection.
type Snapshot struct {
	SessionID      string         `json:"session_id"`
	DocumentID     string         `json:"document_id,omitempty"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        *time.Time     `json:"end_time,omitempty"`
	CurrentStep    string         `json:"current_step"`
	OverallStatus  OverallStatus  `json:"overall_status"`
	TotalDuration  *time.Duration `json:"total_duration,omitempty"`
	Steps          []StepRecord   `json:"steps"`
	CriticalErrors []string       `json:"critical_errors"`
	Warnings       []string       `json:"warnings"`
}

// Summary is a compact view for lightweight status display and escalation.
type Summary struct {
	SessionID      string        `json:"session_id"`
	DocumentID     string        `json:"document_id,omitempty"`
	CurrentStep    string        `json:"current_step"`
	OverallStatus  OverallStatus `json:"overall_status"`
	CompletedSteps int           `json:"completed_steps"`
	FailedSteps    int           `json:"failed_steps"`
	CriticalErrors int           `json:"critical_errors"`
	Warnings       int           `json:"warnings"`
	Duration       time.Duration `json:"duration"`
}

// EscalationSink receives compact summaries when a critical error is
// appended. Implementations must be fire-and-forget safe.
type EscalationSink interface {
	Ship(summary Summary)
}

// Log is the per-document-session pipeline log. One instance per
// document-processing attempt, exclusively owned by the session driving
// that document.
type Log struct {
	mu sync.Mutex

	sessionID      string
	documentID     string
	startTime      time.Time
	endTime        *time.Time
	currentStep    string
	overallStatus  OverallStatus
	steps          []StepRecord
	criticalErrors []string
	warnings       []string

	stepStarts map[string]time.Time
	sink       EscalationSink
	now        func() time.Time
}

// NewLog creates a log for one document-processing attempt. sink may be nil.
func NewLog(sessionID string, sink EscalationSink) *Log {
	l := &Log{
		sessionID:     sessionID,
		overallStatus: StatusInProgress,
		stepStarts:    make(map[string]time.Time),
		sink:          sink,
		now:           time.Now,
	}
	l.startTime = l.now()
	return l
}

// SetDocumentID records the server-assigned document identity.
func (l *Log) SetDocumentID(documentID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.documentID = documentID
}

// DocumentID returns the recorded document identity, if any.
func (l *Log) DocumentID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.documentID
}

// StepStarted records the beginning of a named step.
func (l *Log) StepStarted(step string, data map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.currentStep = step
	l.stepStarts[step] = now
	l.append(StepRecord{Step: step, Status: StepStarted, Timestamp: now, Data: data})
}

// StepCompleted records successful completion of a named step. The duration
// is filled from the matching start time; with no matching start the record
// simply has no duration.
func (l *Log) StepCompleted(step string, data map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec := StepRecord{Step: step, Status: StepCompleted, Timestamp: now, Data: data}
	if start, ok := l.stepStarts[step]; ok {
		d := now.Sub(start)
		rec.Duration = &d
		delete(l.stepStarts, step)
	}
	l.append(rec)
}

// StepFailed records failure of a named step.
func (l *Log) StepFailed(step string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec := StepRecord{Step: step, Status: StepFailed, Timestamp: now}
	if err != nil {
		rec.Error = err.Error()
	}
	if start, ok := l.stepStarts[step]; ok {
		d := now.Sub(start)
		rec.Duration = &d
		delete(l.stepStarts, step)
	}
	l.append(rec)
}

// StepSkipped records that a named step was skipped.
func (l *Log) StepSkipped(step string, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data := map[string]any{}
	if reason != "" {
		data["reason"] = reason
	}
	l.append(StepRecord{Step: step, Status: StepSkipped, Timestamp: l.now(), Data: data})
}

// AddCriticalError appends to the critical escalation list and ships a
// summary to the sink. Sink failures never propagate to the caller.
func (l *Log) AddCriticalError(msg string) {
	l.mu.Lock()
	l.criticalErrors = append(l.criticalErrors, msg)
	sink := l.sink
	summary := l.summaryLocked()
	l.mu.Unlock()

	if sink != nil {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Debug("Escalation sink panicked", "panic", r)
				}
			}()
			sink.Ship(summary)
		}()
	}
}

// AddWarning appends to the warning list.
func (l *Log) AddWarning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

// Complete closes the log with a successful terminal status.
func (l *Log) Complete() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.endTime = &now
	l.overallStatus = StatusCompleted
}

// Fail closes the log with a failed terminal status.
func (l *Log) Fail(reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.endTime = &now
	l.overallStatus = StatusFailed
	if reason != "" {
		l.criticalErrors = append(l.criticalErrors, reason)
	}
}

// Snapshot returns a full-fidelity copy of the log. Callable at any time,
// including mid-flight.
func (l *Log) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := Snapshot{
		SessionID:      l.sessionID,
		DocumentID:     l.documentID,
		StartTime:      l.startTime,
		EndTime:        l.endTime,
		CurrentStep:    l.currentStep,
		OverallStatus:  l.overallStatus,
		Steps:          make([]StepRecord, len(l.steps)),
		CriticalErrors: append([]string{}, l.criticalErrors...),
		Warnings:       append([]string{}, l.warnings...),
	}
	copy(snap.Steps, l.steps)
	if l.endTime != nil {
		d := l.endTime.Sub(l.startTime)
		snap.TotalDuration = &d
	}
	return snap
}

// Summary returns the compact status view.
func (l *Log) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.summaryLocked()
}

func (l *Log) summaryLocked() Summary {
	s := Summary{
		SessionID:      l.sessionID,
		DocumentID:     l.documentID,
		CurrentStep:    l.currentStep,
		OverallStatus:  l.overallStatus,
		CriticalErrors: len(l.criticalErrors),
		Warnings:       len(l.warnings),
	}
	for _, rec := range l.steps {
		switch rec.Status {
		case StepCompleted:
			s.CompletedSteps++
		case StepFailed:
			s.FailedSteps++
		}
	}
	end := l.now()
	if l.endTime != nil {
		end = *l.endTime
	}
	s.Duration = end.Sub(l.startTime)
	return s
}

// ExportJSON serializes the full snapshot for download.
func (l *Log) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(l.Snapshot(), "", "  ")
}

func (l *Log) append(rec StepRecord) {
	rec.Runtime = collectRuntime()
	l.steps = append(l.steps, rec)
}

// collectRuntime is best-effort; it must never fail a log call.
func collectRuntime() *RuntimeStats {
	defer func() { _ = recover() }()
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return &RuntimeStats{
		Goroutines: runtime.NumGoroutine(),
		HeapBytes:  ms.HeapAlloc,
	}
}
