package pipeline

import (
	"fmt"
	"time"
)

// Severity ranks a diagnosed issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Issue is one finding from rule-based log inspection.
type Issue struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Step names the diagnosis rules match on.
const (
	stepMetadataTimeout   = "metadata_extraction_timeout"
	stepFrameworkSelected = "framework_selected"
	stepAnalysisCallFail  = "analysis_api_call_failed"
)

const stalledThreshold = 5 * time.Minute

// DiagnoseIssues inspects the accumulated steps for common stuck states.
// It is pure read-only inspection and callable at any time, including
// mid-flight.
func (l *Log) DiagnoseIssues() []Issue {
	l.mu.Lock()
	defer l.mu.Unlock()

	var issues []Issue

	if l.documentID == "" {
		issues = append(issues, Issue{
			Severity: SeverityCritical,
			Message:  "Upload may have failed: no document ID was ever recorded",
		})
	}

	frameworkSelected := false
	for _, rec := range l.steps {
		switch rec.Step {
		case stepMetadataTimeout:
			issues = append(issues, Issue{
				Severity: SeverityCritical,
				Message:  "Backend processing appears stuck: metadata extraction timed out",
			})
		case stepFrameworkSelected:
			frameworkSelected = true
		case stepAnalysisCallFail:
			msg := rec.Error
			if msg == "" {
				msg = "analysis API call failed"
			}
			issues = append(issues, Issue{
				Severity: SeverityCritical,
				Message:  fmt.Sprintf("Analysis API call failed: %s", msg),
			})
		}
	}

	// Only meaningful once upload has produced a document; otherwise the
	// missing-documentID finding already covers it.
	if l.documentID != "" && !frameworkSelected {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Message:  "No framework selected yet: user may be stuck on the framework step",
		})
	}

	if l.overallStatus == StatusInProgress {
		elapsed := l.now().Sub(l.startTime)
		if elapsed > stalledThreshold {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Message: fmt.Sprintf(
					"Pipeline has been in flight for %s without a terminal status: possible performance issue",
					elapsed.Round(time.Second),
				),
			})
		}
	}

	return issues
}
