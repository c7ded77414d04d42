package pipeline

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func issueMessages(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.Message
	}
	return out
}

func containsIssue(issues []Issue, severity Severity, fragment string) bool {
	for _, issue := range issues {
		if issue.Severity == severity && strings.Contains(issue.Message, fragment) {
			return true
		}
	}
	return false
}

func TestDiagnoseEmptyLog(t *testing.T) {
	l, _ := newTestLog(nil)

	issues := l.DiagnoseIssues()
	if len(issues) != 1 {
		t.Fatalf("issues = %v, want exactly the missing-document finding", issueMessages(issues))
	}
	if issues[0].Severity != SeverityCritical || !strings.Contains(issues[0].Message, "Upload may have failed") {
		t.Errorf("issue = %+v", issues[0])
	}
}

func TestDiagnoseMetadataTimeout(t *testing.T) {
	l, _ := newTestLog(nil)
	l.SetDocumentID("doc-1")
	l.StepFailed("metadata_extraction_timeout", errors.New("polling ceiling exceeded"))

	issues := l.DiagnoseIssues()
	if !containsIssue(issues, SeverityCritical, "metadata extraction timed out") {
		t.Errorf("issues = %v, want the stuck-backend finding", issueMessages(issues))
	}
	if containsIssue(issues, SeverityCritical, "Upload may have failed") {
		t.Error("document ID is recorded; the upload finding should not fire")
	}
}

func TestDiagnoseMissingFrameworkSelection(t *testing.T) {
	l, _ := newTestLog(nil)
	l.SetDocumentID("doc-1")
	l.StepCompleted("metadata_extraction", nil)

	issues := l.DiagnoseIssues()
	if !containsIssue(issues, SeverityWarning, "No framework selected") {
		t.Errorf("issues = %v, want the framework warning", issueMessages(issues))
	}

	l.StepCompleted("framework_selected", nil)
	issues = l.DiagnoseIssues()
	if containsIssue(issues, SeverityWarning, "No framework selected") {
		t.Error("framework warning should clear once the step is recorded")
	}
}

func TestDiagnoseAnalysisCallFailure(t *testing.T) {
	l, _ := newTestLog(nil)
	l.SetDocumentID("doc-1")
	l.StepCompleted("framework_selected", nil)
	l.StepFailed("analysis_api_call_failed", errors.New("404 unknown document"))

	issues := l.DiagnoseIssues()
	if !containsIssue(issues, SeverityCritical, "404 unknown document") {
		t.Errorf("issues = %v, want the stored error surfaced", issueMessages(issues))
	}
}

func TestDiagnoseStalledPipeline(t *testing.T) {
	l, clock := newTestLog(nil)
	l.SetDocumentID("doc-1")
	l.StepCompleted("framework_selected", nil)

	clock.advance(4 * time.Minute)
	if issues := l.DiagnoseIssues(); containsIssue(issues, SeverityWarning, "in flight") {
		t.Errorf("stalled warning fired too early: %v", issueMessages(issues))
	}

	clock.advance(2 * time.Minute)
	issues := l.DiagnoseIssues()
	if !containsIssue(issues, SeverityWarning, "in flight") {
		t.Errorf("issues = %v, want the stalled warning after 6m in flight", issueMessages(issues))
	}

	// A closed pipeline is never stalled, no matter how old.
	l.Complete()
	if issues := l.DiagnoseIssues(); containsIssue(issues, SeverityWarning, "in flight") {
		t.Error("stalled warning must not fire on a terminal pipeline")
	}
}
