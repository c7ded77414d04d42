package domain

import "time"

// Progress is the server-reported state of a running compliance analysis.
type Progress struct {
	DocumentID         string         `json:"document_id"`
	Status             DocumentStatus `json:"status"`
	Percentage         float64        `json:"percentage"`
	CurrentStandard    string         `json:"currentStandard,omitempty"`
	CompletedStandards int            `json:"completedStandards"`
	TotalStandards     int            `json:"totalStandards"`
	Message            string         `json:"message,omitempty"`
}

// AnalysisResults is the final compliance report for a document.
type AnalysisResults struct {
	DocumentID  string           `json:"document_id"`
	Status      string           `json:"status"`
	Framework   string           `json:"framework,omitempty"`
	Metadata    *Metadata        `json:"metadata,omitempty"`
	Sections    []AnalysisSection `json:"sections,omitempty"`
	Message     string           `json:"message,omitempty"`
	CompletedAt time.Time        `json:"completed_at,omitempty"`
}

// AnalysisSection groups checklist items for one analyzed standard.
type AnalysisSection struct {
	Standard string          `json:"standard"`
	Title    string          `json:"title,omitempty"`
	Items    []ChecklistItem `json:"items,omitempty"`
}

// ChecklistItem is a single compliance finding. The client never interprets
// these beyond carrying them into the export artifact.
type ChecklistItem struct {
	ID         string  `json:"id"`
	Question   string  `json:"question"`
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence,omitempty"`
	Evidence   string  `json:"evidence,omitempty"`
	Comment    string  `json:"comment,omitempty"`
}
