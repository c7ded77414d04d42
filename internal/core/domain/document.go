package domain

import "time"

// DocumentStatus represents the server-reported lifecycle state of a document.
type DocumentStatus string

const (
	StatusPending    DocumentStatus = "PENDING"
	StatusProcessing DocumentStatus = "PROCESSING"
	StatusCompleted  DocumentStatus = "COMPLETED"
	StatusFailed     DocumentStatus = "FAILED"
)

// PhaseStatus represents the state of a single server-side processing phase
// (metadata extraction, compliance analysis).
type PhaseStatus string

const (
	PhasePending    PhaseStatus = "PENDING"
	PhaseProcessing PhaseStatus = "PROCESSING"
	PhaseCompleted  PhaseStatus = "COMPLETED"
	PhaseFailed     PhaseStatus = "FAILED"
)

// Document is the client view of a server-side document record.
// DocumentID is the join key across every workflow stage; no later stage may
// be entered until upload has produced one.
type Document struct {
	ID                 string         `json:"id"`
	Status             DocumentStatus `json:"status"`
	MetadataExtraction PhaseStatus    `json:"metadata_extraction"`
	ComplianceAnalysis PhaseStatus    `json:"compliance_analysis"`
	Metadata           *Metadata      `json:"metadata,omitempty"`
	Message            string         `json:"message,omitempty"`
	UploadedAt         time.Time      `json:"uploaded_at,omitempty"`
}

// Metadata holds the extracted financial-statement metadata. A non-empty
// company name is the completion signal for metadata extraction.
type Metadata struct {
	CompanyName      string `json:"company_name"`
	NatureOfBusiness string `json:"nature_of_business,omitempty"`
	OperationalDemo  string `json:"operational_demographics,omitempty"`
	FinancialYearEnd string `json:"financial_year_end,omitempty"`
}

// Extracted reports whether metadata extraction has produced a usable result.
func (m *Metadata) Extracted() bool {
	return m != nil && m.CompanyName != ""
}

// Framework is an accounting framework the backend can analyze against.
type Framework struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Standards   []Standard `json:"standards,omitempty"`
}

// Standard is a single accounting standard within a framework.
type Standard struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
