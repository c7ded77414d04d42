package domain

// WorkflowStep identifies a stage of the client-driven compliance saga.
// Steps are ordered but not strictly linear: any step may instead reach a
// terminal failure, and SessionRecovery re-enters the sequence mid-way.
type WorkflowStep string

const (
	StepUpload             WorkflowStep = "upload"
	StepMetadataExtraction WorkflowStep = "metadata_extraction"
	StepFrameworkLoading   WorkflowStep = "framework_loading"
	StepStandardsSelection WorkflowStep = "standards_selection"
	StepAnalysisInitiation WorkflowStep = "analysis_initiation"
	StepAnalysisProgress   WorkflowStep = "analysis_progress"
	StepResultsExport      WorkflowStep = "results_export"
	StepSessionRecovery    WorkflowStep = "session_recovery"
)
