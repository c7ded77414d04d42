package workflow

import (
	"errors"

	"github.com/vithaluntold/rai-compliance-client/internal/infra/api"
)

// ErrStepInFlight is returned when a second attempt is made to run a step
// that is already in flight for the same document.
var ErrStepInFlight = errors.New("step already in flight for this document")

// ErrExtractionTimeout marks exhaustion of the metadata polling ceiling.
// This is a domain-level timeout, distinct from a transport TIMEOUT: the
// backend may still finish, so it is non-retryable here and invites manual
// continuation instead of presenting as fatal.
var ErrExtractionTimeout = &api.Error{
	Message:   "Metadata extraction is taking longer than expected. You can continue manually once processing finishes.",
	Code:      api.CodeTimeout,
	Retryable: false,
}

// ErrAnalysisTimeout marks exhaustion of the analysis progress polling
// ceiling. Like ErrExtractionTimeout, a domain-level condition.
var ErrAnalysisTimeout = &api.Error{
	Message:   "Analysis is taking longer than expected. Check back shortly or retry the progress view.",
	Code:      api.CodeTimeout,
	Retryable: false,
}

// ErrMissingDocumentID is returned when an upload succeeds at the HTTP
// level but the response carries no document ID. The server contract is
// not fully trusted.
var ErrMissingDocumentID = &api.Error{
	Message:   "Upload succeeded but the server did not return a document ID. Please try again.",
	Code:      api.CodeUnknownError,
	Retryable: false,
}

// ErrNoFrameworks is returned when the framework list comes back empty.
// An empty success response is not accepted as valid.
var ErrNoFrameworks = &api.Error{
	Message:   "No compliance frameworks are available. Please contact support.",
	Code:      api.CodeUnknownError,
	Retryable: false,
}

// ErrOffline is the fast terminal failure issued instead of a network
// attempt while the monitor reports definitely offline.
var ErrOffline = &api.Error{
	Message:   "You appear to be offline. Reconnect and try again.",
	Code:      api.CodeNetworkError,
	Retryable: false,
}

// recoveryError wraps any session-recovery failure as non-retryable: there
// is no well-defined retry target for reconstructing lost state.
func recoveryError(err error) *api.Error {
	classified := api.Classify(err)
	return &api.Error{
		Message:    "Could not recover the session: " + classified.Message,
		Code:       classified.Code,
		StatusCode: classified.StatusCode,
		Retryable:  false,
	}
}
