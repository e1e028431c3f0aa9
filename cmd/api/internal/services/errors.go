package services

import "errors"

// Sentinel errors the handlers map to HTTP status codes.
var (
	// ErrNoCredential means neither the company nor the process has a
	// provider token configured. No provider call was attempted.
	ErrNoCredential = errors.New("no e-signature provider credential configured")

	// ErrPDFSourceRequired rejects document creation unless exactly one
	// of url_pdf / base64_pdf is supplied.
	ErrPDFSourceRequired = errors.New("exactly one of url_pdf or base64_pdf is required")

	// ErrSyncUnavailable means the document was never registered with
	// the provider, so there is nothing to sync or download.
	ErrSyncUnavailable = errors.New("document has no provider token")

	// ErrSignedFileUnavailable means the provider has no signed file
	// for the document yet.
	ErrSignedFileUnavailable = errors.New("signed file not available yet")

	// ErrAnalysisSourceRequired rejects reanalysis of a document that
	// has no url_pdf to re-read the content from.
	ErrAnalysisSourceRequired = errors.New("document has no url_pdf to analyze")
)
