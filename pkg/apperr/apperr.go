// Package apperr defines the error taxonomy shared by the upload workflow,
// the upstream API client and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for draft lifecycle failures.
var (
	ErrDraftNotFound     = errors.New("draft not found")
	ErrDraftBusy         = errors.New("draft is being submitted")
	ErrAlreadySubmitted  = errors.New("draft was already submitted")
	ErrItemNotFound      = errors.New("upload item not found")
	ErrUnknownCategory   = errors.New("unknown upload category")
	ErrCategoryFull      = errors.New("category is full")
	ErrStorageNotEnabled = errors.New("object storage is not configured")
)

// URLIssuanceError means the backend refused to issue a pre-signed write URL.
type URLIssuanceError struct {
	FileName string
	Category string
	Status   int
	Err      error
}

func (e *URLIssuanceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("issue upload url for %s (%s): status %d: %v", e.FileName, e.Category, e.Status, e.Err)
	}
	return fmt.Sprintf("issue upload url for %s (%s): %v", e.FileName, e.Category, e.Err)
}

func (e *URLIssuanceError) Unwrap() error { return e.Err }

// StorageWriteError means the direct write to object storage failed.
type StorageWriteError struct {
	FileName string
	Key      string
	Status   int
	Err      error
}

func (e *StorageWriteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("write %s to storage: status %d: %v", e.FileName, e.Status, e.Err)
	}
	return fmt.Sprintf("write %s to storage: %v", e.FileName, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// Problem is one failed precondition of a submission.
type Problem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every required field or category that is missing.
// It is raised before any network call is made.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Field + ": " + p.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a problem.
func (e *ValidationError) Add(field, format string, args ...any) {
	e.Problems = append(e.Problems, Problem{Field: field, Message: fmt.Sprintf(format, args...)})
}

// OrNil returns nil when nothing was recorded, so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Problems) == 0 {
		return nil
	}
	return e
}

// SubmissionError means a create endpoint rejected the composite payload.
type SubmissionError struct {
	Endpoint string
	Status   int
	Body     string
	Err      error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submit to %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("submit to %s: status %d: %s", e.Endpoint, e.Status, e.Body)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ParseError means a backend response did not match the expected schema.
type ParseError struct {
	Endpoint string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse response from %s: %v", e.Endpoint, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UpstreamError is a non-2xx answer from a read endpoint.
type UpstreamError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.Body)
}

// ItemFailure is the failure of a single upload item.
type ItemFailure struct {
	ItemID   string
	FileName string
	Category string
	Err      error
}

// Kind names the step that failed: "url_issuance", "storage_write" or
// "unknown".
func (f ItemFailure) Kind() string {
	var (
		ie *URLIssuanceError
		we *StorageWriteError
	)
	switch {
	case errors.As(f.Err, &ie):
		return "url_issuance"
	case errors.As(f.Err, &we):
		return "storage_write"
	}
	return "unknown"
}

// UploadFailures reports each failed item separately.
type UploadFailures struct {
	Items []ItemFailure
}

// Unwrap exposes every item's error to errors.Is and errors.As.
func (e *UploadFailures) Unwrap() []error {
	errs := make([]error, 0, len(e.Items))
	for _, it := range e.Items {
		if it.Err != nil {
			errs = append(errs, it.Err)
		}
	}
	return errs
}

func (e *UploadFailures) Error() string {
	names := make([]string, len(e.Items))
	for i, it := range e.Items {
		names[i] = it.FileName
	}
	return fmt.Sprintf("%d upload(s) failed: %s", len(e.Items), strings.Join(names, ", "))
}
