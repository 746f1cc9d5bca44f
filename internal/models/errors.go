package models

import (
	"fmt"
	"math"
)

// ValidationError rejects a submission before any network activity.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// ExtractionError reports a failed document read or parse. Page is zero
// when the failure is not tied to a page.
type ExtractionError struct {
	File string
	Page int
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("failed to extract %s (page %d): %v", e.File, e.Page, e.Err)
	}
	return fmt.Sprintf("failed to extract %s: %v", e.File, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// UnsupportedTypeError is returned for declared types with no extractor.
type UnsupportedTypeError struct {
	MimeType string
}

func (e *UnsupportedTypeError) Error() string {
	if e.MimeType == "" {
		return "unsupported file type: no type declared"
	}
	return fmt.Sprintf("unsupported file type: %s", e.MimeType)
}

// ServiceError is a non-2xx answer from the compression service.
type ServiceError struct {
	StatusCode int
	Status     string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("compression service returned status %d", e.StatusCode)
}

// TransportError means the compression service could not be reached or the
// response could not be read.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to reach compression service at %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidateRatio accepts finite ratios in [MinRatio, MaxRatio].
func ValidateRatio(ratio float64) error {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio < MinRatio || ratio > MaxRatio {
		return &ValidationError{Field: "ratio", Message: "invalid ratio"}
	}
	return nil
}
