package models

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"
)

// ErrorKind buckets every failure the pipeline can see. Retryability and
// fallback behavior key off the kind, never off error strings.
type ErrorKind string

const (
	ErrInvalidReference    ErrorKind = "invalid_reference"
	ErrUpstreamUnavailable ErrorKind = "upstream_unavailable"
	ErrQuotaExceeded       ErrorKind = "quota_exceeded"
	ErrAccessDenied        ErrorKind = "access_denied"
	ErrMalformedResponse   ErrorKind = "malformed_response"
	ErrResourceExhausted   ErrorKind = "resource_exhausted"
)

// PipelineError tags an underlying error with its taxonomy kind.
type PipelineError struct {
	Kind ErrorKind
	Err  error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NewError wraps err with a taxonomy kind.
func NewError(kind ErrorKind, err error) *PipelineError {
	return &PipelineError{Kind: kind, Err: err}
}

// Errorf builds a kinded error from a format string.
func Errorf(kind ErrorKind, format string, args ...any) *PipelineError {
	return &PipelineError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the taxonomy kind of err, classifying unknown errors by
// transport characteristics. Errors with no signal default to
// upstream_unavailable so the retry executor treats them as transient.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			// 403 is also how YouTube signals daily quota exhaustion;
			// the reason string disambiguates.
			for _, item := range gerr.Errors {
				if item.Reason == "quotaExceeded" || item.Reason == "rateLimitExceeded" {
					return ErrQuotaExceeded
				}
			}
			return ErrAccessDenied
		case http.StatusNotFound:
			return ErrInvalidReference
		case http.StatusTooManyRequests:
			return ErrQuotaExceeded
		}
		if gerr.Code >= 500 {
			return ErrUpstreamUnavailable
		}
		return ErrAccessDenied
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUpstreamUnavailable
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return ErrUpstreamUnavailable
	}

	return ErrUpstreamUnavailable
}

// Retryable reports whether an error of this kind is worth retrying.
// Auth failures, bad references and exhausted budgets never recover
// within a retry window.
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrUpstreamUnavailable, ErrQuotaExceeded:
		return true
	default:
		return false
	}
}
