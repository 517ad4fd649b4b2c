package usecase

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a missing lead or report. Terminal: the driver never
// retries it.
var ErrNotFound = errors.New("not found")

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

type TechnicalError struct {
	Code    string
	Message string
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// ProviderError is a failed or unparseable analysis-provider call.
// RawText carries whatever the provider produced when parsing failed, so
// the context-analysis path can degrade to the raw narrative instead of
// aborting the report.
type ProviderError struct {
	Call    string
	RawText string
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("analysis provider %s: %v", e.Call, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// RepositoryWriteError is a rejected create/patch against the content
// store. Retryable at the driver level; swallowed with a log line when
// the failed write is itself a status patch.
type RepositoryWriteError struct {
	Op  string
	Err error
}

func (e *RepositoryWriteError) Error() string {
	return fmt.Sprintf("content repository %s: %v", e.Op, e.Err)
}

func (e *RepositoryWriteError) Unwrap() error { return e.Err }
