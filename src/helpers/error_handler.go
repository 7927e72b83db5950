package helpers

import (
	"errors"
	"fmt"
	"sync/atomic"

	"crypto-indices/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type IndexServiceError struct {
	Message string
	Cause   error
}

func (e *IndexServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *IndexServiceError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As checks at the HTTP and gRPC edges.
type ConfigurationError struct{ IndexServiceError }
type NetworkError struct{ IndexServiceError }
type DataSourceError struct{ IndexServiceError }
type DatabaseError struct{ IndexServiceError }
type ValidationError struct{ IndexServiceError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewConfigurationError(msg string) error {
	return &ConfigurationError{IndexServiceError{Message: msg}}
}

func NewNetworkError(msg string, cause error) error {
	return &NetworkError{IndexServiceError{Message: msg, Cause: cause}}
}

func NewDataSourceError(msg string, cause error) error {
	return &DataSourceError{IndexServiceError{Message: msg, Cause: cause}}
}

func NewDatabaseError(msg string, cause error) error {
	return &DatabaseError{IndexServiceError{Message: msg, Cause: cause}}
}

func NewValidationError(msg string) error {
	return &ValidationError{IndexServiceError{Message: msg}}
}

// -----------------------------------------------------------------------------

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// -----------------------------------------------------------------------------

// ErrorKind returns a short label for metrics.
func ErrorKind(err error) string {
	var (
		cfgErr *ConfigurationError
		netErr *NetworkError
		dsErr  *DataSourceError
		dbErr  *DatabaseError
		valErr *ValidationError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &dsErr):
		return "data_source"
	case errors.As(err, &dbErr):
		return "database"
	case errors.As(err, &valErr):
		return "validation"
	}
	return "internal"
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler logs and counts errors that must not abort a request
// (persistence, broadcast, per-asset history failures).
type ErrorHandler struct {
	Logger     *logger.Logger
	errorCount atomic.Int64
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger(nil, "ErrorHandler")
	}
	return &ErrorHandler{Logger: log}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ResetErrorCount() {
	e.errorCount.Store(0)
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ErrorCount() int64 {
	return e.errorCount.Load()
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) Handle(err error, context string) {
	if err != nil {
		e.errorCount.Add(1)
		e.Logger.Error("Error in %s (%s): %v", context, ErrorKind(err), err)
	}
}
