package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// ErrorKind is the stable classification string used in structured logs.
type ErrorKind string

const (
	KindExternalTool  ErrorKind = "external_tool"
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindNotFound      ErrorKind = "not_found"
	KindTimeout       ErrorKind = "timeout"
	KindTransient     ErrorKind = "transient"
	KindUnknown       ErrorKind = "unknown"
)

// ServiceError carries a marker plus the context needed to explain a failure
// to a user and to an operator reading logs.
type ServiceError struct {
	Marker    error
	Component string
	Operation string
	Message   string
	Code      string
	Hint      string
	Cause     error
}

func (e *ServiceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	marker := e.Marker
	if marker == nil {
		marker = ErrTransient
	}
	detail := buildDetail(e.Component, e.Operation, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s: %v", marker, detail, e.Cause)
	}
	return fmt.Sprintf("%v: %s", marker, detail)
}

func (e *ServiceError) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := make([]error, 0, 2)
	if e.Marker != nil {
		errs = append(errs, e.Marker)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &ServiceError{
		Marker:    marker,
		Component: strings.TrimSpace(component),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Cause:     err,
	}
}

// ErrorDetails is the flattened view of a classified error.
type ErrorDetails struct {
	Kind      ErrorKind
	Operation string
	Message   string
	Code      string
	Hint      string
	Cause     error
}

// Details extracts classification and context from err. Errors that were not
// produced by Wrap report KindUnknown with the raw error text as message.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Kind: KindOf(err)}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		details.Operation = svcErr.Operation
		details.Message = svcErr.Message
		details.Code = svcErr.Code
		details.Hint = svcErr.Hint
		details.Cause = svcErr.Cause
		return details
	}
	details.Message = strings.TrimSpace(err.Error())
	return details
}

// KindOf maps err onto its marker classification.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrExternalTool):
		return KindExternalTool
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindUnknown
	}
}

// FailureMessage returns the user-facing message recorded against an item
// when err ends its processing.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg := strings.TrimSpace(Details(err).Message); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "conversion failed"
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
