package errors

import "errors"

// Kind is a machine-distinguishable failure category that crosses the API boundary.
type Kind string

const (
	KindInternal                  Kind = "internal_error"
	KindValidation                Kind = "validation_error"
	KindEmptyVariableSet          Kind = "empty_variable_set"
	KindInvalidLocation           Kind = "invalid_location"
	KindInvalidDayOfYear          Kind = "invalid_day_of_year"
	KindUnknownVariable           Kind = "unknown_variable"
	KindUnsupportedUnitConversion Kind = "unsupported_unit_conversion"
	KindGenerationFailed          Kind = "generation_failed"
	KindSerialization             Kind = "serialization_error"
	KindArtifactNotFound          Kind = "artifact_not_found"
	KindArtifactBusy              Kind = "artifact_busy"
	KindUnauthorized              Kind = "unauthorized"
)

// AppError encodes domain specific error details.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError of the same kind, so sentinels work with errors.Is
// even after being re-wrapped with extra context.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// New produces an AppError without a cause.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap produces a new AppError instance.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return &AppError{Kind: kind, Message: message}
	}
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the outermost AppError in the chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind helps handlers differentiate failures.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// IsValidation reports whether the kind describes a bad caller request rather
// than a server fault.
func IsValidation(kind Kind) bool {
	switch kind {
	case KindValidation, KindEmptyVariableSet, KindInvalidLocation, KindInvalidDayOfYear:
		return true
	default:
		return false
	}
}

// MessageOf returns the caller-facing message of the outermost AppError.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}
