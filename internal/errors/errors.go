package errors

import "fmt"

// ErrorCode represents a Harding error code.
type ErrorCode string

const (
	ErrInvalidRequest         ErrorCode = "INVALID_REQUEST"          // 400
	ErrOutOfRange             ErrorCode = "OUT_OF_RANGE"             // 400
	ErrNotFound               ErrorCode = "NOT_FOUND"                // 404
	ErrBusy                   ErrorCode = "BUSY"                     // 409
	ErrNoPreviewFound         ErrorCode = "NO_PREVIEW_FOUND"         // 422
	ErrCompositionFailure     ErrorCode = "COMPOSITION_FAILURE"      // 422
	ErrExternalServiceFailure ErrorCode = "EXTERNAL_SERVICE_FAILURE" // 502
	ErrInternal               ErrorCode = "INTERNAL"                 // 500
)

// HardingError represents a structured error with code, status, and details.
type HardingError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *HardingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *HardingError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *HardingError {
	return &HardingError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewOutOfRange creates a 400 error for an index outside [0, length).
func NewOutOfRange(what string, index, length int) *HardingError {
	return &HardingError{
		Code:    ErrOutOfRange,
		Status:  400,
		Message: fmt.Sprintf("%s index %d out of range [0, %d)", what, index, length),
		Details: map[string]any{"index": index, "length": length},
	}
}

// NewNotFound creates a 404 error for an unknown project or selection.
func NewNotFound(kind, identifier string) *HardingError {
	return &HardingError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewBusy creates a 409 error when a project already has a mutating operation in flight.
func NewBusy(projectID, operation string) *HardingError {
	return &HardingError{
		Code:    ErrBusy,
		Status:  409,
		Message: fmt.Sprintf("project %s is busy with %s", projectID, operation),
		Details: map[string]any{"project_id": projectID, "operation": operation},
	}
}

// NewNoPreviewFound creates a 422 error when a RAW container yields no usable preview.
func NewNoPreviewFound(filename string) *HardingError {
	return &HardingError{
		Code:    ErrNoPreviewFound,
		Status:  422,
		Message: fmt.Sprintf("could not extract a preview from %s; the file might not contain a large enough embedded JPEG", filename),
		Details: map[string]any{"filename": filename},
	}
}

// NewCompositionFailure creates a 422 error when a raster cannot be baked.
func NewCompositionFailure(err error) *HardingError {
	msg := "composition failed"
	if err != nil {
		msg = "composition failed: " + err.Error()
	}
	return &HardingError{
		Code:    ErrCompositionFailure,
		Status:  422,
		Message: msg,
		cause:   err,
	}
}

// NewExternalServiceFailure creates a 502 error for a failed provider call.
func NewExternalServiceFailure(service string, err error) *HardingError {
	msg := service + " request failed"
	if err != nil {
		msg = fmt.Sprintf("%s request failed: %v", service, err)
	}
	return &HardingError{
		Code:    ErrExternalServiceFailure,
		Status:  502,
		Message: msg,
		Details: map[string]any{"service": service},
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *HardingError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &HardingError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is, or wraps, a HardingError with the given code.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		if hErr, ok := err.(*HardingError); ok {
			return hErr.Code == code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	for err != nil {
		if hErr, ok := err.(*HardingError); ok {
			return hErr.Status
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return 500
}
