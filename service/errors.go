package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a submission blocked before any network call
	ErrValidation = errors.New("validation failed")
	// ErrConfiguration marks a missing or unusable provider credential
	ErrConfiguration = errors.New("reasoning service not configured")
	// ErrTransport marks a network or service-level failure
	ErrTransport = errors.New("reasoning service request failed")
	// ErrPayloadTooLarge refines ErrTransport for oversized input and server errors
	ErrPayloadTooLarge = errors.New("input too large for the reasoning service")
	// ErrEmptyResponse marks a response with no text content
	ErrEmptyResponse = errors.New("reasoning service returned an empty response")
	// ErrMalformedOutput marks text that is not valid structured data
	ErrMalformedOutput = errors.New("reasoning service returned malformed output")
	// ErrSchemaViolation marks structured data missing a required field
	ErrSchemaViolation = errors.New("reasoning service output violates the result schema")
	// ErrSubmissionInFlight marks a second submission while one is pending
	ErrSubmissionInFlight = errors.New("an analysis is already in progress")
	// ErrFileRead marks a selected file that could not be read
	ErrFileRead = errors.New("failed to read file")
	// ErrIndexOutOfRange marks a removal at a position the set does not have
	ErrIndexOutOfRange = errors.New("document index out of range")
	// ErrNoResult marks an export requested before any result exists
	ErrNoResult = errors.New("no analysis result available")
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// ErrorKind returns a stable identifier for the error taxonomy, used in logs,
// metrics and the HTTP error envelope.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, ErrSubmissionInFlight):
		return "submission_in_flight"
	case errors.Is(err, ErrTransport):
		return "transport_error"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrMalformedOutput):
		return "malformed_output"
	case errors.Is(err, ErrSchemaViolation):
		return "schema_violation"
	case errors.Is(err, ErrFileRead):
		return "file_read_error"
	default:
		return "internal_error"
	}
}

// UserMessage turns an error into text fit for the person at the form.
// Technical detail stays in the logs.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrConfiguration):
		return "The reasoning service API key is not configured. Set GEMINI_API_KEY and restart."
	case errors.Is(err, ErrSubmissionInFlight):
		return "An analysis is already running. Wait for it to finish or reset the session."
	case errors.Is(err, ErrPayloadTooLarge):
		return "The volume of pages is too large for a deep thematic analysis. Send only the pertinent chapters and try again."
	case errors.Is(err, ErrTransport):
		return "Could not reach the reasoning service. Check your connection and try again."
	case errors.Is(err, ErrEmptyResponse):
		return "The reasoning service returned nothing usable. Try again."
	case errors.Is(err, ErrFileRead):
		return "One of the selected files could not be read. Select it again and retry."
	case errors.Is(err, ErrMalformedOutput), errors.Is(err, ErrSchemaViolation):
		return "The reasoning service returned a broken study sheet. Try again or use smaller files."
	default:
		return "Unexpected error."
	}
}
