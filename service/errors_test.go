package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{validationError("topic is required"), "validation_error"},
		{fmt.Errorf("%w: missing API key", ErrConfiguration), "configuration_error"},
		{ErrSubmissionInFlight, "submission_in_flight"},
		{fmt.Errorf("%w: %w: status 500", ErrTransport, ErrPayloadTooLarge), "transport_error"},
		{ErrEmptyResponse, "empty_response"},
		{fmt.Errorf("%w: unexpected end of JSON input", ErrMalformedOutput), "malformed_output"},
		{ErrSchemaViolation, "schema_violation"},
		{fmt.Errorf("%w %q: %w", ErrFileRead, "lei.pdf", errors.New("unexpected EOF")), "file_read_error"},
		{errors.New("boom"), "internal_error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "%v", tt.err)
	}
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Contains(t, UserMessage(validationError("law document is required")), "law document is required")
	assert.Contains(t, UserMessage(ErrConfiguration), "GEMINI_API_KEY")
	assert.Contains(t, UserMessage(classifyTransport(errors.New("dial tcp: timeout"))), "connection")

	oversized := UserMessage(fmt.Errorf("%w: %w", ErrTransport, ErrPayloadTooLarge))
	assert.Contains(t, oversized, "pertinent chapters")

	readErr := UserMessage(fmt.Errorf("%w %q: %w", ErrFileRead, "lei.pdf", errors.New("unexpected EOF")))
	assert.Contains(t, readErr, "could not be read")
	assert.NotContains(t, readErr, "EOF")

	assert.Equal(t, UserMessage(ErrMalformedOutput), UserMessage(ErrSchemaViolation))
	assert.Equal(t, "Unexpected error.", UserMessage(errors.New("boom")))
}
