package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"legaltriad-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() *models.ServiceRequest {
	return &models.ServiceRequest{
		Model:       "gemini-test",
		Instruction: "TEMA: Crimes Hediondos",
		Documents: []models.EncodedFile{
			{Name: "lei.pdf", MimeType: "application/pdf", Payload: "JVBERi0xLjc="},
			{Name: "doutrina.pdf", MimeType: "application/pdf", Payload: "JVBERi0xLjQ="},
		},
		Schema:           models.AnalysisResultSchema(),
		ResponseMIMEType: "application/json",
		ThinkingBudget:   12000,
	}
}

func newRESTTestClient(t *testing.T, handler http.HandlerFunc) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewRESTClient(srv.URL+"/v1beta/", "test-key", 5*time.Second, nil)
	require.NoError(t, err)
	return c
}

func TestRESTClientSendsComposedRequest(t *testing.T) {
	var captured map[string]interface{}
	c := newRESTTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &captured))
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"{\"lawName\":"},{"text":"\"Lei\",\"articles\":[]}"}]},"finishReason":"STOP"}]}`)
	})

	text, err := c.Send(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"lawName":"Lei","articles":[]}`, text)

	parts := captured["contents"].([]interface{})[0].(map[string]interface{})["parts"].([]interface{})
	require.Len(t, parts, 3)
	assert.Equal(t, "TEMA: Crimes Hediondos", parts[0].(map[string]interface{})["text"])
	assert.Equal(t, "JVBERi0xLjc=", parts[1].(map[string]interface{})["inlineData"].(map[string]interface{})["data"])
	assert.Equal(t, "JVBERi0xLjQ=", parts[2].(map[string]interface{})["inlineData"].(map[string]interface{})["data"])

	gen := captured["generationConfig"].(map[string]interface{})
	assert.Equal(t, "application/json", gen["responseMimeType"])
	assert.Equal(t, 12000.0, gen["thinkingConfig"].(map[string]interface{})["thinkingBudget"])
	schema := gen["responseSchema"].(map[string]interface{})
	assert.Equal(t, "OBJECT", schema["type"])
	assert.Equal(t, []interface{}{"lawName", "articles"}, schema["propertyOrdering"])
	assert.ElementsMatch(t, []interface{}{"lawName", "articles"}, schema["required"])
}

func TestRESTClientOmitsZeroThinkingBudget(t *testing.T) {
	req := testRequest()
	req.ThinkingBudget = 0
	built := buildRESTRequest(req)
	_, ok := built.GenerationConfig["thinkingConfig"]
	assert.False(t, ok)
}

func TestRESTClientErrorStatus(t *testing.T) {
	c := newRESTTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"code":500,"message":"Internal error encountered.","status":"INTERNAL"}}`)
	})

	_, err := c.Send(context.Background(), testRequest())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, "Internal error encountered.", apiErr.Message)
	assert.True(t, apiErr.Oversized())
}

func TestRESTClientBlockedOrEmpty(t *testing.T) {
	for name, body := range map[string]string{
		"blocked":       `{"promptFeedback":{"blockReason":"SAFETY"}}`,
		"no candidates": `{"candidates":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newRESTTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			})
			text, err := c.Send(context.Background(), testRequest())
			require.NoError(t, err)
			assert.Empty(t, text)
		})
	}
}

func TestNewRESTClientRequiresKey(t *testing.T) {
	_, err := NewRESTClient("https://example.invalid", " ", time.Second, nil)
	assert.Error(t, err)
}

func TestAPIErrorOversized(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusRequestEntityTooLarge, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusBadRequest, false},
		{http.StatusForbidden, false},
		{http.StatusTooManyRequests, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, (&APIError{StatusCode: tt.status}).Oversized(), "status %d", tt.status)
	}
}
