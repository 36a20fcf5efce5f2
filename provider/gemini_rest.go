package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"legaltriad-backend/models"

	"go.uber.org/zap"
)

// RESTClient calls the Gemini generateContent endpoint directly. Unlike the
// SDK it can carry thinkingConfig.
type RESTClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRESTClient creates a REST client. baseURL is the versioned API root,
// e.g. https://generativelanguage.googleapis.com/v1beta
func NewRESTClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) (*RESTClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RESTClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

type restPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *restInlineData `json:"inlineData,omitempty"`
}

type restInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type restRequest struct {
	Contents []struct {
		Parts []restPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig map[string]interface{} `json:"generationConfig"`
}

type restResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

type restErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Send performs one generateContent call and returns the response text
func (c *RESTClient) Send(ctx context.Context, req *models.ServiceRequest) (string, error) {
	body, err := json.Marshal(buildRESTRequest(req))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var eb restErrorBody
		msg := string(respBytes)
		if json.Unmarshal(respBytes, &eb) == nil && eb.Error.Message != "" {
			msg = eb.Error.Message
		}
		c.logger.Warn("gemini api error",
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg))
		return "", &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var apiResp restResponse
	if err := json.Unmarshal(respBytes, &apiResp); err != nil {
		return "", fmt.Errorf("failed to decode response envelope: %w", err)
	}
	if apiResp.PromptFeedback.BlockReason != "" {
		c.logger.Warn("gemini blocked prompt", zap.String("reason", apiResp.PromptFeedback.BlockReason))
		return "", nil
	}
	if len(apiResp.Candidates) == 0 {
		return "", nil
	}

	candidate := apiResp.Candidates[0]
	if candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
		c.logger.Warn("gemini candidate finished early", zap.String("finish_reason", candidate.FinishReason))
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func buildRESTRequest(req *models.ServiceRequest) restRequest {
	parts := make([]restPart, 0, len(req.Documents)+1)
	parts = append(parts, restPart{Text: req.Instruction})
	for _, doc := range req.Documents {
		parts = append(parts, restPart{InlineData: &restInlineData{MimeType: doc.MimeType, Data: doc.Payload}})
	}

	genConfig := map[string]interface{}{
		"responseMimeType": req.ResponseMIMEType,
	}
	if req.Schema != nil {
		genConfig["responseSchema"] = restSchema(req.Schema)
	}
	if req.ThinkingBudget > 0 {
		genConfig["thinkingConfig"] = map[string]interface{}{"thinkingBudget": req.ThinkingBudget}
	}

	var out restRequest
	out.Contents = append(out.Contents, struct {
		Parts []restPart `json:"parts"`
	}{Parts: parts})
	out.GenerationConfig = genConfig
	return out
}

// restSchema renders a SchemaNode in the OpenAPI subset the REST API accepts
func restSchema(n *models.SchemaNode) map[string]interface{} {
	out := map[string]interface{}{"type": strings.ToUpper(string(n.Type))}
	if len(n.Properties) > 0 {
		props := make(map[string]interface{}, len(n.Properties))
		for name, child := range n.Properties {
			props[name] = restSchema(child)
		}
		out["properties"] = props
		if len(n.Order) > 0 {
			out["propertyOrdering"] = n.Order
		}
	}
	if n.Items != nil {
		out["items"] = restSchema(n.Items)
	}
	if len(n.Required) > 0 {
		out["required"] = n.Required
	}
	return out
}
