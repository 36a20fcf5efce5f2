package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"legaltriad-backend/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

// GeminiClient sends requests through the Gemini Go SDK.
// The SDK has no thinking budget knob; use RESTClient when it matters.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates an SDK-backed client authenticated by apiKey
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Close releases the underlying connection
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Send performs one generateContent call and returns the response text
func (c *GeminiClient) Send(ctx context.Context, req *models.ServiceRequest) (string, error) {
	model := c.client.GenerativeModel(req.Model)
	model.ResponseMIMEType = req.ResponseMIMEType
	model.ResponseSchema = toGenaiSchema(req.Schema)

	parts, err := toGenaiParts(req)
	if err != nil {
		return "", err
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			// nothing usable came back; the validator reports it as empty
			return "", nil
		}
		return "", classifySDKError(err)
	}
	return responseText(resp), nil
}

func toGenaiParts(req *models.ServiceRequest) ([]genai.Part, error) {
	parts := make([]genai.Part, 0, len(req.Documents)+1)
	parts = append(parts, genai.Text(req.Instruction))
	for _, doc := range req.Documents {
		data, err := base64.StdEncoding.DecodeString(doc.Payload)
		if err != nil {
			return nil, fmt.Errorf("document %q has an invalid payload: %w", doc.Name, err)
		}
		parts = append(parts, genai.Blob{MIMEType: doc.MimeType, Data: data})
	}
	return parts, nil
}

func toGenaiSchema(n *models.SchemaNode) *genai.Schema {
	if n == nil {
		return nil
	}
	s := &genai.Schema{Required: n.Required}
	switch n.Type {
	case models.SchemaObject:
		s.Type = genai.TypeObject
	case models.SchemaArray:
		s.Type = genai.TypeArray
	default:
		s.Type = genai.TypeString
	}
	if len(n.Properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(n.Properties))
		for name, child := range n.Properties {
			s.Properties[name] = toGenaiSchema(child)
		}
	}
	s.Items = toGenaiSchema(n.Items)
	return s
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

// classifySDKError maps SDK errors onto APIError so callers see one shape
// regardless of whether the SDK spoke gRPC or REST
func classifySDKError(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return &APIError{StatusCode: gErr.Code, Message: gErr.Message}
	}
	var aErr *apierror.APIError
	if errors.As(err, &aErr) {
		if code := aErr.HTTPCode(); code > 0 {
			return &APIError{StatusCode: code, Message: aErr.Error()}
		}
		if st := aErr.GRPCStatus(); st != nil {
			return &APIError{StatusCode: grpcToHTTP(st.Code()), Message: st.Message()}
		}
	}
	return err
}

func grpcToHTTP(code codes.Code) int {
	switch code {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
