package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"legaltriad-backend/models"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resultSchemaURL = "analysis_result.json"

// Validator is the structural gate between the reasoning service and the
// presentation layer. It never reorders, filters or enriches the result.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the JSON Schema derived from node
func NewValidator(node *models.SchemaNode) (*Validator, error) {
	raw, err := json.Marshal(node.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal result schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resultSchemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(resultSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile result schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate parses raw service text into an AnalysisResult
func (v *Validator) Validate(raw string) (*models.AnalysisResult, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	text = stripFences(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSchemaViolation, describeViolation(err))
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	for i := range result.Articles {
		if result.Articles[i].Jurisprudence == nil {
			result.Articles[i].Jurisprudence = []models.JurisprudenceEntry{}
		}
	}
	return &result, nil
}

// stripFences removes a leading ``` or ```json line and a trailing ``` line.
// Text between the fences is returned byte for byte.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	nl := strings.IndexByte(text, '\n')
	if nl < 0 {
		// single line: ```{...}```
		body := strings.TrimPrefix(text, "```")
		if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
			body = body[4:]
		}
		return strings.TrimSpace(strings.TrimSuffix(body, "```"))
	}
	lang := strings.TrimSpace(text[3:nl])
	if lang != "" && !strings.EqualFold(lang, "json") {
		return text
	}
	body := strings.TrimSpace(text[nl+1:])
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}

func describeViolation(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	// report the deepest cause, it names the offending location
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Sprintf("%s: %s", loc, ve.Message)
}
