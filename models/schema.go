package models

// SchemaType is the primitive type of a SchemaNode
type SchemaType string

const (
	SchemaObject SchemaType = "object"
	SchemaArray  SchemaType = "array"
	SchemaString SchemaType = "string"
)

// SchemaNode describes the structured output shape independently of any provider.
// Providers render it into their own schema dialect; the validator renders it
// into JSON Schema.
type SchemaNode struct {
	Type       SchemaType
	Properties map[string]*SchemaNode
	Order      []string // property order, for providers that honour it
	Items      *SchemaNode
	Required   []string
}

// JSONSchema renders the node as a JSON Schema document fragment
func (n *SchemaNode) JSONSchema() map[string]interface{} {
	if n == nil {
		return map[string]interface{}{}
	}
	out := map[string]interface{}{"type": string(n.Type)}
	if len(n.Properties) > 0 {
		required := make(map[string]bool, len(n.Required))
		for _, name := range n.Required {
			required[name] = true
		}
		props := make(map[string]interface{}, len(n.Properties))
		for name, child := range n.Properties {
			prop := child.JSONSchema()
			// optional fields may come back as an explicit null
			if !required[name] {
				prop["type"] = []string{string(child.Type), "null"}
			}
			props[name] = prop
		}
		out["properties"] = props
	}
	if n.Items != nil {
		out["items"] = n.Items.JSONSchema()
	}
	if len(n.Required) > 0 {
		out["required"] = n.Required
	}
	return out
}

// AnalysisResultSchema returns the output schema for AnalysisResult.
// Field names must stay byte-compatible across providers.
func AnalysisResultSchema() *SchemaNode {
	str := func() *SchemaNode { return &SchemaNode{Type: SchemaString} }

	entry := &SchemaNode{
		Type: SchemaObject,
		Properties: map[string]*SchemaNode{
			"court":            str(),
			"centralThesis":    str(),
			"objectiveSummary": str(),
		},
		Order:    []string{"court", "centralThesis", "objectiveSummary"},
		Required: []string{"court", "centralThesis", "objectiveSummary"},
	}

	article := &SchemaNode{
		Type: SchemaObject,
		Properties: map[string]*SchemaNode{
			"number":        str(),
			"statuteText":   str(),
			"doctrine":      str(),
			"jurisprudence": {Type: SchemaArray, Items: entry},
		},
		Order:    []string{"number", "statuteText", "doctrine", "jurisprudence"},
		Required: []string{"number", "statuteText"},
	}

	return &SchemaNode{
		Type: SchemaObject,
		Properties: map[string]*SchemaNode{
			"lawName":  str(),
			"articles": {Type: SchemaArray, Items: article},
		},
		Order:    []string{"lawName", "articles"},
		Required: []string{"lawName", "articles"},
	}
}
