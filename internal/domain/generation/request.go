package generation

import (
	"fmt"
	"strings"
)

// Schema describes structured output in the subset of JSON Schema every
// supported backend understands.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Required    []string           `json:"required,omitempty"`
	MinItems    *int               `json:"minItems,omitempty"`
	MaxItems    *int               `json:"maxItems,omitempty"`
}

// Schema type names
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeInteger = "integer"
)

// RecipeSetRequest asks for a structured variant set
type RecipeSetRequest struct {
	SystemInstruction string
	Prompt            string
	Schema            *Schema
	Temperature       float64
}

// ImageRequest asks for a single rendered image
type ImageRequest struct {
	Prompt      string
	AspectRatio string
}

// SafetyRequest asks for a flat list of safety tips
type SafetyRequest struct {
	Prompt string
	Schema *Schema
}

// InlineData is binary content returned by a backend, base64 encoded
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Part is one piece of a candidate: text or inline binary data
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// Candidate is one alternative answer from a backend
type Candidate struct {
	Parts []Part `json:"parts"`
}

// ContentResponse is a multi-part backend response
type ContentResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// FirstImage returns the first inline image part of the first candidate and
// any text found alongside it.
func (r *ContentResponse) FirstImage() (*InlineData, string) {
	if r == nil || len(r.Candidates) == 0 {
		return nil, ""
	}
	var texts []string
	for _, part := range r.Candidates[0].Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			return part.InlineData, strings.Join(texts, " ")
		}
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return nil, strings.Join(texts, " ")
}

// ImageArtifact is a generated image ready to be embedded
type ImageArtifact struct {
	MIMEType string
	Data     string
}

// DataURI renders the artifact as data:<mime>;base64,<payload>
func (a ImageArtifact) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MIMEType, a.Data)
}

// FallbackSafetyTip is returned whenever tips cannot be generated
const FallbackSafetyTip = "Always be careful with hot surfaces and sharp objects."

// SafetyTips is the best-effort result of a safety request
type SafetyTips struct {
	Tips     []string
	Fallback bool
}

// FallbackSafetyTips returns the generic single-tip result
func FallbackSafetyTips() SafetyTips {
	return SafetyTips{Tips: []string{FallbackSafetyTip}, Fallback: true}
}
