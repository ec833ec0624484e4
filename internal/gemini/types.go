package gemini

import "strings"

// Request is one single-turn generateContent call.
type Request struct {
	Parts  []Part
	Config GenerationConfig
}

type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
	Thought    bool   `json:"thought,omitempty"`
}

type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func InlinePart(mimeType, data string) Part {
	return Part{InlineData: &Blob{MimeType: mimeType, Data: data}}
}

const (
	ModalityText  = "TEXT"
	ModalityImage = "IMAGE"
)

type GenerationConfig struct {
	Temperature        *float64     `json:"temperature,omitempty"`
	ResponseMimeType   string       `json:"responseMimeType,omitempty"`
	ResponseSchema     *Schema      `json:"responseSchema,omitempty"`
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *ImageConfig `json:"imageConfig,omitempty"`
}

type ImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

const (
	TypeObject  = "OBJECT"
	TypeString  = "STRING"
	TypeArray   = "ARRAY"
	TypeNumber  = "NUMBER"
	TypeBoolean = "BOOLEAN"
)

// Schema is the OpenAPI subset accepted by responseSchema.
type Schema struct {
	Type             string             `json:"type"`
	Description      string             `json:"description,omitempty"`
	Properties       map[string]*Schema `json:"properties,omitempty"`
	Required         []string           `json:"required,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
	Items            *Schema            `json:"items,omitempty"`
}

type Response struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// Text concatenates the non-thought text parts of the first candidate.
func (r *Response) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		if p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// FirstPart returns the first part of the first candidate.
func (r *Response) FirstPart() (Part, bool) {
	if r == nil || len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return Part{}, false
	}
	return r.Candidates[0].Content.Parts[0], true
}

// FinishReason of the first candidate, empty when there is none.
func (r *Response) FinishReason() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	return r.Candidates[0].FinishReason
}
