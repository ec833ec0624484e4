package stylist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-stylist/internal/gemini"
	"ai-stylist/internal/imagedata"
)

type fakeGenerator struct {
	resp  *gemini.Response
	err   error
	calls []fakeCall
}

type fakeCall struct {
	model string
	req   gemini.Request
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, req gemini.Request) (*gemini.Response, error) {
	f.calls = append(f.calls, fakeCall{model: model, req: req})
	return f.resp, f.err
}

func textResponse(text string) *gemini.Response {
	return &gemini.Response{Candidates: []gemini.Candidate{{Content: gemini.Content{Parts: []gemini.Part{{Text: text}}}}}}
}

func partsResponse(parts ...gemini.Part) *gemini.Response {
	return &gemini.Response{Candidates: []gemini.Candidate{{Content: gemini.Content{Parts: parts}}}}
}

const validSuggestionJSON = `{
  "faceShape": "Oval",
  "bodyShape": "Rectangle",
  "outfit": {"item": "Oversized hoodie", "description": "Relaxed drape balances straight lines."},
  "sunglasses": {"item": "Round frames", "description": "Soft curves suit an oval face."},
  "accessories": {"item": "Chain necklace", "description": "Adds a focal point."},
  "shoes": {"item": "Chunky sneakers", "description": "Grounds the silhouette."},
  "overallReasoning": "A cohesive streetwear look."
}`

var (
	testCloseup  = imagedata.Image("data:image/jpeg;base64,Q0xPU0U=")
	testFullBody = imagedata.Image("data:image/png;base64,Qk9EWQ==")
)

func textOf(parts []gemini.Part) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.InlineData != nil {
			out = append(out, "<"+p.InlineData.MimeType+">")
			continue
		}
		out = append(out, p.Text)
	}
	return out
}

func TestGenerateSuggestions(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(validSuggestionJSON)}
	svc := New(Options{Generator: gen})

	got, err := svc.GenerateSuggestions(context.Background(), testCloseup, testFullBody, "Summer wedding", "Formal")
	require.NoError(t, err)

	assert.Equal(t, StyleSuggestion{
		FaceShape:        "Oval",
		BodyShape:        "Rectangle",
		Outfit:           SuggestionItem{Item: "Oversized hoodie", Description: "Relaxed drape balances straight lines."},
		Sunglasses:       SuggestionItem{Item: "Round frames", Description: "Soft curves suit an oval face."},
		Accessories:      SuggestionItem{Item: "Chain necklace", Description: "Adds a focal point."},
		Shoes:            SuggestionItem{Item: "Chunky sneakers", Description: "Grounds the silhouette."},
		OverallReasoning: "A cohesive streetwear look.",
	}, got)

	require.Len(t, gen.calls, 1)
	call := gen.calls[0]
	assert.Equal(t, DefaultTextModel, call.model)

	parts := textOf(call.req.Parts)
	require.Len(t, parts, 5)
	assert.Contains(t, parts[0], "Occasion: Summer wedding")
	assert.Contains(t, parts[0], "Preferred Style: Formal")
	assert.Equal(t, []string{"Closeup Photo:", "<image/jpeg>", "Full Body Photo:", "<image/png>"}, parts[1:])
	assert.Equal(t, "Q0xPU0U=", call.req.Parts[2].InlineData.Data)

	assert.Equal(t, "application/json", call.req.Config.ResponseMimeType)
	require.NotNil(t, call.req.Config.ResponseSchema)
	assert.ElementsMatch(t,
		[]string{"faceShape", "bodyShape", "outfit", "sunglasses", "accessories", "shoes", "overallReasoning"},
		call.req.Config.ResponseSchema.Required,
	)
	assert.Equal(t, []string{"item", "description"}, call.req.Config.ResponseSchema.Properties["shoes"].Required)
}

func TestGenerateSuggestionsDefaults(t *testing.T) {
	tests := []struct {
		name  string
		style string
	}{
		{name: "empty style", style: ""},
		{name: "auto style", style: StyleAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{resp: textResponse(validSuggestionJSON)}
			svc := New(Options{Generator: gen})

			_, err := svc.GenerateSuggestions(context.Background(), testCloseup, testFullBody, "  ", tt.style)
			require.NoError(t, err)

			prompt := gen.calls[0].req.Parts[0].Text
			assert.Contains(t, prompt, "Occasion: Not specified")
			assert.Contains(t, prompt, "complete creative freedom")
		})
	}
}

func TestGenerateSuggestionsMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "not json", text: "Here is your look: ..."},
		{name: "fenced json", text: "```json\n" + validSuggestionJSON + "\n```"},
		{name: "missing field", text: `{"faceShape":"Oval","bodyShape":"Pear","outfit":{"item":"a","description":"b"},"sunglasses":{"item":"a","description":"b"},"accessories":{"item":"a","description":"b"},"overallReasoning":"r"}`},
		{name: "missing item description", text: strings.Replace(validSuggestionJSON, `"description": "Grounds the silhouette."`, `"note": "x"`, 1)},
		{name: "empty", text: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(Options{Generator: &fakeGenerator{resp: textResponse(tt.text)}})

			_, err := svc.GenerateSuggestions(context.Background(), testCloseup, testFullBody, "", "")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedSuggestion)
			assert.Equal(t, KindDecode, KindOf(err))
			assert.Equal(t, "Failed to get style suggestions. The AI's response was not valid JSON.", err.Error())
		})
	}
}

func TestGenerateSuggestionsTransportError(t *testing.T) {
	cause := &gemini.APIError{StatusCode: 429, Status: "429 Too Many Requests", Message: "quota exceeded"}
	svc := New(Options{Generator: &fakeGenerator{err: cause}})

	_, err := svc.GenerateSuggestions(context.Background(), testCloseup, testFullBody, "", "")
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.NotErrorIs(t, err, ErrMalformedSuggestion)
	assert.Equal(t, cause.Error(), err.Error())

	var apiErr *gemini.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestGenerateSuggestionsRequiresImages(t *testing.T) {
	gen := &fakeGenerator{}
	svc := New(Options{Generator: gen})

	_, err := svc.GenerateSuggestions(context.Background(), testCloseup, "", "", "")
	assert.ErrorIs(t, err, ErrMissingImages)
	assert.Empty(t, gen.calls)
}

func TestSynthesizeStyledImage(t *testing.T) {
	suggestion, err := DecodeSuggestion(validSuggestionJSON)
	require.NoError(t, err)

	gen := &fakeGenerator{resp: partsResponse(gemini.InlinePart("image/png", "QUJD"))}
	svc := New(Options{Generator: gen, ImageModel: "image-model"})

	img, err := svc.SynthesizeStyledImage(context.Background(), testCloseup, testFullBody, suggestion, "", "Streetwear")
	require.NoError(t, err)
	assert.Equal(t, imagedata.Image("data:image/png;base64,QUJD"), img)

	require.Len(t, gen.calls, 1)
	call := gen.calls[0]
	assert.Equal(t, "image-model", call.model)
	assert.Equal(t, []string{gemini.ModalityImage}, call.req.Config.ResponseModalities)
	assert.Equal(t, "9:16", call.req.Config.ImageConfig.AspectRatio)
	assert.Nil(t, call.req.Config.ResponseSchema)

	parts := textOf(call.req.Parts)
	assert.Equal(t, []string{
		"REFERENCE CLOSEUP PHOTO (FOR FACE):", "<image/jpeg>",
		"REFERENCE FULL BODY PHOTO (FOR BODY):", "<image/png>",
	}, parts[1:])

	prompt := parts[0]
	assert.Contains(t, prompt, "Streetwear")
	assert.Contains(t, prompt, "A fashionable, neutral setting")
	assert.Contains(t, prompt, "9:16")
	for _, c := range suggestion.Categories() {
		assert.Contains(t, prompt, c.Item+" - "+c.Description)
	}
}

func TestSynthesizeStyledImageDefaults(t *testing.T) {
	gen := &fakeGenerator{resp: partsResponse(gemini.InlinePart("image/png", "QUJD"))}
	svc := New(Options{Generator: gen})

	_, err := svc.SynthesizeStyledImage(context.Background(), testCloseup, testFullBody, StyleSuggestion{}, "Gala dinner", StyleAuto)
	require.NoError(t, err)

	prompt := gen.calls[0].req.Parts[0].Text
	assert.Contains(t, prompt, `"Gala dinner"`)
	assert.Contains(t, prompt, "Modern and fashionable")
}

func TestSynthesizeStyledImageNoImage(t *testing.T) {
	tests := []struct {
		name string
		resp *gemini.Response
	}{
		{name: "text only", resp: textResponse("I can't do that.")},
		{name: "no candidates", resp: &gemini.Response{}},
		{name: "image not first", resp: partsResponse(gemini.TextPart("here"), gemini.InlinePart("image/png", "QUJD"))},
		{name: "missing mime", resp: partsResponse(gemini.InlinePart("", "QUJD"))},
		{name: "missing data", resp: partsResponse(gemini.InlinePart("image/png", ""))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(Options{Generator: &fakeGenerator{resp: tt.resp}})

			_, err := svc.SynthesizeStyledImage(context.Background(), testCloseup, testFullBody, StyleSuggestion{}, "", "")
			assert.ErrorIs(t, err, ErrImageGeneration)
			assert.Equal(t, KindGeneration, KindOf(err))
		})
	}
}

func TestRefineStyledImage(t *testing.T) {
	base := imagedata.Image("data:image/png;base64,QkFTRQ==")
	gen := &fakeGenerator{resp: partsResponse(gemini.InlinePart("image/jpeg", "TkVX"))}
	svc := New(Options{Generator: gen})

	img, err := svc.RefineStyledImage(context.Background(), base, "make the jacket red", testCloseup)
	require.NoError(t, err)
	assert.Equal(t, imagedata.Image("data:image/jpeg;base64,TkVX"), img)

	parts := textOf(gen.calls[0].req.Parts)
	assert.Contains(t, parts[0], `"make the jacket red"`)
	assert.Contains(t, parts[0], "Preserve the face")
	assert.Equal(t, []string{
		"EDIT INSTRUCTION:", "make the jacket red",
		"BASE IMAGE (TO BE EDITED):", "<image/png>",
		"REFERENCE CLOSEUP PHOTO (FOR FACE):", "<image/jpeg>",
	}, parts[1:])
	assert.Equal(t, "QkFTRQ==", gen.calls[0].req.Parts[4].InlineData.Data)
}

func TestRefineStyledImageRejectsLocally(t *testing.T) {
	base := imagedata.Image("data:image/png;base64,QkFTRQ==")

	for _, instruction := range []string{"", "   ", "\n\t"} {
		gen := &fakeGenerator{}
		svc := New(Options{Generator: gen})

		_, err := svc.RefineStyledImage(context.Background(), base, instruction, testCloseup)
		assert.ErrorIs(t, err, ErrEmptyInstruction)
		assert.Equal(t, KindValidation, KindOf(err))
		assert.Empty(t, gen.calls)
	}

	gen := &fakeGenerator{}
	_, err := New(Options{Generator: gen}).RefineStyledImage(context.Background(), "", "red", testCloseup)
	assert.ErrorIs(t, err, ErrNoStyledImage)
	assert.Empty(t, gen.calls)
}

func TestRefineStyledImageNoImage(t *testing.T) {
	base := imagedata.Image("data:image/png;base64,QkFTRQ==")
	svc := New(Options{Generator: &fakeGenerator{resp: textResponse("no")}})

	_, err := svc.RefineStyledImage(context.Background(), base, "red hat", testCloseup)
	assert.ErrorIs(t, err, ErrImageRefinement)
	assert.NotErrorIs(t, err, ErrImageGeneration)
	assert.Equal(t, KindRefinement, KindOf(err))
}

func TestLookupStyle(t *testing.T) {
	name, ok := LookupStyle("business_casual")
	assert.True(t, ok)
	assert.Equal(t, "Business Casual", name)

	name, ok = LookupStyle("streetwear")
	assert.True(t, ok)
	assert.Equal(t, "Streetwear", name)

	name, ok = LookupStyle("")
	assert.True(t, ok)
	assert.Equal(t, StyleAuto, name)

	_, ok = LookupStyle("goth")
	assert.False(t, ok)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil, "fallback"))
	assert.Equal(t, "fallback", UserMessage(errors.New(" "), "fallback"))
	assert.Equal(t, ErrImageGeneration.Message, UserMessage(ErrImageGeneration, "fallback"))
}
