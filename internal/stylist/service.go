package stylist

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"ai-stylist/internal/gemini"
	"ai-stylist/internal/imagedata"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image"
)

// Generator is the slice of the generation API the stylist needs.
type Generator interface {
	GenerateContent(ctx context.Context, model string, req gemini.Request) (*gemini.Response, error)
}

type Options struct {
	Generator  Generator
	TextModel  string
	ImageModel string
	Logger     *slog.Logger
}

// Service turns reference photos into suggestions and styled images. Every
// call is exactly one round trip; nothing is retried.
type Service struct {
	gen        Generator
	textModel  string
	imageModel string
	logger     *slog.Logger
}

func New(opts Options) *Service {
	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = DefaultTextModel
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = DefaultImageModel
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Service{
		gen:        opts.Generator,
		textModel:  textModel,
		imageModel: imageModel,
		logger:     logger,
	}
}

func (s *Service) GenerateSuggestions(ctx context.Context, closeup, fullBody imagedata.Image, occasion, style string) (StyleSuggestion, error) {
	if closeup.IsZero() || fullBody.IsZero() {
		return StyleSuggestion{}, ErrMissingImages
	}

	req := gemini.Request{
		Parts: []gemini.Part{
			gemini.TextPart(suggestionPrompt(occasion, style)),
			gemini.TextPart(labelCloseup),
			inlinePart(closeup),
			gemini.TextPart(labelFullBody),
			inlinePart(fullBody),
		},
		Config: gemini.GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   SuggestionSchema(),
		},
	}

	resp, err := s.gen.GenerateContent(ctx, s.textModel, req)
	if err != nil {
		return StyleSuggestion{}, transportError(err)
	}

	text := resp.Text()
	suggestion, err := DecodeSuggestion(text)
	if err != nil {
		s.logger.Error("suggestion response is not valid JSON", "err", err, "response", text, "finish_reason", resp.FinishReason())
		return StyleSuggestion{}, ErrMalformedSuggestion.withCause(err)
	}

	s.logger.Debug("suggestions generated", "face_shape", suggestion.FaceShape, "body_shape", suggestion.BodyShape)
	return suggestion, nil
}

func (s *Service) SynthesizeStyledImage(ctx context.Context, closeup, fullBody imagedata.Image, suggestion StyleSuggestion, occasion, style string) (imagedata.Image, error) {
	if closeup.IsZero() || fullBody.IsZero() {
		return "", ErrMissingImages
	}

	req := gemini.Request{
		Parts: []gemini.Part{
			gemini.TextPart(synthesisPrompt(suggestion, occasion, style)),
			gemini.TextPart(labelRefCloseup),
			inlinePart(closeup),
			gemini.TextPart(labelRefFullBody),
			inlinePart(fullBody),
		},
		Config: imageConfig(),
	}

	resp, err := s.gen.GenerateContent(ctx, s.imageModel, req)
	if err != nil {
		return "", transportError(err)
	}

	img, ok := firstInlineImage(resp)
	if !ok {
		s.logger.Error("image generation returned no image", "finish_reason", resp.FinishReason(), "text", resp.Text())
		return "", ErrImageGeneration
	}
	return img, nil
}

// RefineStyledImage applies one edit to base. Chaining edits is up to the
// caller, which feeds the result back in as the next base.
func (s *Service) RefineStyledImage(ctx context.Context, base imagedata.Image, instruction string, closeup imagedata.Image) (imagedata.Image, error) {
	if strings.TrimSpace(instruction) == "" {
		return "", ErrEmptyInstruction
	}
	if base.IsZero() || closeup.IsZero() {
		return "", ErrNoStyledImage
	}

	req := gemini.Request{
		Parts: []gemini.Part{
			gemini.TextPart(refinementPrompt(instruction)),
			gemini.TextPart(labelEditInstr),
			gemini.TextPart(instruction),
			gemini.TextPart(labelBaseImage),
			inlinePart(base),
			gemini.TextPart(labelRefCloseup),
			inlinePart(closeup),
		},
		Config: imageConfig(),
	}

	resp, err := s.gen.GenerateContent(ctx, s.imageModel, req)
	if err != nil {
		return "", transportError(err)
	}

	img, ok := firstInlineImage(resp)
	if !ok {
		s.logger.Error("image refinement returned no image", "finish_reason", resp.FinishReason(), "text", resp.Text())
		return "", ErrImageRefinement
	}
	return img, nil
}

func imageConfig() gemini.GenerationConfig {
	return gemini.GenerationConfig{
		ResponseModalities: []string{gemini.ModalityImage},
		ImageConfig:        &gemini.ImageConfig{AspectRatio: AspectRatio},
	}
}

func inlinePart(img imagedata.Image) gemini.Part {
	return gemini.InlinePart(img.MimeType(), img.Base64())
}

// firstInlineImage only looks at the first part of the first candidate.
func firstInlineImage(resp *gemini.Response) (imagedata.Image, bool) {
	part, ok := resp.FirstPart()
	if !ok || part.InlineData == nil {
		return "", false
	}
	if part.InlineData.Data == "" || part.InlineData.MimeType == "" {
		return "", false
	}
	img, err := imagedata.FromBase64(part.InlineData.MimeType, part.InlineData.Data)
	if err != nil {
		return "", false
	}
	return img, true
}

func transportError(err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
}
