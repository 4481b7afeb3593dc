package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/harding/internal/providers"
	"google.golang.org/api/option"
)

// Gemini is an image editing, generation and enhancement provider for Google Gemini
type Gemini struct{}

// New returns a new Gemini provider
func New() *Gemini {
	return &Gemini{}
}

func (g *Gemini) model(ctx context.Context, config providers.Config) (*genai.Client, *genai.GenerativeModel, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))
	return client, model, nil
}

// EditImage sends the source image, the optional style reference and the
// instruction, and returns the first image in the reply
func (g *Gemini) EditImage(ctx context.Context, config providers.Config, src providers.Image, style *providers.Image) (providers.Image, error) {
	client, model, err := g.model(ctx, config)
	if err != nil {
		return providers.Image{}, err
	}
	defer client.Close()

	parts := []genai.Part{genai.Blob{MIMEType: src.MimeType, Data: src.Data}}
	if style != nil {
		parts = append(parts, genai.Blob{MIMEType: style.MimeType, Data: style.Data})
	}
	parts = append(parts, genai.Text(config.Prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return providers.Image{}, fmt.Errorf("failed to generate content: %w", err)
	}
	return imageFromResponse(resp)
}

// GenerateImage synthesizes an image from the prompt alone
func (g *Gemini) GenerateImage(ctx context.Context, config providers.Config) (providers.Image, error) {
	client, model, err := g.model(ctx, config)
	if err != nil {
		return providers.Image{}, err
	}
	defer client.Close()

	resp, err := model.GenerateContent(ctx, genai.Text(config.Prompt))
	if err != nil {
		return providers.Image{}, fmt.Errorf("failed to generate content: %w", err)
	}
	return imageFromResponse(resp)
}

// SuggestAdjustments asks for brightness, contrast and saturation values as JSON
func (g *Gemini) SuggestAdjustments(ctx context.Context, config providers.Config, src providers.Image) (providers.Adjustments, error) {
	client, model, err := g.model(ctx, config)
	if err != nil {
		return providers.Adjustments{}, err
	}
	defer client.Close()
	model.ResponseMIMEType = "application/json"

	prompt := config.Prompt
	if prompt == "" {
		prompt = providers.EnhancePrompt
	}

	resp, err := model.GenerateContent(ctx, genai.Blob{MIMEType: src.MimeType, Data: src.Data}, genai.Text(prompt))
	if err != nil {
		return providers.Adjustments{}, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := textFromResponse(resp)
	if err != nil {
		return providers.Adjustments{}, err
	}
	return providers.ParseAdjustments(text)
}

func firstCandidateParts(resp *genai.GenerateContentResponse) ([]genai.Part, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("empty content returned from Gemini (finish reason %s)", candidate.FinishReason)
	}
	return candidate.Content.Parts, nil
}

// imageFromResponse returns the first inline image of the first candidate
func imageFromResponse(resp *genai.GenerateContentResponse) (providers.Image, error) {
	parts, err := firstCandidateParts(resp)
	if err != nil {
		return providers.Image{}, err
	}

	var said []string
	for _, part := range parts {
		switch p := part.(type) {
		case genai.Blob:
			if strings.HasPrefix(p.MIMEType, "image/") && len(p.Data) > 0 {
				return providers.Image{Data: p.Data, MimeType: p.MIMEType}, nil
			}
		case genai.Text:
			said = append(said, string(p))
		}
	}

	if len(said) > 0 {
		return providers.Image{}, fmt.Errorf("gemini returned text instead of an image: %s", strings.Join(said, " "))
	}
	return providers.Image{}, fmt.Errorf("no image returned from Gemini")
}

// textFromResponse joins the text parts of the first candidate
func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	parts, err := firstCandidateParts(resp)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, part := range parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}
	return sb.String(), nil
}
