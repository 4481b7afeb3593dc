package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Config represents the configuration for a model call
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
}

// Image is an encoded image sent to or returned from a provider
type Image struct {
	Data     []byte
	MimeType string
}

// Editor defines a provider that transforms or synthesizes pixels
type Editor interface {
	// EditImage applies config.Prompt to src. style, when set, is a
	// reference image whose look should be transferred.
	EditImage(ctx context.Context, config Config, src Image, style *Image) (Image, error)
	// GenerateImage synthesizes an image from config.Prompt alone
	GenerateImage(ctx context.Context, config Config) (Image, error)
}

// Enhancer defines a provider that suggests tone adjustments for an image
type Enhancer interface {
	SuggestAdjustments(ctx context.Context, config Config, src Image) (Adjustments, error)
}

// Adjustments are suggested slider values, where 100 leaves the image unchanged
type Adjustments struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
}

// EnhancePrompt asks a vision model for auto-enhancement values
const EnhancePrompt = `You are a professional photo retoucher. Analyze the exposure, contrast and colour of this photograph and suggest slider values that would correct it.

Return ONLY a JSON object, with no commentary, in exactly this form:
{"brightness": <number>, "contrast": <number>, "saturation": <number>}

Each value is a percentage where 100 leaves the image unchanged. Keep every value between 50 and 150. A well exposed, well balanced photo should get values close to 100.`

// ParseAdjustments extracts Adjustments from a model reply, tolerating
// markdown code fences and surrounding prose
func ParseAdjustments(response string) (Adjustments, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return Adjustments{}, fmt.Errorf("no JSON object in response: %q", response)
	}

	var raw struct {
		Brightness *float64 `json:"brightness"`
		Contrast   *float64 `json:"contrast"`
		Saturation *float64 `json:"saturation"`
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &raw); err != nil {
		return Adjustments{}, fmt.Errorf("failed to decode adjustments: %w", err)
	}
	if raw.Brightness == nil || raw.Contrast == nil || raw.Saturation == nil {
		return Adjustments{}, fmt.Errorf("adjustments missing brightness, contrast or saturation: %q", response)
	}

	return Adjustments{
		Brightness: clamp(*raw.Brightness),
		Contrast:   clamp(*raw.Contrast),
		Saturation: clamp(*raw.Saturation),
	}, nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 200 {
		return 200
	}
	return v
}
