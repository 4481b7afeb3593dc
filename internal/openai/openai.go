package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/harding/internal/providers"
)

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAI is an image editing, generation and enhancement provider for OpenAI
type OpenAI struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a new OpenAI provider
func New() *OpenAI {
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenAI{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{},
	}
}

func apiKey() (string, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return "", fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return key, nil
}

// SuggestAdjustments sends the image to a vision chat model and parses the JSON reply
func (o *OpenAI) SuggestAdjustments(ctx context.Context, config providers.Config, src providers.Image) (providers.Adjustments, error) {
	prompt := config.Prompt
	if prompt == "" {
		prompt = providers.EnhancePrompt
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model": config.Model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": prompt,
					},
					{
						"type": "image_url",
						"image_url": map[string]string{
							"url": "data:" + src.MimeType + ";base64," + base64.StdEncoding.EncodeToString(src.Data),
						},
					},
				},
			},
		},
		"temperature": config.Temperature,
	})
	if err != nil {
		return providers.Adjustments{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := o.do(ctx, "/chat/completions", "application/json", bytes.NewReader(requestBody), &response); err != nil {
		return providers.Adjustments{}, err
	}

	if len(response.Choices) == 0 {
		return providers.Adjustments{}, fmt.Errorf("no choices returned from OpenAI")
	}
	return providers.ParseAdjustments(response.Choices[0].Message.Content)
}

// EditImage uploads the source (and style reference) to the image edit endpoint
func (o *OpenAI) EditImage(ctx context.Context, config providers.Config, src providers.Image, style *providers.Image) (providers.Image, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("model", config.Model)
	_ = mw.WriteField("prompt", config.Prompt)

	images := []providers.Image{src}
	if style != nil {
		images = append(images, *style)
	}
	for i, img := range images {
		if err := writeImagePart(mw, fmt.Sprintf("image-%d", i), img); err != nil {
			return providers.Image{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return providers.Image{}, fmt.Errorf("failed to close multipart body: %w", err)
	}

	return o.images(ctx, "/images/edits", mw.FormDataContentType(), &body)
}

// GenerateImage calls the image generation endpoint
func (o *OpenAI) GenerateImage(ctx context.Context, config providers.Config) (providers.Image, error) {
	requestBody, err := json.Marshal(map[string]interface{}{
		"model":  config.Model,
		"prompt": config.Prompt,
		"n":      1,
	})
	if err != nil {
		return providers.Image{}, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return o.images(ctx, "/images/generations", "application/json", bytes.NewReader(requestBody))
}

func writeImagePart(mw *multipart.Writer, name string, img providers.Image) error {
	ext := strings.TrimPrefix(img.MimeType, "image/")
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image[]"; filename="%s.%s"`, name, ext))
	h.Set("Content-Type", img.MimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return fmt.Errorf("failed to write image part: %w", err)
	}
	return nil
}

func (o *OpenAI) images(ctx context.Context, path, contentType string, body io.Reader) (providers.Image, error) {
	var response struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
		OutputFormat string `json:"output_format"`
	}
	if err := o.do(ctx, path, contentType, body, &response); err != nil {
		return providers.Image{}, err
	}

	if len(response.Data) == 0 || response.Data[0].B64JSON == "" {
		return providers.Image{}, fmt.Errorf("no image returned from OpenAI")
	}
	data, err := base64.StdEncoding.DecodeString(response.Data[0].B64JSON)
	if err != nil {
		return providers.Image{}, fmt.Errorf("failed to decode image data: %w", err)
	}

	format := response.OutputFormat
	if format == "" {
		format = "png"
	}
	return providers.Image{Data: data, MimeType: "image/" + format}, nil
}

func (o *OpenAI) do(ctx context.Context, path, contentType string, body io.Reader, out interface{}) error {
	key, err := apiKey()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
