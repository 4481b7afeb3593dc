package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/harding/internal/providers"
)

// Ollama is an enhancement provider for a local Ollama vision model.
// It cannot edit or generate pixels.
type Ollama struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a new Ollama provider
func New() *Ollama {
	ollamaURL := os.Getenv("OLLAMA_URL")
	if ollamaURL == "" {
		ollamaURL = os.Getenv("OLLAMA_HOST")
	}
	if ollamaURL == "" {
		ollamaURL = "http://localhost:11434"
	}
	return &Ollama{
		BaseURL:    strings.TrimSuffix(ollamaURL, "/"),
		HTTPClient: &http.Client{},
	}
}

// SuggestAdjustments asks the vision model for adjustment values as JSON
func (o *Ollama) SuggestAdjustments(ctx context.Context, config providers.Config, src providers.Image) (providers.Adjustments, error) {
	prompt := config.Prompt
	if prompt == "" {
		prompt = providers.EnhancePrompt
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model":  config.Model,
		"prompt": prompt,
		"images": []string{base64.StdEncoding.EncodeToString(src.Data)},
		"format": "json",
		"stream": false,
		"options": map[string]interface{}{
			"temperature": config.Temperature,
		},
	})
	if err != nil {
		return providers.Adjustments{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.BaseURL+"/api/generate", bytes.NewBuffer(requestBody))
	if err != nil {
		return providers.Adjustments{}, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return providers.Adjustments{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return providers.Adjustments{}, fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return providers.Adjustments{}, fmt.Errorf("failed to decode response body: %w", err)
	}

	return providers.ParseAdjustments(response.Response)
}
