package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"google.golang.org/genai"
)

// GeminiClassifier is the concrete Classifier backed by the Gemini API.
// Credentials come from the environment (GEMINI_API_KEY or Application
// Default Credentials).
type GeminiClassifier struct {
	model string
}

// NewGeminiClassifier creates a classifier using the given model.
func NewGeminiClassifier(model string) *GeminiClassifier {
	return &GeminiClassifier{model: model}
}

// ClassifyColumns implements Classifier.
func (g *GeminiClassifier) ClassifyColumns(ctx context.Context, headers []string, sampleRow []string) (map[string]string, error) {
	raw, err := g.generate(ctx, buildColumnPrompt(headers, sampleRow))
	if err != nil {
		return nil, err
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("ClassifyColumns: unmarshal JSON: %w\nraw response: %s", err, raw)
	}

	// Nulls and non-strings mean "could not place this role".
	out := make(map[string]string)
	for role, v := range parsed {
		if s, ok := v.(string); ok && s != "" {
			out[role] = s
		}
	}
	return out, nil
}

// StandardizeCategories implements Classifier.
func (g *GeminiClassifier) StandardizeCategories(ctx context.Context, categories []string) (map[string]string, error) {
	raw, err := g.generate(ctx, buildStandardizePrompt(categories))
	if err != nil {
		return nil, err
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("StandardizeCategories: unmarshal JSON: %w\nraw response: %s", err, raw)
	}

	out := make(map[string]string)
	for source, v := range parsed {
		if s, ok := v.(string); ok && s != "" {
			out[source] = s
		}
	}
	return out, nil
}

// CategorizeMerchants implements Classifier.
func (g *GeminiClassifier) CategorizeMerchants(ctx context.Context, batch []MerchantQuery) (map[int]string, error) {
	raw, err := g.generate(ctx, buildMerchantPrompt(batch))
	if err != nil {
		return nil, err
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("CategorizeMerchants: unmarshal JSON: %w\nraw response: %s", err, raw)
	}

	out := make(map[int]string)
	for key, v := range parsed {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(batch) {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			out[idx] = s
		}
	}
	return out, nil
}

// generate sends one text prompt to the model and returns the raw response
// text.
func (g *GeminiClassifier) generate(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return rawText, nil
}

var _ Classifier = (*GeminiClassifier)(nil)
