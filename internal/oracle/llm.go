package oracle

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"watchscout-engine/internal/domain"
	"watchscout-engine/internal/scrape/util"
)

//go:embed schema.json
var extractionSchema string

const systemPrompt = `You are an expert at extracting structured data from luxury-watch listings.

You receive the raw HTML of one listing element from a dealer, forum or marketplace page. Extract the watch's attributes into the given JSON schema.

Rules:
- Normalize manufacturer names ("ROLEX" -> "Rolex").
- price is the bare number: "5.999,00 EUR" -> 5999.0. European number formats use "." for thousands and "," for decimals.
- Use empty strings / 0 for anything the listing does not state. Never guess a reference number or year.
- condition must be one of the schema's values; map local terms (Neu, Gebraucht, ...) onto them.
- confidence is how certain you are about the extraction overall. Be conservative: above 0.8 only when the listing is unambiguous.`

type Config struct {
	Model               string
	MaxTokens           int
	Temperature         float64
	ConfidenceThreshold float64
	MaxMarkupBytes      int
}

func (c *Config) defaults() {
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = 0.5
	}
	if c.MaxMarkupBytes <= 0 {
		c.MaxMarkupBytes = 4000
	}
}

// requestSettings maps the oracle config onto llmkit request settings. An
// empty Model falls back to the library default model.
func (c Config) requestSettings() types.RequestSettings {
	return types.RequestSettings{
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}
}

type promptFunc func(systemPrompt, userPrompt, jsonSchema, apiKey string, settings types.RequestSettings, files ...types.File) (*types.AnthropicResponse, error)

// Agent is the llmkit-backed Extractor.
type Agent struct {
	apiKey string
	cfg    Config
	prompt promptFunc
}

func New(apiKey string, cfg Config) (*Agent, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("creating extraction agent: API key is empty")
	}
	cfg.defaults()
	return &Agent{apiKey: apiKey, cfg: cfg, prompt: anthropic.PromptWithSettings}, nil
}

func (a *Agent) Extract(ctx context.Context, rawMarkup, sourceName string) (*domain.ExtractedListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	markup := util.TruncateMarkup(rawMarkup, a.cfg.MaxMarkupBytes)
	prompt := fmt.Sprintf("Source: %s\n\nListing HTML:\n%s", sourceName, markup)

	response, err := a.prompt(systemPrompt, prompt, extractionSchema, a.apiKey, a.cfg.requestSettings())
	if err != nil {
		return nil, fmt.Errorf("extraction prompt: %w", err)
	}

	text := responseText(response)
	if text == "" {
		return nil, fmt.Errorf("extraction prompt: empty response")
	}

	var ext domain.ExtractedListing
	if err := json.Unmarshal([]byte(text), &ext); err != nil {
		return nil, fmt.Errorf("parsing extraction JSON: %w", err)
	}

	return Validate(&ext, a.cfg.ConfidenceThreshold)
}

func responseText(resp *types.AnthropicResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text
		}
	}
	return ""
}

// Validate applies the acceptance invariant shared by every Extractor
// implementation: confidence at or above the threshold, manufacturer and
// model both present. It also normalizes the manufacturer and fills enum
// gaps so downstream code sees canonical values.
func Validate(ext *domain.ExtractedListing, threshold float64) (*domain.ExtractedListing, error) {
	if ext.Confidence < threshold {
		log.Printf("[oracle] low confidence %.2f < %.2f", ext.Confidence, threshold)
		return nil, fmt.Errorf("%w: %.2f", ErrLowConfidence, ext.Confidence)
	}

	ext.Manufacturer = util.NormalizeManufacturer(ext.Manufacturer)
	ext.Model = util.CleanText(ext.Model)
	if ext.Manufacturer == "" || ext.Model == "" {
		return nil, ErrIncomplete
	}

	if ext.Condition == "" {
		ext.Condition = domain.ConditionUnknown
	}
	if ext.Currency == "" {
		ext.Currency = domain.CurrencyEUR
	}
	ext.Country = util.CleanText(ext.Country)
	ext.ReferenceNumber = strings.TrimSpace(ext.ReferenceNumber)
	return ext, nil
}
