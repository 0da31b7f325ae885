package decompose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"

	"github.com/convictionlabs/thesisrun/internal/discovery"
	"github.com/convictionlabs/thesisrun/internal/domain"
)

const systemPrompt = `You are an investment research assistant. Given an investment thesis,
return a JSON array of instrument suggestions. Each element must have:
"ticker" (exchange symbol), "name", "asset_class" (stock|etf|crypto|secondary),
"direction" (long|short), "rationale" (one sentence). Return only JSON, no prose.`

// Config configures the Claude-backed thesis decomposer.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
	Timeout   time.Duration
}

// Decomposer asks a language model to break a thesis into structured
// instrument suggestions. It is strictly best-effort: any failure or
// malformed output surfaces as an error the caller converts into a gap,
// never an abort.
type Decomposer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// New builds a decomposer. API key is required; the caller decides whether to
// run without one (discovery treats a nil decomposer as a disabled layer).
func New(config Config) (*Decomposer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if config.Model == "" {
		config.Model = "claude-sonnet-4-20250514"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 2048
	}
	if config.Timeout <= 0 {
		config.Timeout = 45 * time.Second
	}
	return &Decomposer{
		client:    anthropic.NewClient(option.WithAPIKey(config.APIKey)),
		model:     config.Model,
		maxTokens: config.MaxTokens,
		timeout:   config.Timeout,
	}, nil
}

type suggestionPayload struct {
	Ticker     string `json:"ticker"`
	Name       string `json:"name"`
	AssetClass string `json:"asset_class"`
	Direction  string `json:"direction"`
	Rationale  string `json:"rationale"`
}

// Decompose implements discovery.Decomposer.
func (d *Decomposer) Decompose(ctx context.Context, thesis string) ([]discovery.Suggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	resp, err := d.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(d.model),
		MaxTokens: d.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(thesis)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("decomposition call failed: %w", err)
	}

	suggestions, err := ParseSuggestions(textContent(resp.Content))
	if err != nil {
		return nil, err
	}

	log.Debug().Int("suggestions", len(suggestions)).Msg("Thesis decomposed")
	return suggestions, nil
}

// textContent concatenates the text blocks of a model response, skipping
// tool-use and any other block kinds.
func textContent(blocks []anthropic.ContentBlockUnion) string {
	var text strings.Builder
	for _, block := range blocks {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String()
}

// ParseSuggestions extracts the JSON suggestion array from model output.
// Models wrap JSON in prose or code fences often enough that we locate the
// array by bracket scanning rather than trusting the whole body.
func ParseSuggestions(raw string) ([]discovery.Suggestion, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in decomposition output")
	}

	var payload []suggestionPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("malformed decomposition output: %w", err)
	}

	out := make([]discovery.Suggestion, 0, len(payload))
	for _, p := range payload {
		ticker := domain.NormalizeTicker(p.Ticker)
		if ticker == "" {
			continue
		}
		out = append(out, discovery.Suggestion{
			Ticker:     ticker,
			Name:       p.Name,
			AssetClass: parseAssetClass(p.AssetClass),
			Rationale:  p.Rationale,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("decomposition output contained no usable suggestions")
	}
	return out, nil
}

func parseAssetClass(raw string) domain.AssetClass {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "etf":
		return domain.AssetETF
	case "crypto", "token":
		return domain.AssetCrypto
	case "secondary", "private":
		return domain.AssetSecondary
	case "option":
		return domain.AssetOption
	default:
		return domain.AssetStock
	}
}
