package openai

import (
	"math"
	"sort"
)

// DefaultModel is used when no model is configured and as the profile
// fallback for model identifiers missing from the table.
const DefaultModel = "gpt-4o-mini"

// Pricing holds USD rates per 1000 tokens.
type Pricing struct {
	Input  float64 `json:"input" mapstructure:"input"`
	Output float64 `json:"output" mapstructure:"output"`
}

// ModelProfile is a static per-model capability and pricing record.
type ModelProfile struct {
	// SupportsTemperature reports whether the model accepts an explicit
	// temperature parameter. Reasoning model families reject it.
	SupportsTemperature bool
	Pricing             Pricing
}

var profiles = map[string]ModelProfile{
	// gpt-5 family
	"gpt-5":      {SupportsTemperature: false, Pricing: Pricing{Input: 0.00125, Output: 0.01000}},
	"gpt-5-mini": {SupportsTemperature: false, Pricing: Pricing{Input: 0.00025, Output: 0.00200}},
	"gpt-5-nano": {SupportsTemperature: false, Pricing: Pricing{Input: 0.00005, Output: 0.00040}},
	// gpt-4.1 family
	"gpt-4.1":      {SupportsTemperature: true, Pricing: Pricing{Input: 0.00300, Output: 0.01200}},
	"gpt-4.1-mini": {SupportsTemperature: true, Pricing: Pricing{Input: 0.00080, Output: 0.00320}},
	"gpt-4.1-nano": {SupportsTemperature: true, Pricing: Pricing{Input: 0.00020, Output: 0.00080}},
	// gpt-4o family
	"gpt-4o":      {SupportsTemperature: true, Pricing: Pricing{Input: 0.00250, Output: 0.01000}},
	"gpt-4o-mini": {SupportsTemperature: true, Pricing: Pricing{Input: 0.00060, Output: 0.00240}},
}

// Profile returns the profile for the given model identifier. Unknown models
// resolve to the DefaultModel profile, never to an error.
func Profile(model string) ModelProfile {
	if p, ok := profiles[model]; ok {
		return p
	}
	return profiles[DefaultModel]
}

// SupportsTemperature reports whether an explicit temperature may be sent
// for the given model.
func SupportsTemperature(model string) bool {
	return Profile(model).SupportsTemperature
}

// KnownModels returns the identifiers in the profile table, sorted.
func KnownModels() []string {
	models := make([]string, 0, len(profiles))
	for model := range profiles {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

// CostEstimate is the derived cost of a single API call.
type CostEstimate struct {
	Model         string  `json:"model"`
	InputTokens   int     `json:"input_tokens"`
	OutputTokens  int     `json:"output_tokens"`
	InputCostUSD  float64 `json:"input_cost_usd"`
	OutputCostUSD float64 `json:"output_cost_usd"`
	TotalCostUSD  float64 `json:"total_cost_usd"`
	PricingPer1K  Pricing `json:"pricing_per_1k"`
}

// EstimateCost computes the USD cost of a call from the provider's reported
// token counts against the model's per-1000-token pricing.
func EstimateCost(model string, inputTokens, outputTokens int) CostEstimate {
	pricing := Profile(model).Pricing

	inputCost := float64(inputTokens) / 1000 * pricing.Input
	outputCost := float64(outputTokens) / 1000 * pricing.Output

	return CostEstimate{
		Model:         model,
		InputTokens:   inputTokens,
		OutputTokens:  outputTokens,
		InputCostUSD:  round6(inputCost),
		OutputCostUSD: round6(outputCost),
		TotalCostUSD:  round6(inputCost + outputCost),
		PricingPer1K:  pricing,
	}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
