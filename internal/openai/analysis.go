package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/jobsweep/jobsweep/internal/cache"
	"github.com/jobsweep/jobsweep/internal/logger"
	"github.com/jobsweep/jobsweep/internal/prompts"
	"github.com/jobsweep/jobsweep/internal/urlnorm"
)

const (
	// Namespace for analysis documents in the cache store.
	analysisNamespace = "openai"

	// Digest budget for the job and resume text when deriving cache keys.
	// Content beyond this many runes does not affect the key.
	keyDigestLimit = 8000

	analysisTemperature = 0.2
)

// Scores is the per-dimension breakdown of an analysis.
type Scores struct {
	SkillsMatch         int `json:"skills_match" mapstructure:"skills_match"`
	ExperienceAlignment int `json:"experience_alignment" mapstructure:"experience_alignment"`
	KeywordCoverage     int `json:"keyword_coverage" mapstructure:"keyword_coverage"`
}

// MissingKeyword is a job requirement absent from the resume.
type MissingKeyword struct {
	Token    string `json:"token" mapstructure:"token"`
	Priority string `json:"priority" mapstructure:"priority"`
}

// Keywords groups keyword coverage details.
type Keywords struct {
	Matched   []string         `json:"matched" mapstructure:"matched"`
	Missing   []MissingKeyword `json:"missing" mapstructure:"missing"`
	QuickWins []string         `json:"quick_wins" mapstructure:"quick_wins"`
}

// JobInfo is the model's extraction of basic posting facts, used by the
// report layer.
type JobInfo struct {
	Title    string `json:"title" mapstructure:"title"`
	Company  string `json:"company" mapstructure:"company"`
	Location string `json:"location" mapstructure:"location"`
}

// Meta carries provenance and accounting for an analysis.
type Meta struct {
	Key          string       `json:"key"`
	Model        string       `json:"model"`
	JobURL       string       `json:"job_url"`
	CostEstimate CostEstimate `json:"cost_estimate"`
	ElapsedMS    int64        `json:"elapsed"`
}

// Analysis is the canonical result schema. Every field is populated after
// processing regardless of the shape of the model's raw output, so callers
// never defend against missing fields.
type Analysis struct {
	Summary       string   `json:"summary" mapstructure:"summary"`
	MatchScore    int      `json:"match_score" mapstructure:"match_score"`
	Scores        Scores   `json:"scores" mapstructure:"scores"`
	StrongMatches []string `json:"strong_matches" mapstructure:"strong_matches"`
	Gaps          []string `json:"gaps" mapstructure:"gaps"`
	Keywords      Keywords `json:"keywords" mapstructure:"keywords"`
	Job           JobInfo  `json:"job" mapstructure:"job"`
	Meta          Meta     `json:"_meta" mapstructure:"-"`
}

type completionClient interface {
	ChatCompletion(ctx context.Context, body *ChatRequest) (*ChatResponse, error)
}

// Analyzer compares job descriptions against resumes, caching results on
// disk keyed by content hash.
type Analyzer struct {
	client       completionClient
	store        *cache.Store
	defaultModel string
	logger       *zap.Logger
}

// NewAnalyzer creates an Analyzer. The default model is used when a request
// does not carry an explicit override; empty falls back to DefaultModel.
func NewAnalyzer(client completionClient, store *cache.Store, defaultModel string, logger *zap.Logger) *Analyzer {
	if strings.TrimSpace(defaultModel) == "" {
		defaultModel = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Analyzer{
		client:       client,
		store:        store,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// AnalyzeRequest describes one analysis call.
type AnalyzeRequest struct {
	JobDescription string
	ResumeText     string
	// Model overrides the analyzer's default when non-empty.
	Model string
	// JobURL participates in the cache key after tracking-parameter
	// normalization; may be empty.
	JobURL string
	// Force bypasses the cache read and overwrites the cached entry.
	Force      bool
	PromptName string
}

// CacheKey derives the content-addressed key for a request without issuing
// any call. Identical (model, url, jd-prefix, resume-prefix) tuples always
// map to the same key.
func (a *Analyzer) CacheKey(req AnalyzeRequest) string {
	model := a.resolveModel(req.Model)
	jobURL := ""
	if req.JobURL != "" {
		jobURL = urlnorm.Normalize(req.JobURL)
	}

	return cache.Key(
		model,
		jobURL,
		cache.Digest(req.JobDescription, keyDigestLimit),
		cache.Digest(req.ResumeText, keyDigestLimit),
	)
}

// Analyze runs one comparison. Cached results are returned without a model
// call unless Force is set. The returned Analysis always satisfies the full
// schema; only transport and API failures surface as errors.
func (a *Analyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	model := a.resolveModel(req.Model)
	key := a.CacheKey(req)

	if !req.Force {
		var cached Analysis
		if a.store.Read(analysisNamespace, key, &cached) {
			a.logger.Debug("analysis cache hit", zap.String("key", key), zap.String("model", model))
			return &cached, nil
		}
	}

	prompt, err := prompts.Load(req.PromptName)
	if err != nil {
		return nil, err
	}

	chatReq := &ChatRequest{
		Model: model,
		Messages: []Message{
			{Role: RoleSystem, Content: prompt.System},
			{Role: RoleUser, Content: prompt.RenderUser(req.JobDescription, req.ResumeText)},
		},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}
	if SupportsTemperature(model) {
		temp := analysisTemperature
		chatReq.Temperature = &temp
	}

	start := time.Now()
	resp, err := a.client.ChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("comparing job against resume: %w", err)
	}
	elapsed := time.Since(start).Milliseconds()

	content := "{}"
	if len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "" {
		content = stripCodeFence(resp.Choices[0].Message.Content)
	}
	a.logger.Debug("model response", zap.String("preview", logger.TruncateForLog(content, 200)))

	var inputTokens, outputTokens int
	if resp.Usage != nil {
		inputTokens = resp.Usage.PromptTokens
		outputTokens = resp.Usage.CompletionTokens
	}
	cost := EstimateCost(model, inputTokens, outputTokens)

	a.logger.Info("analysis call finished",
		zap.String("model", model),
		zap.Int("input_tokens", inputTokens),
		zap.Int("output_tokens", outputTokens),
		zap.Float64("cost_usd", cost.TotalCostUSD),
		zap.Int64("elapsed_ms", elapsed),
	)

	analysis, parsed := repairAnalysis(content)
	analysis.Meta = Meta{
		Key:          key,
		Model:        model,
		JobURL:       req.JobURL,
		CostEstimate: cost,
		ElapsedMS:    elapsed,
	}

	// A degraded fallback document is returned but never cached, so a
	// later run can still produce a real analysis.
	if parsed {
		a.store.Write(analysisNamespace, key, analysis)
	}

	return analysis, nil
}

func (a *Analyzer) resolveModel(override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	return a.defaultModel
}

// repairAnalysis coerces the model's raw output into the canonical schema.
// Missing fields default, weakly-typed values (string-typed numbers) are
// converted, and an unparseable body maps to the fallback document with the
// raw text preserved in the summary. The second return value reports
// whether the body was parseable JSON.
func repairAnalysis(content string) (*Analysis, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return fallbackAnalysis(content), false
	}

	coerceMissingKeywords(raw)

	var analysis Analysis
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &analysis,
	})
	if err != nil || dec.Decode(raw) != nil {
		return fallbackAnalysis(content), false
	}

	normalizeAnalysis(&analysis)
	return &analysis, true
}

// coerceMissingKeywords rewrites bare-string entries under keywords.missing
// into the {token, priority} object shape some models flatten away.
func coerceMissingKeywords(raw map[string]any) {
	keywords, ok := raw["keywords"].(map[string]any)
	if !ok {
		return
	}
	missing, ok := keywords["missing"].([]any)
	if !ok {
		return
	}

	for i, entry := range missing {
		if token, ok := entry.(string); ok {
			missing[i] = map[string]any{"token": token}
		}
	}
}

func fallbackAnalysis(content string) *Analysis {
	a := &Analysis{Summary: content}
	normalizeAnalysis(a)
	return a
}

func normalizeAnalysis(a *Analysis) {
	a.MatchScore = clampScore(a.MatchScore)
	a.Scores.SkillsMatch = clampScore(a.Scores.SkillsMatch)
	a.Scores.ExperienceAlignment = clampScore(a.Scores.ExperienceAlignment)
	a.Scores.KeywordCoverage = clampScore(a.Scores.KeywordCoverage)

	if a.StrongMatches == nil {
		a.StrongMatches = []string{}
	}
	if a.Gaps == nil {
		a.Gaps = []string{}
	}
	if a.Keywords.Matched == nil {
		a.Keywords.Matched = []string{}
	}
	if a.Keywords.Missing == nil {
		a.Keywords.Missing = []MissingKeyword{}
	}
	if a.Keywords.QuickWins == nil {
		a.Keywords.QuickWins = []string{}
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// stripCodeFence removes a surrounding markdown code fence from the model's
// output, tolerating a json language marker.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSpace(s)
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}
