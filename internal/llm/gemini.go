package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/josinaldojr/book-rag/internal/rag"
	"google.golang.org/genai"
)

const generateContentAction = "generateContent"

// permissive: only high-severity content is blocked.
var safetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
}

type GeminiClient struct {
	client         *genai.Client
	embeddingModel string
	embedDim       int
}

func NewGeminiClient(ctx context.Context, apiKey, embeddingModel string, embedDim int) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY or GOOGLE_API_KEY")
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{
		client:         c,
		embeddingModel: NormalizeModelName(embeddingModel),
		embedDim:       embedDim,
	}, nil
}

func (g *GeminiClient) Embed(ctx context.Context, text string, task rag.TaskType) ([]float32, error) {
	clean := normalizeWhitespace(text)
	if clean == "" {
		return nil, fmt.Errorf("empty text for embedding")
	}

	cfg := &genai.EmbedContentConfig{TaskType: string(task)}
	if g.embedDim > 0 {
		cfg.OutputDimensionality = genai.Ptr(int32(g.embedDim))
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(clean), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini embed error: %w", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	values := resp.Embeddings[0].Values
	if g.embedDim > 0 && len(values) != g.embedDim {
		return nil, fmt.Errorf("unexpected embedding size %d (expected %d)", len(values), g.embedDim)
	}
	return values, nil
}

func (g *GeminiClient) Generate(ctx context.Context, model, prompt string, params rag.GenerationParams) (rag.Response, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(params.Temperature),
		TopP:            genai.Ptr(params.TopP),
		TopK:            genai.Ptr(params.TopK),
		MaxOutputTokens: params.MaxOutputTokens,
		SafetySettings:  safetySettings,
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return rag.Response{}, fmt.Errorf("gemini generateContent error: %w", err)
	}

	return decodeResponse(resp), nil
}

// ListGenerativeModels returns the short names of every model that supports
// content generation for this key.
func (g *GeminiClient) ListGenerativeModels(ctx context.Context) ([]string, error) {
	var names []string
	for m, err := range g.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list gemini models: %w", err)
		}
		if supports(m.SupportedActions, generateContentAction) {
			names = append(names, NormalizeModelName(m.Name))
		}
	}
	return names, nil
}

// decodeResponse folds the provider response into one of the three shapes
// the generator understands.
func decodeResponse(resp *genai.GenerateContentResponse) rag.Response {
	if resp == nil {
		return rag.UnknownResponse("")
	}

	if txt := resp.Text(); strings.TrimSpace(txt) != "" {
		return rag.TextResponse(txt)
	}

	if len(resp.Candidates) > 0 {
		candidates := make([]rag.Candidate, 0, len(resp.Candidates))
		for _, c := range resp.Candidates {
			candidates = append(candidates, decodeCandidate(c))
		}
		return rag.CandidatesResponse(candidates)
	}

	return rag.UnknownResponse(stringify(resp))
}

func decodeCandidate(c *genai.Candidate) rag.Candidate {
	if c == nil {
		return rag.Candidate{}
	}
	if c.Content == nil {
		return rag.Candidate{Raw: stringify(c)}
	}
	parts := make([]string, 0, len(c.Content.Parts))
	for _, p := range c.Content.Parts {
		if p == nil {
			continue
		}
		parts = append(parts, p.Text)
	}
	return rag.Candidate{Parts: parts}
}

func stringify(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}

func supports(actions []string, action string) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

// -------- helpers --------

func normalizeWhitespace(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			if !space {
				b.WriteRune(' ')
				space = true
			}
		} else {
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}

var _ rag.EmbeddingsClient = (*GeminiClient)(nil)
var _ rag.LLMClient = (*GeminiClient)(nil)
var _ ModelLister = (*GeminiClient)(nil)
