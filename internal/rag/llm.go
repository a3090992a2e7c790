package rag

import "context"

// TaskType tells the embedding model what the vector will be used for.
type TaskType string

const (
	TaskDocument TaskType = "RETRIEVAL_DOCUMENT"
	TaskQuery    TaskType = "RETRIEVAL_QUERY"
)

type EmbeddingsClient interface {
	Embed(ctx context.Context, text string, task TaskType) ([]float32, error)
}

// VectorStore is a similarity-search backend bound to one collection.
type VectorStore interface {
	EnsureCollection(ctx context.Context, vectorSize int) error
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, limit int) ([]Hit, error)
}

type LLMClient interface {
	Generate(ctx context.Context, model, prompt string, params GenerationParams) (Response, error)
}

// GenerationParams are the sampling bounds sent with every generation call.
type GenerationParams struct {
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
}

var DefaultGenerationParams = GenerationParams{
	Temperature:     0.7,
	TopP:            0.95,
	TopK:            40,
	MaxOutputTokens: 2048,
}

// ResponseKind tags which shape the provider answered with.
type ResponseKind int

const (
	ResponseText ResponseKind = iota
	ResponseCandidates
	ResponseUnknown
)

// Candidate holds the text parts of one generated candidate. Raw is its
// printed form, used when it carries no parts.
type Candidate struct {
	Parts []string
	Raw   string
}

// Response is a generation result normalised at the provider boundary.
type Response struct {
	Kind       ResponseKind
	Text       string
	Candidates []Candidate
}

func TextResponse(text string) Response {
	return Response{Kind: ResponseText, Text: text}
}

func CandidatesResponse(candidates []Candidate) Response {
	return Response{Kind: ResponseCandidates, Candidates: candidates}
}

// UnknownResponse carries the stringified provider object.
func UnknownResponse(raw string) Response {
	return Response{Kind: ResponseUnknown, Text: raw}
}
