package rag_test

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/josinaldojr/book-rag/internal/rag"
	"github.com/josinaldojr/book-rag/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDim = 64

// wordHashEmbedder maps each lower-cased word to a bucket, so texts sharing
// words land close together.
type wordHashEmbedder struct{}

func (wordHashEmbedder) Embed(_ context.Context, text string, _ rag.TaskType) ([]float32, error) {
	vec := make([]float32, testDim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%testDim]++
	}
	return vec, nil
}

type echoLLM struct{ prompts []string }

func (e *echoLLM) Generate(_ context.Context, _, prompt string, _ rag.GenerationParams) (rag.Response, error) {
	e.prompts = append(e.prompts, prompt)
	return rag.TextResponse("answer"), nil
}

func TestIngestThenRetrieve(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	svc := rag.NewService(store, wordHashEmbedder{}, &echoLLM{}, rag.Settings{
		ChatModel:      "m",
		RetrievalLimit: 2,
		EmbeddingDim:   testDim,
	}, zap.NewNop())

	require.NoError(t, svc.EnsureCollection(ctx, 0))

	n, err := svc.Ingest(ctx, []string{"hello world", "bipedal locomotion control", "sensor fusion with lidar"})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	texts, err := svc.Retrieve(ctx, "hello", 0)
	require.NoError(t, err)
	require.NotEmpty(t, texts)
	assert.Equal(t, "hello world", texts[0])
	assert.Len(t, texts, 2)
}

func TestAskUsesStoredChunks(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	llm := &echoLLM{}
	svc := rag.NewService(store, wordHashEmbedder{}, llm, rag.Settings{
		ChatModel:      "m",
		RetrievalLimit: 1,
		EmbeddingDim:   testDim,
		AnswerLang:     rag.LangOff,
	}, zap.NewNop())

	_, err := svc.Ingest(ctx, []string{"a humanoid robot has two legs and two arms", "gradient descent"})
	require.NoError(t, err)

	resp, err := svc.Ask(ctx, rag.AskRequest{Question: "what is a humanoid robot"})
	require.NoError(t, err)

	assert.Equal(t, rag.SourceRetrieval, resp.ContextSource)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "a humanoid robot has two legs and two arms")
	assert.NotContains(t, llm.prompts[0], "gradient descent")
}
