package llm

import (
	"testing"

	"github.com/josinaldojr/book-rag/internal/rag"
	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestDecodeResponse(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, rag.ResponseUnknown, decodeResponse(nil).Kind)
	})

	t.Run("text", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: "hello "}, {Text: "there"}}},
			}},
		}
		got := decodeResponse(resp)
		assert.Equal(t, rag.ResponseText, got.Kind)
		assert.Equal(t, "hello there", got.Text)
	})

	t.Run("candidate without content", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
		}
		got := decodeResponse(resp)
		assert.Equal(t, rag.ResponseCandidates, got.Kind)
		assert.Len(t, got.Candidates, 1)
		assert.Contains(t, got.Candidates[0].Raw, "SAFETY")
	})

	t.Run("no candidates", func(t *testing.T) {
		got := decodeResponse(&genai.GenerateContentResponse{})
		assert.Equal(t, rag.ResponseUnknown, got.Kind)
	})
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", normalizeWhitespace("  a \n\t b\r\nc  "))
	assert.Equal(t, "", normalizeWhitespace(" \n "))
}

func TestSupports(t *testing.T) {
	assert.True(t, supports([]string{"embedContent", "generateContent"}, generateContentAction))
	assert.False(t, supports([]string{"embedContent"}, generateContentAction))
}
