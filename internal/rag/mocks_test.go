package rag

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockEmbeddings struct {
	mock.Mock
}

func (m *MockEmbeddings) Embed(ctx context.Context, text string, task TaskType) ([]float32, error) {
	args := m.Called(ctx, text, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) EnsureCollection(ctx context.Context, vectorSize int) error {
	return m.Called(ctx, vectorSize).Error(0)
}

func (m *MockStore) Upsert(ctx context.Context, points []Point) error {
	return m.Called(ctx, points).Error(0)
}

func (m *MockStore) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	args := m.Called(ctx, vector, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Hit), args.Error(1)
}

type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Generate(ctx context.Context, model, prompt string, params GenerationParams) (Response, error) {
	args := m.Called(ctx, model, prompt, params)
	return args.Get(0).(Response), args.Error(1)
}

// lastPrompt returns the prompt of the most recent Generate call.
func (m *MockLLM) lastPrompt() string {
	calls := m.Calls
	if len(calls) == 0 {
		return ""
	}
	return calls[len(calls)-1].Arguments.String(2)
}

func hitsOf(texts ...string) []Hit {
	hits := make([]Hit, 0, len(texts))
	for i, t := range texts {
		hits = append(hits, Hit{Text: t, Score: 1 - float32(i)*0.1})
	}
	return hits
}
