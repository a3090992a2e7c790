package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	g := NewGenerator(nil, "m", DefaultGenerationParams, LangOff)

	withCtx := g.BuildPrompt("What is ROS?", "ROS is a robotics middleware.")
	assert.Contains(t, withCtx, systemInstruction)
	assert.Contains(t, withCtx, "Book context:\nROS is a robotics middleware.")
	assert.Contains(t, withCtx, "Question: What is ROS?")
	assert.NotContains(t, withCtx, noContextInstruction)

	noCtx := g.BuildPrompt("What is ROS?", "")
	assert.Contains(t, noCtx, noContextInstruction)
	assert.NotContains(t, noCtx, "Book context:")
	assert.Contains(t, noCtx, "Question: What is ROS?")
}

func TestBuildPrompt_Language(t *testing.T) {
	fixed := NewGenerator(nil, "m", DefaultGenerationParams, "Urdu")
	assert.Contains(t, fixed.BuildPrompt("q", ""), "Respond in Urdu.")

	off := NewGenerator(nil, "m", DefaultGenerationParams, LangOff)
	assert.NotContains(t, off.BuildPrompt("q", ""), "Respond in")

	unset := NewGenerator(nil, "m", DefaultGenerationParams, "")
	assert.NotContains(t, unset.BuildPrompt("q", ""), "Respond in")
}

func TestExtractAnswer(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want string
	}{
		{"text", TextResponse("hello"), "hello"},
		{"first part of first candidate", CandidatesResponse([]Candidate{{Parts: []string{"a", "b"}}, {Parts: []string{"c"}}}), "a"},
		{"candidate without parts", CandidatesResponse([]Candidate{{Raw: `{"finishReason":"SAFETY"}`}}), `{"finishReason":"SAFETY"}`},
		{"no candidates", CandidatesResponse(nil), ""},
		{"unknown", UnknownResponse("raw object"), "raw object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractAnswer(tt.resp))
		})
	}
}

func TestGenerate_EmptyAnswerBecomesNotice(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Generate", mock.Anything, "m", mock.Anything, DefaultGenerationParams).Return(TextResponse("   "), nil)

	g := NewGenerator(llm, "m", DefaultGenerationParams, LangOff)
	answer, err := g.Generate(context.Background(), "q", "")

	require.NoError(t, err)
	assert.Equal(t, emptyResponseNotice, answer)
}

func TestGenerate_PassesErrorThrough(t *testing.T) {
	llm := new(MockLLM)
	boom := errors.New("404 not found")
	llm.On("Generate", mock.Anything, "m", mock.Anything, DefaultGenerationParams).Return(Response{}, boom)

	g := NewGenerator(llm, "m", DefaultGenerationParams, LangOff)
	_, err := g.Generate(context.Background(), "q", "ctx")

	assert.ErrorIs(t, err, boom)
}
