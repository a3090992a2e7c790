package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAssembler(store VectorStore, emb EmbeddingsClient, maxChars int) *Assembler {
	return NewAssembler(NewRetriever(store, emb, 4, zap.NewNop()), maxChars)
}

func TestAssemble_SelectionOnlyNeverSearches(t *testing.T) {
	store := new(MockStore)
	emb := new(MockEmbeddings)
	a := newTestAssembler(store, emb, 0)

	text, source := a.Assemble(context.Background(), "what is this?", "  a selected passage  ", ModeSelectionOnly)

	assert.Equal(t, "a selected passage", text)
	assert.Equal(t, SourceSelectionOnly, source)
	store.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	emb.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssemble_PolicyBranches(t *testing.T) {
	vec := []float32{0.1, 0.2}

	tests := []struct {
		name       string
		selected   string
		hits       []Hit
		wantText   string
		wantSource ContextSource
	}{
		{
			name:       "selection plus hits",
			selected:   "passage",
			hits:       hitsOf("hit one", "hit two"),
			wantText:   "passage" + contextSeparator + "hit one" + contextSeparator + "hit two",
			wantSource: SourceSelectionAndRetrieval,
		},
		{
			name:       "selection without hits",
			selected:   "passage",
			hits:       []Hit{},
			wantText:   "passage",
			wantSource: SourceSelectionFallback,
		},
		{
			name:       "blank selection treated as absent",
			selected:   "   ",
			hits:       hitsOf("hit one"),
			wantText:   "hit one",
			wantSource: SourceRetrieval,
		},
		{
			name:       "no selection no hits",
			selected:   "",
			hits:       []Hit{},
			wantText:   "",
			wantSource: SourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			emb := new(MockEmbeddings)
			emb.On("Embed", mock.Anything, "question", TaskQuery).Return(vec, nil)
			store.On("Search", mock.Anything, vec, 4).Return(tt.hits, nil)

			a := newTestAssembler(store, emb, 0)
			text, source := a.Assemble(context.Background(), "question", tt.selected, ModeNormal)

			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantSource, source)
			store.AssertNumberOfCalls(t, "Search", 1)
		})
	}
}

func TestAssemble_RetrievalFailureDegrades(t *testing.T) {
	store := new(MockStore)
	emb := new(MockEmbeddings)
	emb.On("Embed", mock.Anything, mock.Anything, TaskQuery).Return([]float32{1}, nil)
	store.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	a := newTestAssembler(store, emb, 0)

	text, source := a.Assemble(context.Background(), "q", "", ModeNormal)
	assert.Empty(t, text)
	assert.Equal(t, SourceNone, source)

	text, source = a.Assemble(context.Background(), "q", "sel", ModeNormal)
	assert.Equal(t, "sel", text)
	assert.Equal(t, SourceSelectionFallback, source)
}

func TestAssemble_NoStoreConfigured(t *testing.T) {
	emb := new(MockEmbeddings)
	a := newTestAssembler(nil, emb, 0)

	text, source := a.Assemble(context.Background(), "q", "", ModeNormal)

	assert.Empty(t, text)
	assert.Equal(t, SourceNone, source)
	emb.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssemble_TruncatesLongContext(t *testing.T) {
	long := strings.Repeat("abcdefghij", 900) // 9000 chars
	store := new(MockStore)
	emb := new(MockEmbeddings)
	emb.On("Embed", mock.Anything, mock.Anything, TaskQuery).Return([]float32{1}, nil)
	store.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(hitsOf(long), nil)

	a := newTestAssembler(store, emb, 8000)
	text, _ := a.Assemble(context.Background(), "q", "", ModeNormal)

	require.True(t, strings.HasSuffix(text, truncationMarker))
	body := strings.TrimSuffix(text, truncationMarker)
	assert.Len(t, body, 8000)
	assert.True(t, strings.HasPrefix(long, body))
}

func TestTruncateContext(t *testing.T) {
	assert.Equal(t, "short", truncateContext("short", 10))
	assert.Equal(t, "exactly10!", truncateContext("exactly10!", 10))
	assert.Equal(t, "ab"+truncationMarker, truncateContext("abc", 2))

	// counts characters, not bytes
	assert.Equal(t, "éé"+truncationMarker, truncateContext("ééé", 2))
}
