package rag

import (
	"context"
	"strings"
	"unicode/utf8"
)

const (
	contextSeparator = "\n\n---\n\n"
	truncationMarker = "\n\n[... context truncated ...]"

	DefaultMaxContextChars = 8000
)

// Assembler decides what context text accompanies a question.
type Assembler struct {
	retrieve func(ctx context.Context, query string) []string
	maxChars int
}

func NewAssembler(retriever *Retriever, maxChars int) *Assembler {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}
	return &Assembler{
		retrieve: retriever.retrieveOrDegrade,
		maxChars: maxChars,
	}
}

// Assemble returns an empty context together with SourceNone when nothing
// could be gathered.
//
// Selection-only requests never touch the vector store. A selection in
// normal mode is combined with retrieval hits when there are any.
func (a *Assembler) Assemble(ctx context.Context, question, selected string, mode Mode) (string, ContextSource) {
	selected = strings.TrimSpace(selected)

	var (
		text   string
		source ContextSource
	)

	switch {
	case mode == ModeSelectionOnly:
		text, source = selected, SourceSelectionOnly

	case selected != "":
		hits := a.retrieve(ctx, question)
		if len(hits) > 0 {
			blocks := append([]string{selected}, hits...)
			text, source = strings.Join(blocks, contextSeparator), SourceSelectionAndRetrieval
		} else {
			text, source = selected, SourceSelectionFallback
		}

	default:
		hits := a.retrieve(ctx, question)
		if len(hits) == 0 {
			return "", SourceNone
		}
		text, source = strings.Join(hits, contextSeparator), SourceRetrieval
	}

	return truncateContext(text, a.maxChars), source
}

// truncateContext cuts s to max characters and marks the cut.
func truncateContext(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + truncationMarker
}
