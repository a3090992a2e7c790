package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/josinaldojr/book-rag/internal/rag"
	"go.uber.org/zap"
)

// FallbackChatModels are tried in order after any configured override.
var FallbackChatModels = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-1.5-flash",
	"gemini-1.5-pro",
	"gemini-pro",
}

type ModelLister interface {
	ListGenerativeModels(ctx context.Context) ([]string, error)
}

// NormalizeModelName strips the "models/" resource prefix.
func NormalizeModelName(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), "models/")
}

// PreferenceList puts the override (if any) ahead of the fallbacks, without
// duplicates.
func PreferenceList(override string) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(name string) {
		name = NormalizeModelName(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}

	add(override)
	for _, m := range FallbackChatModels {
		add(m)
	}
	return out
}

// ResolveModel returns the first preferred name that is available, else the
// first available model. It fails with rag.ErrNoModels when nothing is
// available.
func ResolveModel(preferred, available []string, logger *zap.Logger) (string, error) {
	if len(available) == 0 {
		return "", rag.ErrNoModels
	}

	set := make(map[string]bool, len(available))
	for _, a := range available {
		set[NormalizeModelName(a)] = true
	}

	for _, p := range preferred {
		if set[NormalizeModelName(p)] {
			return NormalizeModelName(p), nil
		}
	}

	chosen := NormalizeModelName(available[0])
	if logger != nil {
		logger.Warn("no preferred model available, falling back to first listed model",
			zap.Strings("preferred", preferred),
			zap.String("model", chosen),
		)
	}
	return chosen, nil
}

// ResolveChatModel probes the provider once. When listing fails the
// override is trusted as-is; without an override the error is returned.
func ResolveChatModel(ctx context.Context, lister ModelLister, override string, logger *zap.Logger) (string, error) {
	available, err := lister.ListGenerativeModels(ctx)
	if err != nil {
		if name := NormalizeModelName(override); name != "" {
			logger.Warn("could not list models, using configured model", zap.String("model", name), zap.Error(err))
			return name, nil
		}
		return "", fmt.Errorf("resolve chat model: %w", err)
	}

	model, err := ResolveModel(PreferenceList(override), available, logger)
	if err != nil {
		return "", err
	}
	logger.Info("chat model resolved", zap.String("model", model), zap.Int("available", len(available)))
	return model, nil
}
