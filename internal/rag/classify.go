package rag

import (
	"fmt"
	"strings"
)

// FailureKind buckets a generation error by what the user can do about it.
// The provider does not expose typed errors, so classification works on the
// error text.
type FailureKind int

const (
	FailureUnknown FailureKind = iota
	FailureModelNotFound
	FailureAuthConfiguration
	FailureTransientNetwork
)

func (k FailureKind) String() string {
	switch k {
	case FailureModelNotFound:
		return "model_not_found"
	case FailureAuthConfiguration:
		return "auth_configuration"
	case FailureTransientNetwork:
		return "transient_network"
	default:
		return "unknown_generation"
	}
}

const maxErrorExcerpt = 200

// ClassifyGenerationError matches case-insensitively, first bucket wins.
func ClassifyGenerationError(err error) FailureKind {
	if err == nil {
		return FailureUnknown
	}
	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, "404", "not found"):
		return FailureModelNotFound
	case containsAny(msg, "401", "unauthorized", "api key"):
		return FailureAuthConfiguration
	case containsAny(msg, "timeout", "network"):
		return FailureTransientNetwork
	default:
		return FailureUnknown
	}
}

// FailureMessage is the user-facing answer for a classified failure.
func FailureMessage(kind FailureKind, model string, err error) string {
	switch kind {
	case FailureModelNotFound:
		return fmt.Sprintf(
			"Model configuration error: the AI model '%s' was not found. "+
				"Please check the GEMINI_MODEL setting.", model)
	case FailureAuthConfiguration:
		return "Authentication error: invalid or missing GEMINI_API_KEY. " +
			"Please check that the API key is correct."
	case FailureTransientNetwork:
		return "Network timeout: could not reach the AI service. " +
			"Please try again in a moment."
	default:
		excerpt := ""
		if err != nil {
			excerpt = truncateRunes(err.Error(), maxErrorExcerpt)
		}
		return fmt.Sprintf(
			"I encountered an error: %s. Please check the API configuration and try again.", excerpt)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
