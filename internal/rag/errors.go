package rag

import "errors"

var (
	ErrEmptyQuestion    = errors.New("question is empty")
	ErrMissingSelection = errors.New("selection_only requires non-empty selected_text")
	ErrStoreUnavailable = errors.New("vector store not configured")
	ErrNoModels         = errors.New("no generative models available for this API key")
)

// IsValidation reports whether err is a rejected request rather than a
// pipeline failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyQuestion) || errors.Is(err, ErrMissingSelection)
}
