package ai

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// NumTokens counts prompt tokens for the given model. Used to warn when an
// extraction prompt outgrows the model context window.
func NumTokens(text string, model string) (int, error) {
	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return 0, fmt.Errorf("failed to load encoding for model %s, %w", model, err)
	}
	return len(tkm.Encode(text, nil, nil)), nil
}
