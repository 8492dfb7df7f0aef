package services

import (
	"context"
	"fmt"
	"strings"

	"gamo-keyword-api/internal/ai"
)

// LetterService cleans up letters dictated through speech-to-text.
type LetterService struct {
	generator ai.TextGenerator
}

func NewLetterService(generator ai.TextGenerator) *LetterService {
	return &LetterService{generator: generator}
}

// Correct returns the polished letter.
func (ls *LetterService) Correct(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyLetter
	}

	raw, err := ls.generator.Generate(ctx, ai.BuildLetterPrompt(text))
	if err != nil {
		return "", fmt.Errorf("correct letter: %w", err)
	}

	letter, err := ai.ParseLetterReply(raw)
	if err != nil {
		return "", fmt.Errorf("correct letter: %w", err)
	}
	return letter, nil
}
