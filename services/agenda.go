package services

import (
	"context"
	"errors"
	"fmt"

	"gamo-keyword-api/internal/ai"
	"gamo-keyword-api/internal/logger"
	"gamo-keyword-api/internal/selector"
	"gamo-keyword-api/internal/store"
	"gamo-keyword-api/internal/telemetry"
	"gamo-keyword-api/models"
)

// AgendaService recommends what to talk about on the next call.
type AgendaService struct {
	finder    store.Finder
	generator ai.TextGenerator
	metrics   *telemetry.Metrics
}

func NewAgendaService(finder store.Finder, generator ai.TextGenerator, metrics *telemetry.Metrics) *AgendaService {
	return &AgendaService{
		finder:    finder,
		generator: generator,
		metrics:   metrics,
	}
}

// Recommend returns the texts of at most three keywords chosen from the
// given calls.
func (as *AgendaService) Recommend(ctx context.Context, callIDs []int64) ([]string, error) {
	selected, err := selector.Recommend(ctx, as.finder, callIDs)
	as.metrics.RecordRecommendation(ctx, outcome(err))
	if err != nil {
		return nil, err
	}

	logger.Debug("agenda selected", "call_ids", callIDs, "keyword_ids", keywordIDs(selected))
	return models.Texts(selected), nil
}

// RenderTopic recommends keywords and asks the generator to weave them into
// one opening question.
func (as *AgendaService) RenderTopic(ctx context.Context, callIDs []int64) ([]string, string, error) {
	keywords, err := as.Recommend(ctx, callIDs)
	if err != nil {
		return nil, "", err
	}

	raw, err := as.generator.Generate(ctx, ai.BuildTopicPrompt(keywords))
	if err != nil {
		return nil, "", fmt.Errorf("render topic: %w", err)
	}

	topic, err := ai.ParseSentenceReply(raw)
	if err != nil {
		return nil, "", fmt.Errorf("render topic: %w", err)
	}
	return keywords, topic, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, selector.ErrEmptyCallIDs):
		return "invalid"
	case errors.Is(err, selector.ErrNoKeywordsFound):
		return "not_found"
	default:
		return "error"
	}
}

func keywordIDs(records []models.Keyword) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
