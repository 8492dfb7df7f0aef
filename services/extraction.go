package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gamo-keyword-api/internal/ai"
	"gamo-keyword-api/internal/config"
	"gamo-keyword-api/internal/logger"
	"gamo-keyword-api/internal/selector"
	"gamo-keyword-api/internal/store"
	"gamo-keyword-api/internal/telemetry"
	"gamo-keyword-api/models"
)

// ExtractionService turns call transcripts into stored keyword records.
type ExtractionService struct {
	generator  ai.TextGenerator
	store      store.Store
	metrics    *telemetry.Metrics
	maxRetries int
	newID      func() string
	mode       string
}

// NewExtractionService creates a new extraction service. maxRetries below 1
// is treated as 1.
func NewExtractionService(generator ai.TextGenerator, st store.Store, metrics *telemetry.Metrics, maxRetries int) *ExtractionService {
	return &ExtractionService{
		generator:  generator,
		store:      st,
		metrics:    metrics,
		maxRetries: max(maxRetries, 1),
		newID:      store.NewKeywordID,
		mode:       config.ExtractionSync,
	}
}

// SetMode labels stored-keyword metrics with the pipeline that ran the
// extraction (sync handler or async worker).
func (es *ExtractionService) SetMode(mode string) {
	es.mode = mode
}

// ProcessCall extracts weighted keywords from one transcript and stores them
// as a single batch. The generator runs before any store write, so a failed
// extraction leaves nothing behind.
func (es *ExtractionService) ProcessCall(ctx context.Context, callID int64, transcript string) ([]models.Keyword, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, ErrEmptyTranscript
	}

	raw, err := es.generator.Generate(ctx, ai.BuildExtractionPrompt(transcript))
	if err != nil {
		return nil, fmt.Errorf("extract keywords for call %d: %w", callID, err)
	}

	extracted, err := ai.ParseKeywordReply(raw)
	if err != nil {
		logger.Warn("unusable extraction reply", "call_id", callID, "error", err)
		return nil, fmt.Errorf("extract keywords for call %d: %w", callID, err)
	}

	records, err := es.storeWithFreshIDs(ctx, callID, extracted)
	if err != nil {
		return nil, err
	}

	logger.Info("keywords stored", "call_id", callID, "count", len(records))
	es.metrics.RecordKeywordsStored(ctx, len(records), es.mode)
	return records, nil
}

// storeWithFreshIDs retries the whole batch with new ids while the store
// reports an id collision.
func (es *ExtractionService) storeWithFreshIDs(ctx context.Context, callID int64, extracted []models.ExtractedKeyword) ([]models.Keyword, error) {
	var lastErr error
	for attempt := 1; attempt <= es.maxRetries; attempt++ {
		batch := make([]*models.Keyword, len(extracted))
		for i, kw := range extracted {
			batch[i] = &models.Keyword{
				ID:     es.newID(),
				Text:   kw.Text,
				Weight: kw.Weight,
				CallID: callID,
			}
		}

		err := es.store.InsertBatch(ctx, batch)
		es.metrics.RecordDatabaseOperation("insert_batch", config.KeywordsCollection, err == nil)
		if err == nil {
			out := make([]models.Keyword, len(batch))
			for i, kw := range batch {
				out[i] = *kw
			}
			return out, nil
		}
		if !errors.Is(err, store.ErrDuplicateID) {
			return nil, fmt.Errorf("store keywords for call %d: %w", callID, err)
		}

		logger.Warn("keyword id collision, regenerating", "call_id", callID, "attempt", attempt)
		lastErr = err
	}
	return nil, fmt.Errorf("store keywords for call %d: %w: ids still colliding after %d attempts: %w",
		callID, store.ErrStorage, es.maxRetries, lastErr)
}

// FindByCallIDs lists the stored records of the given calls in insertion order.
func (es *ExtractionService) FindByCallIDs(ctx context.Context, callIDs []int64) ([]models.Keyword, error) {
	if len(callIDs) == 0 {
		return nil, selector.ErrEmptyCallIDs
	}
	records, err := es.store.FindByCallIDs(ctx, callIDs)
	es.metrics.RecordDatabaseOperation("find", config.KeywordsCollection, err == nil)
	return records, err
}
