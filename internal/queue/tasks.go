package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"gamo-keyword-api/internal/ai"
	"gamo-keyword-api/internal/logger"
	"gamo-keyword-api/models"
	"gamo-keyword-api/services"
)

const (
	TaskExtractKeywords = "keyword:extract"

	QueueDefault = "default"
)

type ExtractPayload struct {
	CallID int64  `json:"call_id"`
	Text   string `json:"text"`
}

// Task creators
func NewExtractTask(callID int64, text string) (*asynq.Task, error) {
	payload, err := json.Marshal(ExtractPayload{
		CallID: callID,
		Text:   text,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskExtractKeywords,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
		asynq.Queue(QueueDefault),
		asynq.TaskID(uuid.NewString()),
	), nil
}

// Client enqueues extraction jobs for the worker.
type Client struct {
	client *asynq.Client
}

func NewClient(opt asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(opt)}
}

// EnqueueExtraction schedules a transcript for extraction and returns the task id.
func (c *Client) EnqueueExtraction(ctx context.Context, callID int64, text string) (string, error) {
	task, err := NewExtractTask(callID, text)
	if err != nil {
		return "", err
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", TaskExtractKeywords, err)
	}

	logger.Info("extraction enqueued", "call_id", callID, "task_id", info.ID, "queue", info.Queue)
	return info.ID, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Extractor is the part of the extraction service the worker runs.
type Extractor interface {
	ProcessCall(ctx context.Context, callID int64, transcript string) ([]models.Keyword, error)
}

// Task handlers
type TaskProcessor struct {
	extractor Extractor
}

func NewTaskProcessor(extractor Extractor) *TaskProcessor {
	return &TaskProcessor{extractor: extractor}
}

// Register wires every task type to its handler.
func (p *TaskProcessor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskExtractKeywords, p.ExtractKeywords)
}

func (p *TaskProcessor) ExtractKeywords(ctx context.Context, t *asynq.Task) error {
	var payload ExtractPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	records, err := p.extractor.ProcessCall(ctx, payload.CallID, payload.Text)
	if err != nil {
		if permanent(err) {
			logger.Warn("extraction dropped", "call_id", payload.CallID, "error", err)
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err // Will retry
	}

	logger.Info("extraction task done", "call_id", payload.CallID, "keywords", len(records))
	return nil
}

// permanent errors fail the same way on every attempt.
func permanent(err error) bool {
	return errors.Is(err, ai.ErrMalformedExtraction) || errors.Is(err, services.ErrEmptyTranscript)
}
