package routes

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gamo-keyword-api/models"
	"gamo-keyword-api/utils"
)

// KeywordExtractor is implemented by services.ExtractionService.
type KeywordExtractor interface {
	ProcessCall(ctx context.Context, callID int64, transcript string) ([]models.Keyword, error)
	FindByCallIDs(ctx context.Context, callIDs []int64) ([]models.Keyword, error)
}

// ExtractionEnqueuer is implemented by queue.Client.
type ExtractionEnqueuer interface {
	EnqueueExtraction(ctx context.Context, callID int64, text string) (string, error)
}

// AgendaRecommender is implemented by services.AgendaService.
type AgendaRecommender interface {
	Recommend(ctx context.Context, callIDs []int64) ([]string, error)
	RenderTopic(ctx context.Context, callIDs []int64) ([]string, string, error)
}

// LetterCorrector is implemented by services.LetterService.
type LetterCorrector interface {
	Correct(ctx context.Context, text string) (string, error)
}

// ReadinessChecker is implemented by jobs.StoreProbe.
type ReadinessChecker interface {
	Status() (ready bool, checkedAt time.Time, err error)
}

// bindJSON decodes the body into obj and writes the error response itself
// when that fails.
func bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "request_too_large",
			"Request body exceeds maximum size", gin.H{"max_size": tooLarge.Limit})
		return false
	}

	utils.RespondWithError(c, http.StatusBadRequest, "invalid_input", "Invalid request data",
		gin.H{"error": err.Error()})
	return false
}

// parseCallIDs accepts ?callIds=1,2 as well as repeated callIds parameters.
func parseCallIDs(values []string) ([]int64, error) {
	var ids []int64
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
