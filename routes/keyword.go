package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gamo-keyword-api/internal/config"
	"gamo-keyword-api/models"
	"gamo-keyword-api/utils"
)

// SetupKeywordRoutes registers the extraction intake. When enqueuer is nil,
// extraction runs inside the request.
func SetupKeywordRoutes(router *gin.Engine, cfg *config.Config, extractor KeywordExtractor, enqueuer ExtractionEnqueuer) {
	api := router.Group("/api")

	api.POST("/keyword", func(c *gin.Context) {
		var req models.ProcessCallRequest
		if !bindJSON(c, &req) {
			return
		}

		if enqueuer != nil {
			ctx, cancel := utils.WithTimeout(c.Request.Context())
			defer cancel()

			taskID, err := enqueuer.EnqueueExtraction(ctx, *req.CallID, req.Text)
			if err != nil {
				utils.RespondWithError(c, http.StatusServiceUnavailable, "queue_unavailable",
					"Could not schedule keyword extraction", nil)
				_ = c.Error(err)
				return
			}

			c.JSON(http.StatusAccepted, models.ProcessCallResponse{
				Status: http.StatusAccepted,
				CallID: *req.CallID,
				TaskID: taskID,
			})
			return
		}

		ctx, cancel := utils.WithGenerationTimeout(c.Request.Context(), cfg.GeminiCallTimeout())
		defer cancel()

		records, err := extractor.ProcessCall(ctx, *req.CallID, req.Text)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.ProcessCallResponse{
			Status:   http.StatusOK,
			CallID:   *req.CallID,
			Keywords: models.Texts(records),
		})
	})

	api.GET("/keyword", func(c *gin.Context) {
		callIDs, err := parseCallIDs(c.QueryArray("callIds"))
		if err != nil {
			utils.RespondWithBadRequest(c, "callIds must be a comma separated list of integers", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		records, err := extractor.FindByCallIDs(ctx, callIDs)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.KeywordListResponse{
			Status:   http.StatusOK,
			Keywords: records,
		})
	})
}
