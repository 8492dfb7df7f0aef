package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gamo-keyword-api/internal/config"
	"gamo-keyword-api/models"
	"gamo-keyword-api/utils"
)

// SetupAgendaRoutes registers the agenda endpoints under their wire name
// "ajenda".
func SetupAgendaRoutes(router *gin.Engine, cfg *config.Config, agenda AgendaRecommender) {
	api := router.Group("/api/ajenda")

	api.POST("", func(c *gin.Context) {
		var req models.RecommendRequest
		if !bindJSON(c, &req) {
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		keywords, err := agenda.Recommend(ctx, req.CallIDs)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.RecommendResponse{
			Status:              http.StatusOK,
			RecommendedKeywords: keywords,
		})
	})

	api.POST("/topic", func(c *gin.Context) {
		var req models.RecommendRequest
		if !bindJSON(c, &req) {
			return
		}

		ctx, cancel := utils.WithGenerationTimeout(c.Request.Context(), cfg.GeminiCallTimeout())
		defer cancel()

		keywords, topic, err := agenda.RenderTopic(ctx, req.CallIDs)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.RecommendResponse{
			Status:              http.StatusOK,
			RecommendedKeywords: keywords,
			RecommendedTopic:    topic,
		})
	})
}
