package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gamo-keyword-api/internal/config"
	"gamo-keyword-api/models"
	"gamo-keyword-api/utils"
)

func SetupLetterRoutes(router *gin.Engine, cfg *config.Config, letters LetterCorrector) {
	router.POST("/api/letter", func(c *gin.Context) {
		var req models.LetterRequest
		if !bindJSON(c, &req) {
			return
		}

		ctx, cancel := utils.WithGenerationTimeout(c.Request.Context(), cfg.GeminiCallTimeout())
		defer cancel()

		letter, err := letters.Correct(ctx, req.Text)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.LetterResponse{
			Status: http.StatusOK,
			Letter: letter,
		})
	})
}
