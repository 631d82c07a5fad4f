package routes

import (
	"net/http"

	"notes-qa-platform/internal/logger"
	"notes-qa-platform/middleware"
	"notes-qa-platform/services"
	"notes-qa-platform/utils"

	"github.com/gin-gonic/gin"
)

type askRequest struct {
	Question string `json:"question"`
}

// SetupChatRoutes wires the question-answering endpoint. The answer pipeline
// never fails: every internal error is already converted into a fixed
// natural-language response, so this endpoint always returns 200 with text.
func SetupChatRoutes(router *gin.Engine, rag *services.RAGService) {
	chat := router.Group("/chat")

	chat.POST("/ask", func(c *gin.Context) {
		var req askRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		answer := rag.AnswerQuery(c.Request.Context(), req.Question)
		logger.Debug("question answered", "request_id", middleware.GetRequestID(c))
		c.JSON(http.StatusOK, gin.H{"answer": answer})
	})
}
