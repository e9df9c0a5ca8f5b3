package controller

import (
	"github.com/gin-gonic/gin"
)

// CORS allows the browser front end on any origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func RegisterRoutes(router *gin.Engine, chat *ChatController) {
	router.Use(CORS())
	router.GET("/health", chat.Health)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/sessions", chat.CreateSession)
		apiV1.DELETE("/sessions/:id", chat.EndSession)
		apiV1.POST("/sessions/:id/document", chat.UploadDocument)
		apiV1.POST("/sessions/:id/ask", chat.Ask)
		apiV1.POST("/sessions/:id/search", chat.Search)
		apiV1.GET("/sessions/:id/history", chat.History)
	}
}
