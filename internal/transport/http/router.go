package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter assembles the full route table. Origins are locked down via
// config in real deployments; an empty list allows everything for local use.
func NewRouter(h *Handler, ws *WSHandler, allowedOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	router.GET("/health", h.Health)
	router.GET("/ws", ws.Serve)

	api := router.Group("/api")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.GET("/quizzes/:id/public", h.PublicQuiz)
		api.GET("/sessions/:code", h.GetSession)
		api.GET("/sessions/:code/participants", h.ListParticipants)
		api.POST("/participants/join", h.JoinSession)
		api.POST("/answers/submit", h.SubmitAnswer)
		api.GET("/scores/leaderboard", h.Leaderboard)
	}

	authed := api.Group("")
	authed.Use(h.RequireAuth)
	{
		authed.POST("/quizzes", h.CreateQuiz)
		authed.GET("/quizzes", h.ListQuizzes)
		authed.POST("/questions", h.CreateQuestion)
		authed.PUT("/questions/:id", h.UpdateQuestion)
		authed.DELETE("/questions/:id", h.DeleteQuestion)
		authed.POST("/sessions", h.CreateSession)
		authed.PUT("/sessions/:code/status", h.UpdateSessionStatus)
		authed.PUT("/sessions/:code/question", h.AdvanceQuestion)
	}

	return router
}
