package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/handler"
	"github.com/oerms/oerms-backend/internal/middleware"
	"github.com/oerms/oerms-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session *handler.SessionHandler
	Proctor *handler.ProctorHandler
	Monitor *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for violation reports. A misbehaving client tab can fire
	// focus events in a tight loop; cap it per IP.
	violationLimiter := middleware.NewRateLimiter(cfg.ViolationRateLimit, time.Minute)

	// ─── 1. Student Group (JWT) ────────────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireStudentJWT(cfg.JWTSecret))
	{
		studentAPI.POST("/exams/:exam_id/sessions", handlers.Session.StartSession)
		studentAPI.GET("/sessions/:session_id/paper", handlers.Session.GetSessionPaper)
		studentAPI.GET("/sessions/:session_id/state", handlers.Session.GetSessionState)
		studentAPI.GET("/sessions/:session_id/result", handlers.Session.GetSessionResult)
		studentAPI.PUT("/sessions/:session_id/answers", handlers.Session.AutosaveAnswer)
		studentAPI.POST("/sessions/:session_id/submit", handlers.Session.SubmitSession)
		studentAPI.POST("/sessions/:session_id/violations",
			violationLimiter.Middleware(),
			handlers.Proctor.ReportViolation,
		)
	}

	// ─── 2. Faculty Group (JWT) ────────────────────────────────────────
	facultyAPI := router.Group("/api/v1/faculty")
	facultyAPI.Use(middleware.RequireFacultyJWT(cfg.JWTSecret))
	{
		facultyAPI.GET("/sessions/:session_id/violations", handlers.Proctor.ListSessionViolations)
	}

	// ─── 3. WebSocket Group (Faculty) ──────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireFacultyJWT(cfg.JWTSecret))
	{
		ws.GET("/faculty/exams/:exam_id/monitor", handlers.Monitor.MonitorExamStream)
	}

	return router
}
