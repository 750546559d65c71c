package router

import (
	"time"

	"eventboard/internal/handlers"
	"eventboard/internal/logger"
	"eventboard/internal/middleware"
	"eventboard/internal/ratelimit"
	"eventboard/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"gorm.io/gorm"
)

type Dependencies struct {
	DB           *gorm.DB
	Users        *services.UserService
	Events       *services.EventService
	Questions    *services.QuestionService
	Limiter      ratelimit.Limiter // nil turns rate limiting off
	Log          *logger.Logger
	AllowOrigins []string
}

// New builds the engine with the global middleware chain and all routes.
func New(deps Dependencies) *gin.Engine {
	// Request bodies with fields we do not know are rejected, not ignored.
	binding.EnableDecoderDisallowUnknownFields = true

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(cors.New(corsConfig(deps.AllowOrigins)))
	if deps.Limiter != nil {
		r.Use(middleware.RateLimit(deps.Limiter, deps.Log))
	}
	r.Use(middleware.LoadUser(deps.Users, deps.Log))

	RegisterRoutes(r, deps)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Log)
	eventHandler := handlers.NewEventHandler(deps.Events, deps.Log)
	questionHandler := handlers.NewQuestionHandler(deps.Questions, deps.Log)
	voteHandler := handlers.NewVoteHandler(deps.Questions, deps.Log)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Log)

	// Public routes; a valid token still identifies the caller.
	r.GET("/health", healthHandler.Check)
	r.POST("/users", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.GET("/search", eventHandler.Search)    // event listing
	r.GET("/event/:id", eventHandler.Detail) // attendees only for the creator
	r.GET("/event/:id/questions", questionHandler.List)

	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/logout", authHandler.Logout)
		authorized.POST("/events", eventHandler.Create)
		authorized.POST("/event/:id", eventHandler.Register)  // register attendance
		authorized.DELETE("/event/:id", eventHandler.Archive) // archive, creator only
		authorized.PATCH("/event/:id", eventHandler.Update)   // partial update, creator only
		authorized.POST("/event/:id/question", questionHandler.Ask)
		authorized.DELETE("/question/:id", questionHandler.Delete)
		authorized.POST("/question/:id/vote", voteHandler.Upvote)
		authorized.DELETE("/question/:id/vote", voteHandler.Downvote)
	}
}
