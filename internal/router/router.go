package router

import (
	"onchan/internal/app/board"
	"onchan/internal/app/health"
	"onchan/internal/app/post"
	"onchan/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(logger *zap.Logger) *Router {
	engine := gin.New()
	engine.Use(middleware.CORSMiddleware())
	engine.Use(middleware.LoggerMiddleware(logger))
	engine.Use(gin.Recovery())
	return &Router{Engine: engine}
}

func (r *Router) RegisterHealthRoutes(handler *health.Handler) {
	health.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterBoardRoutes(handler board.Handler) {
	board.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterPostRoutes(handler post.Handler) {
	post.RegisterRoutes(r.Engine.Group("/api"), handler)
}

// RegisterStaticRoutes serves image files when the disk backend is in use.
func (r *Router) RegisterStaticRoutes(imageDir string) {
	r.Engine.Static("/public/img", imageDir)
}

func (r *Router) Serve(addr string) error {
	return r.Engine.Run(addr)
}
