package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"student-dashboard/internal/handler"
	"student-dashboard/internal/hub"
	"student-dashboard/internal/middleware"
	"student-dashboard/internal/workspace"
)

const defaultResolveWait = 2 * time.Second

type Deps struct {
	Registry *workspace.Registry
	Hub      *hub.Hub
	Cookies  middleware.CookieConfig
	// LoginLimiter throttles login attempts per client IP. The caller
	// owns it and must Stop it once the router is no longer served.
	LoginLimiter *middleware.RateLimiter
	ResolveWait  time.Duration
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.SetHTMLTemplate(handler.Templates())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	if deps.LoginLimiter == nil {
		panic("server: Deps.LoginLimiter is required")
	}
	loginLimiter := deps.LoginLimiter
	resolveWait := deps.ResolveWait
	if resolveWait <= 0 {
		resolveWait = defaultResolveWait
	}

	app := r.Group("/")
	app.Use(middleware.LoadWorkspace(deps.Registry, deps.Cookies, resolveWait))

	pages := &handler.PageHandler{Cookies: deps.Cookies}
	app.GET("/", pages.Entry)
	app.POST("/login", middleware.RateLimit(loginLimiter, pages.LoginRateLimited), pages.Login)
	app.POST("/logout", pages.Logout)
	app.GET("/students", pages.Students)
	app.POST("/students", pages.CreateStudent)
	app.POST("/students/dialog/dismiss", pages.DismissDialog)
	app.GET("/students/:id", pages.ViewStudent)
	app.GET("/students/:id/edit", pages.EditStudent)
	app.POST("/students/:id", pages.UpdateStudent)
	app.POST("/students/:id/delete", pages.DeleteStudent)
	app.POST("/notices/:id/dismiss", pages.DismissNotice)

	api := &handler.APIHandler{Cookies: deps.Cookies}
	v1 := app.Group("/api/v1")
	v1.GET("/session", api.GetSession)
	v1.POST("/session", middleware.RateLimit(loginLimiter, nil), api.Login)
	v1.DELETE("/session", api.Logout)
	v1.GET("/notices", api.Notices)
	v1.DELETE("/notices/:id", api.DismissNotice)

	protected := v1.Group("")
	protected.Use(middleware.RequireAuthenticated())
	protected.GET("/students", api.ListStudents)
	protected.POST("/students", api.CreateStudent)
	protected.GET("/students/:id", api.GetStudent)
	protected.PUT("/students/:id", api.UpdateStudent)
	protected.DELETE("/students/:id", api.DeleteStudent)
	protected.GET("/stats", api.Stats)

	wsHandler := &handler.WebSocketHandler{Hub: deps.Hub}
	app.GET("/ws", wsHandler.Serve)

	return r
}
