// Package server assembles the gin router and owns the HTTP listener.
package server

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-registry-api/internal/handler"
	"github.com/noah-isme/sma-registry-api/internal/middleware"
	"github.com/noah-isme/sma-registry-api/internal/models"
	"github.com/noah-isme/sma-registry-api/pkg/logger"
	"github.com/noah-isme/sma-registry-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Auth             *handler.AuthHandler
	Users            *handler.UserHandler
	Subjects         *handler.SubjectHandler
	Schools          *handler.SchoolHandler
	StudentClasses   *handler.StudentClassHandler
	AcademicTerms    *handler.AcademicTermHandler
	AcademicSessions *handler.AcademicSessionHandler
	Calendar         *handler.AcademicCalendarHandler
	Metrics          *handler.MetricsHandler
}

// RouterConfig carries the collaborators shared by all routes.
type RouterConfig struct {
	APIPrefix  string
	EnableDocs bool
	Logger     *zap.Logger
	Tokens     middleware.TokenValidator
	Audit      middleware.AuditRecorder
	Observer   middleware.HTTPObserver
}

// NewRouter mounts the API under cfg.APIPrefix.
func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger, "/health", "/metrics"))
	if cfg.Observer != nil {
		r.Use(middleware.Metrics(cfg.Observer))
	}
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(cfg.Tokens))

	secured.POST("/auth/logout", h.Auth.Logout)
	secured.POST("/auth/change-password", h.Auth.ChangePassword)
	secured.GET("/auth/me", h.Auth.Me)

	admin := middleware.RequireRoles(models.RoleAdmin)
	adminOrStaff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)

	named := []struct {
		path     string
		resource string
		handler  namedHandler
	}{
		{"/subjects", "subject", h.Subjects},
		{"/schools", "school", h.Schools},
		{"/student-classes", "student_class", h.StudentClasses},
		{"/academic-terms", "academic_term", h.AcademicTerms},
		{"/academic-sessions", "academic_session", h.AcademicSessions},
	}
	for _, n := range named {
		group := secured.Group(n.path)
		group.GET("", n.handler.List)
		group.GET("/:id", n.handler.Get)
		group.POST("", admin, middleware.Audit(cfg.Audit, "CREATE", n.resource), n.handler.Create)
		group.PUT("/:id", admin, middleware.Audit(cfg.Audit, "UPDATE", n.resource), n.handler.Update)
		group.DELETE("/:id", admin, middleware.Audit(cfg.Audit, "DELETE", n.resource), n.handler.Delete)
	}

	secured.GET("/schools/:id/classes", h.Schools.Classes)
	secured.GET("/student-classes/:id/students", adminOrStaff, h.StudentClasses.Students)
	secured.GET("/student-classes/:id/roster", adminOrStaff, middleware.Audit(cfg.Audit, "EXPORT", "student_class"), h.StudentClasses.Roster)
	secured.GET("/academic/current", h.Calendar.Current)

	users := secured.Group("/users")
	users.GET("", admin, h.Users.List)
	users.POST("", admin, h.Users.Create)
	users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), middleware.Self), h.Users.Get)
	users.PUT("/:id", admin, h.Users.Update)
	users.PUT("/:id/student-class", admin, h.Users.AssignClass)
	users.GET("/:id/subjects", middleware.RBAC(string(models.RoleAdmin), middleware.Self), h.Users.Subjects)
	users.PUT("/:id/subjects", admin, h.Users.AssignSubjects)
	users.DELETE("/:id", admin, h.Users.Delete)

	secured.GET("/metrics/summary", admin, h.Metrics.Summary)

	return r
}

type namedHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}
