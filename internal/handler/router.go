package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/examcell/centre-portal-api/api/swagger"
	"github.com/examcell/centre-portal-api/internal/middleware"
	"github.com/examcell/centre-portal-api/internal/models"
	"github.com/examcell/centre-portal-api/internal/service"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth        *AuthHandler
	Centres     *CentreHandler
	Batches     *BatchHandler
	Students    *StudentHandler
	HallTickets *HallTicketHandler
	Dashboards  *DashboardHandler
	Backups     *BackupHandler
}

// RegisterRoutes wires every endpoint onto the engine under the API prefix.
func RegisterRoutes(engine *gin.Engine, prefix string, h Handlers, auth *service.AuthService, metrics *middleware.Metrics) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group(prefix)
	if metrics != nil {
		api.Use(metrics.Handler())
	}

	public := api.Group("/auth")
	{
		public.POST("/admin/login", h.Auth.AdminLogin)
		public.POST("/admin/forgot-password", h.Auth.ForgotPassword)
		public.POST("/admin/verify-otp", h.Auth.VerifyOTP)
		public.POST("/admin/reset-password", h.Auth.ResetPassword)
		public.POST("/signup", h.Auth.Signup)
		public.POST("/login", h.Auth.Login)
		public.POST("/student/login", h.Auth.StudentLogin)
	}

	secured := api.Group("", middleware.Auth(auth))

	admin := secured.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/dashboard", h.Dashboards.Admin)

		admin.GET("/centres", h.Centres.List)
		admin.POST("/centres", h.Centres.Create)
		admin.PUT("/centres/:code", h.Centres.Update)
		admin.POST("/centres/:code/logos", h.Centres.UploadLogos)
		admin.DELETE("/centres/:code", h.Centres.Delete)

		admin.GET("/centre-options/:kind", h.Centres.Options)
		admin.POST("/centre-options/:kind", h.Centres.AddOption)

		admin.GET("/hall-tickets", h.HallTickets.ListPending)
		admin.POST("/hall-tickets/:id/approve", h.HallTickets.Approve)

		admin.GET("/backup/export", h.Backups.Download)
		admin.POST("/backup", h.Backups.Trigger)
	}

	// Centre staff read their own centre record through this route; the
	// handler rejects any other code.
	secured.GET("/centres/:code", middleware.RequireRoles(models.RoleAdmin, models.RoleCentre), h.Centres.Get)

	batches := secured.Group("/batches", middleware.RequireRoles(models.RoleAdmin, models.RoleCentre))
	{
		batches.GET("", h.Batches.List)
		batches.POST("", h.Batches.Create)
		batches.GET("/:id", h.Batches.Get)
		batches.PUT("/:id", h.Batches.Update)
		batches.DELETE("/:id", h.Batches.Delete)
	}

	staffOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleCentre)
	students := secured.Group("/students")
	{
		students.GET("", staffOnly, h.Students.List)
		students.POST("", staffOnly, h.Students.Create)
		students.GET("/:id", h.Students.Get)
		students.PUT("/:id", staffOnly, h.Students.Update)
		students.DELETE("/:id", staffOnly, h.Students.Delete)

		students.GET("/:id/qualifications", h.Students.Qualifications)
		students.GET("/:id/marks", h.Students.Marks)
		students.POST("/:id/marks", staffOnly, h.Students.RecordMark)

		students.POST("/:id/hall-ticket/apply", h.HallTickets.Apply)
		students.GET("/:id/hall-ticket", h.HallTickets.Status)
		students.GET("/:id/hall-ticket/download", h.HallTickets.Download)
	}

	me := secured.Group("/me", middleware.RequireRoles(models.RoleStudent))
	{
		me.GET("/dashboard", h.Dashboards.Student)
	}
}
