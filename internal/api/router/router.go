package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/malamapl09/Picker-Scheduler/config"
	"github.com/malamapl09/Picker-Scheduler/internal/api/handler"
	"github.com/malamapl09/Picker-Scheduler/internal/api/middleware"
	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
	"github.com/malamapl09/Picker-Scheduler/pkg/redis"
)

// Setup builds the gin engine. rdb may be nil.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidators(v); err != nil {
			return nil, err
		}
	}

	r := gin.New()

	// ── Global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS))
	r.Use(middleware.SecurityHeaders(cfg.Server.HSTSMaxAge))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	var blacklist middleware.Blacklist
	if rdb != nil {
		blacklist = rdb
	}
	limited := middleware.RateLimit(rdb, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window)
	managers := middleware.RoleAuth(model.RoleAdmin, model.RoleManager)
	admins := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth", limited)
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			stores := authorized.Group("/stores")
			{
				stores.GET("", h.Store.List)
				stores.GET("/:id", h.Store.Get)
				stores.POST("", admins, h.Store.Create)
				stores.PUT("/:id", managers, h.Store.Update)
				stores.DELETE("/:id", admins, h.Store.Delete)
			}

			employees := authorized.Group("/employees")
			{
				employees.GET("", managers, h.Employee.List)
				employees.POST("", managers, h.Employee.Create)
				employees.POST("/import", managers, h.Employee.Import)
				employees.GET("/:id", h.Employee.Get) // self or manager, checked in the service
				employees.PUT("/:id", managers, h.Employee.Update)
				employees.POST("/:id/reset-password", managers, h.Employee.ResetPassword)
				employees.GET("/:id/availability", h.Availability.Get)
				employees.PUT("/:id/availability", h.Availability.Set)
			}

			comp := authorized.Group("/compliance")
			{
				comp.POST("/validate-shift", managers, h.Compliance.ValidateShift)
				comp.GET("/schedules/:id", managers, h.Compliance.ValidateSchedule)
				comp.GET("/employees/:id/status", h.Compliance.EmployeeStatus)
				comp.GET("/stores/:id/summary", managers, h.Compliance.StoreSummary)
				comp.GET("/rules", h.Compliance.Rules)
			}

			opt := authorized.Group("/optimizer", managers, limited)
			{
				opt.POST("/generate", h.Optimizer.Generate)
				opt.POST("/preview", h.Optimizer.Preview)
				opt.POST("/apply", h.Optimizer.Apply)
				opt.POST("/schedules/:id/fill-gaps", h.Optimizer.FillGaps)
				opt.GET("/capacity", h.Optimizer.Capacity)
				opt.GET("/shift-templates", h.Optimizer.ShiftTemplates)
			}

			reports := authorized.Group("/reports", managers)
			{
				reports.GET("/coverage", h.Report.Coverage)
				reports.GET("/labor-summary", h.Report.LaborSummary)
			}

			schedules := authorized.Group("/schedules")
			{
				schedules.GET("", h.Schedule.List)
				schedules.POST("", managers, h.Schedule.Create)
				schedules.GET("/:id", h.Schedule.Get)
				schedules.DELETE("/:id", managers, h.Schedule.Delete)
				schedules.POST("/:id/publish", managers, h.Schedule.Publish)
				schedules.POST("/:id/unpublish", managers, h.Schedule.Unpublish)
				schedules.POST("/:id/archive", managers, h.Schedule.Archive)
				schedules.GET("/:id/change-logs", managers, h.Schedule.ChangeLogs)
				schedules.GET("/:id/export.xlsx", h.Export.ScheduleXLSX)
				schedules.GET("/:id/export.ics", h.Export.ScheduleICS)
			}

			shifts := authorized.Group("/shifts")
			{
				shifts.GET("/callouts", managers, h.Callout.ListCallouts)
				shifts.POST("", managers, h.Schedule.CreateShift)
				shifts.PUT("/:id", managers, h.Schedule.UpdateShift)
				shifts.DELETE("/:id", managers, h.Schedule.DeleteShift)
				shifts.GET("/:id/compliance", managers, h.Compliance.ValidateExistingShift)
				shifts.POST("/:id/callout", managers, h.Callout.MarkCallout)
				shifts.GET("/:id/replacements", managers, h.Callout.FindReplacements)
				shifts.POST("/:id/assign-replacement", managers, h.Callout.AssignReplacement)
				shifts.POST("/:id/revert-callout", managers, h.Callout.RevertCallout)
				shifts.POST("/:id/no-show", managers, h.Callout.MarkNoShow)
			}

			swaps := authorized.Group("/swaps")
			{
				swaps.GET("", h.Swap.List)
				swaps.GET("/available", h.Swap.ListAvailable)
				swaps.GET("/:id", h.Swap.Get)
				swaps.POST("", h.Swap.Create)
				swaps.POST("/:id/accept", h.Swap.Accept)
				swaps.POST("/:id/approve", managers, h.Swap.Approve)
				swaps.POST("/:id/deny", managers, h.Swap.Deny)
				swaps.POST("/:id/cancel", h.Swap.Cancel)
			}

			timeOff := authorized.Group("/time-off")
			{
				timeOff.GET("", h.TimeOff.List)
				timeOff.POST("", h.TimeOff.Request)
				timeOff.POST("/import", h.TimeOff.ImportCalendar)
				timeOff.GET("/employees/:id/calendar.ics", h.TimeOff.ExportCalendar)
				timeOff.POST("/:id/approve", managers, h.TimeOff.Approve)
				timeOff.POST("/:id/deny", managers, h.TimeOff.Deny)
				timeOff.POST("/:id/cancel", h.TimeOff.Cancel)
			}

			demand := authorized.Group("/demand", managers)
			{
				demand.GET("", h.Demand.Get)
				demand.PUT("", h.Demand.Upsert)
			}

			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
			}
		}
	}

	return r, nil
}
