package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/chang180/timesheet-saas-sub001/internal/config"
	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/handlers"
	"github.com/chang180/timesheet-saas-sub001/internal/middleware"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/services"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.App.Env == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	err = utils.InitLogger(&utils.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger := utils.GetLogger()
	logger.Info("Starting weekly report API", utils.LogFields{
		"version":     version,
		"environment": cfg.App.Env,
		"port":        cfg.App.Port,
	})

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}
	if err := db.AutoMigrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	logger.Info("Database migrations completed")

	var redisClient database.RedisClient
	if cfg.Redis.URL != "" {
		redisClient, err = database.InitializeRedis(cfg.Redis)
		if err != nil {
			logger.Warn("Redis not available, continuing without holiday cache", utils.LogFields{
				"error": err.Error(),
			})
			redisClient = nil
		} else {
			logger.Info("Redis connected", utils.LogFields{"url": cfg.Redis.URL})
		}
	}

	svcs := initializeServices(cfg, db, redisClient)
	hdlrs := initializeHandlers(cfg, db, redisClient, svcs)
	mws := initializeMiddleware(cfg, db, svcs, logger)

	router := setupRouter(cfg, hdlrs, mws)

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.App.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.Server.IdleTimeout) * time.Second,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Info("Server starting", utils.LogFields{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", err)
	}

	logger.Info("Server stopped gracefully")
}

// ServiceContainer holds all initialized services.
type ServiceContainer struct {
	JWTService     *services.JWTService
	AuthService    *services.AuthService
	OAuthService   *services.OAuthService
	AuditService   *services.AuditService
	CompanyService *services.CompanyService
	OrgService     *services.OrgService
	MemberService  *services.MemberService
	ReportService  *services.ReportService
	ExportService  *services.ExportService
	HolidayService *services.HolidayService
}

// HandlerContainer holds all initialized handlers.
type HandlerContainer struct {
	Auth    *handlers.AuthHandler
	Company *handlers.CompanyHandler
	Org     *handlers.OrgHandler
	Member  *handlers.MemberHandler
	Report  *handlers.ReportHandler
	Holiday *handlers.HolidayHandler
	HQ      *handlers.HQHandler
	Health  *handlers.HealthHandler
}

// MiddlewareContainer holds all initialized middleware.
type MiddlewareContainer struct {
	Tenant      *middleware.TenantMiddleware
	Auth        *middleware.AuthMiddleware
	IPWhitelist *middleware.IPWhitelistMiddleware
	RateLimit   *middleware.RateLimitMiddleware
}

func initializeServices(cfg *config.Config, db database.Database, redisClient database.RedisClient) *ServiceContainer {
	logger := utils.GetLogger()

	jwtService := services.NewJWTService(cfg.Security.JWTSecret, cfg.Security.JWTExpiry, cfg.Security.IntentSecret, cfg.Security.IntentExpiry)
	jwtService.SetRefreshExpiry(cfg.Security.RefreshExpiry)

	auditService := services.NewAuditService(db)

	container := &ServiceContainer{
		JWTService:     jwtService,
		AuthService:    services.NewAuthService(db, jwtService),
		OAuthService:   services.NewOAuthService(db, jwtService, cfg.OAuth),
		AuditService:   auditService,
		CompanyService: services.NewCompanyService(db),
		OrgService:     services.NewOrgService(db),
		MemberService:  services.NewMemberService(db),
		ReportService:  services.NewReportService(db, auditService),
		ExportService:  services.NewExportService(db),
		HolidayService: services.NewHolidayService(db, redisClient, cfg.Holiday, logger),
	}

	logger.Info("Services initialized", utils.LogFields{
		"oauth_enabled": cfg.OAuth.GoogleClientID != "",
		"redis_enabled": redisClient != nil,
	})
	return container
}

func initializeHandlers(cfg *config.Config, db database.Database, redisClient database.RedisClient, svcs *ServiceContainer) *HandlerContainer {
	return &HandlerContainer{
		Auth:    handlers.NewAuthHandler(svcs.AuthService, svcs.OAuthService, svcs.AuditService),
		Company: handlers.NewCompanyHandler(svcs.CompanyService, svcs.AuditService),
		Org:     handlers.NewOrgHandler(svcs.OrgService, svcs.AuditService),
		Member:  handlers.NewMemberHandler(svcs.MemberService, svcs.AuditService),
		Report:  handlers.NewReportHandler(svcs.ReportService, svcs.ExportService),
		Holiday: handlers.NewHolidayHandler(svcs.HolidayService),
		HQ:      handlers.NewHQHandler(svcs.CompanyService, svcs.AuditService),
		Health:  handlers.NewHealthHandler(db, redisClient, version, cfg.App.Env),
	}
}

func initializeMiddleware(cfg *config.Config, db database.Database, svcs *ServiceContainer, logger utils.Logger) *MiddlewareContainer {
	return &MiddlewareContainer{
		Tenant:      middleware.NewTenantMiddleware(svcs.CompanyService, cfg.Tenancy),
		Auth:        middleware.NewAuthMiddleware(db, svcs.JWTService),
		IPWhitelist: middleware.NewIPWhitelistMiddleware(svcs.AuditService),
		RateLimit:   middleware.NewRateLimitMiddleware(cfg.RateLimit, cfg.Redis.URL, logger),
	}
}

func setupRouter(cfg *config.Config, h *HandlerContainer, m *MiddlewareContainer) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(utils.GetLogger()))
	router.Use(middleware.Metrics())
	router.Use(middleware.SecurityHeaders())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposeHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"*"}
	}
	if len(corsConfig.AllowMethods) == 0 {
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(corsConfig.AllowHeaders) == 0 {
		corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", h.Health.Health)
	router.GET("/ready", h.Health.Readiness)
	router.GET("/live", h.Health.Liveness)
	router.GET("/metrics", middleware.MetricsHandler())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        cfg.App.Name,
			"version":     version,
			"environment": cfg.App.Env,
			"status":      "running",
			"timestamp":   time.Now().UTC(),
		})
	})

	api := router.Group("/api/v1")

	// Platform-level routes live outside any tenant scope.
	api.POST("/companies", h.Company.Register)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.GET("/auth/google/callback", h.Auth.GoogleCallback)

	hq := api.Group("/hq")
	{
		hq.POST("/auth/login", h.Auth.HQLogin)

		ops := hq.Group("")
		ops.Use(m.Auth.RequireAuth())
		ops.Use(m.Auth.RequireRole(models.RoleHQAdmin))
		{
			ops.GET("/companies", h.HQ.ListCompanies)
			ops.GET("/companies/:id", h.HQ.ShowCompany)
			ops.GET("/companies/:id/stats", h.HQ.CompanyStats)
			ops.POST("/companies/:id/suspend", h.HQ.SuspendCompany)
			ops.POST("/companies/:id/activate", h.HQ.ActivateCompany)
			ops.POST("/companies/:id/onboard", h.HQ.OnboardCompany)
			ops.POST("/holidays/sync", h.Holiday.Sync)
		}
	}

	// Everything below resolves the tenant from the company slug first.
	tg := api.Group("/:company")
	tg.Use(m.Tenant.Resolve())
	tg.Use(m.IPWhitelist.Enforce())
	if cfg.RateLimit.Enabled {
		tg.Use(m.RateLimit.Limit())
	}

	// Tenant routes reachable without a session.
	tg.POST("/auth/login", h.Auth.Login)
	tg.GET("/auth/google/login", h.Auth.GoogleLogin)
	tg.POST("/invitations/accept", h.Member.AcceptInvitation)
	tg.POST("/join", h.Member.Join)

	authed := tg.Group("")
	authed.Use(m.Auth.RequireAuth())
	{
		authed.GET("/auth/me", h.Auth.Me)
		authed.GET("/auth/google/link", h.Auth.GoogleLink)

		authed.GET("/company", h.Company.Show)

		reports := authed.Group("/reports")
		{
			reports.GET("", h.Report.List)
			reports.POST("", h.Report.Create)
			reports.GET("/prefill", h.Report.Prefill)
			reports.GET("/export", h.Report.Export)
			reports.GET("/:id", h.Report.Show)
			reports.PUT("/:id", h.Report.Update)
			reports.DELETE("/:id", h.Report.Delete)
			reports.POST("/:id/submit", h.Report.Submit)
			reports.POST("/:id/reopen", h.Report.Reopen)
			reports.POST("/:id/lock", h.Report.Lock)
		}

		authed.GET("/holidays", h.Holiday.Year)
		authed.GET("/holidays/week", h.Holiday.Week)

		managers := authed.Group("")
		managers.Use(m.Auth.RequireManager())
		{
			managers.GET("/members", h.Member.List)
			managers.GET("/members/:id", h.Member.Show)

			managers.GET("/divisions", h.Org.ListDivisions)
			managers.GET("/departments", h.Org.ListDepartments)
			managers.GET("/teams", h.Org.ListTeams)
		}

		admin := authed.Group("")
		admin.Use(m.Auth.RequireRole(models.RoleCompanyAdmin, models.RoleHQAdmin))
		{
			admin.PUT("/company/settings", h.Company.UpdateSettings)
			admin.GET("/company/audit", h.Company.AuditTrail)

			admin.POST("/members", h.Member.Invite)
			admin.PUT("/members/:id", h.Member.Update)
			admin.DELETE("/members/:id", h.Member.Deactivate)

			admin.POST("/divisions", h.Org.CreateDivision)
			admin.PUT("/divisions/:id", h.Org.UpdateDivision)
			admin.DELETE("/divisions/:id", h.Org.DeleteDivision)
			admin.POST("/divisions/:id/invitation", h.Org.EnableInvitation(models.EntityDivision))
			admin.DELETE("/divisions/:id/invitation", h.Org.DisableInvitation(models.EntityDivision))

			admin.POST("/departments", h.Org.CreateDepartment)
			admin.PUT("/departments/:id", h.Org.UpdateDepartment)
			admin.DELETE("/departments/:id", h.Org.DeleteDepartment)
			admin.POST("/departments/:id/invitation", h.Org.EnableInvitation(models.EntityDepartment))
			admin.DELETE("/departments/:id/invitation", h.Org.DisableInvitation(models.EntityDepartment))

			admin.POST("/teams", h.Org.CreateTeam)
			admin.PUT("/teams/:id", h.Org.UpdateTeam)
			admin.DELETE("/teams/:id", h.Org.DeleteTeam)
			admin.POST("/teams/:id/invitation", h.Org.EnableInvitation(models.EntityTeam))
			admin.DELETE("/teams/:id/invitation", h.Org.DisableInvitation(models.EntityTeam))

			admin.POST("/org/seed", h.Org.SeedHierarchy)
		}
	}

	return router
}
