package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/branchledger/dashboard/internal/api/handler"
	"github.com/branchledger/dashboard/internal/api/middleware"
	"github.com/branchledger/dashboard/internal/core/ports"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	Sessions  middleware.SessionReader
	Auth      ports.AuthService
	Dashboard ports.DashboardService
	Users     ports.UserAdminService
	Reports   ports.ReportService
	// Probes are checked by /health/ready.
	Probes []handler.Pinger
	// Registerer receives the HTTP request metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "dashboard",
		Registerer: deps.Registerer,
	}))

	// --- Health probes and tooling (no session required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Probes...)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	e.POST("/login", authHandler.Login)
	e.POST("/logout", authHandler.Logout)

	// --- Session-gated API ---
	api := e.Group("/api", middleware.RequireSession(deps.Sessions))
	api.GET("/me", authHandler.Me)

	dashboardHandler := handler.NewDashboardHandler(deps.Dashboard)
	api.GET("/dashboard", dashboardHandler.Get)
	api.POST("/dashboard/refresh", dashboardHandler.Refresh)
	api.PUT("/dashboard/search", dashboardHandler.Search)
	api.PUT("/dashboard/sort", dashboardHandler.Sort)
	api.PUT("/dashboard/page", dashboardHandler.Page)
	api.POST("/dashboard/page/next", dashboardHandler.NextPage)
	api.POST("/dashboard/page/prev", dashboardHandler.PrevPage)
	api.PUT("/dashboard/branch", dashboardHandler.Branch)
	api.POST("/operations", dashboardHandler.CreateOperation,
		middleware.RequireCapability("create operation", middleware.CanCreateOperation))

	userHandler := handler.NewUserHandler(deps.Users)
	users := api.Group("/users", middleware.RequireCapability("manage users", middleware.CanManageUsers))
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	reportHandler := handler.NewReportHandler(deps.Reports)
	api.GET("/reports/summary", reportHandler.Summary)
	api.GET("/reports/export.csv", reportHandler.ExportCSV)
	api.GET("/reports/export.pdf", reportHandler.ExportPDF)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
