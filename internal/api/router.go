package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/fedawallet/wallet-client/internal/api/docs"
	"github.com/fedawallet/wallet-client/internal/api/handler"
	"github.com/fedawallet/wallet-client/internal/api/middleware"
	"github.com/fedawallet/wallet-client/internal/core/domain"
	"github.com/fedawallet/wallet-client/internal/core/ports"
)

// Dependencies is everything the router wires into handlers.
type Dependencies struct {
	Sessions     handler.SessionService
	Wallet       handler.WalletService
	AdminSession handler.AdminSessionService
	AdminConsole handler.AdminConsoleService
	// Health maps a dependency name to its connectivity check.
	Health map[string]ports.Pinger
	// APIKey protects every route except health checks, metrics, docs and redirects.
	APIKey string
	// CallbackURL is the provider redirect target sent with new recharges.
	CallbackURL string
	Logger      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
//
// @title          walletd
// @version        1.0
// @description    Local session daemon for the mobile-money wallet backend.
// @BasePath       /
// @securityDefinitions.apikey  DaemonKey
// @in                          header
// @name                        Authorization
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddleware("walletd"))

	// --- Handlers ---
	sessionHandler := handler.NewSessionHandler(deps.Sessions)
	walletHandler := handler.NewWalletHandler(deps.Wallet, deps.Sessions, deps.CallbackURL)
	adminHandler := handler.NewAdminHandler(deps.AdminSession, deps.AdminConsole)
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Health)

	apiKey := middleware.APIKey(deps.APIKey)
	requireSession := middleware.RequireSession(deps.Sessions.Session)
	requireAdmin := middleware.RequireAdmin(deps.AdminSession.Snapshot)

	// --- Health checks, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Browser redirects (no auth required) ---
	e.GET("/auth/google/callback", sessionHandler.GoogleCallback)
	e.GET("/fedapay/callback", walletHandler.ProviderCallback)

	// --- End-user session ---
	session := e.Group("/session", apiKey)
	session.GET("", sessionHandler.Get)
	session.POST("/login", sessionHandler.Login)
	session.POST("/signup", sessionHandler.Signup)
	session.POST("/logout", sessionHandler.Logout)
	session.POST("/refresh", sessionHandler.Refresh, requireSession)
	session.PATCH("/profile", sessionHandler.UpdateProfile, requireSession)
	session.PUT("/password", sessionHandler.ChangePassword, requireSession)
	session.POST("/avatar", sessionHandler.UploadAvatar, requireSession)

	// --- Wallet ---
	wallet := e.Group("/wallet", apiKey, requireSession)
	wallet.GET("", walletHandler.Get)
	wallet.GET("/history", walletHandler.History)
	wallet.POST("/recharge", walletHandler.StartRecharge)
	wallet.POST("/recharge/confirm", walletHandler.ConfirmRecharge)
	wallet.GET("/recharge/:id", walletHandler.GetRecharge)
	wallet.POST("/recharge/:id/await", walletHandler.AwaitRecharge)
	wallet.DELETE("/recharge/:id", walletHandler.CancelRecharge)
	wallet.POST("/transfer", walletHandler.Transfer)
	wallet.GET("/receive-code", walletHandler.ReceiveCode)
	wallet.POST("/receive-code/scan", walletHandler.ScanReceiveCode)

	// --- Admin session ---
	admin := e.Group("/admin", apiKey)
	admin.GET("/session", adminHandler.GetSession)
	admin.POST("/session/login", adminHandler.Login)
	admin.POST("/session/register", adminHandler.Register)
	admin.POST("/session/logout", adminHandler.Logout)
	admin.GET("/last-error", adminHandler.LastError)

	// --- Admin console ---
	console := admin.Group("", requireAdmin, middleware.RBAC(domain.RoleAdmin))
	console.GET("/profile", adminHandler.Profile)
	console.PUT("/profile", adminHandler.UpdateProfile)
	console.PUT("/password", adminHandler.ChangePassword)
	console.GET("/dashboard", adminHandler.Dashboard)
	console.GET("/users", adminHandler.Users)
	console.PATCH("/users/:id/status", adminHandler.SetUserStatus)
	console.GET("/transactions", adminHandler.Transactions)
	console.GET("/payments", adminHandler.Payments)
	console.GET("/stats", adminHandler.Stats)
	console.GET("/config", adminHandler.PaymentConfig)
	console.POST("/config", adminHandler.SavePaymentConfig)

	return e
}

// requestLogger writes one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
