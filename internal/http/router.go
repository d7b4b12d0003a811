package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/qrhub/internal/auth"
	"github.com/geocoder89/qrhub/internal/config"
	"github.com/geocoder89/qrhub/internal/http/handlers"
	"github.com/geocoder89/qrhub/internal/http/middlewares"
	"github.com/geocoder89/qrhub/internal/observability"
	"github.com/geocoder89/qrhub/internal/repo/postgres"
	"github.com/geocoder89/qrhub/internal/revocation"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config, rev *revocation.Client) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(otelgin.Middleware("qrhub"))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(1 << 20))

	// metrics

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)
	r.Use(prom.GinHandleMiddleware())
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/health", h.Health)
	r.GET("/readyz", h.Readyz)

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	profilesRepo := postgres.NewProfilesRepo(pool, prom)
	qrCodesRepo := postgres.NewQRCodesRepo(pool, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())

	// a nil *revocation.Client must stay a nil interface downstream
	var checker middlewares.RevocationChecker
	var revoker handlers.Revoker

	if rev != nil {
		checker = rev
		revoker = rev
	}

	authmw := middlewares.NewAuthMiddleware(jwtManager, checker)

	// wire up handlers
	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager)
	qrCodesHandler := handlers.NewQRCodesHandler(qrCodesRepo, log, prom)
	profileHandler := handlers.NewProfileHandler(profilesRepo)
	usersHandler := handlers.NewUsersHandler(usersRepo, revoker, cfg.AccessTTL(), log)

	// credential endpoints are rate limited by IP
	limiter := middlewares.NewRateLimiter(10, time.Minute)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", limiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.SignUp)
		authGroup.POST("/signin", limiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.SignIn)
		authGroup.GET("/session", authmw.RequireAuth(), authHandler.Session)
		authGroup.POST("/signout", authmw.RequireAuth(), authHandler.SignOut)
	}

	qrGroup := r.Group("/qr-codes")
	{
		// the public scan flow is the only unauthenticated route here
		qrGroup.GET("/redirect/:id", qrCodesHandler.Redirect)

		qrGroup.GET("", authmw.RequireAuth(), qrCodesHandler.List)
		qrGroup.POST("", authmw.RequireAuth(), qrCodesHandler.Create)
		qrGroup.PUT("/:id", authmw.RequireAuth(), qrCodesHandler.Update)
		qrGroup.DELETE("/:id", authmw.RequireAuth(), qrCodesHandler.Delete)
		qrGroup.GET("/reports", authmw.RequireAuth(), qrCodesHandler.Reports)
	}

	r.GET("/profile", authmw.RequireAuth(), profileHandler.Get)
	r.PUT("/profile", authmw.RequireAuth(), profileHandler.Update)

	adminGroup := r.Group("/users", authmw.RequireAuth(), authmw.RequireRole("admin"))
	{
		adminGroup.GET("", usersHandler.List)
		adminGroup.POST("/invite", usersHandler.Invite)
		adminGroup.PUT("/:id/role", usersHandler.ChangeRole)
		adminGroup.DELETE("/:id", usersHandler.Delete)
	}

	return r
}
