package http

import (
	"log/slog"
	nethttp "net/http"
	"time"

	"github.com/geocoder89/dogwalker/internal/config"
	"github.com/geocoder89/dogwalker/internal/http/handlers"
	"github.com/geocoder89/dogwalker/internal/http/middlewares"
	"github.com/geocoder89/dogwalker/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "dogwalker-api"

// Deps are the collaborators the router exposes over HTTP.
type Deps struct {
	Accounts handlers.AccountService
	Guard    middlewares.Authenticator
	Ping     handlers.PingFunc

	// optional
	Prom    *observability.Prom
	Metrics nethttp.Handler
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// register/login bodies have a fixed schema
	binding.EnableDecoderDisallowUnknownFields = true

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// health
	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/status", h.Status)

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	accountsHandler := handlers.NewAccountsHandler(deps.Accounts, cfg.Env == "prod", log)
	authMiddleware := middlewares.NewAuthMiddleware(deps.Guard)

	limit := cfg.AuthRateLimit
	if limit <= 0 {
		limit = 20
	}
	window := cfg.AuthRateWindow
	if window <= 0 {
		window = time.Minute
	}
	authLimiter := middlewares.NewRateLimiter(limit, window)

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	writes := r.Group("/",
		authLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		middlewares.MaxBodyBytes(maxBody),
		middlewares.RequireJSON(),
	)
	writes.POST("/register", accountsHandler.Register)
	writes.POST("/login", accountsHandler.Login)

	r.GET("/check_user_exists", accountsHandler.CheckUserExists)
	r.GET("/user", authMiddleware.RequireAuth(), accountsHandler.Profile)

	return r
}
