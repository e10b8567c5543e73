package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/pharmalink/directory-api/internal/handler"
	authhandler "github.com/pharmalink/directory-api/internal/handler/auth"
	doctorhandler "github.com/pharmalink/directory-api/internal/handler/doctor"
	notificationhandler "github.com/pharmalink/directory-api/internal/handler/notification"
	prescriptionhandler "github.com/pharmalink/directory-api/internal/handler/prescription"
	reviewhandler "github.com/pharmalink/directory-api/internal/handler/review"
	"github.com/pharmalink/directory-api/internal/middleware"
	"github.com/pharmalink/directory-api/internal/model"
	"github.com/pharmalink/directory-api/pkg/metrics"
)

type Router struct {
	engine        *gin.Engine
	auth          *middleware.AuthMiddleware
	authH         *authhandler.Handler
	doctorH       *doctorhandler.Handler
	reviewH       *reviewhandler.Handler
	prescriptionH *prescriptionhandler.Handler
	notificationH *notificationhandler.Handler
	h             *handler.Handler
	metrics       *metrics.Metrics
}

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
	Timeout    time.Duration
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH *authhandler.Handler,
	doctorH *doctorhandler.Handler,
	reviewH *reviewhandler.Handler,
	prescriptionH *prescriptionhandler.Handler,
	notificationH *notificationhandler.Handler,
	h *handler.Handler,
	m *metrics.Metrics,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine:        engine,
		auth:          auth,
		authH:         authH,
		doctorH:       doctorH,
		reviewH:       reviewH,
		prescriptionH: prescriptionH,
		notificationH: notificationH,
		h:             h,
		metrics:       m,
	}

	if config.Timeout == 0 {
		config.Timeout = middleware.DefaultTimeoutConfig().Duration
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupHealthCheck(api)
	r.setupPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	r.authH.RegisterRoutes(rg)
	r.doctorH.RegisterPublicRoutes(rg)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	r.notificationH.RegisterRoutes(rg)
	r.prescriptionH.RegisterRoutes(rg)

	doctors := rg.Group("")
	doctors.Use(r.auth.RequireRoles(model.RoleDoctor))
	r.doctorH.RegisterRoutes(doctors)

	admin := rg.Group("")
	admin.Use(r.auth.RequireRoles(model.RoleAdmin))
	r.reviewH.RegisterAdminRoutes(admin)

	ministry := rg.Group("")
	ministry.Use(r.auth.RequireRoles(model.RoleMinistryAdmin))
	r.reviewH.RegisterMinistryRoutes(ministry)

	msh := rg.Group("")
	msh.Use(r.auth.RequireRoles(model.RoleHealthAdmin))
	r.reviewH.RegisterHealthAuthorityRoutes(msh)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.ErrorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
