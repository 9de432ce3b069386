package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fashionstock-dashboard/internal/service"
	"fashionstock-dashboard/internal/session"
	"fashionstock-dashboard/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services are the operations exposed over HTTP
type Services struct {
	Auth      *service.AuthService
	Dashboard *service.DashboardService
	Reports   *service.ReportService
	Products  *service.ProductService
	Sales     *service.SalesService
	Users     *service.UserService
}

// Check is one readiness probe
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	svc         Services
	issuer      *session.Issuer
	checks      []Check
	corsOrigins []string
	logger      *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, issuer *session.Issuer, corsOrigins []string, checks ...Check) *Handler {
	return &Handler{
		svc:         svc,
		issuer:      issuer,
		checks:      checks,
		corsOrigins: corsOrigins,
		logger:      util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())
	if len(h.corsOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     h.corsOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.POST("/session", h.login)

	authed := v1.Group("", h.requireSession())
	{
		authed.GET("/session", h.currentSession)

		authed.GET("/dashboard", h.getDashboard)
		authed.GET("/dashboard/quick-stats", h.getQuickStats)

		authed.GET("/reports/:kind", h.getReport)
		authed.POST("/reports/:kind/export/:format", h.exportReport)

		authed.GET("/products", h.listProducts)
		authed.POST("/products", h.createProduct)
		authed.GET("/products/low-stock", h.lowStock)
		authed.PUT("/products/:id", h.updateProduct)
		authed.DELETE("/products/:id", h.deleteProduct)

		authed.GET("/sales", h.listSales)
		authed.GET("/sales/export/:format", h.exportSales)
		authed.GET("/sales/journal", h.salesJournal)

		authed.POST("/carts", h.openCart)
		authed.GET("/carts/:id", h.getCart)
		authed.DELETE("/carts/:id", h.clearCart)
		authed.POST("/carts/:id/items", h.addCartItem)
		authed.PUT("/carts/:id/items/:productId", h.updateCartItem)
		authed.DELETE("/carts/:id/items/:productId", h.removeCartItem)
		authed.PUT("/carts/:id/discount", h.setDiscount)
		authed.PUT("/carts/:id/payment-method", h.setPaymentMethod)
		authed.POST("/carts/:id/complete", h.completeSale)

		authed.GET("/users", h.listUsers)
		authed.POST("/users", h.createUser)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only when every dependency answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("check", check.Name), zap.Error(err))
			failed[check.Name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// requireSession verifies the bearer token and puts its session in the
// request context.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			respondError(c, session.ErrNoSession)
			c.Abort()
			return
		}

		s, err := h.issuer.Verify(strings.TrimSpace(token))
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), s))
		c.Next()
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
