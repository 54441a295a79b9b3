package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/salonpos/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted by the router.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Checkout      *handlers.CheckoutHandler
	Products      *handlers.ProductHandler
	Stock         *handlers.StockHandler
	Notifications *handlers.NotificationHandler
	Reports       *handlers.ReportHandler
}

// New wires the Gin engine with required routes and middlewares.
// Everything except health and auth requires an open operator session.
func New(h Handlers, sessions handlers.SessionManager, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/session", h.Auth.Session)

	api := r.Group("/")
	api.Use(handlers.RequireSession(sessions, logger))

	checkout := api.Group("/checkout/:terminal")
	checkout.GET("", h.Checkout.Get)
	checkout.DELETE("", h.Checkout.Cancel)
	checkout.POST("/items", h.Checkout.AddItem)
	checkout.DELETE("/items/:productID", h.Checkout.RemoveItem)
	checkout.PUT("/discount", h.Checkout.SetDiscount)
	checkout.PUT("/customer", h.Checkout.SetCustomer)
	checkout.POST("/settle", h.Checkout.Settle)

	api.GET("/products", h.Products.List)
	api.POST("/products/:id/stock/preview", h.Stock.Preview)
	api.PATCH("/products/:id/stock", h.Stock.Adjust)

	api.GET("/notifications", h.Notifications.List)
	api.POST("/notifications/:id/read", h.Notifications.MarkRead)

	api.GET("/reports/top-products", h.Reports.TopProducts)
	api.GET("/reports/summary", h.Reports.Summary)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("terminal", c.Param("terminal")))
	}
}
