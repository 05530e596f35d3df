package handlers

import (
	"net/http"
	"time"

	"cryptodash/internal/auth"
	"cryptodash/internal/portfolio"
	"cryptodash/internal/realtime"
	"cryptodash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Deps are the components the HTTP layer calls into.
type Deps struct {
	Auth      *auth.Authenticator
	Cookies   auth.Cookies
	Store     *portfolio.Store
	Prices    *service.PriceGateway
	Mapping   *service.MappingUpdater
	Refresher *service.Refresher
	Hub       *realtime.Hub
	WebDir    string
	Log       *logrus.Logger
}

type Handler struct {
	auth      *auth.Authenticator
	cookies   auth.Cookies
	store     *portfolio.Store
	prices    *service.PriceGateway
	mapping   *service.MappingUpdater
	refresher *service.Refresher
	hub       *realtime.Hub
	webDir    string
	log       *logrus.Logger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		auth:      d.Auth,
		cookies:   d.Cookies,
		store:     d.Store,
		prices:    d.Prices,
		mapping:   d.Mapping,
		refresher: d.Refresher,
		hub:       d.Hub,
		webDir:    d.WebDir,
		log:       d.Log,
	}
}

// Router builds the gin engine with every route behind the session gate.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.log), auth.RequireSession(h.auth, h.cookies, h.log))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET(auth.LoginPath, h.LoginPage)

	a := r.Group("/api/auth")
	a.POST("/login", h.Login)
	a.GET("/logout", h.Logout)
	a.POST("/logout", h.Logout)
	a.GET("/clear", h.Logout)
	a.POST("/clear", h.Logout)
	a.GET("/verify", h.Verify)

	api := r.Group("/api")
	api.GET("/holdings", h.ListHoldings)
	api.POST("/holdings", h.AddHolding)
	api.PUT("/holdings", h.ReplaceHoldings)
	api.DELETE("/holdings", h.ClearHoldings)
	api.GET("/holdings/export", h.ExportHoldings)
	api.POST("/holdings/import", h.ImportHoldings)
	api.PUT("/holdings/:symbol", h.UpdateHolding)
	api.DELETE("/holdings/:symbol", h.RemoveHolding)

	api.GET("/alerts", h.ListAlerts)
	api.POST("/alerts", h.CreateAlert)
	api.DELETE("/alerts/:id", h.DeleteAlert)
	api.POST("/alerts/:id/toggle", h.ToggleAlert)
	api.POST("/alerts/:id/trigger", h.TriggerAlert)

	api.GET("/prices", h.GetPrices)
	api.GET("/metrics/:symbol", h.GetMetrics)
	api.GET("/portfolio", h.GetPortfolio)
	api.GET("/portfolio/changes", h.GetTimeframeChange)
	api.POST("/refresh", h.Refresh)
	api.GET("/mapping", h.GetMapping)
	api.POST("/mapping", h.UpdateMapping)
	api.GET("/ws", h.Stream)

	h.mountStatic(r)
	return r
}

// RequestLogger writes one access log line per request.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := log.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
	}
}
