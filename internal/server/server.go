// Package server exposes the listing catalog and the assistant over HTTP.
//
// Routes:
//
//	GET  /health
//	GET  /metrics
//	GET  /api/properties         ?location= &max_price= &verified_only= &recommended=
//	GET  /api/properties/:id
//	POST /api/chat
package server

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/comigor/bodi-go/internal/catalog"
	"github.com/comigor/bodi-go/internal/llm"
	"github.com/comigor/bodi-go/internal/logger"
	"github.com/comigor/bodi-go/internal/metrics"
	"github.com/comigor/bodi-go/internal/recommend"
)

// UnconfiguredReply answers chat requests when no model is configured.
const UnconfiguredReply = "Abeg, my brain (API key) no dey available now. Configure am make I fit think properly!"

const defaultChatTimeout = 60 * time.Second

// maxPriceNaira keeps max_price*100 well inside int64 kobo; float64 rounding
// makes math.MaxInt64/100 itself overflow.
const maxPriceNaira = 1e16

// Deps are the collaborators the routes need. Responder may be nil.
type Deps struct {
	Catalog   *catalog.Provider
	Responder llm.Responder
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	ChatRPS   float64
	ChatBurst int
}

// New builds the gin engine with every route registered.
func New(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), observe(d.Metrics))

	h := &handlers{deps: d}

	router.GET("/health", h.health)
	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.GET("/properties", h.listProperties)
		api.GET("/properties/:id", h.getProperty)
		api.POST("/chat", limit(d.ChatRPS, d.ChatBurst), h.chat)
	}
	return router
}

type handlers struct {
	deps Deps
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":  "BODI API - All Features Active",
		"status":   "online",
		"listings": h.deps.Catalog.Snapshot().Len(),
	})
}

// listProperties serves the listing page. With a recommended parameter it
// returns exactly the correlated set, ignoring the other filters; an empty or
// malformed token yields an empty list.
func (h *handlers) listProperties(c *gin.Context) {
	snap := h.deps.Catalog.Snapshot()

	if ids, ok := recommend.FromQuery(c.Request.URL.Query()); ok {
		set := recommend.Correlate(ids, snap)
		c.JSON(http.StatusOK, []catalog.Entry(set))
		return
	}

	var f catalog.Filter
	f.Location = c.Query("location")
	if raw := c.Query("max_price"); raw != "" {
		naira, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(naira) || naira < 0 || naira > maxPriceNaira {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_price must be a non-negative number of naira"})
			return
		}
		f.MaxPriceMinor = int64(math.Round(naira * 100))
	}
	if raw := c.Query("verified_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "verified_only must be a boolean"})
			return
		}
		f.VerifiedOnly = v
	}
	c.JSON(http.StatusOK, snap.Filter(f))
}

func (h *handlers) getProperty(c *gin.Context) {
	entry, ok := h.deps.Catalog.Snapshot().Lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Property not found"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *handlers) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in := req.toLLM()

	if h.deps.Responder == nil {
		c.JSON(http.StatusOK, gin.H{"response": UnconfiguredReply, "language": in.Language})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultChatTimeout)
	defer cancel()
	reply, err := h.deps.Responder.Respond(ctx, in)
	if err != nil {
		logger.L.Error("chat request failed", "request_id", c.GetString("request_id"), "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{"error": "Network issue. Please try again."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply, "language": in.Language})
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func observe(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.ObserveRequest(route, strconv.Itoa(status))
		logger.L.Debug("http request", "route", route, "status", status, "duration", time.Since(start), "request_id", c.GetString("request_id"))
	}
}

// limit rejects requests above rps with 429. rps <= 0 disables it.
func limit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
