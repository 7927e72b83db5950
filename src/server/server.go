package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"crypto-indices/src/helpers"
	"crypto-indices/src/interfaces"
	"crypto-indices/src/logger"
	"crypto-indices/src/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	cacheHeader     = "X-Cache"
	requestIDKey    = "request_id"

	corsAllowHeaders = "authorization, x-client-info, apikey, content-type"
	corsAllowMethods = "POST, GET, OPTIONS"

	maxRequestBody = 64 << 10
)

// -----------------------------------------------------------------------------
// IndexServer
// -----------------------------------------------------------------------------

type IndexServer struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Provider interfaces.IIndexProvider
	Store    interfaces.IDatabase
	Metrics  *Metrics

	engine     *gin.Engine
	httpServer *http.Server

	// WebSocket clients, owned by the hub goroutine
	clients     map[*Client]struct{}
	broadcast   chan *models.MIndexUpdate
	register    chan *Client
	unregister  chan *Client
	replies     chan clientReply
	done        chan struct{}
	stopOnce    sync.Once
	connections atomic.Int64

	// Last pushed update, replayed to new websocket clients
	latestState *models.MIndexUpdate
	stateMutex  sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewIndexServer(cfg *models.MConfig, provider interfaces.IIndexProvider, store interfaces.IDatabase, log *logger.Logger) *IndexServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &IndexServer{
		Config:   cfg,
		Logger:   log,
		Provider: provider,
		Store:    store,
		Metrics:  NewMetrics(),
		engine:   gin.New(),
		clients:  make(map[*Client]struct{}),
		// Buffered so a compute never waits on slow websocket consumers
		broadcast:  make(chan *models.MIndexUpdate, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		replies:    make(chan clientReply),
		done:       make(chan struct{}),
	}

	s.engine.Use(gin.Recovery(), s.requestIDMiddleware(), corsMiddleware(), s.metricsMiddleware())
	s.setupRoutes()

	go s.handleWebsockets()
	return s
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

// corsMiddleware allows any origin; preflights are answered with 204.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
		c.Writer.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
		c.Writer.Header().Set("Access-Control-Expose-Headers", cacheHeader+", "+requestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// -----------------------------------------------------------------------------

func (s *IndexServer) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// -----------------------------------------------------------------------------

func (s *IndexServer) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.Metrics.requestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *IndexServer) setupRoutes() {
	// Index endpoint, exposed under both the function path and the API prefix
	s.engine.POST("/crypto-indices", s.handleIndices)
	s.engine.POST("/api/crypto-indices", s.handleIndices)

	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/history/:index", s.getHistory)
	s.engine.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------

// Handler exposes the router for embedding and tests.
func (s *IndexServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *IndexServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *IndexServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = s.httpServer.Shutdown(ctx)
		}
	})
	return err
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

type indicesRequest struct {
	TimePeriod string `json:"timePeriod"`
}

// -----------------------------------------------------------------------------

func (s *IndexServer) handleIndices(c *gin.Context) {
	reqID := c.GetString(requestIDKey)

	period, err := parsePeriod(c)
	if err != nil {
		s.fail(c, reqID, err)
		return
	}

	start := time.Now()
	payload, hit, err := s.Provider.GetIndices(c.Request.Context(), period)
	if err != nil {
		s.fail(c, reqID, err)
		return
	}

	if hit {
		s.Metrics.cacheLookups.WithLabelValues("hit").Inc()
		c.Header(cacheHeader, "HIT")
	} else {
		s.Metrics.cacheLookups.WithLabelValues("miss").Inc()
		s.Metrics.computeDuration.WithLabelValues(string(period)).Observe(time.Since(start).Seconds())
		c.Header(cacheHeader, "MISS")
	}

	s.Logger.WithField(requestIDKey, reqID).Debug("Served %s indices (cache hit: %t)", period, hit)
	c.JSON(http.StatusOK, payload)
}

// -----------------------------------------------------------------------------

// parsePeriod reads the optional JSON body. An empty body selects the default.
func parsePeriod(c *gin.Context) (models.MTimePeriod, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBody)
	body, err := c.GetRawData()
	if err != nil {
		return "", helpers.NewValidationError(fmt.Sprintf("read body: %v", err))
	}

	var req indicesRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return "", helpers.NewValidationError(fmt.Sprintf("invalid JSON body: %v", err))
		}
	}
	return models.ParseTimePeriod(req.TimePeriod), nil
}

// -----------------------------------------------------------------------------

// fail answers 500 with the error message, uncaught errors included.
func (s *IndexServer) fail(c *gin.Context, reqID string, err error) {
	kind := helpers.ErrorKind(err)
	s.Metrics.computeErrors.WithLabelValues(kind).Inc()
	s.Logger.WithField(requestIDKey, reqID).Error("Index request failed (%s): %v", kind, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// -----------------------------------------------------------------------------

func (s *IndexServer) getHealth(c *gin.Context) {
	period, _, updated := s.Provider.Latest()

	latest := int64(0)
	if !updated.IsZero() {
		latest = updated.Unix()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"connections":   s.connections.Load(),
		"latest_update": latest,
		"latest_period": string(period),
	})
}

// -----------------------------------------------------------------------------

func (s *IndexServer) getHistory(c *gin.Context) {
	if s.Store == nil {
		c.JSON(http.StatusOK, []models.MIndexSnapshotRecord{})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	records, err := s.Store.RecentSnapshots(c.Param("index"), limit)
	if err != nil {
		s.fail(c, c.GetString(requestIDKey), err)
		return
	}
	if records == nil {
		records = []models.MIndexSnapshotRecord{}
	}
	c.JSON(http.StatusOK, records)
}
