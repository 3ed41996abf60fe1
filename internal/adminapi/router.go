package adminapi

import (
	"net/http"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ims-sentinel/sentineld/internal/logx"
	"github.com/ims-sentinel/sentineld/internal/metrics"
	"github.com/ims-sentinel/sentineld/internal/sensor"
)

// healthCacheTTL bounds how long a health-mirror JSON response is
// served from cache before re-querying the sensor engine. Short enough
// that dashboards polling at 1s cadence still see fresh data most of
// the time, long enough to absorb a thundering herd of simultaneous
// dashboard refreshes.
const healthCacheTTL = 2 * time.Second

// Config configures the admin HTTP surface.
type Config struct {
	JWTSecret       string
	PassphraseHash  string
}

// Server wraps the gin engine and its dependencies.
type Server struct {
	engine  *gin.Engine
	sensors *sensor.Engine
	metrics *metrics.Registry
	cfg     Config
	cache   *ristretto.Cache
	log     *logx.Logger
}

// New builds the admin API router. Every unit registered in sensors is
// exposed via /api/v1/units/:id/health.
func New(cfg Config, sensors *sensor.Engine, reg *metrics.Registry, log *logx.Logger) (*Server, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{engine: r, sensors: sensors, metrics: reg, cfg: cfg, cache: cache, log: log}
	s.routes()
	return s, nil
}

// @title Sentinel Admin API
// @version 1.0
// @description JSON/websocket mirror of the mTLS operator protocol, for dashboards.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Gatherer(), promhttp.HandlerOpts{})))
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.POST("/api/v1/login", s.handleLogin)

	authed := s.engine.Group("/api/v1")
	authed.Use(requireBearerToken(s.cfg.JWTSecret))
	authed.GET("/units", s.handleListUnits)
	authed.GET("/units/:id/health", s.handleUnitHealth)
	authed.GET("/ws", s.handleWebsocket)
}

// ServeHTTP allows *Server to be used directly with net/http.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// handleHealthz reports process liveness; always 200 once routes are wired.
func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleLogin exchanges an operator passphrase for a bearer token.
// @Summary Issue a bearer token
// @Success 200 {object} map[string]string
// @Router /login [post]
func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Subject    string `json:"subject" binding:"required"`
		Passphrase string `json:"passphrase" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !checkPassphrase(s.cfg.PassphraseHash, req.Passphrase) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid passphrase"})
		return
	}
	token, err := issueToken(s.cfg.JWTSecret, req.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// handleListUnits returns the registered unit identifiers.
// @Summary List registered units
// @Security BearerAuth
// @Success 200 {object} map[string][]string
// @Router /units [get]
func (s *Server) handleListUnits(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"units": s.sensors.ListUnits()})
}

// handleUnitHealth returns a cached JSON mirror of get_health for one unit.
// @Summary Get unit health
// @Security BearerAuth
// @Param id path string true "unit id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /units/{id}/health [get]
func (s *Server) handleUnitHealth(c *gin.Context) {
	id := c.Param("id")

	if cached, ok := s.cache.Get(id); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	health, ok := s.sensors.GetHealth(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown unit"})
		return
	}

	body := gin.H{
		"unit_id":      health.UnitID,
		"status":       health.Status,
		"message":      health.Message,
		"vibration":    health.Snapshot.VibrationLevel,
		"sound":        health.Snapshot.SoundLevel,
		"temperature":  health.Snapshot.TemperatureC,
		"current":      health.Snapshot.CurrentA,
		"timestamp":    health.Snapshot.Timestamp,
	}
	s.cache.SetWithTTL(id, body, 1, healthCacheTTL)
	c.JSON(http.StatusOK, body)
}
