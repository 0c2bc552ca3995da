package devserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/archivekit/identity"
	"github.com/kbukum/archivekit/logger"
	"github.com/kbukum/archivekit/objstore/memory"
	"github.com/kbukum/archivekit/observability"
	"github.com/kbukum/archivekit/version"
)

// Server emulates the identity and storage services in one process.
// Seed it through AddUser, AddProject, and Store before or after Start;
// all seeding methods are safe for concurrent use.
type Server struct {
	cfg        Config
	log        *logger.Logger
	engine     *gin.Engine
	httpServer *http.Server
	accounts   *accounts
	tokens     *tokenService
	maxObject  int64

	mu       sync.RWMutex
	stores   map[string]*memory.Store
	listener net.Listener
	baseURL  string
}

// New creates a Server. Call Start to bind the port.
func New(cfg Config, log *logger.Logger) (*Server, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("devserver: invalid configuration: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}

	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:       cfg,
		log:       log.WithComponent("devserver"),
		accounts:  newAccounts(),
		tokens:    newTokenService(cfg.Secret, cfg.TokenTTL),
		maxObject: cfg.maxObjectBytes(),
		stores:    make(map[string]*memory.Store),
	}

	engine := gin.New()
	engine.Use(s.recovery(), s.transaction(), s.requestLogger())
	s.engine = engine
	s.registerRoutes()

	mux := http.NewServeMux()
	mux.Handle("/", engine)

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h2c.NewHandler(mux, h2s),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}
	return s, nil
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/info", s.handleInfo)

	s.engine.POST("/v3/auth/tokens", s.handleTokens)
	s.engine.GET("/v3/users/:id/projects", s.handleUserProjects)

	v1 := s.engine.Group("/v1")
	v1.GET("/:account", s.handleAccount)

	v1.PUT("/:account/:container", s.handleContainerPut)
	v1.HEAD("/:account/:container", s.handleContainerHead)
	v1.POST("/:account/:container", s.handleContainerPost)
	v1.GET("/:account/:container", s.handleContainerGet)
	v1.DELETE("/:account/:container", s.handleContainerDelete)

	v1.GET("/:account/:container/*key", s.handleObjectGet)
	v1.HEAD("/:account/:container/*key", s.handleObjectHead)
	v1.PUT("/:account/:container/*key", s.handleObjectPut)
	v1.DELETE("/:account/:container/*key", s.handleObjectDelete)
	v1.Handle("COPY", "/:account/:container/*key", s.handleObjectCopy)
}

// Start binds the listen address and begins serving. It returns once
// the listener is bound so callers can read URL() immediately.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("devserver: bind %s: %w", s.httpServer.Addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.baseURL = "http://" + listener.Addr().String()
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
		}
	}()

	s.log.Info("development server started", map[string]interface{}{
		"addr": listener.Addr().String(),
	})
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("devserver: shutdown: %w", err)
	}
	s.log.Info("development server stopped")
	return nil
}

// URL returns the server base URL. It doubles as the identity auth URL
// for client configs. Empty before Start.
func (s *Server) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseURL
}

// storageURL is the catalog endpoint for a project's storage account.
func (s *Server) storageURL(projectID string) string {
	return s.URL() + "/v1/" + accountPrefix + projectID
}

// AddUser registers a principal and returns its generated id.
func (s *Server) AddUser(name, password string) (string, error) {
	return s.accounts.addUser(name, password)
}

// AddProject registers a project with its member users and creates the
// backing store for its account.
func (s *Server) AddProject(ref identity.ProjectRef, memberIDs ...string) error {
	if err := s.accounts.addProject(ref, memberIDs...); err != nil {
		return err
	}
	s.mu.Lock()
	s.stores[ref.ID] = memory.NewStore()
	s.mu.Unlock()
	return nil
}

// Store exposes a project's backing store for direct seeding and
// inspection. Nil when the project is unknown.
func (s *Server) Store(projectID string) *memory.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stores[projectID]
}

// handleHealth reports service health with per-subsystem detail.
func (s *Server) handleHealth(c *gin.Context) {
	users, projects := s.accounts.counts()

	sh := observability.NewServiceHealth("archivekit-devserver", version.Version)
	sh.AddComponent(observability.Health{
		Name:    "identity",
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"users": strconv.Itoa(users)},
	})
	sh.AddComponent(observability.Health{
		Name:    "storage",
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"projects": strconv.Itoa(projects)},
	})

	status := http.StatusOK
	if sh.Status == observability.HealthStatusDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, sh)
}

// handleInfo reports build information.
func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, version.GetVersionInfo())
}

// recovery turns handler panics into 500 responses.
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("panic recovered", map[string]interface{}{
					logger.FieldError: fmt.Sprintf("%v", r),
					"stack":           string(debug.Stack()),
					"path":            c.Request.URL.Path,
				})
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

// transaction tags every response with a storage-style transaction id,
// folding in the caller's X-Trans-Id-Extra when present.
func (s *Server) transaction() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := "tx" + strings.ReplaceAll(uuid.NewString(), "-", "")
		if extra := c.GetHeader("X-Trans-Id-Extra"); extra != "" {
			id += "-" + extra
		}
		c.Header("X-Trans-Id", id)
		c.Next()
	}
}

// requestLogger logs each request outcome, skipping health probes.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":             c.Request.Method,
			"path":               c.Request.URL.Path,
			logger.FieldStatus:   status,
			logger.FieldDuration: time.Since(start).Milliseconds(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			s.log.Error("request completed", fields)
		case status >= http.StatusBadRequest:
			s.log.Warn("request completed", fields)
		default:
			s.log.Debug("request completed", fields)
		}
	}
}
