package server

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/existflow/protask/internal/logger"
	"github.com/existflow/protask/internal/model"
	"github.com/existflow/protask/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
)

// DefaultUploadLimit caps image uploads
const DefaultUploadLimit = 5 << 20

// Server is the hosted ProTask backend
type Server struct {
	db   *sql.DB
	data store.Provider
	echo *echo.Echo

	// lookupSession resolves a bearer token; swapped out in tests
	lookupSession func(ctx context.Context, token string) (model.Session, error)
	uploadLimit   int64
	now           func() time.Time
}

// Option configures a Server
type Option func(*Server)

// WithUploadLimit sets the maximum accepted image size in bytes
func WithUploadLimit(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.uploadLimit = n
		}
	}
}

// New connects to Postgres, migrates and builds the router
func New(dbURL string, opts ...Option) (*Server, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := newServer(db, &pgStore{db: db}, opts...)
	s.lookupSession = s.sessionByToken

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func newServer(db *sql.DB, data store.Provider, opts ...Option) *Server {
	s := &Server{
		db:          db,
		data:        data,
		uploadLimit: DefaultUploadLimit,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true

	e.Use(requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	// Health check
	e.GET("/health", s.handleHealth)

	// API v1
	api := e.Group("/api/v1")

	// Auth endpoints (public)
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)

	// Protected endpoints
	protected := api.Group("")
	protected.Use(s.authMiddleware, s.ownerGuard)
	protected.GET("/me", s.handleMe)
	protected.POST("/logout", s.handleLogout)

	protected.GET("/tasks", s.handleListTasks)
	protected.POST("/tasks", s.handleCreateTask)
	protected.PUT("/tasks/:id", s.handleUpdateTask)
	protected.DELETE("/tasks/:id", s.handleDeleteTask)
	protected.POST("/tasks/:id/image", s.handleUploadImage, middleware.BodyLimit(bodyLimit(s.uploadLimit)))
	protected.GET("/attachments/:id", s.handleAttachment)

	protected.GET("/members", s.handleListMembers)
	protected.POST("/members", s.handleCreateMember)
	protected.DELETE("/members/:id", s.handleDeleteMember)

	protected.GET("/departments", s.handleListDepartments)
	protected.POST("/departments", s.handleCreateDepartment)
	protected.DELETE("/departments/:id", s.handleDeleteDepartment)

	protected.GET("/dashboard", s.handleDashboard)

	s.echo = e
}

// requestLogger writes one line per request through the internal logger
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		err := next(c)

		res := c.Response()
		logger.Info("HTTP Request",
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("remote", req.RemoteAddr),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()))

		return err
	}
}

// Close closes the database connection
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// bodyLimit renders a byte count in the unit syntax BodyLimit expects
func bodyLimit(n int64) string {
	return strconv.FormatInt((n+1023)/1024, 10) + "K"
}
