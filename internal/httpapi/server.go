// Package httpapi exposes the dispatcher over HTTP with gin.
//
// Routes:
//
//	POST /insert/:entity        JSON object body
//	POST /update/:entity        JSON object body
//	POST /delete/:entity        JSON object body
//	POST /delete/:entity/all
//	GET  /get/:entity           page, limit, start_datetime, end_datetime, filters
//	GET  /hello
//	GET  /healthz
//	GET  /metrics
//
// Every response other than /hello, /healthz and /metrics is a
// dispatch.Result encoded as JSON.
package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roach88/nexus/internal/dispatch"
	"github.com/roach88/nexus/internal/metrics"
	"github.com/roach88/nexus/internal/model"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Dispatcher runs entity operations. *dispatch.Dispatcher implements it.
type Dispatcher interface {
	Insert(ctx context.Context, tag string, p model.Payload) dispatch.Result
	Update(ctx context.Context, tag string, p model.Payload) dispatch.Result
	Delete(ctx context.Context, tag string, p model.Payload) dispatch.Result
	DeleteAll(ctx context.Context, tag string) dispatch.Result
	Query(ctx context.Context, tag string, req model.QueryRequest) dispatch.Result
}

// Pinger reports database health. *store.Store implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server routes HTTP requests to a Dispatcher.
type Server struct {
	router  *gin.Engine
	d       Dispatcher
	db      Pinger
	logger  *slog.Logger
	metrics *metrics.Metrics
	newID   func() string
	maxBody int64
}

// DefaultMaxBodyBytes bounds write request bodies.
const DefaultMaxBodyBytes int64 = 1 << 20

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the access and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics serves m on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRequestIDs replaces the uuid request id generator.
func WithRequestIDs(next func() string) Option {
	return func(s *Server) { s.newID = next }
}

// WithMaxBodyBytes bounds write request bodies at n bytes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBody = n }
}

// NewServer builds the router. db may be nil, in which case /healthz
// always reports ok.
func NewServer(d Dispatcher, db Pinger, opts ...Option) *Server {
	s := &Server{
		d:       d,
		db:      db,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:   uuid.NewString,
		maxBody: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(s.requestID(), s.accessLog(), gin.CustomRecovery(s.recovered))

	r.POST("/insert/:entity", s.handleWrite(d.Insert))
	r.POST("/update/:entity", s.handleWrite(d.Update))
	r.POST("/delete/:entity", s.handleWrite(d.Delete))
	r.POST("/delete/:entity/all", s.handleDeleteAll)
	r.GET("/get/:entity", s.handleQuery)

	r.GET("/hello", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Hi"})
	})
	r.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.db != nil {
		if err := s.db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respond writes res with the HTTP status for its classification.
func respond(c *gin.Context, res dispatch.Result) {
	c.JSON(httpStatus(res.Status), res)
}

func httpStatus(st dispatch.Status) int {
	switch st {
	case dispatch.StatusOK:
		return http.StatusOK
	case dispatch.StatusValidation, dispatch.StatusUnsupported:
		return http.StatusBadRequest
	case dispatch.StatusUnknownEntity:
		return http.StatusNotFound
	case dispatch.StatusNotFound:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
