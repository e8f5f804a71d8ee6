package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/nexus/internal/dispatch"
)

const ctxRequestID = "request_id"

// requestID reuses a caller-supplied X-Request-ID or assigns a new one,
// and echoes it on the response.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = s.newID()
		}
		c.Set(ctxRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"request_id", c.GetString(ctxRequestID),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			s.logger.Error("http request", attrs...)
		case c.Writer.Status() >= http.StatusBadRequest:
			s.logger.Info("http request", attrs...)
		default:
			s.logger.Debug("http request", attrs...)
		}
	}
}

func (s *Server) recovered(c *gin.Context, r any) {
	s.logger.Error("handler panicked", "request_id", c.GetString(ctxRequestID), "panic", r)
	c.AbortWithStatusJSON(http.StatusInternalServerError, dispatch.Result{
		Message: fmt.Sprintf("internal error: %v", r),
		Status:  dispatch.StatusStorage,
	})
}
