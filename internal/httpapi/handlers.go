package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/roach88/nexus/internal/dispatch"
	"github.com/roach88/nexus/internal/model"
)

// Query string parameters with fixed meaning. Any other parameter is
// passed through as an equality filter.
const (
	paramPage  = "page"
	paramLimit = "limit"
	paramStart = "start_datetime"
	paramEnd   = "end_datetime"
)

type writeFunc func(ctx context.Context, tag string, p model.Payload) dispatch.Result

func (s *Server) handleWrite(op writeFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := decodePayload(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			res := badRequest(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			c.JSON(http.StatusRequestEntityTooLarge, res)
			return
		}
		if err != nil {
			respond(c, badRequest(err.Error()))
			return
		}
		respond(c, op(c.Request.Context(), c.Param("entity"), p))
	}
}

func (s *Server) handleDeleteAll(c *gin.Context) {
	respond(c, s.d.DeleteAll(c.Request.Context(), c.Param("entity")))
}

func (s *Server) handleQuery(c *gin.Context) {
	req, err := parseQuery(c)
	if err != nil {
		respond(c, badRequest(err.Error()))
		return
	}
	respond(c, s.d.Query(c.Request.Context(), c.Param("entity"), req))
}

// decodePayload reads a JSON object. Numbers stay json.Number so integer
// columns can reject fractions.
func decodePayload(r io.Reader) (model.Payload, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("request body must be a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var p model.Payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %v", err)
	}
	if p == nil {
		return nil, fmt.Errorf("request body must be a JSON object")
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid JSON body: trailing data")
	}
	return p, nil
}

func parseQuery(c *gin.Context) (model.QueryRequest, error) {
	req := model.QueryRequest{
		Page:    model.DefaultPage,
		Limit:   model.DefaultLimit,
		Start:   c.Query(paramStart),
		End:     c.Query(paramEnd),
		Filters: map[string]string{},
	}

	var err error
	if v, ok := c.GetQuery(paramPage); ok {
		if req.Page, err = strconv.Atoi(v); err != nil {
			return req, fmt.Errorf("page must be an integer, got %q", v)
		}
	}
	if v, ok := c.GetQuery(paramLimit); ok {
		if req.Limit, err = strconv.Atoi(v); err != nil {
			return req, fmt.Errorf("limit must be an integer, got %q", v)
		}
	}

	for key, values := range c.Request.URL.Query() {
		switch key {
		case paramPage, paramLimit, paramStart, paramEnd:
			continue
		}
		if len(values) > 0 {
			req.Filters[key] = values[0]
		}
	}
	return req, nil
}

func badRequest(msg string) dispatch.Result {
	return dispatch.Result{Message: msg, Status: dispatch.StatusValidation}
}
