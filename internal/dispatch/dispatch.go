// Package dispatch maps entity tags to typed store handlers and wraps every
// operation in a uniform result envelope.
//
// Callers pass an operation, a tag and a payload; they get back a Result
// and never an error. The Status on the Result says how the boundary
// layer should report it.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/nexus/internal/metrics"
	"github.com/roach88/nexus/internal/model"
	"github.com/roach88/nexus/internal/store"
	"github.com/roach88/nexus/internal/validate"
)

// Status classifies a Result.
type Status string

const (
	StatusOK            Status = "ok"
	StatusValidation    Status = "validation"
	StatusUnknownEntity Status = "unknown_entity"
	StatusUnsupported   Status = "unsupported"
	StatusNotFound      Status = "not_found"
	StatusStorage       Status = "storage"
)

// Result is the envelope returned for every operation.
type Result struct {
	Success bool   `json:"Success"`
	Message string `json:"Message"`
	Data    any    `json:"Data,omitempty"`

	Status Status `json:"-"`
}

// Store is the persistence the dispatcher drives. *store.Store implements it.
type Store interface {
	Insert(ctx context.Context, e model.Entity, p model.Payload) (store.Outcome, error)
	Update(ctx context.Context, e model.Entity, p model.Payload) (store.Outcome, error)
	Delete(ctx context.Context, e model.Entity, p model.Payload) (store.Outcome, error)
	DeleteAll(ctx context.Context, e model.Entity) (store.Outcome, error)
	Query(ctx context.Context, e model.Entity, req model.QueryRequest) (model.Page, error)
}

// Dispatcher routes operations to the registered entity handlers.
type Dispatcher struct {
	handlers map[model.Entity]handler
	logger   *slog.Logger
	metrics  *metrics.Metrics
	maxLimit int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for operation failures.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithMetrics records every operation in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithMaxLimit bounds the query page size.
func WithMaxLimit(n int) Option {
	return func(d *Dispatcher) { d.maxLimit = n }
}

// New builds a dispatcher over st. It fails if any entity lacks a handler.
func New(st Store, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: newRegistry(st),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxLimit: model.MaxLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := checkRegistry(d.handlers); err != nil {
		return nil, err
	}
	return d, nil
}

// Insert validates p and inserts it as the entity named by tag.
func (d *Dispatcher) Insert(ctx context.Context, tag string, p model.Payload) Result {
	return d.write(ctx, model.OpInsert, tag, p)
}

// Update validates p and applies it as a partial update.
func (d *Dispatcher) Update(ctx context.Context, tag string, p model.Payload) Result {
	return d.write(ctx, model.OpUpdate, tag, p)
}

// Delete removes the row identified by p.
func (d *Dispatcher) Delete(ctx context.Context, tag string, p model.Payload) Result {
	return d.write(ctx, model.OpDelete, tag, p)
}

// DeleteAll removes every row of the entity named by tag.
func (d *Dispatcher) DeleteAll(ctx context.Context, tag string) Result {
	return d.write(ctx, model.OpDeleteAll, tag, nil)
}

// Query returns one page of the entity named by tag.
func (d *Dispatcher) Query(ctx context.Context, tag string, req model.QueryRequest) (res Result) {
	start := time.Now()
	e, h, res, ok := d.resolve(model.OpQuery, tag)
	defer d.finish(ctx, model.OpQuery, tag, e, start, &res)
	if !ok {
		return res
	}

	if err := validate.CheckQuery(e, req, d.maxLimit); err != nil {
		return failure(err)
	}
	page, err := h.query(ctx, req)
	if err != nil {
		return failure(err)
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("%d of %d %s", len(page.Rows), page.Total, e.Plural()),
		Data:    page,
		Status:  StatusOK,
	}
}

func (d *Dispatcher) write(ctx context.Context, op model.Op, tag string, p model.Payload) (res Result) {
	start := time.Now()
	e, h, res, ok := d.resolve(op, tag)
	defer d.finish(ctx, op, tag, e, start, &res)
	if !ok {
		return res
	}

	if err := validate.Check(op, e, p); err != nil {
		return failure(err)
	}

	var out store.Outcome
	var err error
	switch op {
	case model.OpInsert:
		out, err = h.insert(ctx, p)
	case model.OpUpdate:
		out, err = h.update(ctx, p)
	case model.OpDelete:
		out, err = h.delete(ctx, p)
	case model.OpDeleteAll:
		out, err = h.deleteAll(ctx)
	}
	if err != nil {
		return failure(err)
	}

	res = Result{Success: true, Message: out.Message, Status: StatusOK}
	if len(out.Data) > 0 {
		res.Data = out.Data
	}
	return res
}

// resolve finds the handler for tag and checks it supports op.
func (d *Dispatcher) resolve(op model.Op, tag string) (model.Entity, handler, Result, bool) {
	e, ok := model.ParseEntity(tag)
	if !ok {
		return "", handler{}, Result{
			Message: fmt.Sprintf("unknown entity %q", tag),
			Status:  StatusUnknownEntity,
		}, false
	}
	h := d.handlers[e]
	if !h.supports(op) {
		return e, handler{}, Result{
			Message: fmt.Sprintf("%s does not support %s", e.Plural(), op),
			Status:  StatusUnsupported,
		}, false
	}
	return e, h, Result{}, true
}

// finish recovers panics into a storage failure, logs failures and
// records metrics. It must be deferred directly so recover sees the panic.
func (d *Dispatcher) finish(ctx context.Context, op model.Op, tag string, e model.Entity, start time.Time, res *Result) {
	if r := recover(); r != nil {
		d.logger.ErrorContext(ctx, "operation panicked", "op", op, "entity", tag, "panic", r)
		*res = Result{Message: fmt.Sprintf("internal error: %v", r), Status: StatusStorage}
	}

	label := string(e)
	if label == "" {
		label = "unknown"
	}
	d.metrics.Observe(string(op), label, string(res.Status), start)

	switch res.Status {
	case StatusOK:
		d.logger.DebugContext(ctx, "operation", "op", op, "entity", label, "message", res.Message)
	case StatusStorage:
		d.logger.ErrorContext(ctx, "operation failed", "op", op, "entity", label, "error", res.Message)
	default:
		d.logger.InfoContext(ctx, "operation rejected", "op", op, "entity", tag, "status", res.Status, "reason", res.Message)
	}
}

// failure converts an error from validation or the store into a Result.
func failure(err error) Result {
	res := Result{Message: err.Error(), Status: classify(err)}
	if ve, ok := validate.AsError(err); ok {
		res.Message = ve.Reason
		res.Data = map[string]any{"kind": ve.Kind, "fields": ve.Fields}
	}
	return res
}

func classify(err error) Status {
	var ve *validate.Error
	switch {
	case errors.As(err, &ve):
		return StatusValidation
	case errors.Is(err, model.ErrInvalidDatetime), errors.Is(err, model.ErrInvalidType):
		return StatusValidation
	case store.IsFarmerNotFound(err):
		return StatusNotFound
	case store.IsUnsupported(err):
		return StatusUnsupported
	default:
		return StatusStorage
	}
}
