// Package server exposes an execution service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ohler55/ojg/gen"
	"github.com/ohler55/ojg/oj"
	"go.uber.org/zap"

	eventbus "github.com/hanpama/graphbind/internal/eventbus"
	events "github.com/hanpama/graphbind/internal/events"
	"github.com/hanpama/graphbind/internal/execution"
	language "github.com/hanpama/graphbind/internal/language"
	reqid "github.com/hanpama/graphbind/internal/reqid"
)

// RequestIDHeader carries the request id. An incoming value is reused,
// otherwise a new one is generated; either way it is echoed in the response.
const RequestIDHeader = "X-Request-Id"

// Executor runs one request payload. *execution.Service implements it.
type Executor interface {
	Execute(ctx context.Context, payload gen.Object) (gen.Object, error)
}

// Handler is an http.Handler that serves a GraphQL endpoint.
// It accepts GET query parameters or a JSON body holding one request object
// or a batch array of them.
type Handler struct {
	exec Executor
	opt  Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// Bus receives HTTPStart and HTTPFinish events. nil drops them.
	Bus *eventbus.Bus

	Logger *zap.Logger
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithBus(b *eventbus.Bus) Option     { return func(o *Options) { o.Bus = b } }
func WithLogger(log *zap.Logger) Option  { return func(o *Options) { o.Logger = log } }

func New(exec Executor, opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	if op.Logger == nil {
		op.Logger = zap.NewNop()
	}
	return &Handler{exec: exec, opt: op}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	var rid string
	if rid = r.Header.Get(RequestIDHeader); rid != "" {
		ctx = reqid.WithID(ctx, rid)
	} else {
		ctx, rid = reqid.NewContext(ctx)
	}
	w.Header().Set(RequestIDHeader, rid)

	status, ops := http.StatusOK, 0
	start := time.Now()
	eventbus.Publish(ctx, h.opt.Bus, events.HTTPStart{Request: r, RequestID: rid})
	defer func() {
		d := time.Since(start)
		eventbus.Publish(ctx, h.opt.Bus, events.HTTPFinish{
			Request:    r,
			RequestID:  rid,
			Status:     status,
			Operations: ops,
			Duration:   d,
		})
		h.opt.Logger.Debug("http request",
			zap.String("requestId", rid),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("operations", ops),
			zap.Duration("duration", d))
	}()

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		h.write(w, status, errorResponse("method not allowed"))
		return
	}

	payloads, batch, err := parseRequest(r, h.opt.MaxBodyBytes)
	if err != nil {
		status = http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.write(w, status, errorResponse(err.Error()))
		return
	}

	ops = len(payloads)
	if batch {
		out := make(gen.Array, len(payloads))
		for i, p := range payloads {
			out[i], _ = h.executeOne(ctx, p)
		}
		h.write(w, status, out)
		return
	}

	var res gen.Object
	res, status = h.executeOne(ctx, payloads[0])
	h.write(w, status, res)
}

// executeOne runs one payload and maps failures without a result to an
// error response and a status code.
func (h *Handler) executeOne(ctx context.Context, payload gen.Object) (res gen.Object, status int) {
	defer func() {
		if r := recover(); r != nil {
			h.opt.Logger.Error("execution panic", zap.Any("panic", r))
			res, status = errorResponse(execution.DefaultErrorMessage), http.StatusInternalServerError
		}
	}()

	res, err := h.exec.Execute(ctx, payload)
	if err == nil {
		return res, http.StatusOK
	}

	var syntax *language.Error
	switch {
	case errors.As(err, &syntax):
		return syntaxErrorResponse(syntax), http.StatusOK
	case errors.Is(err, execution.ErrMissingQuery):
		return errorResponse(err.Error()), http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return errorResponse(err.Error()), http.StatusServiceUnavailable
	}
	h.opt.Logger.Error("execution failed", zap.Error(err))
	return errorResponse(execution.DefaultErrorMessage), http.StatusInternalServerError
}

// ------------------ Request parsing ------------------

var errBodyTooLarge = errors.New("body too large")

func parseRequest(r *http.Request, maxBody int64) ([]gen.Object, bool, error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		if q.Get("query") == "" {
			return nil, false, errors.New("missing 'query'")
		}
		payload := gen.Object{"query": gen.String(q.Get("query"))}
		if op := q.Get("operationName"); op != "" {
			payload["operationName"] = gen.String(op)
		}
		if v := q.Get("variables"); v != "" {
			var p gen.Parser
			vars, err := p.Parse([]byte(v))
			if _, ok := vars.(gen.Object); err != nil || !ok {
				return nil, false, errors.New("invalid 'variables' JSON")
			}
			payload["variables"] = vars
		}
		return []gen.Object{payload}, false, nil
	}

	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return nil, false, errors.New("unsupported Content-Type")
	}
	defer r.Body.Close()
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, false, errors.New("failed to read body")
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return nil, false, errBodyTooLarge
	}

	var p gen.Parser
	// Parse reports no error for truncated input, only a nil node.
	node, err := p.Parse(body)
	if err != nil || node == nil {
		return nil, false, errors.New("invalid JSON")
	}
	switch v := node.(type) {
	case gen.Object:
		return []gen.Object{v}, false, nil
	case gen.Array:
		if len(v) == 0 {
			return nil, false, errors.New("empty batch")
		}
		out := make([]gen.Object, len(v))
		for i, item := range v {
			obj, ok := item.(gen.Object)
			if !ok {
				return nil, false, fmt.Errorf("batch item %d is not an object", i)
			}
			out[i] = obj
		}
		return out, true, nil
	}
	return nil, false, errors.New("request must be an object or an array")
}

// ------------------ Response formatting ------------------

func errorResponse(msg string) gen.Object {
	return gen.Object{"errors": gen.Array{gen.Object{"message": gen.String(msg)}}}
}

func syntaxErrorResponse(err *language.Error) gen.Object {
	e := gen.Object{"message": gen.String(err.Message)}
	if len(err.Locations) > 0 {
		locs := make(gen.Array, len(err.Locations))
		for i, l := range err.Locations {
			locs[i] = gen.Object{"line": gen.Int(l.Line), "column": gen.Int(l.Column)}
		}
		e["locations"] = locs
	}
	return gen.Object{"errors": gen.Array{e}}
}

func (h *Handler) write(w http.ResponseWriter, status int, v gen.Node) {
	opts := oj.Options{Sort: true}
	if h.opt.Pretty {
		opts.Indent = 2
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, oj.JSON(v, &opts)+"\n")
}
