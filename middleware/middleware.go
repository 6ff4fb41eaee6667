// Package middleware validates HTTP requests against shapecheck schemas
// before they reach a handler.
package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	sc "github.com/reoring/shapecheck"
	"github.com/reoring/shapecheck/source"
)

// DefaultMaxBodyBytes bounds request bodies when Options.MaxBodyBytes is 0.
const DefaultMaxBodyBytes int64 = 1 << 20

// Entity names the part of a request that failed validation.
type Entity string

const (
	EntityParams Entity = "path-param"
	EntityQuery  Entity = "path-query"
	EntityBody   Entity = "body"
)

// Endpoint holds the schemas for each part of a request. A nil schema
// accepts anything.
type Endpoint struct {
	Params sc.Schema
	Query  sc.Schema
	Body   sc.Schema
}

// Options configures Validate.
type Options struct {
	// Logger receives a debug event per rejected request. The zero Logger
	// discards.
	Logger zerolog.Logger
	// Metrics counts outcomes per entity; nil disables counting.
	Metrics *Metrics
	// MaxBodyBytes bounds the body; 0 means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Input is the parsed request handed to the next handler.
type Input struct {
	Params any
	Query  any
	Body   any
}

type ctxKeyInput struct{}

// ContextWithInput attaches a parsed Input to the context.
func ContextWithInput(ctx context.Context, in Input) context.Context {
	return context.WithValue(ctx, ctxKeyInput{}, in)
}

// InputFromContext retrieves the Input stored by Validate.
func InputFromContext(ctx context.Context) (Input, bool) {
	v, ok := ctx.Value(ctxKeyInput{}).(Input)
	return v, ok
}

// BadRequest is the 400 response body.
type BadRequest struct {
	ErrorCode string      `json:"errorCode"`
	BadEntity Entity      `json:"badEntity"`
	Details   *sc.Failure `json:"details"`
}

// ErrorPayload shapes a failure for JSON responses.
func ErrorPayload(entity Entity, f *sc.Failure) BadRequest {
	return BadRequest{ErrorCode: "bad-request", BadEntity: entity, Details: f}
}

// Validate returns middleware that checks path params (chi URL params),
// query and JSON body, in that order. The first failing part is answered
// with 400 and a BadRequest body; the handler is not called.
func Validate(ep Endpoint, opts Options) func(http.Handler) http.Handler {
	params, query, body := orAny(ep.Params), orAny(ep.Query), orAny(ep.Body)
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var in Input
			var ok bool

			if in.Params, ok = check(w, r, opts, EntityParams, pathParams(r), params); !ok {
				return
			}
			if in.Query, ok = check(w, r, opts, EntityQuery, queryValues(r), query); !ok {
				return
			}

			raw, err := readBody(w, r, maxBody)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					opts.Metrics.observe(EntityBody, outcomeMalformed)
					writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
						"errorCode": "payload-too-large",
						"limit":     tooLarge.Limit,
					})
					return
				}
				reject(w, r, opts, EntityBody, &sc.Failure{
					Type: body.Kind(),
					Err:  &sc.Error{Code: sc.CodeParse, ParseError: err.Error()},
				}, outcomeMalformed)
				return
			}
			if in.Body, ok = check(w, r, opts, EntityBody, raw, body); !ok {
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithInput(r.Context(), in)))
		})
	}
}

func check(w http.ResponseWriter, r *http.Request, opts Options, entity Entity, v any, s sc.Schema) (any, bool) {
	res := sc.Validate(v, s)
	if !res.OK() {
		reject(w, r, opts, entity, res.Failure(), outcomeRejected)
		return nil, false
	}
	opts.Metrics.observe(entity, outcomeAccepted)
	return res.Value(), true
}

func reject(w http.ResponseWriter, r *http.Request, opts Options, entity Entity, f *sc.Failure, outcome string) {
	opts.Metrics.observe(entity, outcome)
	opts.Logger.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("entity", string(entity)).
		Str("code", string(f.Code())).
		Int("issues", len(f.Issues())).
		Msg("request rejected")
	writeJSON(w, http.StatusBadRequest, ErrorPayload(entity, f))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// pathParams returns the chi URL params as name -> string.
func pathParams(r *http.Request) map[string]any {
	out := map[string]any{}
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return out
	}
	for i, k := range rctx.URLParams.Keys {
		if i < len(rctx.URLParams.Values) {
			out[k] = rctx.URLParams.Values[i]
		}
	}
	return out
}

// queryValues maps a single value to a string and a repeated key to a list.
func queryValues(r *http.Request) map[string]any {
	q := r.URL.Query()
	out := make(map[string]any, len(q))
	for k, vs := range q {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		out[k] = list
	}
	return out
}

// readBody decodes the JSON body. An empty body is nil.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) (any, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return source.DecodeBytes(data, source.FormatJSON)
}

func orAny(s sc.Schema) sc.Schema {
	if s == nil {
		return sc.Any()
	}
	return s
}
