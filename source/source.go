// Package source decodes JSON and YAML documents into the JSON-like values
// shapecheck validates: map[string]any, []any, string, bool, nil and numbers.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Format is a document syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	// ErrUnknownFormat is returned for a format or file extension that is
	// neither JSON nor YAML.
	ErrUnknownFormat = errors.New("source: unknown document format")
	// ErrTrailingData is returned when a JSON document is followed by more
	// than whitespace.
	ErrTrailingData = errors.New("source: trailing data after JSON document")
)

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

type config struct {
	useNumber bool
}

// Option configures decoding.
type Option func(*config)

// UseNumber keeps JSON numbers as json.Number instead of float64, so large
// integers survive until validation.
func UseNumber() Option { return func(c *config) { c.useNumber = true } }

// Decode reads one document of format f from r. An empty YAML stream decodes
// to nil; an empty JSON stream is an error.
func Decode(r io.Reader, f Format, opts ...Option) (any, error) {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	switch f {
	case FormatJSON:
		return decodeJSON(r, cfg)
	case FormatYAML:
		return decodeYAML(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// DecodeBytes is Decode over a byte slice.
func DecodeBytes(b []byte, f Format, opts ...Option) (any, error) {
	return Decode(bytes.NewReader(b), f, opts...)
}

// ReadFile decodes the file at path, choosing the format from its extension.
func ReadFile(path string, opts ...Option) (any, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	v, err := Decode(fh, f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

func decodeJSON(r io.Reader, cfg config) (any, error) {
	dec := json.NewDecoder(r)
	if cfg.useNumber {
		dec.UseNumber()
	}
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("source: decode json: %w", err)
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}
	return v, nil
}

func decodeYAML(r io.Reader) (any, error) {
	var v any
	if err := yaml.NewDecoder(r).Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("source: decode yaml: %w", err)
	}
	return Normalize(v), nil
}

// Normalize converts YAML-decoded values, which may contain map[any]any, into
// JSON-like values recursively. Non-string keys are formatted with fmt.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = Normalize(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				ks = fmt.Sprint(k)
			}
			out[ks] = Normalize(vv)
		}
		return out
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = Normalize(t[i])
		}
		return arr
	default:
		return v
	}
}
