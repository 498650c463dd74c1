// Package parser provides a small value-level JSON combinator library. It is
// the single validation boundary for ledger event logs and instance config
// files: shapes are described as composable parsers instead of struct tags,
// which keeps legacy-shape upgrades (renamed keys, retired fields) explicit.
package parser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error reports a shape mismatch at a specific path within the input.
type Error struct {
	Path     string
	Expected string
	Got      string

	// cause carries a domain error raised during refinement, so callers can
	// still match it with errors.Is / errors.As.
	cause error
}

func (e *Error) Error() string {
	path := e.Path
	if path == "" {
		path = "$"
	}
	return fmt.Sprintf("parse error at %s: expected %s, got %s", path, e.Expected, e.Got)
}

func (e *Error) Unwrap() error { return e.cause }

func prefixPath(err error, segment string) error {
	if pe, ok := err.(*Error); ok {
		path := segment
		if pe.Path != "" {
			path = segment + "." + pe.Path
		}
		return &Error{Path: path, Expected: pe.Expected, Got: pe.Got, cause: pe.cause}
	}
	return fmt.Errorf("%s: %w", segment, err)
}

func describe(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", raw)
	}
}

// Parser consumes a decoded JSON value (the any-typed output of
// encoding/json) and produces a T or a parse error.
type Parser[T any] struct {
	run func(raw any) (T, error)
}

// New wraps a raw parsing function.
func New[T any](run func(raw any) (T, error)) Parser[T] {
	return Parser[T]{run: run}
}

// Parse applies the parser to a decoded JSON value.
func (p Parser[T]) Parse(raw any) (T, error) {
	return p.run(raw)
}

// ParseJSON decodes data and applies the parser.
func (p Parser[T]) ParseJSON(data []byte) (T, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		var zero T
		return zero, &Error{Expected: "valid JSON", Got: err.Error()}
	}
	return p.run(raw)
}

// String accepts a JSON string.
func String() Parser[string] {
	return New(func(raw any) (string, error) {
		s, ok := raw.(string)
		if !ok {
			return "", &Error{Expected: "string", Got: describe(raw)}
		}
		return s, nil
	})
}

// Number accepts a JSON number.
func Number() Parser[float64] {
	return New(func(raw any) (float64, error) {
		n, ok := raw.(float64)
		if !ok {
			return 0, &Error{Expected: "number", Got: describe(raw)}
		}
		return n, nil
	})
}

// Boolean accepts a JSON boolean.
func Boolean() Parser[bool] {
	return New(func(raw any) (bool, error) {
		b, ok := raw.(bool)
		if !ok {
			return false, &Error{Expected: "boolean", Got: describe(raw)}
		}
		return b, nil
	})
}

// Null accepts only JSON null and yields the zero T.
func Null[T any]() Parser[T] {
	return New(func(raw any) (T, error) {
		var zero T
		if raw != nil {
			return zero, &Error{Expected: "null", Got: describe(raw)}
		}
		return zero, nil
	})
}

// Pure ignores its input and yields v. Useful for defaults inside OrElse.
func Pure[T any](v T) Parser[T] {
	return New(func(any) (T, error) { return v, nil })
}

// Array accepts a JSON array whose elements all satisfy elem.
func Array[T any](elem Parser[T]) Parser[[]T] {
	return New(func(raw any) ([]T, error) {
		items, ok := raw.([]any)
		if !ok {
			return nil, &Error{Expected: "array", Got: describe(raw)}
		}
		out := make([]T, len(items))
		for idx, item := range items {
			v, err := elem.run(item)
			if err != nil {
				return nil, prefixPath(err, fmt.Sprintf("[%d]", idx))
			}
			out[idx] = v
		}
		return out, nil
	})
}

// Dict accepts a JSON object with arbitrary keys whose values all satisfy
// val.
func Dict[V any](val Parser[V]) Parser[map[string]V] {
	return New(func(raw any) (map[string]V, error) {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, &Error{Expected: "object", Got: describe(raw)}
		}
		out := make(map[string]V, len(obj))
		for key, item := range obj {
			v, err := val.run(item)
			if err != nil {
				return nil, prefixPath(err, key)
			}
			out[key] = v
		}
		return out, nil
	})
}

// Tuple accepts a fixed-length JSON array, parsing position i with elems[i].
func Tuple(elems ...Parser[any]) Parser[[]any] {
	return New(func(raw any) ([]any, error) {
		items, ok := raw.([]any)
		if !ok {
			return nil, &Error{Expected: "array", Got: describe(raw)}
		}
		if len(items) != len(elems) {
			return nil, &Error{
				Expected: fmt.Sprintf("array of length %d", len(elems)),
				Got:      fmt.Sprintf("array of length %d", len(items)),
			}
		}
		out := make([]any, len(items))
		for idx, item := range items {
			v, err := elems[idx].run(item)
			if err != nil {
				return nil, prefixPath(err, fmt.Sprintf("[%d]", idx))
			}
			out[idx] = v
		}
		return out, nil
	})
}

// OrElse tries each option in order and returns the first success. On total
// failure the error aggregates every option's complaint.
func OrElse[T any](options ...Parser[T]) Parser[T] {
	return New(func(raw any) (T, error) {
		var zero T
		msgs := make([]string, 0, len(options))
		for _, opt := range options {
			v, err := opt.run(raw)
			if err == nil {
				return v, nil
			}
			msgs = append(msgs, err.Error())
		}
		return zero, &Error{
			Expected: "one of: " + strings.Join(msgs, "; "),
			Got:      describe(raw),
		}
	})
}

// Fmap applies f to the parser's output; an error from f becomes a parse
// error.
func Fmap[A, B any](p Parser[A], f func(A) (B, error)) Parser[B] {
	return New(func(raw any) (B, error) {
		var zero B
		a, err := p.run(raw)
		if err != nil {
			return zero, err
		}
		b, err := f(a)
		if err != nil {
			if _, ok := err.(*Error); ok {
				return zero, err
			}
			return zero, &Error{Expected: "valid value", Got: err.Error(), cause: err}
		}
		return b, nil
	})
}

// Raw erases a parser's output type so heterogeneous combinators (Tuple,
// Object) can mix element types.
func Raw[T any](p Parser[T]) Parser[any] {
	return New(func(raw any) (any, error) {
		v, err := p.run(raw)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

// Nullable maps JSON null to nil and otherwise parses with p.
func Nullable[T any](p Parser[T]) Parser[*T] {
	return New(func(raw any) (*T, error) {
		if raw == nil {
			return nil, nil
		}
		v, err := p.run(raw)
		if err != nil {
			return nil, err
		}
		return &v, nil
	})
}

// Exactly accepts only the listed literal values. It is the discriminator for
// tagged unions: Exactly("TRANSFER_GRAIN") on an action's type field.
func Exactly[T comparable](literals ...T) Parser[T] {
	return New(func(raw any) (T, error) {
		var zero T
		for _, lit := range literals {
			if v, ok := raw.(T); ok && v == lit {
				return v, nil
			}
		}
		return zero, &Error{
			Expected: fmt.Sprintf("one of %v", literals),
			Got:      fmt.Sprintf("%v", raw),
		}
	})
}
