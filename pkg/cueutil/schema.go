// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DefaultMaxFileSize bounds the size of a single CUE input file.
const DefaultMaxFileSize int64 = 4 << 20

var (
	// ErrSchema is returned when input does not satisfy a schema.
	ErrSchema = errors.New("schema violation")
	// ErrTooLarge is returned for input above the configured size limit.
	ErrTooLarge = errors.New("input exceeds size limit")
)

type (
	// Schema is one definition of a compiled CUE schema. It is safe for
	// concurrent use; CUE evaluation is serialized internally.
	Schema struct {
		mu         sync.Mutex
		ctx        *cue.Context
		def        cue.Value
		definition string
	}

	// Option configures a single Decode call.
	Option func(*options)

	options struct {
		filename    string
		maxFileSize int64
		concrete    bool
	}
)

// WithFilename sets the file name used in error messages.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(n int64) Option {
	return func(o *options) { o.maxFileSize = n }
}

// WithConcrete controls whether every value must be concrete after
// unification. Concrete validation is on by default.
func WithConcrete(concrete bool) Option {
	return func(o *options) { o.concrete = concrete }
}

func newOptions(opts []Option) options {
	o := options{filename: "<input>", maxFileSize: DefaultMaxFileSize, concrete: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// CompileSchema compiles src and selects definition (e.g. "#File").
func CompileSchema(src []byte, definition string) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src)
	if v.Err() != nil {
		return nil, fmt.Errorf("compile schema: %w", v.Err())
	}
	def := v.LookupPath(cue.ParsePath(definition))
	if def.Err() != nil {
		return nil, fmt.Errorf("schema definition %s not found: %w", definition, def.Err())
	}
	return &Schema{ctx: ctx, def: def, definition: definition}, nil
}

// MustCompileSchema is CompileSchema that panics on error. Intended for
// package-level schema variables built from embedded files.
func MustCompileSchema(src []byte, definition string) *Schema {
	s, err := CompileSchema(src, definition)
	if err != nil {
		panic(err)
	}
	return s
}

// Definition returns the schema definition name.
func (s *Schema) Definition() string { return s.definition }

// Decode compiles CUE source data, unifies it with the schema definition and
// decodes the result into out.
func (s *Schema) Decode(data []byte, out any, opts ...Option) error {
	o := newOptions(opts)
	if int64(len(data)) > o.maxFileSize {
		return fmt.Errorf("%s: %w: %d bytes (limit %d)", o.filename, ErrTooLarge, len(data), o.maxFileSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.ctx.CompileBytes(data, cue.Filename(o.filename))
	return s.decode(v, out, o)
}

// DecodeValue unifies an already decoded Go value (a map read from TOML, for
// instance) with the schema definition and decodes the result into out.
func (s *Schema) DecodeValue(in, out any, opts ...Option) error {
	o := newOptions(opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decode(s.ctx.Encode(in), out, o)
}

// decode validates v against the definition. Callers hold s.mu.
func (s *Schema) decode(v cue.Value, out any, o options) error {
	if v.Err() != nil {
		return newSchemaError(v.Err(), o.filename)
	}
	unified := s.def.Unify(v)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return newSchemaError(err, o.filename)
	}
	if err := unified.Decode(out); err != nil {
		return newSchemaError(err, o.filename)
	}
	return nil
}

// Decode is Schema.Decode returning a freshly allocated T.
func Decode[T any](s *Schema, data []byte, opts ...Option) (*T, error) {
	var out T
	if err := s.Decode(data, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}
