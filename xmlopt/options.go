// Package xmlopt carries the functional-option configuration structs shared
// by the parser and serializer, following arturoeanton-go-xml's config/Option
// pattern instead of mutable package-level state.
package xmlopt

import "io"

// EntityResolver maps a (publicID, systemID, base) external identifier to a
// byte stream, or returns (nil, nil) to let the default resolver (open
// systemID relative to base, if local) try.
type EntityResolver func(base, publicID, systemID string) (io.ReadCloser, error)

// ParseConfig holds the per-parse knobs: validation mode, CDATA handling,
// whitespace stripping and external entity resolution.
type ParseConfig struct {
	Validating             bool
	PreserveCDATA          bool
	BaseDirectory          string
	ExternalEntityResolver EntityResolver
	KeepBlanks             bool
}

// ParseOption mutates a ParseConfig.
type ParseOption func(*ParseConfig)

// DefaultParseConfig returns the default configuration: non-validating,
// CDATA merged into text, whitespace-only text kept.
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{KeepBlanks: true}
}

// Validating turns on DTD validity checking; Invalid errors become fatal.
func Validating() ParseOption { return func(c *ParseConfig) { c.Validating = true } }

// PreserveCDATA keeps CDATA sections distinct from text nodes instead of
// merging them (.1).
func PreserveCDATA() ParseOption { return func(c *ParseConfig) { c.PreserveCDATA = true } }

// WithBaseDirectory sets the directory external identifiers resolve
// relative to when no resolver handles them.
func WithBaseDirectory(dir string) ParseOption {
	return func(c *ParseConfig) { c.BaseDirectory = dir }
}

// WithEntityResolver installs a host-supplied resolver for external
// identifiers (DOCTYPE external subset, external parsed entities).
func WithEntityResolver(r EntityResolver) ParseOption {
	return func(c *ParseConfig) { c.ExternalEntityResolver = r }
}

// StripBlanks discards whitespace-only character data inside elements whose
// declared content model does not allow character data (ignorable
// whitespace under a non-mixed content model) and inside elements with no
// declared content model; whitespace in mixed or ANY content is kept.
func StripBlanks() ParseOption { return func(c *ParseConfig) { c.KeepBlanks = false } }

// WriterConfig holds the serializer knobs: indentation, escaping and the
// optional XML declaration.
type WriterConfig struct {
	Indent             int
	IndentAttributes   bool
	CollapseTags       bool
	SuppressComments   bool
	EscapeWhiteSpace   bool
	EscapeDoubleQuote  bool
	XMLDeclaration     bool
	Standalone         bool
}

// WriterOption mutates a WriterConfig.
type WriterOption func(*WriterConfig)

// DefaultWriterConfig matches stated defaults.
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{Indent: 2, EscapeDoubleQuote: true}
}

func WithIndent(spaces int) WriterOption { return func(c *WriterConfig) { c.Indent = spaces } }

func WithIndentAttributes() WriterOption {
	return func(c *WriterConfig) { c.IndentAttributes = true }
}

func WithCollapseTags() WriterOption { return func(c *WriterConfig) { c.CollapseTags = true } }

func WithSuppressComments() WriterOption {
	return func(c *WriterConfig) { c.SuppressComments = true }
}

func WithEscapeWhiteSpace() WriterOption {
	return func(c *WriterConfig) { c.EscapeWhiteSpace = true }
}

func WithEscapeDoubleQuote(on bool) WriterOption {
	return func(c *WriterConfig) { c.EscapeDoubleQuote = on }
}

func WithXMLDeclaration(standalone bool) WriterOption {
	return func(c *WriterConfig) { c.XMLDeclaration = true; c.Standalone = standalone }
}
