// Package source implements the stack of character sources described in
// : the primary input, entity replacement text, parameter
// entity expansions and external-subset files, with cycle detection for
// recursive entity references.
package source

import (
	"io"

	"github.com/arturoeanton/goxmlkit/internal/decode"
	"github.com/arturoeanton/goxmlkit/xmlerr"
)

// Frame is a single character source: "next scalar; end-of-stream marker;
// a base URI for resolving relative external identifiers".
type Frame interface {
	Next() (r rune, ok bool, err error)
	BaseURI() string
}

// DecoderFrame adapts a *decode.Decoder (the primary input, or an external
// file/entity read from bytes) to Frame.
type DecoderFrame struct {
	Dec  *decode.Decoder
	Base string
}

func (f *DecoderFrame) Next() (rune, bool, error) {
	r, _, err := f.Dec.ReadRune()
	if err == io.EOF {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return r, true, nil
}

func (f *DecoderFrame) BaseURI() string { return f.Base }

// RuneFrame is an in-memory scalar source: entity replacement text or a
// parameter-entity expansion already assembled as runes.
type RuneFrame struct {
	Runes []rune
	pos   int
	Base  string
}

// NewRuneFrame builds a RuneFrame from a string, decoding it to runes once.
func NewRuneFrame(s, base string) *RuneFrame {
	return &RuneFrame{Runes: []rune(s), Base: base}
}

func (f *RuneFrame) Next() (rune, bool, error) {
	if f.pos >= len(f.Runes) {
		return 0, false, nil
	}
	r := f.Runes[f.pos]
	f.pos++
	return r, true, nil
}

func (f *RuneFrame) BaseURI() string { return f.Base }

type entry struct {
	frame       Frame
	name        string // entity name, "" for anonymous (primary/external-subset) sources
	autoDiscard bool
}

// Stack is the pushdown of active character sources. Exhausting the top
// source pops it automatically; pushing an entity whose name is already
// open on the stack fails with EntityRecursion.
type Stack struct {
	entries []*entry
	open    map[string]bool
}

// NewStack seeds the stack with the primary input source.
func NewStack(primary Frame) *Stack {
	s := &Stack{open: make(map[string]bool)}
	s.entries = append(s.entries, &entry{frame: primary})
	return s
}

// PushEntity pushes a named source (a general- or parameter-entity
// expansion). autoDiscard marks sources that must be auto-discarded the
// instant they're exhausted without further lookahead being meaningful —
// true for parameter-entity expansions.
func (s *Stack) PushEntity(name string, f Frame, autoDiscard bool) error {
	if s.open[name] {
		return xmlerr.New(xmlerr.EntityRecursion, "entity %q is already being expanded", name)
	}
	s.open[name] = true
	s.entries = append(s.entries, &entry{frame: f, name: name, autoDiscard: autoDiscard})
	return nil
}

// PushAnonymous pushes an unnamed source (an external-subset file, the
// primary input of an external parsed entity) with no cycle tracking
// beyond what the caller does itself.
func (s *Stack) PushAnonymous(f Frame) {
	s.entries = append(s.entries, &entry{frame: f})
}

// Next returns the next scalar from the top of the stack, popping exhausted
// frames (and any further frames that are also immediately exhausted)
// until a scalar is produced or the stack is empty.
func (s *Stack) Next() (rune, bool, error) {
	for len(s.entries) > 0 {
		top := s.entries[len(s.entries)-1]
		r, ok, err := top.frame.Next()
		if err != nil {
			return 0, false, err
		}
		if ok {
			return r, true, nil
		}
		s.pop()
	}
	return 0, false, nil
}

func (s *Stack) pop() {
	top := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	if top.name != "" {
		delete(s.open, top.name)
	}
}

// Depth reports how many frames are currently open.
func (s *Stack) Depth() int { return len(s.entries) }

// BaseURI is the base URI of the top-of-stack frame, for resolving any
// relative external identifier encountered while it is active.
func (s *Stack) BaseURI() string {
	if len(s.entries) == 0 {
		return ""
	}
	return s.entries[len(s.entries)-1].frame.BaseURI()
}

// IsOpen reports whether an entity of the given name is currently being
// expanded anywhere on the stack.
func (s *Stack) IsOpen(name string) bool { return s.open[name] }

// TopIsEntity reports the name of the entity owning the top frame, and
// whether the top frame is an entity frame at all.
func (s *Stack) TopIsEntity() (name string, ok bool) {
	if len(s.entries) == 0 {
		return "", false
	}
	top := s.entries[len(s.entries)-1]
	return top.name, top.name != ""
}
