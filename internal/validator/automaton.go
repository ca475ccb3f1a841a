// Package validator compiles a DTD content model into the tagged-state
// automaton described in : explicit reset/advance/accepting
// states rather than a virtual-dispatch class hierarchy (REDESIGN FLAGS,
// "State machine for content models"), cheap to clone so one compiled
// template serves every instance of an element type.
package validator

import "github.com/arturoeanton/goxmlkit/internal/dtd"

// State is one node of a compiled content model: an atom (empty/any/mixed/
// element) or a combinator (seq/choice/repetition) over other states.
type State interface {
	Reset()
	Allow(name string) bool
	AllowCharData() bool
	Done() bool
	clone() State
}

// Automaton drives a compiled content model over a sequence of child names
// and, for mixed content, character data. It is the per-element validator
// contract every validator state must satisfy.
type Automaton struct {
	root State
}

// Compile builds a fresh automaton template for a content model. Compile
// once per <!ELEMENT> declaration and call Clone for each element instance
// rather than recompiling (REDESIGN FLAGS: "cloneable cheaply ... reused
// per element instance").
func Compile(cm *dtd.ContentModel) *Automaton {
	root := compile(cm)
	root.Reset()
	return &Automaton{root: root}
}

// Clone returns an independent automaton starting from the same compiled
// template, already reset to its initial state.
func (a *Automaton) Clone() *Automaton {
	c := &Automaton{root: a.root.clone()}
	c.root.Reset()
	return c
}

// Reset returns the automaton to its initial state, as if no children had
// been seen yet.
func (a *Automaton) Reset() { a.root.Reset() }

// Allow reports whether a child element named name is acceptable next,
// and if so commits to it, advancing the automaton's state.
func (a *Automaton) Allow(name string) bool { return a.root.Allow(name) }

// AllowCharData reports whether character data is acceptable in the
// automaton's current state (true only under ANY or mixed content).
func (a *Automaton) AllowCharData() bool { return a.root.AllowCharData() }

// Done reports whether the accumulated sequence of children so far is a
// complete, valid match for the content model.
func (a *Automaton) Done() bool { return a.root.Done() }

// MayBeEmpty reports the content model's precomputed empty-acceptance
// property (): reset(); done() on a fresh automaton.
func MayBeEmpty(cm *dtd.ContentModel) bool { return cm.MayBeEmpty() }

func compile(cm *dtd.ContentModel) State {
	switch cm.Type {
	case dtd.CTEmpty:
		return &emptyState{}
	case dtd.CTAny:
		return &anyState{}
	case dtd.CTMixed:
		return &mixedState{names: append([]string(nil), cm.Names...)}
	case dtd.CTName:
		return wrapQuant(&elementState{name: cm.Name}, cm.Quant)
	case dtd.CTSeq:
		return wrapQuant(&seqState{states: compileAll(cm.Parts)}, cm.Quant)
	case dtd.CTChoice:
		return wrapQuant(&choiceState{states: compileAll(cm.Parts)}, cm.Quant)
	default:
		return &emptyState{}
	}
}

func compileAll(parts []*dtd.ContentModel) []State {
	out := make([]State, len(parts))
	for i, p := range parts {
		out[i] = compile(p)
	}
	return out
}

func wrapQuant(inner State, q dtd.Quant) State {
	if q == dtd.QOne {
		return inner
	}
	return &repState{inner: inner, quant: q}
}
