// Package dtd represents the DTD model of — element content
// models, attribute declarations, general/parameter entities and notations
// — and the recursive-descent subset parser that builds it from markup
// tokens. Grounded on the element/attribute/entity declaration tables of
// moznion-helium's xmldom-style Document/DTD (interface.go) and on
// original_source/src/doctype.cpp, generalized to idiomatic Go.
package dtd

// AttrType is the declared type of an attribute.
type AttrType int

const (
	CDATA AttrType = iota
	ID
	IDREF
	IDREFS
	ENTITY
	ENTITIES
	NMTOKEN
	NMTOKENS
	NOTATION
	Enumeration
)

func (t AttrType) String() string {
	switch t {
	case ID:
		return "ID"
	case IDREF:
		return "IDREF"
	case IDREFS:
		return "IDREFS"
	case ENTITY:
		return "ENTITY"
	case ENTITIES:
		return "ENTITIES"
	case NMTOKEN:
		return "NMTOKEN"
	case NMTOKENS:
		return "NMTOKENS"
	case NOTATION:
		return "NOTATION"
	case Enumeration:
		return "ENUMERATION"
	default:
		return "CDATA"
	}
}

// IsTokenized reports whether values of this type are whitespace-collapsed
// during attribute-value normalization (every type except CDATA).
func (t AttrType) IsTokenized() bool { return t != CDATA }

// DefaultKind is an attribute's default policy.
type DefaultKind int

const (
	DefaultNone DefaultKind = iota
	Required
	Implied
	Fixed
	Default
)

// AttDecl is one <!ATTLIST element name type default> declaration.
type AttDecl struct {
	Name         string
	Type         AttrType
	Values       []string // enumeration / NOTATION value list
	Default      DefaultKind
	DefaultValue string // normalized, for Fixed/Default
}

// AttlistDecl is the ordered set of attribute declarations for one element,
// preserving declaration order the way arturoeanton-go-xml's OrderedMap preserves
// insertion order (xml/map.go) — attribute default order matters when the
// parser appends missing defaults to a start tag.
type AttlistDecl struct {
	order []string
	byName map[string]*AttDecl
}

func newAttlistDecl() *AttlistDecl {
	return &AttlistDecl{byName: make(map[string]*AttDecl)}
}

// Declare adds ad unless an attribute of the same name was already declared
// for this element — per the XML spec, only the first declaration binds.
func (a *AttlistDecl) Declare(ad *AttDecl) {
	if _, exists := a.byName[ad.Name]; exists {
		return
	}
	a.order = append(a.order, ad.Name)
	a.byName[ad.Name] = ad
}

// Get looks up a declared attribute by name.
func (a *AttlistDecl) Get(name string) (*AttDecl, bool) {
	ad, ok := a.byName[name]
	return ad, ok
}

// All returns the declared attributes in declaration order.
func (a *AttlistDecl) All() []*AttDecl {
	out := make([]*AttDecl, len(a.order))
	for i, n := range a.order {
		out[i] = a.byName[n]
	}
	return out
}

// ElementDecl is one <!ELEMENT name contentspec> declaration.
type ElementDecl struct {
	Name    string
	Content *ContentModel
}

// EntityType classifies a declared entity (the XML/DTD vocabulary).
type EntityType int

const (
	GeneralInternal EntityType = iota
	GeneralExternalParsed
	GeneralExternalUnparsed
	ParameterInternal
	ParameterExternal
)

// Entity is a declared general or parameter entity.
type Entity struct {
	Name         string
	Type         EntityType
	Value        string // replacement text, for internal entities
	PublicID     string
	SystemID     string
	NotationName string // set for GeneralExternalUnparsed
	Base         string // base URI external identifiers resolve against
}

// IsParameter reports whether this is a parameter entity (%name;).
func (e *Entity) IsParameter() bool {
	return e.Type == ParameterInternal || e.Type == ParameterExternal
}

// IsUnparsed reports whether this is an unparsed general entity (NDATA).
func (e *Entity) IsUnparsed() bool { return e.Type == GeneralExternalUnparsed }

// Notation is a declared <!NOTATION name ...> binding.
type Notation struct {
	Name     string
	PublicID string
	SystemID string
}

// Model is the DTD: element declarations, per-element attribute lists,
// general/parameter entity tables and the notation set.
type Model struct {
	RootName string // declared document element name, from DOCTYPE

	elements map[string]*ElementDecl
	attlists map[string]*AttlistDecl
	general  map[string]*Entity
	param    map[string]*Entity
	notation map[string]*Notation
}

// NewModel returns an empty DTD, pre-seeded with the five predefined
// general entities every XML document may use without declaring them.
func NewModel() *Model {
	m := &Model{
		elements: make(map[string]*ElementDecl),
		attlists: make(map[string]*AttlistDecl),
		general:  make(map[string]*Entity),
		param:    make(map[string]*Entity),
		notation: make(map[string]*Notation),
	}
	for name, repl := range map[string]string{"lt": "<", "gt": ">", "amp": "&", "apos": "'", "quot": "\""} {
		m.general[name] = &Entity{Name: name, Type: GeneralInternal, Value: repl}
	}
	return m
}

// DeclareElement records an element's content model. A repeated
// declaration for the same name is ignored (first wins), matching how
// libxml2/zeep treat duplicate <!ELEMENT> declarations.
func (m *Model) DeclareElement(name string, cm *ContentModel) {
	if _, exists := m.elements[name]; exists {
		return
	}
	m.elements[name] = &ElementDecl{Name: name, Content: cm}
}

// Element looks up a declared element by name.
func (m *Model) Element(name string) (*ElementDecl, bool) {
	e, ok := m.elements[name]
	return e, ok
}

// Attlist returns (creating if necessary) the attribute list for an
// element, so attribute declarations can accumulate across repeated
// <!ATTLIST> blocks for the same element name.
func (m *Model) Attlist(elem string) *AttlistDecl {
	a, ok := m.attlists[elem]
	if !ok {
		a = newAttlistDecl()
		m.attlists[elem] = a
	}
	return a
}

// Attributes returns the declared attributes for elem in declaration order,
// or nil if none were declared.
func (m *Model) Attributes(elem string) []*AttDecl {
	a, ok := m.attlists[elem]
	if !ok {
		return nil
	}
	return a.All()
}

// DeclareGeneralEntity adds a general entity unless one of that name is
// already declared (first wins, per XML 1.0 §4.2).
func (m *Model) DeclareGeneralEntity(e *Entity) {
	if _, exists := m.general[e.Name]; exists {
		return
	}
	m.general[e.Name] = e
}

// DeclareParameterEntity adds a parameter entity unless already declared.
func (m *Model) DeclareParameterEntity(e *Entity) {
	if _, exists := m.param[e.Name]; exists {
		return
	}
	m.param[e.Name] = e
}

func (m *Model) GeneralEntity(name string) (*Entity, bool) {
	e, ok := m.general[name]
	return e, ok
}

func (m *Model) ParameterEntity(name string) (*Entity, bool) {
	e, ok := m.param[name]
	return e, ok
}

// DeclareNotation adds a notation unless already declared.
func (m *Model) DeclareNotation(n *Notation) {
	if _, exists := m.notation[n.Name]; exists {
		return
	}
	m.notation[n.Name] = n
}

func (m *Model) Notation(name string) (*Notation, bool) {
	n, ok := m.notation[name]
	return n, ok
}

// Merge folds another Model's declarations into m, used when the internal
// subset and the external subset are both present: the internal subset
// always wins on conflicts because it is processed first and every
// Declare* method here is first-wins.
func (m *Model) Merge(other *Model) {
	for name, e := range other.elements {
		if _, exists := m.elements[name]; !exists {
			m.elements[name] = e
		}
	}
	for name, a := range other.attlists {
		dst := m.Attlist(name)
		for _, ad := range a.All() {
			dst.Declare(ad)
		}
	}
	for name, e := range other.general {
		m.DeclareGeneralEntity(&Entity{Name: name, Type: e.Type, Value: e.Value, PublicID: e.PublicID, SystemID: e.SystemID, NotationName: e.NotationName, Base: e.Base})
	}
	for name, e := range other.param {
		m.DeclareParameterEntity(&Entity{Name: name, Type: e.Type, Value: e.Value, PublicID: e.PublicID, SystemID: e.SystemID, Base: e.Base})
	}
	for name, n := range other.notation {
		m.DeclareNotation(&Notation{Name: name, PublicID: n.PublicID, SystemID: n.SystemID})
	}
}
