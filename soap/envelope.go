// Package soap assembles and inspects SOAP 1.1 envelopes as xmldom
// subtrees: the one touch point between this module's core (xmldom,
// xmlwriter) and a SOAP layer, kept thin and real rather than stubbed.
// Grounded on arturoeanton-go-xml's SoapClient.Call (xml/dynamic_client_soap.go),
// which built an envelope out of OrderedMap nodes (soap:Envelope,
// soap:Header with a WS-Security UsernameToken, soap:Body wrapping the
// action payload) and encoded it with the map-based encoder; this package
// builds the same shape directly out of *xmldom.Node and serializes it
// with xmlwriter, and adds the inverse (reading a received envelope back
// apart) that arturoeanton-go-xml's client never needed since it only sent requests.
package soap

import (
	"fmt"
	"io"

	"github.com/arturoeanton/goxmlkit/xmldom"
	"github.com/arturoeanton/goxmlkit/xmlopt"
	"github.com/arturoeanton/goxmlkit/xmlwriter"
)

// EnvelopeNS is the SOAP 1.1 envelope namespace.
const EnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"

const wsseNS = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
const wssePasswordType = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordText"

// Credentials is a WS-Security UsernameToken to attach to an envelope's
// header, mirroring arturoeanton-go-xml's AuthWSSecurity client option.
type Credentials struct {
	Username string
	Password string
}

// Envelope is a soap:Envelope under construction: a detached xmldom
// document whose element is the soap:Envelope itself, with convenience
// accessors for its Header and Body children.
type Envelope struct {
	Doc *xmldom.Document
}

// NewEnvelope creates an empty envelope, pre-declaring the soap: prefix
// and appending a soap:Body with no children yet. action, if non-empty,
// is wrapped as the sole child of the body — the shape
// SoapClient.Call built by hand for every outgoing request.
func NewEnvelope(action string) *Envelope {
	doc := xmldom.New()
	env := xmldom.NewElement(xmldom.QName{Prefix: "soap", Local: "Envelope", URI: EnvelopeNS})
	env.DeclareNamespace("soap", EnvelopeNS)
	doc.Root.AppendChild(env)

	body := xmldom.NewElement(xmldom.QName{Prefix: "soap", Local: "Body", URI: EnvelopeNS})
	env.AppendChild(body)

	if action != "" {
		body.AppendChild(xmldom.NewElement(xmldom.QName{Local: action}))
	}

	return &Envelope{Doc: doc}
}

// Element returns the soap:Envelope element.
func (e *Envelope) Element() *xmldom.Node { return e.Doc.Element() }

// Body returns the soap:Body element, or nil if the envelope was not
// built by NewEnvelope and has none.
func (e *Envelope) Body() *xmldom.Node {
	env := e.Element()
	if env == nil {
		return nil
	}
	return env.FirstChildElement("Body")
}

// Action returns the sole element child of the body — the action payload
// root NewEnvelope placed there — or nil if the body is empty or holds
// more than one child element.
func (e *Envelope) Action() *xmldom.Node {
	body := e.Body()
	if body == nil {
		return nil
	}
	children := body.ChildElements()
	if len(children) != 1 {
		return nil
	}
	return children[0]
}

// SetHeader installs or replaces the envelope's soap:Header, inserting it
// immediately before soap:Body per the SOAP 1.1 envelope's required child
// ordering (header, then body).
func (e *Envelope) SetHeader(header *xmldom.Node) {
	env := e.Element()
	if env == nil {
		return
	}
	if existing := env.FirstChildElement("Header"); existing != nil {
		env.RemoveChild(existing)
	}
	env.InsertBefore(header, e.Body())
}

// Header returns the envelope's soap:Header, or nil if none is present.
func (e *Envelope) Header() *xmldom.Node {
	env := e.Element()
	if env == nil {
		return nil
	}
	return env.FirstChildElement("Header")
}

// SetWSSecurity attaches a wsse:Security header carrying a UsernameToken,
// the same header SoapClient.Call built for AuthWSSecurity.
func (e *Envelope) SetWSSecurity(creds Credentials) {
	security := xmldom.NewElement(xmldom.QName{Prefix: "wsse", Local: "Security", URI: wsseNS})
	security.DeclareNamespace("wsse", wsseNS)

	token := xmldom.NewElement(xmldom.QName{Prefix: "wsse", Local: "UsernameToken", URI: wsseNS})
	username := xmldom.NewElement(xmldom.QName{Prefix: "wsse", Local: "Username", URI: wsseNS})
	username.AppendChild(xmldom.NewText(creds.Username))
	token.AppendChild(username)

	password := xmldom.NewElement(xmldom.QName{Prefix: "wsse", Local: "Password", URI: wsseNS})
	password.SetAttr("", "Type", wssePasswordType)
	password.AppendChild(xmldom.NewText(creds.Password))
	token.AppendChild(password)

	security.AppendChild(token)

	header := xmldom.NewElement(xmldom.QName{Prefix: "soap", Local: "Header", URI: EnvelopeNS})
	header.AppendChild(security)
	e.SetHeader(header)
}

// Write serializes the envelope, prefixed with an XML declaration, the
// shape an outgoing SOAP request needs on the wire.
func (e *Envelope) Write(w io.Writer) error {
	cfg := xmlopt.DefaultWriterConfig()
	cfg.XMLDeclaration = true
	return xmlwriter.Write(w, e.Doc, cfg)
}

// Fault is a parsed soap:Fault, the error shape a SOAP response carries
// in place of its normal payload.
type Fault struct {
	Code   string
	String string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("SOAP fault [%s]: %s", f.Code, f.String)
}

// ParseEnvelope reads a complete SOAP envelope from r using a
// non-validating parse, the way a response body is read back apart —
// arturoeanton-go-xml's client did this with MapXML; here it goes through the
// core document parser and builder instead.
func ParseEnvelope(r io.Reader) (*Envelope, error) {
	doc, err := xmldom.Parse(r)
	if err != nil {
		return nil, err
	}
	if doc.Element() == nil || doc.Element().Name.Local != "Envelope" {
		return nil, fmt.Errorf("soap: response is not a SOAP envelope")
	}
	return &Envelope{Doc: doc}, nil
}

// FaultFromBody extracts the Body/Fault element, if present, as a Fault —
// the Envelope/Body/Fault walk SoapClient.Call performed by hand over its
// OrderedMap response to report a server-side failure.
func (e *Envelope) FaultFromBody() *Fault {
	body := e.Body()
	if body == nil {
		return nil
	}
	fault := body.FirstChildElement("Fault")
	if fault == nil {
		return nil
	}
	code := ""
	msg := ""
	if n := fault.FirstChildElement("faultcode"); n != nil {
		code = n.Str()
	}
	if n := fault.FirstChildElement("faultstring"); n != nil {
		msg = n.Str()
	}
	return &Fault{Code: code, String: msg}
}
