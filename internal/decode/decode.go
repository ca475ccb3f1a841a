// Package decode turns a raw byte stream into a stream of Unicode scalars,
// handling BOM/encoding detection and line-ending normalization per
// It is the lowest layer of the pipeline: bytes -> decoder ->
// lexer -> parser -> DOM.
package decode

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"

	"github.com/arturoeanton/goxmlkit/xmlerr"
)

// Encoding names the encoding the decoder detected from the byte stream
// itself (BOM or default), independent of whatever the XML declaration
// later claims.
type Encoding int

const (
	UTF8 Encoding = iota
	UTF16LE
	UTF16BE
)

func (e Encoding) String() string {
	switch e {
	case UTF16LE:
		return "UTF-16LE"
	case UTF16BE:
		return "UTF-16BE"
	default:
		return "UTF-8"
	}
}

// Decoder yields Unicode scalars one at a time, normalizing CR/CR-LF to LF
// and tracking line/column for diagnostics.
type Decoder struct {
	r          *bufio.Reader
	detected   Encoding
	line, col  int
	pendingLF  bool // last scalar returned was CR; next LF, if any, is swallowed
	declared   string
}

// New wraps r, sniffing a leading BOM. Absent a BOM, UTF-8 is assumed.
func New(r io.Reader) (*Decoder, error) {
	br := bufio.NewReader(r)
	enc, prefixConsumed, err := sniffBOM(br)
	if err != nil {
		return nil, xmlerr.Wrap(xmlerr.InvalidEncoding, err, "reading byte-order mark")
	}
	_ = prefixConsumed

	var reader io.Reader = br
	switch enc {
	case UTF16LE:
		reader = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Reader(br)
	case UTF16BE:
		reader = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Reader(br)
	}

	return &Decoder{r: bufio.NewReader(reader), detected: enc, line: 1, col: 0}, nil
}

// sniffBOM peeks up to 3 bytes to recognize the UTF-8/UTF-16 BOMs,
// consuming the BOM bytes it recognizes and leaving the rest unread.
func sniffBOM(br *bufio.Reader) (Encoding, bool, error) {
	head, err := br.Peek(3)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return UTF8, false, err
	}
	switch {
	case len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF:
		br.Discard(3)
		return UTF8, true, nil
	case len(head) >= 2 && head[0] == 0xFF && head[1] == 0xFE:
		br.Discard(2)
		return UTF16LE, true, nil
	case len(head) >= 2 && head[0] == 0xFE && head[1] == 0xFF:
		br.Discard(2)
		return UTF16BE, true, nil
	default:
		return UTF8, false, nil
	}
}

// Detected reports the encoding sniffed from the byte stream.
func (d *Decoder) Detected() Encoding { return d.detected }

// SetDeclared records the encoding name seen in the XML/text declaration
// and validates it against the detected encoding. An empty name
// is a no-op (no encoding attribute present).
func (d *Decoder) SetDeclared(name string) error {
	if name == "" {
		return nil
	}
	d.declared = name
	if !encodingConsistent(d.detected, name) {
		return xmlerr.New(xmlerr.EncodingMismatch,
			"declared encoding %q does not match detected encoding %s", name, d.detected)
	}
	return nil
}

func encodingConsistent(detected Encoding, declared string) bool {
	name := strings.ToUpper(declared)
	if _, canonical := charset.Lookup(declared); canonical != "" {
		name = strings.ToUpper(canonical)
	}
	isUTF16 := strings.HasPrefix(name, "UTF-16")
	switch detected {
	case UTF16LE, UTF16BE:
		return isUTF16
	default:
		// UTF-8 is consistent with UTF-8 and with any 8-bit superset
		// (ASCII, Latin-1, etc.) declared explicitly, but not with UTF-16;
		// a caller wanting a strict check can still compare
		// Detected()/Declared() itself.
		return !isUTF16
	}
}

// Declared returns the encoding name from the XML declaration, if any.
func (d *Decoder) Declared() string { return d.declared }

// ReadRune returns the next normalized scalar, its byte width in the
// decoded stream, and an error (io.EOF at end of stream). CR and CR-LF both
// normalize to a single LF.
func (d *Decoder) ReadRune() (rune, int, error) {
	r, size, err := d.r.ReadRune()
	if err != nil {
		return 0, 0, err
	}
	if r == utf8.RuneError && size == 1 {
		return 0, 0, xmlerr.New(xmlerr.InvalidEncoding, "invalid byte sequence for detected encoding %s", d.detected)
	}

	if r == '\n' && d.pendingLF {
		d.pendingLF = false
		r, size, err = d.r.ReadRune()
		if err != nil {
			return 0, 0, err
		}
		if r == utf8.RuneError && size == 1 {
			return 0, 0, xmlerr.New(xmlerr.InvalidEncoding, "invalid byte sequence for detected encoding %s", d.detected)
		}
	}
	if r == '\r' {
		d.pendingLF = true
		r = '\n'
	} else {
		d.pendingLF = false
	}

	if r == '\n' {
		d.line++
		d.col = 0
	} else {
		d.col++
	}
	return r, size, nil
}

// Position returns the current 1-based line and 0-based column, for
// embedding in *xmlerr.Error values raised above this layer.
func (d *Decoder) Position() (line, col int) { return d.line, d.col }
