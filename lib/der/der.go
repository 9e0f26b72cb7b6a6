// Package der builds DER encodings from a small, closed set of node types.
//
// A tree of nodes is pure data. Emit walks it twice through
// derbuffer.Encode, once to measure and once to write, so the output is
// produced with a single allocation of exactly the right size. Because the
// buffer is filled back to front every constructed node emits its children
// last to first; the bytes still read forward in declaration order.
package der

import (
	"encoding/binary"
	"fmt"

	"github.com/thebagchi/x509der-go/lib/asn1time"
	"github.com/thebagchi/x509der-go/lib/derbuffer"
	"github.com/thebagchi/x509der-go/lib/tags"
)

// Node is a value that can be framed as one DER TLV. The set of node types
// is fixed by this package.
type Node interface {
	// Tag returns the identifier octet placed before the value.
	Tag() uint8

	// encodeValue emits the value octets, last octet first.
	encodeValue(w *derbuffer.Writer)
}

var (
	_ Node = Sequence(nil)
	_ Node = Explicit{}
	_ Node = Raw{}
	_ Node = BitString(nil)
	_ Node = OctetString{}
	_ Node = PositiveInteger(0)
	_ Node = Extension{}
	_ Node = Validity{}
	_ Node = Version{}
)

// WriteNode emits the complete TLV of n and returns its size.
func WriteNode(w *derbuffer.Writer, n Node) int {
	return w.WriteFramed(n.Tag(), n.encodeValue)
}

// Emit returns the DER encoding of root.
func Emit(root Node) []byte {
	return derbuffer.Encode(func(w *derbuffer.Writer) {
		WriteNode(w, root)
	})
}

// Measure returns the size of the DER encoding of n without producing it.
func Measure(n Node) int {
	counter := derbuffer.CreateCounter()
	WriteNode(counter, n)
	return counter.NumWritten()
}

// Sequence is a SEQUENCE of its elements in order. An empty Sequence
// encodes as 30 00.
type Sequence []Node

func (s Sequence) Tag() uint8 { return tags.SEQUENCE }

func (s Sequence) encodeValue(w *derbuffer.Writer) {
	for i := len(s) - 1; i >= 0; i-- {
		WriteNode(w, s[i])
	}
}

// Explicit wraps Inner in a context-specific constructed tag [Number].
type Explicit struct {
	Number uint8
	Inner  Node
}

func (e Explicit) Tag() uint8 { return tags.ContextSpecific(e.Number) }

func (e Explicit) encodeValue(w *derbuffer.Writer) {
	WriteNode(w, e.Inner)
}

// Raw frames Content, which the caller has already encoded, under
// Identifier. Content is copied verbatim.
type Raw struct {
	Identifier uint8
	Content    []byte
}

func (r Raw) Tag() uint8 { return r.Identifier }

func (r Raw) encodeValue(w *derbuffer.Writer) {
	w.WriteRaw(r.Content)
}

// BitString is a BIT STRING holding whole octets: the unused-bits octet is
// always 0.
type BitString []byte

func (b BitString) Tag() uint8 { return tags.BIT_STRING }

func (b BitString) encodeValue(w *derbuffer.Writer) {
	unused := [1]byte{UNUSED_BITS_NONE}
	w.WriteRaw(b)
	w.WriteRaw(unused[:])
}

// OctetString is an OCTET STRING whose content is the DER encoding of
// Inner, as X.509 extension values are carried.
type OctetString struct {
	Inner Node
}

func (o OctetString) Tag() uint8 { return tags.OCTET_STRING }

func (o OctetString) encodeValue(w *derbuffer.Writer) {
	WriteNode(w, o.Inner)
}

// PositiveInteger is a non-negative INTEGER in minimal two's complement
// form: no redundant leading 0x00, and a 0x00 pad when the top bit of the
// magnitude is set.
type PositiveInteger uint64

func (p PositiveInteger) Tag() uint8 { return tags.INTEGER }

func (p PositiveInteger) encodeValue(w *derbuffer.Writer) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(p))
	start := 0
	for start < len(tmp) && tmp[start] == 0 {
		start++
	}
	pad := [1]byte{0x00}
	if start == len(tmp) {
		w.WriteRaw(pad[:])
		return
	}
	w.WriteRaw(tmp[start:])
	if tmp[start]&0x80 != 0 {
		w.WriteRaw(pad[:])
	}
}

// WriteOptionalBoolean emits a BOOLEAN that defaults to FALSE: nothing for
// false, 01 01 FF for true.
func WriteOptionalBoolean(w *derbuffer.Writer, value bool) {
	if value {
		encoded := [3]byte{tags.BOOLEAN, 0x01, BOOLEAN_TRUE}
		w.WriteRaw(encoded[:])
	}
}

// Extension is an X.509 Extension:
//
//	Extension ::= SEQUENCE {
//	    extnID      OBJECT IDENTIFIER,
//	    critical    BOOLEAN DEFAULT FALSE,
//	    extnValue   OCTET STRING }
//
// OID holds the complete DER encoding of extnID (tag and length included).
// Value is encoded and wrapped in the OCTET STRING.
type Extension struct {
	OID      []byte
	Critical bool
	Value    Node
}

func (e Extension) Tag() uint8 { return tags.SEQUENCE }

func (e Extension) encodeValue(w *derbuffer.Writer) {
	WriteNode(w, OctetString{Inner: e.Value})
	WriteOptionalBoolean(w, e.Critical)
	w.WriteRaw(e.OID)
}

// WriteTime emits t as UTCTime or GeneralizedTime into a region reserved
// with its exact width.
func WriteTime(w *derbuffer.Writer, t asn1time.Time) {
	w.WriteFixed(t.Length(), func(region []byte) {
		if err := t.Format(region); nil != err {
			panic(fmt.Sprintf("der: %v", err))
		}
	})
}

// Validity is the X.509 Validity SEQUENCE { notBefore, notAfter }.
type Validity struct {
	NotBefore asn1time.Time
	NotAfter  asn1time.Time
}

func (v Validity) Tag() uint8 { return tags.SEQUENCE }

func (v Validity) encodeValue(w *derbuffer.Writer) {
	WriteTime(w, v.NotAfter)
	WriteTime(w, v.NotBefore)
}

// Version is the TBSCertificate version field for X.509 v3,
// [0] EXPLICIT INTEGER 2, encoded as a0 03 02 01 02.
type Version struct{}

func (Version) Tag() uint8 { return tags.ContextSpecific(VERSION_TAG) }

func (Version) encodeValue(w *derbuffer.Writer) {
	WriteNode(w, PositiveInteger(VERSION_V3))
}
