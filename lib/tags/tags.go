// Package tags holds the ASN.1 identifier octets shared by the DER node
// types and the time formatter.
package tags

const (
	// Identifier octet bits, X.690 Section 8.1.2
	CLASS_CONTEXT_SPECIFIC = 1 << 7
	CONSTRUCTED            = 1 << 5

	// Universal class tags, X.680 Section 8.6
	BOOLEAN          = 0x01
	INTEGER          = 0x02
	BIT_STRING       = 0x03
	OCTET_STRING     = 0x04
	NULL             = 0x05
	OID              = 0x06
	UTC_TIME         = 0x17
	GENERALIZED_TIME = 0x18
	SEQUENCE         = 0x10 | CONSTRUCTED
)

// ContextSpecific returns the identifier octet of a constructed
// context-specific tag [number].
func ContextSpecific(number uint8) uint8 {
	return CLASS_CONTEXT_SPECIFIC | CONSTRUCTED | number
}
