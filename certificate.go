// Package x509der assembles a minimal X.509 v3 certificate in DER from
// pre-encoded algorithm identifiers, key and signature bytes and a validity
// window given in seconds since the Unix epoch.
//
// The structure is fixed:
//
//	Certificate ::= SEQUENCE {
//	    tbsCertificate       TBSCertificate,
//	    signatureAlgorithm   AlgorithmIdentifier,
//	    signatureValue       BIT STRING }
//
//	TBSCertificate ::= SEQUENCE {
//	    version         [0] EXPLICIT INTEGER 2,
//	    serialNumber    INTEGER 1,
//	    signature       AlgorithmIdentifier,
//	    issuer          empty Name,
//	    validity        Validity,
//	    subject         empty Name,
//	    subjectPublicKeyInfo SEQUENCE { AlgorithmIdentifier, BIT STRING },
//	    extensions      [3] EXPLICIT SEQUENCE { basicConstraints, critical, empty } }
//
// Algorithm identifier arguments are the CONTENT of an AlgorithmIdentifier
// (for Ed25519 the OID TLV 06 03 2b 65 70); the SEQUENCE around them is
// added here. Nothing but the timestamps is validated.
package x509der

import (
	"github.com/pkg/errors"

	"github.com/thebagchi/x509der-go/lib/asn1time"
	"github.com/thebagchi/x509der-go/lib/der"
	"github.com/thebagchi/x509der-go/lib/tags"
)

const (
	// SERIAL_NUMBER is the serial number of every assembled certificate
	SERIAL_NUMBER = 1

	// EXTENSIONS_TAG is the context tag number of TBSCertificate.extensions
	EXTENSIONS_TAG = 3
)

// OID_BASIC_CONSTRAINTS is the DER encoding of id-ce-basicConstraints
// (2.5.29.19).
var OID_BASIC_CONSTRAINTS = []byte{tags.OID, 0x03, 0x55, 0x1D, 0x13}

// ErrNotRepresentable is returned, wrapped with the failing field, when a
// validity bound is later than 9999-12-31T23:59:59Z.
var ErrNotRepresentable = asn1time.ErrNotRepresentable

// Certificate holds the inputs of one certificate.
type Certificate struct {
	// NotBefore and NotAfter are seconds since the Unix epoch.
	NotBefore uint64
	NotAfter  uint64

	// Algorithm is the subject public key algorithm identifier content.
	Algorithm []byte

	// PublicKey is the subject public key, carried in a BIT STRING.
	PublicKey []byte

	// SignatureAlgorithm is the signature algorithm identifier content,
	// used both inside and outside the TBSCertificate.
	SignatureAlgorithm []byte

	// Signature is the signature over the TBSCertificate.
	Signature []byte
}

func (c *Certificate) validity() (der.Validity, error) {
	notBefore, err := asn1time.New(c.NotBefore)
	if nil != err {
		return der.Validity{}, errors.Wrapf(err, "notBefore %d", c.NotBefore)
	}
	notAfter, err := asn1time.New(c.NotAfter)
	if nil != err {
		return der.Validity{}, errors.Wrapf(err, "notAfter %d", c.NotAfter)
	}
	return der.Validity{NotBefore: notBefore, NotAfter: notAfter}, nil
}

func (c *Certificate) tbsCertificate(validity der.Validity) der.Node {
	return der.Sequence{
		der.Version{},
		der.PositiveInteger(SERIAL_NUMBER),
		der.Raw{Identifier: tags.SEQUENCE, Content: c.SignatureAlgorithm},
		der.Sequence{},
		validity,
		der.Sequence{},
		der.Sequence{
			der.Raw{Identifier: tags.SEQUENCE, Content: c.Algorithm},
			der.BitString(c.PublicKey),
		},
		der.Explicit{
			Number: EXTENSIONS_TAG,
			Inner: der.Sequence{
				der.Extension{
					OID:      OID_BASIC_CONSTRAINTS,
					Critical: true,
					Value:    der.Sequence{},
				},
			},
		},
	}
}

// EncodeTBS returns the DER encoding of the TBSCertificate, the bytes the
// signature is computed over. Signature is not used.
func (c *Certificate) EncodeTBS() ([]byte, error) {
	validity, err := c.validity()
	if nil != err {
		return nil, err
	}
	return der.Emit(c.tbsCertificate(validity)), nil
}

// Encode returns the DER encoding of the complete certificate.
func (c *Certificate) Encode() ([]byte, error) {
	validity, err := c.validity()
	if nil != err {
		return nil, err
	}
	return der.Emit(der.Sequence{
		c.tbsCertificate(validity),
		der.Raw{Identifier: tags.SEQUENCE, Content: c.SignatureAlgorithm},
		der.BitString(c.Signature),
	}), nil
}

// EncodeCertificate returns the DER encoding of a certificate valid from
// notBefore to notAfter. It fails only if a timestamp is not representable;
// the error then satisfies errors.Is(err, ErrNotRepresentable).
func EncodeCertificate(notBefore, notAfter uint64, algorithm, signature, publicKey, signatureAlgorithm []byte) ([]byte, error) {
	c := Certificate{
		NotBefore:          notBefore,
		NotAfter:           notAfter,
		Algorithm:          algorithm,
		PublicKey:          publicKey,
		SignatureAlgorithm: signatureAlgorithm,
		Signature:          signature,
	}
	return c.Encode()
}

// EncodeTBSCertificate returns the TBSCertificate EncodeCertificate would
// embed for the same arguments.
func EncodeTBSCertificate(notBefore, notAfter uint64, algorithm, publicKey, signatureAlgorithm []byte) ([]byte, error) {
	c := Certificate{
		NotBefore:          notBefore,
		NotAfter:           notAfter,
		Algorithm:          algorithm,
		PublicKey:          publicKey,
		SignatureAlgorithm: signatureAlgorithm,
	}
	return c.EncodeTBS()
}
