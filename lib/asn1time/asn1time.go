// Package asn1time renders validity timestamps as DER UTCTime or
// GeneralizedTime values.
//
// RFC 5280 Section 4.1.2.5 requires UTCTime for dates through 2049 and
// GeneralizedTime from 2050 on. GeneralizedTime has a four digit year, so
// the last representable instant is 9999-12-31T23:59:59Z.
package asn1time

import (
	"github.com/pkg/errors"

	"github.com/thebagchi/x509der-go/lib/gmt"
	"github.com/thebagchi/x509der-go/lib/tags"
)

const (
	// MAX_TIMESTAMP is 9999-12-31T23:59:59Z in seconds since the epoch
	MAX_TIMESTAMP = 253402300799

	// MAX_YEAR is the largest year with a four digit representation
	MAX_YEAR = 9999

	// LAST_UTC_TIME_YEAR is the last year encoded as UTCTime
	LAST_UTC_TIME_YEAR = 2049

	// UTC_TIME_LENGTH is tag, length and YYMMDDHHMMSSZ
	UTC_TIME_LENGTH = 15

	// GENERALIZED_TIME_LENGTH is tag, length and YYYYMMDDHHMMSSZ
	GENERALIZED_TIME_LENGTH = 17
)

// ErrNotRepresentable is returned for instants after MAX_TIMESTAMP.
var ErrNotRepresentable = errors.New("timestamp not representable in ASN.1")

// Time is a decomposed instant known to fit an ASN.1 time value.
type Time struct {
	gmt gmt.Decomposed
}

// New validates seconds since the epoch and decomposes it.
func New(seconds uint64) (Time, error) {
	if seconds > MAX_TIMESTAMP {
		return Time{}, ErrNotRepresentable
	}
	return Time{gmt: gmt.Parse(seconds)}, nil
}

// FromDecomposed validates an already decomposed instant. The zero
// Decomposed holds no instant and is rejected.
func FromDecomposed(d gmt.Decomposed) (Time, error) {
	if d.IsZero() {
		return Time{}, errors.Wrap(ErrNotRepresentable, "zero decomposed time")
	}
	if d.Year() > MAX_YEAR {
		return Time{}, ErrNotRepresentable
	}
	return Time{gmt: d}, nil
}

// Decomposed returns the calendar fields of t.
func (t Time) Decomposed() gmt.Decomposed {
	return t.gmt
}

// Generalized reports whether t is encoded as GeneralizedTime.
func (t Time) Generalized() bool {
	return t.gmt.Year() > LAST_UTC_TIME_YEAR
}

// Length returns the size of the complete encoding, tag and length
// included. Format writes exactly this many bytes.
func (t Time) Length() int {
	if t.Generalized() {
		return GENERALIZED_TIME_LENGTH
	}
	return UTC_TIME_LENGTH
}

// Format writes the complete DER encoding of t to the start of dst.
// Returns an error if dst is shorter than Length().
func (t Time) Format(dst []byte) error {
	size := t.Length()
	if len(dst) < size {
		return errors.Errorf("asn1time: buffer of %d bytes cannot hold %d byte time", len(dst), size)
	}
	var (
		d   = t.gmt
		pos = 2
	)
	dst[1] = uint8(size - 2)
	if t.Generalized() {
		dst[0] = tags.GENERALIZED_TIME
		pos = putDigits(dst, pos, d.Year(), 4)
	} else {
		dst[0] = tags.UTC_TIME
		pos = putDigits(dst, pos, d.Year()%100, 2)
	}
	pos = putDigits(dst, pos, int64(d.Month()), 2)
	pos = putDigits(dst, pos, int64(d.Day()), 2)
	pos = putDigits(dst, pos, int64(d.Hour()), 2)
	pos = putDigits(dst, pos, int64(d.Minute()), 2)
	pos = putDigits(dst, pos, int64(d.Second()), 2)
	dst[pos] = 'Z'
	return nil
}

// putDigits writes value as exactly width decimal digits at dst[pos:].
func putDigits(dst []byte, pos int, value int64, width int) int {
	for i := width - 1; i >= 0; i-- {
		dst[pos+i] = '0' + uint8(value%10)
		value = value / 10
	}
	return pos + width
}

// String returns the text of the time value without tag and length.
func (t Time) String() string {
	buff := make([]byte, t.Length())
	if err := t.Format(buff); nil != err {
		return err.Error()
	}
	return string(buff[2:])
}
