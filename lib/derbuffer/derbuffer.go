// Package derbuffer provides the two-pass output cursor used to emit DER
// (Distinguished Encoding Rules).
//
// # Overview
//
// A DER value is framed as tag, length, value. The length of a constructed
// value is only known once all of its contents have been produced, so the
// Writer fills its destination from the END backward: every write lands at
// the tail of the remaining free window and the window shrinks from the
// right. A constructed value first emits its contents and then its own
// header, which therefore ends up immediately before the contents when the
// buffer is read forward.
//
// Callers emit the same sequence of writes twice:
//
//  1. Counting pass: CreateCounter() only accumulates the number of bytes.
//  2. Writing pass: CreateWriter(n) allocates exactly n bytes and fills them.
//
// Encode drives both passes. No temporary buffers are used and no byte is
// ever moved after it has been written.
//
// # Contract
//
// The writing pass must perform exactly the writes the counting pass
// measured. Running out of capacity, or finishing with capacity left over,
// is a bug in the caller and panics rather than returning an error.
//
// # Thread Safety
//
// Writer is NOT thread-safe. Each goroutine encoding a value must use its own
// Writer; Encode creates fresh Writers on every call.
package derbuffer

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

const (
	// ENABLE_TRACE controls whether trace output is printed
	ENABLE_TRACE = false

	// SHORT_FORM_LIMIT is the first length that requires the long form
	// X.690 Section 8.1.3.4
	SHORT_FORM_LIMIT = 0x80

	// LONG_FORM_FLAG marks the initial length octet of the long form, the
	// remaining seven bits carry the number of subsequent length octets
	// X.690 Section 8.1.3.5
	LONG_FORM_FLAG = 0x80

	// TMP_ARRAY_SIZE is the size of temporary arrays used for binary operations
	TMP_ARRAY_SIZE = 8
)

// Writer is the output cursor shared by both encoding passes.
// Fields:
//
//	Buff: destination buffer, nil while counting
//	free: the not yet written prefix of Buff; writes land at its tail
//	written: total number of bytes emitted so far (both modes)
type Writer struct {
	Buff    []byte
	free    []byte
	written int
}

// Trace prints debug information about the writer state.
// Only prints if ENABLE_TRACE is true (compile-time constant).
func (w *Writer) Trace(event, function, arguments string) {
	if !ENABLE_TRACE {
		return
	}
	state := fmt.Sprintf("[%s %s] counting=%v written=%d remaining=%d",
		event, function, w.Counting(), w.written, w.Remaining())
	if arguments != "" {
		state = state + " --> " + arguments
	}
	println(state)
}

// CreateCounter creates a Writer for the counting pass. Nothing is stored,
// only NumWritten advances.
func CreateCounter() *Writer {
	return &Writer{}
}

// CreateWriter creates a Writer for the writing pass with exactly size bytes
// of capacity. size is normally the NumWritten of a finished counting pass.
func CreateWriter(size int) *Writer {
	if size < 0 {
		panic(fmt.Sprintf("derbuffer: negative buffer size %d", size))
	}
	buff := make([]byte, size)
	return &Writer{
		Buff: buff,
		free: buff,
	}
}

// Counting reports whether the writer is in the counting pass.
func (w *Writer) Counting() bool {
	return w.Buff == nil
}

// NumWritten returns the total number of bytes emitted so far.
func (w *Writer) NumWritten() int {
	return w.written
}

// Remaining returns the number of bytes that can still be written.
// Always 0 while counting.
func (w *Writer) Remaining() int {
	return len(w.free)
}

// Bytes returns the destination buffer. In the writing pass the buffer is
// complete only once Remaining() reaches 0. Returns nil while counting.
func (w *Writer) Bytes() []byte {
	return w.Buff
}

// String implements the fmt.Stringer interface for Writer.
func (w *Writer) String() string {
	return fmt.Sprintf("Writer{counting: %v, written: %d, remaining: %d}",
		w.Counting(), w.written, w.Remaining())
}

// reserve accounts for n more bytes and returns the region they occupy:
// the last n bytes of the free window, which is shrunk accordingly.
// Returns nil while counting.
func (w *Writer) reserve(n int) []byte {
	if w.Counting() {
		w.written = w.written + n
		return nil
	}
	if n > len(w.free) {
		panic(fmt.Sprintf("derbuffer: write of %d bytes exceeds remaining capacity %d", n, len(w.free)))
	}
	var (
		start  = len(w.free) - n
		region = w.free[start:]
	)
	w.free = w.free[:start]
	w.written = w.written + n
	return region
}

// WriteRaw emits data verbatim. Because the buffer grows backward, data
// ends up in front of everything written before it.
func (w *Writer) WriteRaw(data []byte) {
	if ENABLE_TRACE {
		w.Trace("ENTER", "WriteRaw", fmt.Sprintf("len(data)=%d", len(data)))
		defer w.Trace("EXIT", "WriteRaw", "")
	}
	if region := w.reserve(len(data)); region != nil {
		copy(region, data)
	}
}

// WriteFixed reserves exactly size bytes and lets fill populate them in
// place. fill is not called during the counting pass. It is meant for
// producers that know their exact width in advance (time values).
func (w *Writer) WriteFixed(size int, fill func(region []byte)) {
	if ENABLE_TRACE {
		w.Trace("ENTER", "WriteFixed", fmt.Sprintf("size=%d", size))
		defer w.Trace("EXIT", "WriteFixed", "")
	}
	if size < 0 {
		panic(fmt.Sprintf("derbuffer: negative fixed write of %d bytes", size))
	}
	if region := w.reserve(size); region != nil {
		fill(region)
	}
}

// WriteFramed emits a complete TLV: body produces the value, after which
// the length and then the tag are written, so the forward order is
// tag, length, value. Returns the number of bytes of the whole TLV.
func (w *Writer) WriteFramed(tag uint8, body func(w *Writer)) int {
	if ENABLE_TRACE {
		w.Trace("ENTER", "WriteFramed", fmt.Sprintf("tag=0x%02x", tag))
		defer w.Trace("EXIT", "WriteFramed", "")
	}
	start := w.written
	body(w)
	w.writeHeader(tag, w.written-start)
	return w.written - start
}

// writeHeader emits the identifier and length octets in canonical form.
//
// Implementation notes:
//   - Short form (length < 128): one octet holding the length.
//   - Long form: 0x80 | n followed by the n-octet big-endian length with
//     no leading zero octets.
//   - The length octets are written before the identifier because the
//     buffer is filled back to front.
func (w *Writer) writeHeader(tag uint8, length int) {
	if length < SHORT_FORM_LIMIT {
		header := [2]byte{tag, uint8(length)}
		w.WriteRaw(header[:])
		return
	}
	var (
		tmp = [TMP_ARRAY_SIZE]byte{}
		n   = OctetsLength(length)
	)
	binary.BigEndian.PutUint64(tmp[:], uint64(length))
	w.WriteRaw(tmp[TMP_ARRAY_SIZE-n:])
	header := [2]byte{tag, LONG_FORM_FLAG | uint8(n)}
	w.WriteRaw(header[:])
}

// OctetsLength returns the minimum number of octets holding length as a
// big-endian unsigned number. 0 still needs one octet.
func OctetsLength(length int) int {
	if length <= 0 {
		return 1
	}
	return (bits.Len64(uint64(length)) + 7) >> 3
}

// LengthOctets returns the size of the length field DER uses for a value of
// the given length: 1 in the short form, 1 + OctetsLength in the long form.
func LengthOctets(length int) int {
	if length < SHORT_FORM_LIMIT {
		return 1
	}
	return 1 + OctetsLength(length)
}

// EncodedLen returns the size of a complete single-octet-tag TLV whose value
// is length bytes long.
func EncodedLen(length int) int {
	return 1 + LengthOctets(length) + length
}

// Finish checks that a writing pass consumed its buffer exactly and returns
// it. It panics if capacity is left over or if the writer was counting.
func (w *Writer) Finish() []byte {
	if w.Counting() {
		panic("derbuffer: Finish called on a counting writer")
	}
	if len(w.free) != 0 || w.written != len(w.Buff) {
		panic(fmt.Sprintf("derbuffer: writing pass produced %d of %d bytes", w.written, len(w.Buff)))
	}
	return w.Buff
}

// Encode runs emit twice, once counting and once writing into a buffer of
// exactly the counted size, and returns that buffer. emit must be a
// deterministic function of its inputs; any disagreement between the two
// passes panics.
func Encode(emit func(w *Writer)) []byte {
	counter := CreateCounter()
	emit(counter)

	writer := CreateWriter(counter.NumWritten())
	emit(writer)
	return writer.Finish()
}
