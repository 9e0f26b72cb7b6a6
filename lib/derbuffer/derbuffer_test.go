package derbuffer

import (
	"bytes"
	"fmt"
	"testing"
)

func TestDerBuffer(t *testing.T) {
	c := CreateCounter()

	// Initial state
	if !c.Counting() {
		t.Errorf("counter should be counting")
	}
	if c.NumWritten() != 0 {
		t.Errorf("initial written should be 0, got %d", c.NumWritten())
	}

	c.WriteRaw([]byte{0x01, 0x02, 0x03})
	c.WriteFixed(4, func([]byte) {
		t.Errorf("fill must not be called while counting")
	})
	if c.NumWritten() != 7 {
		t.Errorf("after counting writes, written should be 7, got %d", c.NumWritten())
	}
	if c.Remaining() != 0 {
		t.Errorf("counter remaining should be 0, got %d", c.Remaining())
	}
	if c.Bytes() != nil {
		t.Errorf("counter should not hold a buffer")
	}

	w := CreateWriter(7)
	if w.Counting() {
		t.Errorf("writer should not be counting")
	}
	w.WriteRaw([]byte{0x01, 0x02, 0x03})
	if w.Remaining() != 4 {
		t.Errorf("after WriteRaw, remaining should be 4, got %d", w.Remaining())
	}
	w.WriteFixed(4, func(region []byte) {
		if len(region) != 4 {
			t.Errorf("fill region should be 4 bytes, got %d", len(region))
		}
		copy(region, "abcd")
	})

	// Later writes land in front of earlier ones
	expected := []byte{'a', 'b', 'c', 'd', 0x01, 0x02, 0x03}
	if got := w.Finish(); !bytes.Equal(got, expected) {
		t.Errorf("buffer should be %x, got %x", expected, got)
	}
}

func TestWriteFramedLength(t *testing.T) {
	test := func(length int, header []byte) {
		t.Run(fmt.Sprintf("LENGTH_%d", length), func(t *testing.T) {
			value := bytes.Repeat([]byte{0xAA}, length)
			result := Encode(func(w *Writer) {
				n := w.WriteFramed(0x04, func(w *Writer) {
					w.WriteRaw(value)
				})
				if n != len(header)+length {
					t.Errorf("WriteFramed() = %d, want %d", n, len(header)+length)
				}
			})
			if len(result) != len(header)+length {
				t.Fatalf("encoded %d bytes, expected %d", len(result), len(header)+length)
			}
			if !bytes.Equal(result[:len(header)], header) {
				t.Errorf("header = %x, expected %x", result[:len(header)], header)
			}
			if !bytes.Equal(result[len(header):], value) {
				t.Errorf("value was not preserved after the header")
			}
			if EncodedLen(length) != len(result) {
				t.Errorf("EncodedLen(%d) = %d, want %d", length, EncodedLen(length), len(result))
			}
		})
	}
	test(0, []byte{0x04, 0x00})
	test(1, []byte{0x04, 0x01})
	test(127, []byte{0x04, 0x7F})
	test(128, []byte{0x04, 0x81, 0x80})
	test(255, []byte{0x04, 0x81, 0xFF})
	test(256, []byte{0x04, 0x82, 0x01, 0x00})
	test(65535, []byte{0x04, 0x82, 0xFF, 0xFF})
	test(65536, []byte{0x04, 0x83, 0x01, 0x00, 0x00})
}

func TestWriteFramedNesting(t *testing.T) {
	result := Encode(func(w *Writer) {
		w.WriteFramed(0x30, func(w *Writer) {
			// second child first, the buffer grows backward
			w.WriteFramed(0x30, func(*Writer) {})
			w.WriteFramed(0x30, func(w *Writer) {
				w.WriteRaw([]byte{0x05, 0x00})
			})
		})
	})
	expected := []byte{0x30, 0x06, 0x30, 0x02, 0x05, 0x00, 0x30, 0x00}
	if !bytes.Equal(result, expected) {
		t.Errorf("Encode() = %x, expected %x", result, expected)
	}
}

func TestLengthOctets(t *testing.T) {
	test := func(length, expected int, description string) {
		t.Run(description, func(t *testing.T) {
			result := LengthOctets(length)
			if result != expected {
				t.Errorf("LengthOctets(%d) = %d, want %d", length, result, expected)
			}
		})
	}
	test(0, 1, "zero uses the short form")
	test(127, 1, "127 is the last short form length")
	test(128, 2, "128 needs one length octet")
	test(255, 2, "255 fits one length octet")
	test(256, 3, "256 needs two length octets")
	test(0xFFFFFF, 4, "max 3 octets")
	test(0x1000000, 5, "needs 4 octets")
}

func TestOctetsLength(t *testing.T) {
	test := func(length, expected int) {
		t.Run(fmt.Sprintf("%d", length), func(t *testing.T) {
			if result := OctetsLength(length); result != expected {
				t.Errorf("OctetsLength(%d) = %d, want %d", length, result, expected)
			}
		})
	}
	test(0, 1)
	test(1, 1)
	test(0xFF, 1)
	test(0x100, 2)
	test(0xFFFF, 2)
	test(0x10000, 3)
}

func TestEncodeEmpty(t *testing.T) {
	result := Encode(func(*Writer) {})
	if len(result) != 0 {
		t.Errorf("empty emit should produce no bytes, got %x", result)
	}
}

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s should panic", name)
		}
	}()
	fn()
}

func TestContractViolations(t *testing.T) {
	expectPanic(t, "overrunning the buffer", func() {
		w := CreateWriter(1)
		w.WriteRaw([]byte{0x01, 0x02})
	})
	expectPanic(t, "finishing with capacity left", func() {
		w := CreateWriter(2)
		w.WriteRaw([]byte{0x01})
		w.Finish()
	})
	expectPanic(t, "finishing a counter", func() {
		CreateCounter().Finish()
	})
	expectPanic(t, "non-deterministic emit", func() {
		calls := 0
		Encode(func(w *Writer) {
			calls++
			w.WriteRaw(make([]byte, calls))
		})
	})
	expectPanic(t, "negative buffer size", func() {
		CreateWriter(-1)
	})
}

func TestString(t *testing.T) {
	w := CreateWriter(3)
	w.WriteRaw([]byte{0x01})
	expected := "Writer{counting: false, written: 1, remaining: 2}"
	if w.String() != expected {
		t.Errorf("String() = %q, want %q", w.String(), expected)
	}
}
