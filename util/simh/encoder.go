/*
 * S370 - Generic tape interface.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package simh

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Encoder writes SIMH-framed records and markers to a byte sink.
//
// Each record and each marker word is a single write to dst
// (WriteEraseGaps issues one write per gap): there is no implicit
// buffering beyond whatever dst itself provides.
type Encoder struct {
	dst io.Writer
}

// NewEncoder returns an Encoder writing to dst.
func NewEncoder(dst io.Writer) *Encoder {
	return &Encoder{dst: dst}
}

// WriteData writes a class-0 data record.
func (e *Encoder) WriteData(data []byte) error {
	return e.WriteRecord(0, data)
}

// WriteRecord writes a data record of the given class.
//
// The leading length word, payload, optional zero pad byte (for an
// odd-length payload), and trailing length word are written as one
// buffer in a single Write call.
func (e *Encoder) WriteRecord(class byte, data []byte) error {
	if class > 0xF {
		return fmt.Errorf("simh: record class %d exceeds maximum 15: %w", class, ErrInvalidInput)
	}
	if len(data) > MaxRecordLength {
		return fmt.Errorf("simh: payload length %d exceeds safety ceiling %d: %w", len(data), MaxRecordLength, ErrInvalidInput)
	}

	length := uint32(len(data))
	word := uint32(class)<<28 | length

	padded := length%2 == 1
	size := 8 + int(length)
	if padded {
		size++
	}
	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, word)
	buf = append(buf, data...)
	if padded {
		buf = append(buf, 0)
	}
	buf = binary.LittleEndian.AppendUint32(buf, word)

	_, err := e.dst.Write(buf)
	return err
}

// WriteBadData writes a class-8 (bad data) record.
func (e *Encoder) WriteBadData(data []byte) error {
	return e.WriteRecord(8, data)
}

// WriteTapeMark writes a single tape-mark word.
func (e *Encoder) WriteTapeMark() error {
	return e.writeWord(wordTapeMark)
}

// WriteEndOfMedium writes the end-of-medium sentinel word.
func (e *Encoder) WriteEndOfMedium() error {
	return e.writeWord(wordEndOfMedium)
}

// WriteEraseGaps writes n consecutive erase-gap marker words.
func (e *Encoder) WriteEraseGaps(n int) error {
	for range n {
		if err := e.writeWord(wordEraseGap); err != nil {
			return err
		}
	}
	return nil
}

// WritePrivateMarker writes a class-7 private marker word carrying a
// 28-bit value.
func (e *Encoder) WritePrivateMarker(value uint32) error {
	if value > maxFieldValue {
		return fmt.Errorf("simh: private marker value %#x exceeds 28 bits: %w", value, ErrInvalidInput)
	}
	return e.writeWord(uint32(classPrivateMarker)<<28 | value)
}

func (e *Encoder) writeWord(word uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], word)
	_, err := e.dst.Write(buf[:])
	return err
}
