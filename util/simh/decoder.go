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
	"errors"
	"fmt"
	"io"
)

// Decoder is a stateful, pull-based reader over a seekable SIMH image.
// Next yields the finite, non-restartable sequence of blocks the image
// contains.
type Decoder struct {
	src           io.ReadSeeker
	limit         uint32
	pendingDouble bool
}

// NewDecoder returns a Decoder bound to src with the given safety
// limit on declared record length. A zero limit defaults to
// MaxRecordLength; the limit is otherwise capped at the 28-bit field
// maximum, since no length word can encode more than that regardless.
func NewDecoder(src io.ReadSeeker, limit uint32) *Decoder {
	if limit == 0 {
		limit = MaxRecordLength
	}
	if limit > maxFieldValue {
		limit = maxFieldValue
	}
	return &Decoder{src: src, limit: limit}
}

// Next reads and returns the next block from the source.
func (d *Decoder) Next() (Block, error) {
	word, offset, err := d.readWord()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return EndOfStream{}, nil
		}
		return nil, err
	}

	switch {
	case word == wordTapeMark:
		return d.handleTapeMark(offset)
	case word == wordEraseGap:
		return TapeMark{Offset: offset, Kind: MarkEraseGap}, nil
	case word == wordHalfGapForwardLegal:
		return TapeMark{Offset: offset, Kind: MarkHalfGapForward}, nil
	case word >= halfGapForwardIllegalLo && word <= halfGapForwardIllegalHi:
		return nil, fmt.Errorf("simh: illegal forward half-gap %#08x at offset %d: %w", word, offset, ErrInvalidData)
	case word >= halfGapReverseLo && word <= halfGapReverseHi:
		return TapeMark{Offset: offset, Kind: MarkHalfGapReverse}, nil
	case word == wordEndOfMedium:
		return TapeMark{Offset: offset, Kind: MarkEndOfTape}, nil
	}

	class := byte(word >> 28)
	value := word & maxFieldValue

	switch class {
	case classPrivateMarker:
		return TapeMark{Offset: offset, Kind: MarkPrivate, Class: class, Value: value}, nil
	case classReservedMark:
		return TapeMark{Offset: offset, Kind: MarkReserved, Class: class, Value: value}, nil
	}

	return d.readRecord(offset, class, value, word)
}

// handleTapeMark implements the double-mark lookahead protocol: a
// tape-mark word immediately following a pending-double flag is
// reported as Double; otherwise the following word is peeked (and
// seeked back over) to decide whether a Double follows.
func (d *Decoder) handleTapeMark(offset int64) (Block, error) {
	if d.pendingDouble {
		d.pendingDouble = false
		return TapeMark{Offset: offset, Kind: MarkDouble}, nil
	}
	if d.peekIsTapeMark() {
		d.pendingDouble = true
	}
	return TapeMark{Offset: offset, Kind: MarkSingle}, nil
}

func (d *Decoder) readRecord(offset int64, class byte, length uint32, leading uint32) (Block, error) {
	if length > d.limit {
		return nil, fmt.Errorf("simh: record length %d at offset %d exceeds safety limit %d: %w", length, offset, d.limit, ErrInvalidData)
	}

	data := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(d.src, data); err != nil {
			return nil, fmt.Errorf("simh: truncated record payload at offset %d: %w", offset, ErrUnexpectedEOF)
		}
	}

	if length%2 == 1 {
		var pad [1]byte
		if _, err := io.ReadFull(d.src, pad[:]); err != nil {
			return nil, fmt.Errorf("simh: truncated pad byte at offset %d: %w", offset, ErrUnexpectedEOF)
		}
	}

	trailing, _, err := d.readWord()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("simh: missing trailing length word at offset %d: %w", offset, ErrUnexpectedEOF)
		}
		return nil, err
	}
	if trailing != leading {
		return nil, fmt.Errorf("simh: leading/trailing length mismatch at offset %d (%#08x != %#08x): %w",
			offset, leading, trailing, ErrInvalidData)
	}

	return Record{
		Offset:         offset,
		Class:          class,
		Length:         length,
		Data:           data,
		TrailingLength: trailing & maxFieldValue,
	}, nil
}

// readWord reads one 32-bit little-endian word, reporting the offset
// it started at. A clean end-of-stream at a word boundary returns
// io.EOF; a truncated word returns a wrapped ErrUnexpectedEOF.
func (d *Decoder) readWord() (uint32, int64, error) {
	offset, err := d.src.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, err
	}

	var buf [4]byte
	n, err := io.ReadFull(d.src, buf[:])
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return 0, offset, io.EOF
		}
		return 0, offset, fmt.Errorf("simh: truncated word at offset %d: %w", offset, ErrUnexpectedEOF)
	}
	return binary.LittleEndian.Uint32(buf[:]), offset, nil
}

// peekIsTapeMark reads one word ahead and seeks back, reporting
// whether it is a tape-mark word. Any read failure (including a
// truncated peek at end of stream) is treated as "not a tape mark" -
// the caller will encounter the same condition on its next Next call.
func (d *Decoder) peekIsTapeMark() bool {
	pos, err := d.src.Seek(0, io.SeekCurrent)
	if err != nil {
		return false
	}

	var buf [4]byte
	_, err = io.ReadFull(d.src, buf[:])
	_, _ = d.src.Seek(pos, io.SeekStart)
	if err != nil {
		return false
	}
	return binary.LittleEndian.Uint32(buf[:]) == wordTapeMark
}
