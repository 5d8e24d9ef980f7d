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

// Package simh implements a bidirectional codec for the SIMH magnetic-tape
// container format (the ".tap" image used by SIMH-family emulators).
package simh

import "errors"

const (
	// MaxRecordLength is the safety ceiling on a declared record length,
	// unrelated to the 28-bit hardware maximum a length word can hold.
	MaxRecordLength = 0x0120_0000

	// hardware maximum representable in the 28-bit value field.
	maxFieldValue = 0x0FFF_FFFF

	wordTapeMark            uint32 = 0x0000_0000
	wordEraseGap            uint32 = 0xFFFF_FFFE
	wordHalfGapForwardLegal uint32 = 0xFFFE_FFFF
	halfGapForwardIllegalLo uint32 = 0xFFFE_0000
	halfGapForwardIllegalHi uint32 = 0xFFFE_FFFE
	halfGapReverseLo        uint32 = 0xFFFF_0000
	halfGapReverseHi        uint32 = 0xFFFF_FFFD
	wordEndOfMedium         uint32 = 0xFFFF_FFFF

	classPrivateMarker byte = 0x7
	classReservedMark  byte = 0xF
)

var (
	// ErrInvalidInput reports an encoder precondition violation.
	ErrInvalidInput = errors.New("simh: invalid input")

	// ErrUnexpectedEOF reports truncation mid-word or mid-record.
	ErrUnexpectedEOF = errors.New("simh: unexpected end of file")

	// ErrInvalidData reports framing corruption: a length-ceiling breach,
	// a leading/trailing length mismatch, or an illegal half-gap range.
	ErrInvalidData = errors.New("simh: invalid data")
)

// MarkKind identifies the kind of event a TapeMark block carries.
type MarkKind int

const (
	MarkSingle MarkKind = iota
	MarkDouble
	MarkEndOfTape
	MarkEraseGap
	MarkHalfGapForward
	MarkHalfGapReverse
	MarkPrivate
	MarkReserved
)

func (k MarkKind) String() string {
	switch k {
	case MarkSingle:
		return "tape mark"
	case MarkDouble:
		return "double tape mark"
	case MarkEndOfTape:
		return "end of medium"
	case MarkEraseGap:
		return "erase gap"
	case MarkHalfGapForward:
		return "forward half-gap"
	case MarkHalfGapReverse:
		return "reverse half-gap"
	case MarkPrivate:
		return "private marker"
	case MarkReserved:
		return "reserved marker"
	default:
		return "unknown mark"
	}
}

// Block is the lazily-produced unit the Decoder yields: Record, TapeMark, or EndOfStream.
type Block interface {
	isBlock()
}

// Record is a decoded SIMH data record.
type Record struct {
	Offset         int64  // absolute byte position of the leading length word
	Class          byte   // 0-F class nibble
	Length         uint32 // declared payload length
	Data           []byte // payload bytes
	TrailingLength uint32 // value decoded from the trailing length word
}

func (Record) isBlock() {}

// TapeMark is a marker or sentinel event: a tape mark, erase gap, half
// gap, end of medium, or a private/reserved class marker word.
type TapeMark struct {
	Offset int64
	Kind   MarkKind
	Class  byte   // populated for MarkPrivate / MarkReserved
	Value  uint32 // populated for MarkPrivate / MarkReserved
}

func (TapeMark) isBlock() {}

// EndOfStream marks that the source is exhausted at a word boundary.
type EndOfStream struct{}

func (EndOfStream) isBlock() {}
