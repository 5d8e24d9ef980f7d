/*
 * S370 - Record encoding classifier.
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

// Package classify buckets record payloads into coarse encoding
// classes (ASCII, ANSI/extended, mostly one or the other, binary).
package classify

// Bucket is the encoding class a record's bytes fall into.
type Bucket int

const (
	Empty Bucket = iota
	Ascii
	MostlyAscii
	Ansi
	MostlyAnsi
	Binary
)

func (b Bucket) String() string {
	switch b {
	case Empty:
		return "empty"
	case Ascii:
		return "ascii"
	case MostlyAscii:
		return "mostly-ascii"
	case Ansi:
		return "ansi"
	case MostlyAnsi:
		return "mostly-ansi"
	case Binary:
		return "binary"
	default:
		return "unknown"
	}
}

// isPrintable reports whether a byte counts toward the printable
// tally: the control codes TAB/LF/CR, the printable 7-bit ASCII
// range, or any byte with the high bit set.
func isPrintable(c byte) bool {
	switch c {
	case 9, 10, 13:
		return true
	}
	return (c >= 32 && c <= 126) || c >= 128
}

// Classify computes the encoding bucket for buf.
func Classify(buf []byte) Bucket {
	if len(buf) == 0 {
		return Empty
	}

	var printable, extended int
	for _, c := range buf {
		if isPrintable(c) {
			printable++
			if c >= 128 {
				extended++
			}
		}
	}

	pct := 100 * printable / len(buf)
	extPct := 0
	if printable != 0 {
		extPct = 100 * extended / printable
	}

	switch {
	case pct > 95 && extPct < 5:
		return Ascii
	case pct > 95:
		return Ansi
	case pct > 70 && extPct < 5:
		return MostlyAscii
	case pct > 70:
		return MostlyAnsi
	default:
		return Binary
	}
}
