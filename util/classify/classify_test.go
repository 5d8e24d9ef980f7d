/*
 * S370 - Record encoding classifier tests.
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

package classify

import (
	"bytes"
	"testing"
)

func TestClassifyEmpty(t *testing.T) {
	if got := Classify(nil); got != Empty {
		t.Fatalf("Classify(nil) = %v, want Empty", got)
	}
}

func TestClassifyAscii(t *testing.T) {
	buf := []byte("HELLO WORLD, THIS IS A PLAIN TEXT RECORD.\n")
	if got := Classify(buf); got != Ascii {
		t.Fatalf("Classify = %v, want Ascii", got)
	}
}

func TestClassifyBinary(t *testing.T) {
	buf := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0xDE, 0xAD, 0xBE, 0xEF}
	if got := Classify(buf); got != Binary {
		t.Fatalf("Classify = %v, want Binary", got)
	}
}

func TestClassifyAnsi(t *testing.T) {
	buf := bytes.Repeat([]byte{0xC1}, 100)
	if got := Classify(buf); got != Ansi {
		t.Fatalf("Classify = %v, want Ansi", got)
	}
}

func TestClassifyMostlyAscii(t *testing.T) {
	buf := append([]byte(nil), bytes.Repeat([]byte("A"), 75)...)
	buf = append(buf, bytes.Repeat([]byte{0x01}, 25)...)
	if got := Classify(buf); got != MostlyAscii {
		t.Fatalf("Classify = %v, want MostlyAscii", got)
	}
}

func TestClassifyMostlyAnsi(t *testing.T) {
	buf := append([]byte(nil), bytes.Repeat([]byte{0xC1}, 75)...)
	buf = append(buf, bytes.Repeat([]byte{0x01}, 25)...)
	if got := Classify(buf); got != MostlyAnsi {
		t.Fatalf("Classify = %v, want MostlyAnsi", got)
	}
}
