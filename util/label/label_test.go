/*
 * S370 - ANSI/ISO standard tape label decoder tests.
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

package label

import (
	"bytes"
	"testing"
)

func padded(s string) []byte {
	buf := bytes.Repeat([]byte{' '}, 80)
	copy(buf, s)
	return buf
}

func TestDecodeWrongLength(t *testing.T) {
	if _, ok := Decode(make([]byte, 79)); ok {
		t.Fatal("expected no label for non-80-byte buffer")
	}
}

func TestDecodeVOL1(t *testing.T) {
	buf := padded("VOL1TAPE01")
	copy(buf[37:51], []byte("RCORNWELL     "))

	lbl, ok := Decode(buf)
	if !ok {
		t.Fatal("expected a label")
	}
	if lbl.Identifier != "VOL1" {
		t.Fatalf("identifier = %q, want VOL1", lbl.Identifier)
	}
	if lbl.Serial != "TAPE01" {
		t.Fatalf("serial = %q, want TAPE01", lbl.Serial)
	}
	if lbl.Owner != "RCORNWELL" {
		t.Fatalf("owner = %q, want RCORNWELL", lbl.Owner)
	}
}

func TestDecodeHDR1(t *testing.T) {
	buf := padded("HDR1BACKUP.SAV")
	copy(buf[21:27], []byte("000001"))
	copy(buf[41:47], []byte("24001 "))

	lbl, ok := Decode(buf)
	if !ok {
		t.Fatal("expected a label")
	}
	if lbl.File != "BACKUP.SAV" {
		t.Fatalf("file = %q, want BACKUP.SAV", lbl.File)
	}
	if lbl.FileSet != "000001" {
		t.Fatalf("file set = %q", lbl.FileSet)
	}
	if lbl.Created != "24001" {
		t.Fatalf("created = %q", lbl.Created)
	}
}

func TestDecodeHDR2(t *testing.T) {
	buf := padded("HDR2F")
	copy(buf[5:10], []byte("08000"))
	copy(buf[10:15], []byte("00080"))

	lbl, ok := Decode(buf)
	if !ok {
		t.Fatal("expected a label")
	}
	if lbl.RecordFormat != "F" {
		t.Fatalf("record format = %q", lbl.RecordFormat)
	}
	if lbl.BlockLen != "08000" {
		t.Fatalf("block length = %q", lbl.BlockLen)
	}
	if lbl.RecordLen != "00080" {
		t.Fatalf("record length = %q", lbl.RecordLen)
	}
}

func TestDecodeEOF1(t *testing.T) {
	buf := padded("EOF1BACKUP.SAV")
	copy(buf[54:60], []byte("000042"))

	lbl, ok := Decode(buf)
	if !ok {
		t.Fatal("expected a label")
	}
	if lbl.File != "BACKUP.SAV" {
		t.Fatalf("file = %q", lbl.File)
	}
	if lbl.Blocks != "000042" {
		t.Fatalf("blocks = %q", lbl.Blocks)
	}
}

func TestDecodeUHL(t *testing.T) {
	buf := padded("UHL1$ BACKUP/LOG/VERIFY")
	lbl, ok := Decode(buf)
	if !ok {
		t.Fatal("expected a label")
	}
	if lbl.Payload == "" {
		t.Fatal("expected a non-empty payload")
	}
}

func TestDecodeUTL(t *testing.T) {
	buf := padded("UTL1")
	lbl, ok := Decode(buf)
	if !ok {
		t.Fatal("expected a label")
	}
	if lbl.Identifier != "UTL1" {
		t.Fatalf("identifier = %q", lbl.Identifier)
	}
}

func TestDecodeUnknownIdentifierCaptured(t *testing.T) {
	buf := padded("XXXX")
	lbl, ok := Decode(buf)
	if !ok {
		t.Fatal("expected a label")
	}
	if lbl.Identifier != "XXXX" {
		t.Fatalf("identifier = %q, want XXXX", lbl.Identifier)
	}
}

func TestDecodeNonASCIIRenderedAsDot(t *testing.T) {
	buf := padded("VOL1")
	buf[4] = 0xFF
	buf[5] = 'A'

	lbl, ok := Decode(buf)
	if !ok {
		t.Fatal("expected a label")
	}
	if lbl.Serial[0] != '.' {
		t.Fatalf("serial = %q, want leading '.'", lbl.Serial)
	}
}
