/*
 * S370 - Tape file/tape aggregator tests.
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

package analyzer

import (
	"bytes"
	"testing"

	"github.com/rcornwell/tapekit/util/label"
	"github.com/rcornwell/tapekit/util/signature"
	"github.com/rcornwell/tapekit/util/simh"
)

func decodeBuf(t *testing.T, buf []byte) TapeAnalysis {
	t.Helper()
	dec := simh.NewDecoder(bytes.NewReader(buf), 0)
	return Run(dec)
}

// Scenario 1: empty image.
func TestEmptyImage(t *testing.T) {
	buf := []byte{0, 0, 0, 0}
	a := decodeBuf(t, buf)

	if a.Totals.Files != 0 {
		t.Fatalf("Totals.Files = %d, want 0", a.Totals.Files)
	}
	if a.Totals.Records != 0 {
		t.Fatalf("Totals.Records = %d, want 0", a.Totals.Records)
	}
	if a.EndOfTapeOffset != nil {
		t.Fatalf("EndOfTapeOffset = %v, want nil", a.EndOfTapeOffset)
	}
}

// Scenario 2: single record + single tape mark.
func TestSingleRecordSingleTapeMark(t *testing.T) {
	var buf bytes.Buffer
	enc := simh.NewEncoder(&buf)
	if err := enc.WriteData([]byte("HELLO")); err != nil {
		t.Fatal(err)
	}
	if err := enc.WriteTapeMark(); err != nil {
		t.Fatal(err)
	}

	a := decodeBuf(t, buf.Bytes())
	if a.Totals.Files != 1 {
		t.Fatalf("Totals.Files = %d, want 1", a.Totals.Files)
	}
	if a.Totals.Records != 1 {
		t.Fatalf("Totals.Records = %d, want 1", a.Totals.Records)
	}
	if a.Totals.Bytes != 5 {
		t.Fatalf("Totals.Bytes = %d, want 5", a.Totals.Bytes)
	}
	if len(a.Summary.Files[0].TapeMarkWarning) != 0 {
		t.Fatalf("TapeMarkWarning = %q, want empty", a.Summary.Files[0].TapeMarkWarning)
	}
}

// Scenario 3: two files separated by a tape mark, followed by a double tape mark.
func TestTwoFilesThenDoubleTapeMark(t *testing.T) {
	var buf bytes.Buffer
	enc := simh.NewEncoder(&buf)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(enc.WriteData([]byte("FILE ONE RECORD")))
	must(enc.WriteTapeMark())
	must(enc.WriteData([]byte("FILE TWO RECORD")))
	must(enc.WriteTapeMark())
	must(enc.WriteTapeMark())

	a := decodeBuf(t, buf.Bytes())
	if a.Totals.Files != 2 {
		t.Fatalf("Totals.Files = %d, want 2", a.Totals.Files)
	}
	for i, f := range a.Summary.Files {
		if f.TapeMarkWarning != "" {
			t.Fatalf("file %d TapeMarkWarning = %q, want empty", i, f.TapeMarkWarning)
		}
	}
}

// Scenario 4: end-of-medium after one record.
func TestEndOfMediumAfterOneRecord(t *testing.T) {
	payload := []byte("PAYLOAD!")
	var buf bytes.Buffer
	enc := simh.NewEncoder(&buf)
	if err := enc.WriteData(payload); err != nil {
		t.Fatal(err)
	}
	if err := enc.WriteEndOfMedium(); err != nil {
		t.Fatal(err)
	}

	a := decodeBuf(t, buf.Bytes())
	if a.Totals.Files != 1 {
		t.Fatalf("Totals.Files = %d, want 1", a.Totals.Files)
	}
	if a.EndOfTapeOffset == nil {
		t.Fatal("EndOfTapeOffset = nil, want set")
	}

	want := int64(12 + len(payload) + len(payload)%2)
	if *a.EndOfTapeOffset != want {
		t.Fatalf("EndOfTapeOffset = %d, want %d", *a.EndOfTapeOffset, want)
	}
}

// Scenario 6: VMS BACKUP detection.
func TestVMSBackupDetectionEndToEnd(t *testing.T) {
	payload := make([]byte, 1024)
	copy(payload[32:], []byte("BACKUP"))
	copy(payload[96:], []byte("SAVE SET"))

	var buf bytes.Buffer
	enc := simh.NewEncoder(&buf)
	if err := enc.WriteData(payload); err != nil {
		t.Fatal(err)
	}
	if err := enc.WriteTapeMark(); err != nil {
		t.Fatal(err)
	}

	a := decodeBuf(t, buf.Bytes())
	if len(a.Summary.Files) != 1 {
		t.Fatalf("Files = %d, want 1", len(a.Summary.Files))
	}

	rec := a.Summary.Files[0].Records[0]
	var found bool
	for _, s := range rec.Sigs {
		if s.Tag == "vms-backup" {
			found = true
			if s.Confidence != signature.High {
				t.Fatalf("confidence = %v, want High", s.Confidence)
			}
		}
	}
	if !found {
		t.Fatal("expected a vms-backup signature")
	}

	var platformFound bool
	for _, p := range a.Summary.Platforms {
		if p == "OpenVMS / VAX/VMS" {
			platformFound = true
		}
	}
	if !platformFound {
		t.Fatal("expected OpenVMS / VAX/VMS platform to be recorded")
	}
}

func TestClassWarnings(t *testing.T) {
	tests := []struct {
		class byte
		want  string
	}{
		{0x0, ""},
		{0x3, "SIMH private data class"},
		{0x8, "bad data record"},
		{0xA, "reserved data class"},
		{0xE, "tape description record"},
	}
	for _, tt := range tests {
		if got := classWarning(tt.class); got != tt.want {
			t.Errorf("classWarning(%#x) = %q, want %q", tt.class, got, tt.want)
		}
	}
}

func TestBackupCommandExtractionFromUHL(t *testing.T) {
	rec := bytes.Repeat([]byte{' '}, 80)
	copy(rec, []byte("UHL1"))
	copy(rec[4:], []byte("$ BACKUP/LOG/VERIFY DISK$"))

	lbl, ok := label.Decode(rec)
	if !ok {
		t.Fatal("expected a label")
	}

	buf := []rollingRecord{{data: rec, label: &lbl}}
	cmd := extractBackupCommand(buf)
	if cmd == "" {
		t.Fatal("expected a non-empty backup command")
	}
}

func TestBackupCommandExtractionFromLongRecord(t *testing.T) {
	data := make([]byte, 600)
	copy(data[100:], []byte("BACKUP/DISK1/SAVE_SET/LOG/VERIFY/NOASSIST A_LONG_COMMAND_LINE_HERE"))
	for i := 100 + len("BACKUP/DISK1/SAVE_SET/LOG/VERIFY/NOASSIST A_LONG_COMMAND_LINE_HERE"); i < len(data); i++ {
		data[i] = 0
	}

	buf := []rollingRecord{{data: data}}
	cmd := extractBackupCommand(buf)
	if cmd == "" {
		t.Fatal("expected a non-empty backup command from long-record pass")
	}
}

