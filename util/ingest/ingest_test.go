/*
 * S370 - Tape capture ingest pipeline tests.
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

package ingest

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/rcornwell/tapekit/util/simh"
)

type readStep struct {
	data []byte
	err  error
}

type stepReader struct {
	steps []readStep
	idx   int
}

func (r *stepReader) Read(p []byte) (int, error) {
	if r.idx >= len(r.steps) {
		return 0, io.EOF
	}
	step := r.steps[r.idx]
	r.idx++
	n := copy(p, step.data)
	return n, step.err
}

var errStop = errors.New("test: no more input")

// TestSpuriousZeroByteReadThenRetry exercises scenario 5: a reader
// returns 0 bytes on the first read; after the retry, it returns
// "DATA" then 0. Expected output: one record of "DATA" then one tape
// mark.
func TestSpuriousZeroByteReadThenRetry(t *testing.T) {
	var buf bytes.Buffer
	enc := simh.NewEncoder(&buf)

	call := 0
	open := func() (io.Reader, error) {
		call++
		switch call {
		case 1:
			return &stepReader{steps: []readStep{{data: nil, err: nil}}}, nil
		case 2:
			return &stepReader{steps: []readStep{
				{data: []byte("DATA"), err: nil},
				{data: nil, err: nil},
			}}, nil
		default:
			return nil, errStop
		}
	}

	p := NewPipeline(Config{RetryBudget: 1})
	err := p.Run(enc, open, false)
	if !errors.Is(err, errStop) {
		t.Fatalf("Run error = %v, want wrapping errStop", err)
	}

	var want bytes.Buffer
	wantEnc := simh.NewEncoder(&want)
	if err := wantEnc.WriteData([]byte("DATA")); err != nil {
		t.Fatal(err)
	}
	if err := wantEnc.WriteTapeMark(); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(buf.Bytes(), want.Bytes()) {
		t.Fatalf("captured bytes = % x, want % x", buf.Bytes(), want.Bytes())
	}
}

// TestConsecutiveEmptyFilesStopsCleanly exercises the retry-exhausted
// path: RetryBudget 0 selects the default budget of 100 retries per
// file, and once that budget is spent on each of two consecutive
// empty files the capture ends without an error, after emitting
// exactly one tape mark for the first empty file.
func TestConsecutiveEmptyFilesStopsCleanly(t *testing.T) {
	var buf bytes.Buffer
	enc := simh.NewEncoder(&buf)

	open := func() (io.Reader, error) {
		return &stepReader{steps: []readStep{{data: nil, err: nil}}}, nil
	}

	p := NewPipeline(Config{RetryBudget: 0})
	if err := p.Run(enc, open, false); err != nil {
		t.Fatalf("Run error = %v, want nil", err)
	}

	var want bytes.Buffer
	wantEnc := simh.NewEncoder(&want)
	if err := wantEnc.WriteTapeMark(); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(buf.Bytes(), want.Bytes()) {
		t.Fatalf("captured bytes = % x, want % x", buf.Bytes(), want.Bytes())
	}
}

// TestEndOfTapeEquivalentErrorEndsCleanly exercises the EIO-style
// termination: an I/O error surfacing "Input/output error" after at
// least one successful record ends the capture without propagating
// the error.
func TestEndOfTapeEquivalentErrorEndsCleanly(t *testing.T) {
	var buf bytes.Buffer
	enc := simh.NewEncoder(&buf)

	open := func() (io.Reader, error) {
		return &stepReader{steps: []readStep{
			{data: []byte("ONE RECORD"), err: nil},
			{data: nil, err: errors.New("read /dev/tape: Input/output error")},
		}}, nil
	}

	p := NewPipeline(Config{RetryBudget: 1})
	if err := p.Run(enc, open, false); err != nil {
		t.Fatalf("Run error = %v, want nil (end-of-tape equivalent)", err)
	}

	dec := simh.NewDecoder(bytes.NewReader(buf.Bytes()), 0)
	block, err := dec.Next()
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := block.(simh.Record)
	if !ok {
		t.Fatalf("block = %T, want simh.Record", block)
	}
	if string(rec.Data) != "ONE RECORD" {
		t.Fatalf("record data = %q, want %q", rec.Data, "ONE RECORD")
	}
}

// TestGenuineIOErrorPropagates exercises a real I/O failure, which
// must not be swallowed.
func TestGenuineIOErrorPropagates(t *testing.T) {
	var buf bytes.Buffer
	enc := simh.NewEncoder(&buf)

	wantErr := errors.New("permission denied")
	open := func() (io.Reader, error) {
		return &stepReader{steps: []readStep{{data: nil, err: wantErr}}}, nil
	}

	p := NewPipeline(Config{RetryBudget: 1})
	err := p.Run(enc, open, false)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Run error = %v, want wrapping %v", err, wantErr)
	}
}

// TestNonSeekableConsumedOnce exercises the standard-input contract:
// a non-seekable source is only opened once, regardless of how the
// first pass terminates.
func TestNonSeekableConsumedOnce(t *testing.T) {
	var buf bytes.Buffer
	enc := simh.NewEncoder(&buf)

	opens := 0
	open := func() (io.Reader, error) {
		opens++
		return &stepReader{steps: []readStep{
			{data: []byte("STDIN RECORD"), err: nil},
			{data: nil, err: nil},
		}}, nil
	}

	p := NewPipeline(Config{RetryBudget: 1})
	if err := p.Run(enc, open, true); err != nil {
		t.Fatalf("Run error = %v, want nil", err)
	}
	if opens != 1 {
		t.Fatalf("opens = %d, want 1", opens)
	}
}
