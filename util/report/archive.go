/*
 * S370 - Archival compaction of analysis detail/warning text.
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

package report

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/axiomhq/fsst"

	"github.com/rcornwell/tapekit/util/analyzer"
)

// CompactLog trains an FSST symbol table over every detail and
// warning string in a, then encodes each line against that table,
// producing a compact sidecar blob suitable for long-term archival
// storage of analysis logs alongside the original tape image. It
// returns nil, nil if a carries no detail or warning text at all.
func CompactLog(a analyzer.TapeAnalysis) ([]byte, error) {
	lines := collectLogLines(a)
	if len(lines) == 0 {
		return nil, nil
	}

	inputs := make([][]byte, len(lines))
	for i, line := range lines {
		inputs[i] = []byte(line)
	}

	table := fsst.Train(inputs)
	tableBytes, err := table.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("report: marshalling symbol table: %w", err)
	}

	var buf bytes.Buffer
	writeUvarint(&buf, uint64(len(tableBytes)))
	buf.Write(tableBytes)
	writeUvarint(&buf, uint64(len(lines)))
	for _, line := range lines {
		encoded := table.EncodeAll([]byte(line))
		writeUvarint(&buf, uint64(len(encoded)))
		buf.Write(encoded)
	}

	return buf.Bytes(), nil
}

// DecodeCompactLog reverses CompactLog, returning the original lines
// in order.
func DecodeCompactLog(blob []byte) ([]string, error) {
	r := bytes.NewReader(blob)

	tableLen, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("report: reading symbol table length: %w", err)
	}
	tableBytes := make([]byte, tableLen)
	if _, err := r.Read(tableBytes); err != nil {
		return nil, fmt.Errorf("report: reading symbol table: %w", err)
	}

	var table fsst.Table
	if err := table.UnmarshalBinary(tableBytes); err != nil {
		return nil, fmt.Errorf("report: unmarshalling symbol table: %w", err)
	}

	lineCount, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("report: reading line count: %w", err)
	}

	lines := make([]string, 0, lineCount)
	for i := uint64(0); i < lineCount; i++ {
		encLen, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("report: reading line %d length: %w", i, err)
		}
		enc := make([]byte, encLen)
		if _, err := r.Read(enc); err != nil {
			return nil, fmt.Errorf("report: reading line %d: %w", i, err)
		}
		lines = append(lines, string(table.DecodeAll(enc)))
	}

	return lines, nil
}

// collectLogLines gathers every detail/warning string a TapeAnalysis
// carries, in a stable order, as the training and encoding corpus.
func collectLogLines(a analyzer.TapeAnalysis) []string {
	var lines []string

	lines = append(lines, a.Summary.Details...)
	lines = append(lines, a.Summary.Warnings...)

	for _, f := range a.Summary.Files {
		lines = append(lines, f.Details...)
		if f.TapeMarkWarning != "" {
			lines = append(lines, f.TapeMarkWarning)
		}
		for _, rec := range f.Records {
			lines = append(lines, rec.Warnings...)
		}
	}

	return lines
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}
