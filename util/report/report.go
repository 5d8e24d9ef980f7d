/*
 * S370 - Tape analysis report formatter.
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

// Package report renders a TapeAnalysis as a line-oriented human
// text report, coalescing consecutive records that share length,
// encoding, and body rendering into a single summary line.
package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/rcornwell/tapekit/util/analyzer"
)

// Render formats a as a multi-section text report.
func Render(a analyzer.TapeAnalysis) string {
	var b strings.Builder

	fmt.Fprintln(&b, "Tape Analysis Report")
	fmt.Fprintln(&b, "=====================")
	fmt.Fprintf(&b, "Files:   %s\n", humanize.Comma(int64(a.Totals.Files)))
	fmt.Fprintf(&b, "Records: %s\n", humanize.Comma(int64(a.Totals.Records)))
	fmt.Fprintf(&b, "Bytes:   %s (%s)\n", humanize.Bytes(uint64(a.Totals.Bytes)), humanize.Comma(a.Totals.Bytes))
	if a.EndOfTapeOffset != nil {
		fmt.Fprintf(&b, "End of tape at offset %s\n", humanize.Comma(*a.EndOfTapeOffset))
	}
	b.WriteByte('\n')

	for _, f := range a.Summary.Files {
		renderFile(&b, f)
	}

	if s := a.Summary.BackupCommand; s != "" {
		fmt.Fprintf(&b, "BACKUP command: %s\n\n", s)
	}

	if len(a.Summary.Platforms) > 0 {
		fmt.Fprintf(&b, "Platforms: %s\n", strings.Join(a.Summary.Platforms, ", "))
	}
	for _, d := range a.Summary.Details {
		fmt.Fprintf(&b, "Detail: %s\n", d)
	}
	for _, w := range a.Summary.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}

	return b.String()
}

func renderFile(b *strings.Builder, f analyzer.TapeFile) {
	fmt.Fprintf(b, "File %d (%d records):\n", f.Index, len(f.Records))

	if len(f.Formats) > 0 {
		fmt.Fprintf(b, "  Formats: %s\n", strings.Join(f.Formats, ", "))
	}
	if len(f.Platforms) > 0 {
		fmt.Fprintf(b, "  Platforms: %s\n", strings.Join(f.Platforms, ", "))
	}
	for _, d := range f.Details {
		fmt.Fprintf(b, "  Detail: %s\n", d)
	}
	if f.TapeMarkWarning != "" {
		fmt.Fprintf(b, "  Warning: %s\n", f.TapeMarkWarning)
	}

	for _, run := range coalesceRuns(f.Records) {
		fmt.Fprintf(b, "  %s\n", run.String())
	}

	for i, rec := range f.Records {
		for _, w := range rec.Warnings {
			fmt.Fprintf(b, "  Record %d warning: %s\n", i+1, w)
		}
	}

	b.WriteByte('\n')
}

// recordRun is a coalesced span of consecutive records sharing
// length, encoding bucket, and preview rendering.
type recordRun struct {
	startIndex, endIndex   int
	length                 uint32
	startOffset, endOffset int64
}

// String renders the run in the canonical report line shape:
// "Records NNNN-MMMM (K records): N bytes each @ offsets A..B".
func (r recordRun) String() string {
	count := r.endIndex - r.startIndex + 1
	return fmt.Sprintf("Records %d-%d (%d records): %s bytes each @ offsets %d..%d",
		r.startIndex, r.endIndex, count, humanize.Comma(int64(r.length)), r.startOffset, r.endOffset)
}

// coalesceRuns groups consecutive records in order that share
// length, encoding bucket, and preview text.
func coalesceRuns(records []analyzer.AnalyzedRecord) []recordRun {
	var runs []recordRun

	for i, rec := range records {
		idx := i + 1
		if n := len(runs); n > 0 {
			last := &runs[n-1]
			prev := records[last.endIndex-1]
			if last.length == rec.Length && prev.Bucket == rec.Bucket && prev.Preview == rec.Preview {
				last.endIndex = idx
				last.endOffset = rec.Offset
				continue
			}
		}
		runs = append(runs, recordRun{
			startIndex: idx, endIndex: idx,
			length:      rec.Length,
			startOffset: rec.Offset, endOffset: rec.Offset,
		})
	}

	return runs
}
