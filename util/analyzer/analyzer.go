/*
 * S370 - Tape file/tape aggregator.
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

// Package analyzer walks a decoded SIMH block stream and builds a
// structured summary of the files and records it finds: encoding,
// labels, recognised formats, and anomalies.
package analyzer

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/rcornwell/tapekit/util/classify"
	"github.com/rcornwell/tapekit/util/hex"
	"github.com/rcornwell/tapekit/util/label"
	"github.com/rcornwell/tapekit/util/signature"
	"github.com/rcornwell/tapekit/util/simh"
)

// rollingBufferSize is how many of the tape's leading records (across
// all files) are kept around (payload and label) for BACKUP-command
// extraction.
const rollingBufferSize = 20

// AnalyzedRecord is one data record's contribution to a file summary.
type AnalyzedRecord struct {
	Offset   int64
	Class    byte
	Length   uint32
	Bucket   classify.Bucket
	Preview  string
	Label    *label.Label
	Sigs     []signature.Signature
	Warnings []string
}

// TapeFile is the set of records between two tape marks (or between
// the start of the tape/previous mark and the next one).
type TapeFile struct {
	Index            int
	Records          []AnalyzedRecord
	TapeMarkWarning  string
	HasLabel         bool
	Formats          []string
	Platforms        []string
	Details          []string
	PredominantBytes uint32
}

// TapeSummary accumulates tape-wide detail and warning text alongside
// the ordered list of files.
type TapeSummary struct {
	Files         []TapeFile
	Details       []string
	Warnings      []string
	LabelCount    int
	Platforms     []string
	BackupCommand string
}

// Totals reports the aggregate counts callers most often want without
// walking every file and record.
type Totals struct {
	Files   int
	Records int
	Bytes   int64
}

// TapeAnalysis is the complete result of walking one tape image.
type TapeAnalysis struct {
	Summary           TapeSummary
	Totals            Totals
	EndOfTapeOffset   *int64
	TapeMarksObserved int
}

// state is the aggregator's current position relative to tape marks.
type state int

const (
	stateNoFile state = iota
	stateInFile
	stateTerminal
)

// aggregator holds the mutable state threaded through Run.
type aggregator struct {
	state      state
	file       *TapeFile
	analysis   TapeAnalysis
	rollingBuf []rollingRecord
	fileIndex  int
}

type rollingRecord struct {
	data  []byte
	label *label.Label
}

// Run consumes every block from dec until EndOfStream, a decoder
// error, or an end-of-tape tape mark, and returns the accumulated
// analysis. A decoder error is reported as a tape-level warning, not
// a returned error: the analyser always returns a best-effort result
// for whatever was readable before the failure.
func Run(dec *simh.Decoder) TapeAnalysis {
	a := &aggregator{}

	done := false
	for !done {
		block, err := dec.Next()
		if err != nil {
			a.analysis.Summary.Warnings = append(a.analysis.Summary.Warnings,
				fmt.Sprintf("decoder error, traversal terminated: %v", err))
			a.finalizeFile("")
			break
		}

		switch b := block.(type) {
		case simh.Record:
			a.onRecord(b)
		case simh.TapeMark:
			done = a.onTapeMark(b)
		case simh.EndOfStream:
			a.finalizeFile("")
			done = true
		}
	}

	a.synthesizeTapeSummary()
	a.analysis.Summary.BackupCommand = extractBackupCommand(a.rollingBuf)
	return a.analysis
}

func (a *aggregator) onRecord(rec simh.Record) {
	if a.state != stateInFile {
		a.fileIndex++
		a.file = &TapeFile{Index: a.fileIndex}
		a.state = stateInFile
	}

	analyzed := analyzeRecord(rec)
	a.file.Records = append(a.file.Records, analyzed)
	a.analysis.Totals.Records++
	a.analysis.Totals.Bytes += int64(rec.Length)

	if len(a.rollingBuf) < rollingBufferSize {
		a.rollingBuf = append(a.rollingBuf, rollingRecord{data: rec.Data, label: analyzed.Label})
	}
}

// onTapeMark applies one TapeMark event to the state machine,
// returning true when traversal is complete.
func (a *aggregator) onTapeMark(mark simh.TapeMark) bool {
	switch mark.Kind {
	case simh.MarkSingle:
		if a.state == stateInFile {
			a.finalizeFile("")
		}
		return false

	case simh.MarkDouble:
		if a.state == stateInFile {
			a.finalizeFile("followed by a double tape mark")
		} else {
			a.analysis.Summary.Warnings = append(a.analysis.Summary.Warnings,
				"double tape mark encountered with no open file")
		}
		return false

	case simh.MarkEndOfTape:
		offset := mark.Offset
		a.finalizeFile("")
		a.analysis.EndOfTapeOffset = &offset
		a.analysis.TapeMarksObserved++
		return true

	case simh.MarkEraseGap, simh.MarkHalfGapForward, simh.MarkHalfGapReverse:
		a.analysis.Summary.Warnings = append(a.analysis.Summary.Warnings,
			fmt.Sprintf("%s encountered at offset %d", mark.Kind, mark.Offset))
		return false

	case simh.MarkPrivate, simh.MarkReserved:
		a.analysis.Summary.Warnings = append(a.analysis.Summary.Warnings,
			fmt.Sprintf("%s (class %X, value %#x) at offset %d", mark.Kind, mark.Class, mark.Value, mark.Offset))
		return false
	}

	a.analysis.TapeMarksObserved++
	return false
}

func (a *aggregator) finalizeFile(warning string) {
	a.analysis.TapeMarksObserved++
	if a.state != stateInFile {
		return
	}

	a.file.TapeMarkWarning = warning
	summarizeFile(a.file)
	a.analysis.Summary.Files = append(a.analysis.Summary.Files, *a.file)
	a.analysis.Totals.Files++

	for _, rec := range a.file.Records {
		if rec.Label != nil {
			a.analysis.Summary.LabelCount++
		}
	}

	a.state = stateNoFile
	a.file = nil
}

// analyzeRecord builds one AnalyzedRecord from a decoded block.
func analyzeRecord(rec simh.Record) AnalyzedRecord {
	bucket := classify.Classify(rec.Data)

	lbl, isLabel := label.Decode(rec.Data)
	var lblPtr *label.Label
	if isLabel {
		lblPtr = &lbl
	}

	sigs := signature.Detect(rec.Data, rec.Length)

	ar := AnalyzedRecord{
		Offset:  rec.Offset,
		Class:   rec.Class,
		Length:  rec.Length,
		Bucket:  bucket,
		Preview: buildPreview(rec.Data, bucket),
		Label:   lblPtr,
		Sigs:    sigs,
	}

	if w := classWarning(rec.Class); w != "" {
		ar.Warnings = append(ar.Warnings, w)
	}
	if rec.TrailingLength != rec.Length {
		ar.Warnings = append(ar.Warnings,
			fmt.Sprintf("trailing length %d does not match declared length %d", rec.TrailingLength, rec.Length))
	}

	return ar
}

// classWarning maps a record's class nibble to the warning text it
// should carry, or "" for a silent class.
func classWarning(class byte) string {
	switch {
	case class == 0:
		return ""
	case class >= 1 && class <= 6:
		return "SIMH private data class"
	case class == 8:
		return "bad data record"
	case class >= 9 && class <= 0xD:
		return "reserved data class"
	case class == 0xE:
		return "tape description record"
	default:
		return "unknown data class"
	}
}

// buildPreview renders the leading bytes of a record payload as a
// short preview. Binary-bucket records get a hex dump, since an
// ASCII-style preview would just be a wall of '.' substitutions;
// everything else gets a printable preview with '.' substituted for
// non-printable bytes, the same rendering rule util/label.trim uses
// for label fields.
func buildPreview(data []byte, bucket classify.Bucket) string {
	if bucket == classify.Binary {
		const maxHexPreview = 16
		n := len(data)
		if n > maxHexPreview {
			n = maxHexPreview
		}
		var b strings.Builder
		b.Grow(n * 3)
		hex.FormatBytes(&b, true, data[:n])
		return strings.TrimSpace(b.String())
	}

	const maxPreview = 64
	n := len(data)
	if n > maxPreview {
		n = maxPreview
	}

	var b strings.Builder
	b.Grow(n)
	for _, c := range data[:n] {
		if c < 0x20 || c > 0x7E {
			b.WriteByte('.')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// summarizeFile fills in a file's derived Formats/Platforms/Details
// from its records, per the per-file summary rules.
func summarizeFile(f *TapeFile) {
	var unlabelledFolded int
	var lengths = map[uint32]int{}

	for i := range f.Records {
		rec := &f.Records[i]

		if rec.Label != nil {
			f.HasLabel = true
			applyLabelSummary(f, rec.Label)
			continue
		}

		lengths[rec.Length]++

		if unlabelledFolded < 3 {
			for _, s := range rec.Sigs {
				f.Formats = appendUnique(f.Formats, s.Format)
				if s.Platform != "" {
					f.Platforms = appendUnique(f.Platforms, s.Platform)
				}
			}
			unlabelledFolded++
		}
	}

	if f.HasLabel {
		f.Platforms = appendUnique(f.Platforms, "ANSI/ISO Standard Labeled Tape")
	}

	if len(lengths) > 0 {
		var best uint32
		var bestCount int
		for length, count := range lengths {
			if count > bestCount {
				best, bestCount = length, count
			}
		}
		f.PredominantBytes = best
		f.Details = append(f.Details, fmt.Sprintf("Predominant data block size: %d bytes", best))
	}
}

func applyLabelSummary(f *TapeFile, lbl *label.Label) {
	if lbl.Identifier != "HDR1" || lbl.File == "" {
		return
	}

	f.Details = append(f.Details, fmt.Sprintf("HDR1 declares file '%s'", lbl.File))

	upper := strings.ToUpper(lbl.File)
	switch {
	case strings.Contains(upper, ".BCK") || strings.Contains(upper, ".BAK"):
		f.Formats = appendUnique(f.Formats, "DEC BACKUP save set (.BCK)")
	case strings.Contains(upper, ".SAV"):
		f.Formats = appendUnique(f.Formats, "DEC save image (.SAV)")
	}
}

// synthesizeTapeSummary merges per-file platforms into the tape-wide
// summary, preserving insertion order of files, and adds the
// tape-level label and content details. Per-file formats and details
// stay on their files.
func (a *aggregator) synthesizeTapeSummary() {
	s := &a.analysis.Summary

	if s.LabelCount > 0 {
		s.Details = append(s.Details, fmt.Sprintf("Tape includes %d ANSI/ISO label record(s)", s.LabelCount))
		s.Platforms = appendUnique(s.Platforms, "ANSI/ISO Standard Labeled Tape")
	}

	for _, f := range s.Files {
		for _, p := range f.Platforms {
			s.Platforms = appendUnique(s.Platforms, p)
		}
	}

	hasFormat := false
	for _, f := range s.Files {
		if len(f.Formats) > 0 {
			hasFormat = true
			break
		}
	}

	if !hasFormat {
		if bucket, sigs, ok := firstUnlabelledRecord(s.Files); ok {
			if len(sigs) > 0 {
				s.Details = append(s.Details, fmt.Sprintf("Content matches signature '%s'", sigs[0].Tag))
			} else {
				s.Details = append(s.Details, fmt.Sprintf("Content appears %s", describeBucket(bucket)))
			}
		}
	}
}

func firstUnlabelledRecord(files []TapeFile) (classify.Bucket, []signature.Signature, bool) {
	for _, f := range files {
		for _, rec := range f.Records {
			if rec.Label == nil {
				return rec.Bucket, rec.Sigs, true
			}
		}
	}
	return 0, nil, false
}

func describeBucket(b classify.Bucket) string {
	switch b {
	case classify.Ascii, classify.MostlyAscii:
		return "ASCII"
	case classify.Ansi, classify.MostlyAnsi:
		return "ANSI/extended"
	case classify.Binary:
		return "binary"
	default:
		return "empty"
	}
}

func appendUnique(list []string, s string) []string {
	if s == "" {
		return list
	}
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

// extractBackupCommand implements the two-pass BACKUP-command search
// over the rolling buffer of the tape's leading records.
func extractBackupCommand(buf []rollingRecord) string {
	for _, r := range buf {
		if len(r.data) != 80 || r.label == nil {
			continue
		}
		switch {
		case strings.HasPrefix(r.label.Identifier, "UHL"):
			if cmd := r.label.Payload; looksLikeCommand(cmd) {
				return cmd
			}
		case r.label.Identifier == "VOL1":
			if cmd := r.label.Comment; looksLikeCommand(cmd) {
				return cmd
			}
		}
	}

	for _, r := range buf {
		if len(r.data) <= 512 {
			continue
		}
		if cmd, ok := findBackupSlash(r.data); ok {
			return cmd
		}
	}

	return ""
}

// looksLikeCommand applies the spec's lax "looks like a command"
// heuristic: length >= 6 and, uppercased, contains one of a small set
// of command-shaped substrings.
func looksLikeCommand(s string) bool {
	if len(s) < 6 {
		return false
	}
	upper := strings.ToUpper(s)
	for _, marker := range []string{"BACKUP", "COMMAND", "LOG", "VERIFY", "/", "$"} {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// findBackupSlash locates "BACKUP/" within the first min(len,1024)
// bytes of data and extracts the command text following it, either
// via the 2-byte little-endian length prefix or, failing that, the
// longest printable run starting at the match.
func findBackupSlash(data []byte) (string, bool) {
	window := data
	if len(window) > 1024 {
		window = window[:1024]
	}

	idx := strings.Index(string(window), "BACKUP/")
	if idx < 0 {
		return "", false
	}

	if idx >= 2 {
		prefixLen := int(binary.LittleEndian.Uint16(data[idx-2 : idx]))
		if prefixLen >= 50 && prefixLen < 500 && idx+prefixLen <= len(data) {
			return strings.TrimSpace(renderPrintable(data[idx : idx+prefixLen])), true
		}
	}

	end := idx
	for end < len(data) && end-idx < 400 && isCommandByte(data[end]) {
		end++
	}

	cmd := strings.TrimSpace(renderPrintable(data[idx:end]))
	if len(cmd) > 30 && strings.Count(cmd, "/") >= 3 {
		return cmd, true
	}
	return "", false
}

func isCommandByte(c byte) bool {
	return c == '\t' || c == '\n' || c == '\r' || c == ' ' || (c >= 32 && c <= 126)
}

func renderPrintable(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		b.WriteByte(c)
	}
	return b.String()
}
