/*
 * S370 - ANSI/ISO standard tape label decoder.
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

// Package label parses 80-byte ANSI/ISO standard tape labels (VOL1,
// HDR1, HDR2, EOF1, EOV1, and the user/reserved label classes).
package label

import "strings"

// Label is a parsed ANSI/ISO standard label record.
type Label struct {
	Identifier   string // raw 4-byte identifier, e.g. "VOL1"
	Serial       string // VOL1: volume serial
	Owner        string // VOL1: owner
	File         string // HDR1/EOF1/EOV1: file identifier
	FileSet      string // HDR1: file set identifier
	Created      string // HDR1: creation date
	RecordFormat string // HDR2: record format
	BlockLen     string // HDR2: block length
	RecordLen    string // HDR2: record length
	Blocks       string // EOF1/EOV1: block count
	Comment      string // VOL1: owner/comment field [51,80)
	Payload      string // UHL*: payload [4,80)
}

// Decode parses buf as an 80-byte ANSI/ISO label. It returns a zero
// Label and false if buf is not exactly 80 bytes long (any other
// length carries no label).
func Decode(buf []byte) (Label, bool) {
	if len(buf) != 80 {
		return Label{}, false
	}

	ident := trim(buf[0:4])
	lbl := Label{Identifier: ident}

	switch {
	case ident == "VOL1":
		lbl.Serial = trim(buf[4:10])
		lbl.Owner = trim(buf[37:51])
		lbl.Comment = trim(buf[51:80])
	case ident == "HDR1":
		lbl.File = trim(buf[4:21])
		lbl.FileSet = trim(buf[21:27])
		lbl.Created = trim(buf[41:47])
	case ident == "HDR2":
		lbl.RecordFormat = trim(buf[4:5])
		lbl.BlockLen = trim(buf[5:10])
		lbl.RecordLen = trim(buf[10:15])
	case ident == "EOF1" || ident == "EOV1":
		lbl.File = trim(buf[4:21])
		lbl.Blocks = trim(buf[54:60])
	case strings.HasPrefix(ident, "UHL"):
		lbl.Payload = trim(buf[4:80])
	case strings.HasPrefix(ident, "UTL"):
		// identifier only.
	}

	return lbl, true
}

// trim renders non-ASCII bytes as '.' before trimming surrounding
// whitespace, building the field text in a single allocation-free
// pass rather than copying into an intermediate byte slice first.
func trim(field []byte) string {
	var b strings.Builder
	b.Grow(len(field))
	for _, c := range field {
		if c < 0x20 || c > 0x7E {
			b.WriteByte('.')
			continue
		}
		b.WriteByte(c)
	}
	return strings.TrimSpace(b.String())
}
