/*
 * S370 - Archive and backup format signature detector: heuristic rules.
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

package signature

import (
	"bytes"
	"encoding/binary"
)

// detectLegacyCompression covers the small pre-gzip Unix/DOS/Amiga
// compressors and archivers that predate a registered magic-number
// authority.
func detectLegacyCompression(data []byte, _ uint32) (Signature, bool) {
	switch {
	case hasPrefix(data, []byte{0x1F, 0x9D}) || hasPrefix(data, []byte{0x1F, 0xA0}):
		return Signature{Tag: "unix-compress", Description: "Unix compress (.Z)", Format: "compress", Confidence: High}, true

	case len(data) >= 2 && data[0] == 0x1A && data[1] >= 0x01 && data[1] <= 0x08:
		return Signature{Tag: "arc", Description: "ARC archive", Format: "arc", Confidence: High}, true

	case hasPrefix(data, []byte{0x60, 0xEA}):
		return Signature{Tag: "arj", Description: "ARJ archive", Format: "arj", Confidence: High}, true

	case hasPrefix(data, []byte("ZOO ")):
		return Signature{Tag: "zoo", Description: "ZOO archive", Format: "zoo", Confidence: High}, true

	case hasPrefix(data, []byte("SIT!")):
		return Signature{Tag: "stuffit", Description: "StuffIt archive", Format: "sit", Platform: "Macintosh", Confidence: High}, true

	case hasPrefix(data, []byte("MSCF")):
		return Signature{Tag: "cab", Description: "Microsoft Cabinet archive", Format: "cab", Platform: "Windows", Confidence: High}, true

	case hasPrefix(data, []byte("SZDD")):
		return Signature{Tag: "szdd", Description: "MS-DOS SZDD compressed file", Format: "szdd", Platform: "MS-DOS", Confidence: High}, true

	case len(data) >= 7 && data[2] == '-' && data[3] == 'l' && (data[4] == 'h' || data[4] == 'z') &&
		isAlnumByte(data[5]) && data[6] == '-':
		return Signature{Tag: "lha", Description: "LHA/LZH archive", Format: "lha", Confidence: Medium}, true
	}
	return Signature{}, false
}

// detectTar recognises POSIX ustar headers and falls back to the V7
// tar heuristic (printable name/mode/size fields) when the ustar
// magic is absent.
func detectTar(data []byte, _ uint32) (Signature, bool) {
	if len(data) < 512 {
		return Signature{}, false
	}

	if sliceEq(data, 257, 263, []byte("ustar\x00")) || sliceEq(data, 257, 265, []byte("ustar  \x00")) {
		return Signature{Tag: "tar-posix", Description: "POSIX tar archive", Format: "tar", Confidence: High}, true
	}

	if isNulOrPrintableASCII(data[0:100]) && isNulOrPrintableASCII(data[100:108]) && isOctalSizeField(data[124:136]) {
		return Signature{Tag: "tar-v7", Description: "V7-style legacy tar archive", Format: "tar", Confidence: Medium}, true
	}
	return Signature{}, false
}

func isNulOrPrintableASCII(field []byte) bool {
	for _, c := range field {
		if c == 0 {
			continue
		}
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

func isOctalSizeField(field []byte) bool {
	for _, c := range field {
		if c == 0 || c == ' ' || isDigitByte(c) {
			continue
		}
		return false
	}
	return true
}

// detectCpio recognises the three ASCII cpio magic strings and the
// two-byte binary-format magics (in either byte order).
func detectCpio(data []byte, _ uint32) (Signature, bool) {
	if len(data) >= 6 {
		switch string(data[0:6]) {
		case "070701", "070702", "070707":
			return Signature{Tag: "cpio-ascii", Description: "cpio archive (ASCII header)", Format: "cpio", Confidence: High}, true
		}
	}
	if len(data) >= 2 {
		switch {
		case hasPrefix(data, []byte{0x71, 0xC7}), hasPrefix(data, []byte{0xC7, 0x71}),
			hasPrefix(data, []byte{0xC7, 0x70}), hasPrefix(data, []byte{0x70, 0xC7}):
			return Signature{Tag: "cpio-bin", Description: "cpio archive (binary header)", Format: "cpio", Confidence: Medium}, true
		}
	}
	return Signature{}, false
}

// detectPDP11Aout recognises PDP-11 a.out object and archive magics.
func detectPDP11Aout(data []byte, _ uint32) (Signature, bool) {
	if len(data) < 2 {
		return Signature{}, false
	}
	if data[0] == 0x01 {
		switch data[1] {
		case 0x07, 0x08, 0x0B, 0x0C:
			return Signature{Tag: "pdp11-aout", Description: "PDP-11 a.out object file", Format: "a.out", Platform: "PDP-11", Confidence: Medium}, true
		}
	}
	if data[0] == 0x02 && data[1] == 0x07 {
		return Signature{Tag: "pdp11-archive", Description: "PDP-11 object archive", Format: "a.out", Platform: "PDP-11", Confidence: Medium}, true
	}
	return Signature{}, false
}

// detectVMSBackup looks for the VMS BACKUP utility's save-set markers,
// falling back to a lax structural heuristic when they are absent: a
// plausible block-sequence word followed by eight reserved zero
// bytes. That fallback is deliberately loose - VMS save sets in the
// wild don't always carry the "BACKUP"/"SAVE SET" text this early in
// the first block - so it is scored Medium rather than tightened into
// false negatives on real tapes.
func detectVMSBackup(data []byte, _ uint32) (Signature, bool) {
	if len(data) >= 512 {
		if bytes.Contains(data[0:120], []byte("BACKUP")) && bytes.Contains(data[0:256], []byte("SAVE SET")) {
			return Signature{
				Tag: "vms-backup", Description: "OpenVMS BACKUP save set", Format: "VMS BACKUP",
				Platform: "OpenVMS / VAX/VMS", Confidence: High,
			}, true
		}
	}
	if len(data) >= 12 {
		firstTwo := data[0:2]
		lax := (firstTwo[0] == 0x01 && firstTwo[1] == 0x00) || (firstTwo[0] == 0x00 && firstTwo[1] == 0x01)
		if lax && allZero(data[4:12]) {
			return Signature{
				Tag: "vms-backup-possible", Description: "possible OpenVMS BACKUP save set", Format: "VMS BACKUP",
				Platform: "OpenVMS / VAX/VMS", Confidence: Medium,
			}, true
		}
	}
	return Signature{}, false
}

func allZero(data []byte) bool {
	for _, c := range data {
		if c != 0 {
			return false
		}
	}
	return true
}

// detectDECBRU looks for the DEC BRU backup utility's name anywhere
// in the first 64 bytes; this is a weak, low-confidence hint.
func detectDECBRU(data []byte, _ uint32) (Signature, bool) {
	limit := min(64, len(data))
	if bytes.Contains(data[:limit], []byte("BRU")) {
		return Signature{Tag: "dec-bru", Description: "possible DEC BRU backup", Format: "BRU", Platform: "DEC", Confidence: Low}, true
	}
	return Signature{}, false
}

// detectPDP11Backup recognises the PDP-11 BACKUP utility's compact
// two-byte record-type header.
func detectPDP11Backup(data []byte, _ uint32) (Signature, bool) {
	if len(data) < 32 {
		return Signature{}, false
	}
	if data[0] >= 1 && data[0] <= 4 && data[1] == 0 {
		return Signature{Tag: "pdp11-backup", Description: "PDP-11 BACKUP save set", Format: "BACKUP", Platform: "PDP-11", Confidence: Medium}, true
	}
	return Signature{}, false
}

// detectUnixDump recognises the Unix dump/restore magic numbers, all
// stored little-endian at a fixed offset in the tape header block.
func detectUnixDump(data []byte, _ uint32) (Signature, bool) {
	if len(data) < 28 {
		return Signature{}, false
	}
	magic := binary.LittleEndian.Uint32(data[24:28])
	switch magic {
	case 60011, 60012, 60013, 60014:
		return Signature{Tag: "unix-dump", Description: "Unix dump/restore image", Format: "dump", Platform: "Unix", Confidence: High}, true
	}
	return Signature{}, false
}

// detectAFIO recognises the afio archiver's cpio-derived magic.
func detectAFIO(data []byte, _ uint32) (Signature, bool) {
	if hasPrefix(data, []byte{0x71, 0xC7, 0x00, 0x00, 0x00}) {
		return Signature{Tag: "afio", Description: "afio archive", Format: "afio", Platform: "Unix", Confidence: High}, true
	}
	return Signature{}, false
}

// detectQIC recognises QIC-113/QIC-80 style tape headers, either the
// 4-byte leading magic or the trailing "QF" block at offset 512.
func detectQIC(data []byte, _ uint32) (Signature, bool) {
	if hasPrefix(data, []byte("QIC\x00")) || hasPrefix(data, []byte("\x00QIC")) {
		return Signature{Tag: "qic", Description: "QIC tape format header", Format: "QIC", Confidence: Medium}, true
	}
	if sliceEq(data, 512, 516, []byte("QF\x00\x00")) {
		return Signature{Tag: "qic", Description: "QIC tape format header", Format: "QIC", Confidence: Medium}, true
	}
	return Signature{}, false
}

// detectWindowsMTFBTF recognises Microsoft Tape Format and its
// predecessor Backup Tape Format headers.
func detectWindowsMTFBTF(data []byte, _ uint32) (Signature, bool) {
	if hasPrefix(data, []byte("TAPE")) {
		return Signature{Tag: "mtf", Description: "Microsoft Tape Format (MTF) header", Format: "MTF", Platform: "Windows", Confidence: Medium}, true
	}
	if hasPrefix(data, []byte{0x42, 0x54, 0x46, 0x00}) {
		return Signature{Tag: "btf", Description: "Backup Tape Format (BTF) header", Format: "BTF", Platform: "Windows", Confidence: Medium}, true
	}
	return Signature{}, false
}

// detectNovellSMS recognises Novell Storage Management Services
// headers.
func detectNovellSMS(data []byte, _ uint32) (Signature, bool) {
	if hasPrefix(data, []byte("NWSM")) {
		return Signature{Tag: "novell-sms", Description: "Novell Storage Management Services header", Format: "SMS", Platform: "NetWare", Confidence: Medium}, true
	}
	return Signature{}, false
}

// detectIBMStandardLabel recognises an IBM standard label record of
// 80 bytes or more, independent of util/label (which parses only
// records of exactly 80 bytes). Shorter records are not matched.
func detectIBMStandardLabel(data []byte, _ uint32) (Signature, bool) {
	if len(data) < 80 {
		return Signature{}, false
	}
	prefix := string(data[0:3])
	switch prefix {
	case "VOL", "HDR", "EOF", "EOV":
		if isDigitByte(data[3]) {
			return Signature{
				Tag: "ibm-standard-label", Description: "IBM standard label record", Format: "IBM SL",
				Platform: "IBM mainframe", Confidence: High,
			}, true
		}
	}
	return Signature{}, false
}

// detectLTFS recognises a Linear Tape File System index or volume
// label.
func detectLTFS(data []byte, _ uint32) (Signature, bool) {
	if hasPrefix(data, []byte("<?xml")) {
		limit := min(512, len(data))
		if bytes.Contains(bytes.ToLower(data[:limit]), []byte("ltfsindex")) {
			return Signature{Tag: "ltfs", Description: "LTFS index", Format: "LTFS", Confidence: High}, true
		}
	}
	if hasPrefix(data, []byte("LTFS")) {
		return Signature{Tag: "ltfs", Description: "LTFS volume label", Format: "LTFS", Confidence: High}, true
	}
	return Signature{}, false
}

// detectMXF recognises the Material Exchange Format KLV magic,
// distinguishing the partition pack key from generic KLV data.
func detectMXF(data []byte, _ uint32) (Signature, bool) {
	if !hasPrefix(data, []byte{0x06, 0x0E, 0x2B, 0x34}) {
		return Signature{}, false
	}
	if sliceEq(data, 4, 8, []byte{0x02, 0x05, 0x01, 0x01}) {
		return Signature{Tag: "mxf-partition", Description: "MXF partition pack", Format: "MXF", Confidence: High}, true
	}
	return Signature{Tag: "mxf-klv", Description: "MXF KLV-encoded data", Format: "MXF", Confidence: Medium}, true
}

// detectBlockSizeHint fires only when nothing else matched: a
// declared length of 2048 or 4096 bytes is a common DEC RSX-11/RT-11
// disk block size carried onto tape.
func detectBlockSizeHint(_ []byte, declaredLength uint32) (Signature, bool) {
	switch declaredLength {
	case 2048, 4096:
		return Signature{
			Tag: "rsx-block", Description: "block size matches a common DEC disk block size",
			Platform: "DEC", Confidence: Low,
		}, true
	}
	return Signature{}, false
}

// detectPlainText is the last-resort fallback: only fires when the
// battery and the block-size hint both came up empty.
func detectPlainText(data []byte, _ uint32) (Signature, bool) {
	if len(data) < 32 {
		return Signature{}, false
	}

	printable := 0
	for _, c := range data {
		if c == 9 || c == 10 || c == 13 || (c >= 32 && c <= 126) {
			printable++
		}
	}
	if 100*printable/len(data) < 90 {
		return Signature{}, false
	}

	hasCRLF := bytes.Contains(data, []byte("\r\n"))
	hasLF := bytes.Contains(data, []byte("\n"))
	hasCR := bytes.Contains(data, []byte("\r"))

	var ending string
	switch {
	case hasCRLF:
		ending = "DOS line endings (CRLF)"
	case hasLF:
		ending = "Unix line endings (LF)"
	case hasCR:
		ending = "classic Mac line endings (CR)"
	default:
		ending = "mixed or no line endings"
	}

	return Signature{
		Tag: "ascii-text", Description: "plain ASCII text", Format: "text", Confidence: Low,
		Details: ending,
	}, true
}
