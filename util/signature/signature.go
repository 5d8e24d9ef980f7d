/*
 * S370 - Archive and backup format signature detector.
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

// Package signature runs an ordered battery of magic-number and
// heuristic detectors against a tape record's payload, identifying
// archive and backup formats historically found on 9-track and
// cartridge tapes. It never decodes or decompresses a match; it only
// reports what it recognises.
package signature

import (
	"bytes"
)

// Confidence grades how certain a detector is about its match.
type Confidence int

const (
	Low Confidence = iota
	Medium
	High
)

func (c Confidence) String() string {
	switch c {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// Signature describes one detected format.
type Signature struct {
	Tag         string
	Description string
	Format      string
	Platform    string
	Confidence  Confidence
	Details     string
}

// detector inspects data (the full record payload) and the record's
// declared length, returning a signature if it recognises the content.
type detector func(data []byte, declaredLength uint32) (Signature, bool)

// battery is the ordered list of detectors run for every record.
// Order matters: it is part of the contract, since signatures are
// reported in battery order. Every detector in the battery runs; only
// the block-size hint and plain-text fallback in Detect depend on
// nothing earlier having matched.
var battery = []detector{
	detectFixedMagic,
	detectLegacyCompression,
	detectTar,
	detectCpio,
	detectPDP11Aout,
	detectVMSBackup,
	detectDECBRU,
	detectPDP11Backup,
	detectUnixDump,
	detectAFIO,
	detectQIC,
	detectWindowsMTFBTF,
	detectNovellSMS,
	detectIBMStandardLabel,
	detectLTFS,
	detectMXF,
}

// Detect runs the full detector battery against data, then - only if
// nothing else matched - the block-size hint and plain-text fallback.
func Detect(data []byte, declaredLength uint32) []Signature {
	var sigs []Signature
	for _, d := range battery {
		if sig, ok := d(data, declaredLength); ok {
			sigs = append(sigs, sig)
		}
	}

	if len(sigs) == 0 {
		if sig, ok := detectBlockSizeHint(data, declaredLength); ok {
			sigs = append(sigs, sig)
		}
	}
	if len(sigs) == 0 {
		if sig, ok := detectPlainText(data, declaredLength); ok {
			sigs = append(sigs, sig)
		}
	}
	return sigs
}

func hasPrefix(data, prefix []byte) bool {
	return len(data) >= len(prefix) && bytes.Equal(data[:len(prefix)], prefix)
}

func sliceEq(data []byte, start, end int, want []byte) bool {
	if len(data) < end || start < 0 || start > end {
		return false
	}
	return bytes.Equal(data[start:end], want)
}

func isDigitByte(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlnumByte(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

type magicRule struct {
	prefix      []byte
	tag         string
	description string
	format      string
	platform    string
}

var fixedMagics = []magicRule{
	{[]byte{0x1F, 0x8B}, "gzip", "gzip compressed data", "gzip", ""},
	{[]byte("BZ"), "bzip2", "bzip2 compressed data", "bzip2", ""},
	{[]byte("!<arch>\n"), "unix-ar", "Unix ar archive", "ar", "Unix"},
	{[]byte{0x50, 0x4B, 0x03, 0x04}, "zip", "ZIP archive", "zip", ""},
	{[]byte("Rar!"), "rar", "RAR archive", "rar", ""},
	{[]byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, "7z", "7-Zip archive", "7z", ""},
	{[]byte{0x7F, 'E', 'L', 'F'}, "elf", "ELF executable or object file", "elf", "Unix"},
	{[]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, "png", "PNG image", "png", ""},
	{[]byte("GIF87a"), "gif", "GIF image (87a)", "gif", ""},
	{[]byte("GIF89a"), "gif", "GIF image (89a)", "gif", ""},
	{[]byte{0xFF, 0xD8, 0xFF}, "jpeg", "JPEG image", "jpeg", ""},
	{[]byte("BM"), "bmp", "BMP image", "bmp", ""},
	{[]byte("%PDF"), "pdf", "PDF document", "pdf", ""},
	{[]byte("<!DO"), "markup", "HTML document (DOCTYPE)", "html", ""},
	{[]byte("<html"), "markup", "HTML document", "html", ""},
	{[]byte("<?xml"), "markup", "XML document", "xml", ""},
	{[]byte("#!"), "shebang", "Unix script with shebang line", "script", "Unix"},
}

func detectFixedMagic(data []byte, _ uint32) (Signature, bool) {
	for _, m := range fixedMagics {
		if hasPrefix(data, m.prefix) {
			return Signature{
				Tag:         m.tag,
				Description: m.description,
				Format:      m.format,
				Platform:    m.platform,
				Confidence:  High,
			}, true
		}
	}
	return Signature{}, false
}
