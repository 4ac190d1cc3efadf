/*
Copyright Paul Lee. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package codec converts between text, hexadecimal, Base64 and raw bytes, and packs
// bytes into big-endian 32-bit words. All functions are pure.
package codec

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Encoding selects how text is turned into bytes.
type Encoding int

const (
	UTF8 Encoding = iota
	ASCII
)

func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf8"
	case ASCII:
		return "ascii"
	}
	return "Encoding(" + strconv.Itoa(int(e)) + ")"
}

// ParseEncoding accepts "utf8" (or "utf-8") and "ascii", case-insensitively.
func ParseEncoding(s string) (Encoding, bool) {
	switch strings.ToLower(s) {
	case "utf8", "utf-8":
		return UTF8, true
	case "ascii":
		return ASCII, true
	}
	return 0, false
}

// Format selects the textual representation of binary data.
type Format int

const (
	Hex Format = iota
	Base64
)

func (f Format) String() string {
	switch f {
	case Hex:
		return "hex"
	case Base64:
		return "base64"
	}
	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// ParseFormat accepts "hex" and "base64", case-insensitively.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(s) {
	case "hex":
		return Hex, true
	case "base64":
		return Base64, true
	}
	return 0, false
}

// FormatError reports malformed hex, Base64 or word-packing input.
// It never carries the offending input itself.
type FormatError struct {
	Format string
	Msg    string
}

func (e *FormatError) Error() string {
	return "codec: invalid " + e.Format + " input: " + e.Msg
}

// TextToBytes encodes text. UTF8 yields the UTF-8 bytes of every code point,
// including those above U+FFFF. ASCII keeps the low 8 bits of each code point,
// which is lossy for anything outside Latin-1.
func TextToBytes(text string, enc Encoding) []byte {
	if enc == ASCII {
		out := make([]byte, 0, len(text))
		for _, r := range text {
			out = append(out, byte(r&0xff))
		}
		return out
	}
	return []byte(text)
}

// BytesToText is the inverse of TextToBytes. Invalid UTF-8 sequences are replaced
// with U+FFFD so that the result is always printable.
func BytesToText(b []byte, enc Encoding) string {
	if enc == ASCII {
		var sb strings.Builder
		sb.Grow(len(b))
		for _, c := range b {
			sb.WriteRune(rune(c))
		}
		return sb.String()
	}
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

func isHexDigit(r rune) bool {
	return ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

// CleanHex drops every character that is not a hexadecimal digit.
func CleanHex(s string) string {
	return strings.Map(func(r rune) rune {
		if isHexDigit(r) {
			return r
		}
		return -1
	}, s)
}

// HexToBytes decodes hex case-insensitively after stripping non-hex characters,
// so "01 23:AB" decodes like "0123ab".
func HexToBytes(s string) ([]byte, error) {
	clean := CleanHex(s)
	if len(clean)%2 != 0 {
		return nil, &FormatError{Format: "hex", Msg: "odd length " + strconv.Itoa(len(clean))}
	}
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, &FormatError{Format: "hex", Msg: err.Error()}
	}
	return b, nil
}

// BytesToHex returns lowercase hex.
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

func isBase64Char(r rune) bool {
	return ('A' <= r && r <= 'Z') || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') || r == '+' || r == '/'
}

// Base64ToBytes decodes standard Base64. Characters outside the alphabet, padding
// included, are ignored, so missing '=' padding is accepted.
func Base64ToBytes(s string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		if isBase64Char(r) {
			return r
		}
		return -1
	}, s)
	if len(clean)%4 == 1 {
		return nil, &FormatError{Format: "base64", Msg: "truncated quantum"}
	}
	b, err := base64.RawStdEncoding.DecodeString(clean)
	if err != nil {
		return nil, &FormatError{Format: "base64", Msg: err.Error()}
	}
	return b, nil
}

// BytesToBase64 returns standard, '='-padded Base64.
func BytesToBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Encode renders b in the given format.
func Encode(b []byte, f Format) string {
	if f == Base64 {
		return BytesToBase64(b)
	}
	return BytesToHex(b)
}

// Decode parses s in the given format.
func Decode(s string, f Format) ([]byte, error) {
	if f == Base64 {
		return Base64ToBytes(s)
	}
	return HexToBytes(s)
}

// WordsToBytes packs words big-endian, 4 bytes each.
func WordsToBytes(words []uint32) []byte {
	out := make([]byte, 4*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(out[4*i:], w)
	}
	return out
}

// BytesToWords unpacks big-endian words; len(b) must be a multiple of 4.
func BytesToWords(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, &FormatError{Format: "word", Msg: "length " + strconv.Itoa(len(b)) + " is not a multiple of 4"}
	}
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.BigEndian.Uint32(b[4*i:])
	}
	return out, nil
}

// HexBytes marshals to and from lowercase hex in JSON and other text encodings.
type HexBytes []byte

func (h HexBytes) String() string {
	return BytesToHex(h)
}

func (h HexBytes) MarshalText() ([]byte, error) {
	return []byte(BytesToHex(h)), nil
}

func (h *HexBytes) UnmarshalText(text []byte) error {
	b, err := HexToBytes(string(text))
	if err != nil {
		return err
	}
	*h = b
	return nil
}
