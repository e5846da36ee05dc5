// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcstr

import (
	"encoding/base64"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// WriteEscape appends the JSON-escaped rendition of b to s: ASCII control
// characters, the quote, backslash and forward-slash are backslash-escaped;
// valid UTF-8 passes through unchanged; non-UTF-8 high bytes emit \xHH
// (spec.md §4.6).
func (s *String) WriteEscape(b []byte) {
	if s.frozen {
		return
	}

	var out []byte
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == '"' || c == '\\' || c == '/':
			out = append(out, '\\', c)
			i++
		case c == '\b':
			out = append(out, '\\', 'b')
			i++
		case c == '\f':
			out = append(out, '\\', 'f')
			i++
		case c == '\n':
			out = append(out, '\\', 'n')
			i++
		case c == '\r':
			out = append(out, '\\', 'r')
			i++
		case c == '\t':
			out = append(out, '\\', 't')
			i++
		case c < 0x20:
			out = append(out, []byte(fmt.Sprintf(`\u%04x`, c))...)
			i++
		case c < 0x80:
			out = append(out, c)
			i++
		default:
			r, size := utf8.DecodeRune(b[i:])
			if r == utf8.RuneError && size <= 1 {
				out = append(out, []byte(fmt.Sprintf(`\x%02x`, c))...)
				i++
				continue
			}
			out = append(out, b[i:i+size]...)
			i += size
		}
	}
	s.Write(out)
}

// WriteUnescape appends the inverse of WriteEscape's output to s, resolving
// \b\f\n\r\t\"\\\/, \uHHHH (including surrogate pairs), \xHH, and two/three
// digit octal \OO/\OOO escapes (spec.md §4.6). It returns an error, and
// appends nothing to s, if it encounters a malformed escape.
func (s *String) WriteUnescape(b []byte) error {
	if s.frozen {
		return nil
	}

	var out []byte
	for i := 0; i < len(b); {
		c := b[i]
		if c != '\\' {
			out = append(out, c)
			i++
			continue
		}

		if i+1 >= len(b) {
			return fmt.Errorf("rcstr: dangling escape at offset %d", i)
		}
		esc := b[i+1]
		switch esc {
		case 'b':
			out = append(out, '\b')
			i += 2
		case 'f':
			out = append(out, '\f')
			i += 2
		case 'n':
			out = append(out, '\n')
			i += 2
		case 'r':
			out = append(out, '\r')
			i += 2
		case 't':
			out = append(out, '\t')
			i += 2
		case '"', '\\', '/':
			out = append(out, esc)
			i += 2
		case 'u':
			r, n, err := decodeUEscape(b[i:])
			if err != nil {
				return err
			}
			var buf [4]byte
			sz := utf8.EncodeRune(buf[:], r)
			out = append(out, buf[:sz]...)
			i += n
		case 'x':
			if i+3 >= len(b) {
				return fmt.Errorf("rcstr: truncated \\x escape at offset %d", i)
			}
			v, err := hexByte(b[i+2], b[i+3])
			if err != nil {
				return err
			}
			out = append(out, v)
			i += 4
		default:
			if esc >= '0' && esc <= '7' {
				n, v := decodeOctal(b[i+1:])
				out = append(out, v)
				i += 1 + n
				continue
			}
			return fmt.Errorf("rcstr: unknown escape \\%c at offset %d", esc, i)
		}
	}
	s.Write(out)
	return nil
}

// decodeUEscape parses a \uHHHH escape (with an optional trailing low
// surrogate \uHHHH for pairs) starting at b[0] == '\\'. It returns the
// decoded rune and the number of input bytes consumed.
func decodeUEscape(b []byte) (rune, int, error) {
	if len(b) < 6 {
		return 0, 0, fmt.Errorf("rcstr: truncated \\u escape")
	}
	hi, err := hex4(b[2:6])
	if err != nil {
		return 0, 0, err
	}
	if !utf16.IsSurrogate(rune(hi)) {
		return rune(hi), 6, nil
	}
	if len(b) < 12 || b[6] != '\\' || b[7] != 'u' {
		return utf8.RuneError, 6, nil
	}
	lo, err := hex4(b[8:12])
	if err != nil {
		return 0, 0, err
	}
	r := utf16.DecodeRune(rune(hi), rune(lo))
	if r == utf8.RuneError {
		return utf8.RuneError, 6, nil
	}
	return r, 12, nil
}

func hex4(b []byte) (uint16, error) {
	var v uint16
	for _, c := range b {
		d, err := hexDigit(c)
		if err != nil {
			return 0, err
		}
		v = v<<4 | uint16(d)
	}
	return v, nil
}

func hexByte(hi, lo byte) (byte, error) {
	h, err := hexDigit(hi)
	if err != nil {
		return 0, err
	}
	l, err := hexDigit(lo)
	if err != nil {
		return 0, err
	}
	return h<<4 | l, nil
}

func hexDigit(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("rcstr: invalid hex digit %q", c)
	}
}

// decodeOctal parses up to two further octal digits following b[0] (itself
// the first octal digit, already known to be '0'-'7'), per spec.md §4.6's
// "\OOO (octal with two digits 0-7)" (a leading digit plus up to two more).
func decodeOctal(b []byte) (consumed int, v byte) {
	v = b[0] - '0'
	n := 1
	for n < 3 && n < len(b) && b[n] >= '0' && b[n] <= '7' {
		v = v<<3 | (b[n] - '0')
		n++
	}
	return n, v
}

// WriteBase64 appends the Base64 encoding of b to s, using the URL-safe
// alphabet if urlSafe, else the standard alphabet, both padded (spec.md
// §4.6/§6).
func (s *String) WriteBase64(b []byte, urlSafe bool) {
	if s.frozen {
		return
	}
	enc := base64.StdEncoding
	if urlSafe {
		enc = base64.URLEncoding
	}
	out := make([]byte, enc.EncodedLen(len(b)))
	enc.Encode(out, b)
	s.Write(out)
}

// WriteBase64Decode appends the decoding of b (Base64, either alphabet,
// tolerating interleaved whitespace and missing padding) to s.
func (s *String) WriteBase64Decode(b []byte) error {
	if s.frozen {
		return nil
	}

	clean := make([]byte, 0, len(b))
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r', '=':
			continue
		default:
			clean = append(clean, c)
		}
	}

	enc := base64.StdEncoding
	if bytesContainsAny(clean, "-_") {
		enc = base64.URLEncoding
	}
	enc = enc.WithPadding(base64.NoPadding)
	out := make([]byte, enc.DecodedLen(len(clean)))
	n, err := enc.Decode(out, clean)
	if err != nil {
		return err
	}
	s.Write(out[:n])
	return nil
}

func bytesContainsAny(b []byte, chars string) bool {
	for _, c := range b {
		for j := 0; j < len(chars); j++ {
			if c == chars[j] {
				return true
			}
		}
	}
	return false
}
