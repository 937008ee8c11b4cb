package xperf

import (
	"os"
	"unicode/utf8"

	"golang.org/x/text/transform"

	"github.com/heaptrace/pkg/compression"
	apperrors "github.com/heaptrace/pkg/errors"
)

// Load reads a trace file into memory and decodes it. See Decode.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeIOError, "failed to read trace file", err)
	}
	return Decode(data)
}

// Decode turns raw trace bytes into text. Gzip and zstd payloads are
// decompressed first. Each maximal ill-formed UTF-8 subsequence is replaced
// with one U+FFFD, so the only failure is a corrupt compressed stream.
func Decode(data []byte) (string, error) {
	data, err := compression.Decompress(data)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeIOError, "failed to decompress trace", err)
	}

	if utf8.Valid(data) {
		return string(data), nil
	}

	// lossyUTF8 only fails on short buffers, which transform.Bytes handles
	fixed, _, _ := transform.Bytes(lossyUTF8{}, data)
	return string(fixed), nil
}

const replacementChar = "\uFFFD"

// lossyUTF8 copies valid UTF-8 and replaces every maximal ill-formed
// subsequence with a single U+FFFD. A truncated sequence such as
// "\xf0\x9f\x98" counts as one subsequence; a byte that can never start
// a sequence counts on its own.
type lossyUTF8 struct{ transform.NopResetter }

func (lossyUTF8) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if c := src[nSrc]; c < utf8.RuneSelf {
			if nDst >= len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = c
			nDst++
			nSrc++
			continue
		}

		if r, size := utf8.DecodeRune(src[nSrc:]); r != utf8.RuneError || size > 1 {
			if nDst+size > len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			nDst += copy(dst[nDst:], src[nSrc:nSrc+size])
			nSrc += size
			continue
		}

		n, truncated := illFormedLen(src[nSrc:])
		if truncated && !atEOF {
			return nDst, nSrc, transform.ErrShortSrc
		}
		if nDst+len(replacementChar) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], replacementChar)
		nSrc += n
	}
	return nDst, nSrc, nil
}

// illFormedLen returns the length of the ill-formed subsequence at the start
// of p, which must not begin with a valid rune. truncated reports that p
// ended while the bytes still formed a valid prefix.
func illFormedLen(p []byte) (n int, truncated bool) {
	lo, hi := byte(0x80), byte(0xBF)
	var need int
	switch lead := p[0]; {
	case lead >= 0xC2 && lead <= 0xDF:
		need = 1
	case lead == 0xE0:
		need, lo = 2, 0xA0
	case lead == 0xED:
		need, hi = 2, 0x9F
	case lead >= 0xE1 && lead <= 0xEF:
		need = 2
	case lead == 0xF0:
		need, lo = 3, 0x90
	case lead == 0xF4:
		need, hi = 3, 0x8F
	case lead >= 0xF1 && lead <= 0xF3:
		need = 3
	default:
		return 1, false
	}

	n = 1
	for i := 0; i < need; i++ {
		if n >= len(p) {
			return n, true
		}
		if c := p[n]; c < lo || c > hi {
			return n, false
		}
		n++
		lo, hi = 0x80, 0xBF
	}
	return n, false
}
