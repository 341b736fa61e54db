// Package credential generates role-prefixed identifiers and numeric
// verification codes from a cryptographically secure random source.
package credential

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

// base62 is the alphabet for id suffixes (0-9, A-Z, a-z).
const base62 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// digits is the alphabet for verification codes.
const digits = "0123456789"

// CodeLength is the length of a verification code.
const CodeLength = 6

// minSuffixLength is the minimum number of random characters appended after
// the prefix. Long prefixes (SUPER_ADMIN, SUPERUSER) would otherwise leave
// near-zero entropy at the conventional total length of 12.
const minSuffixLength = 8

// Generator produces identifiers and codes. The zero value uses
// crypto/rand.
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a Generator reading from r. A nil r means
// crypto/rand.Reader.
func NewGenerator(r io.Reader) Generator {
	return Generator{rand: r}
}

func (g Generator) reader() io.Reader {
	if g.rand == nil {
		return rand.Reader
	}
	return g.rand
}

// GenerateID returns prefix followed by random base62 characters up to
// totalLength, with at least minSuffixLength random characters regardless of
// prefix length. Distinctness is not guaranteed by construction: the
// identity store's uniqueness constraint surfaces collisions as conflicts,
// which callers retry with a fresh value.
func (g Generator) GenerateID(prefix string, totalLength int) (string, error) {
	suffixLen := totalLength - len(prefix)
	if suffixLen < minSuffixLength {
		suffixLen = minSuffixLength
	}
	suffix, err := g.randomString(base62, suffixLen)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return prefix + suffix, nil
}

// GenerateCode returns a 6-digit numeric verification code. Codes carry no
// prefix: they are short-lived and scoped to one identity, not globally
// unique.
func (g Generator) GenerateCode() (string, error) {
	code, err := g.randomString(digits, CodeLength)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return code, nil
}

// randomString draws length characters uniformly from alphabet using
// rejection sampling to avoid modulo bias.
func (g Generator) randomString(alphabet string, length int) (string, error) {
	n := len(alphabet)
	// Largest multiple of n that fits in a byte; bytes above it are
	// rejected so every alphabet index is equally likely.
	limit := byte(255 - 256%n)

	var b strings.Builder
	b.Grow(length)
	buf := make([]byte, length)
	for b.Len() < length {
		if _, err := io.ReadFull(g.reader(), buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, c := range buf {
			if c > limit {
				continue
			}
			b.WriteByte(alphabet[int(c)%n])
			if b.Len() == length {
				break
			}
		}
	}
	return b.String(), nil
}
