package service

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/blake2b"
)

const (
	referencePrefix = "TKT-"
	referenceLen    = 12
)

// crockford is Crockford's base32 alphabet: no I, L, O or U.
var crockford = base32.NewEncoding("0123456789ABCDEFGHJKMNPQRSTVWXYZ").WithPadding(base32.NoPadding)

// ReferenceSource produces booking reference candidates.  Uniqueness is
// enforced by the store; a candidate may collide.
type ReferenceSource interface {
	Next(eventID, userID uint64) (string, error)
}

// ReferenceGenerator derives references from a BLAKE2b-256 digest of the
// event, the user, a monotonic timestamp and 16 random bytes.
type ReferenceGenerator struct {
	rand  io.Reader
	start time.Time
}

func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{rand: rand.Reader, start: time.Now()}
}

// Next returns a reference of the form TKT-XXXXXXXXXXXX.
func (g *ReferenceGenerator) Next(eventID, userID uint64) (string, error) {
	var buf [8 + 8 + 8 + 16]byte
	binary.BigEndian.PutUint64(buf[0:8], eventID)
	binary.BigEndian.PutUint64(buf[8:16], userID)
	binary.BigEndian.PutUint64(buf[16:24], uint64(g.start.UnixNano()+int64(time.Since(g.start))))
	if _, err := io.ReadFull(g.rand, buf[24:]); err != nil {
		return "", fmt.Errorf("booking reference entropy: %w", err)
	}

	sum := blake2b.Sum256(buf[:])
	return referencePrefix + crockford.EncodeToString(sum[:])[:referenceLen], nil
}

// ValidReference reports whether s has the booking reference format.
func ValidReference(s string) bool {
	if len(s) != len(referencePrefix)+referenceLen || s[:len(referencePrefix)] != referencePrefix {
		return false
	}
	for _, c := range s[len(referencePrefix):] {
		if !isCrockford(c) {
			return false
		}
	}
	return true
}

func isCrockford(c rune) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'A' && c <= 'Z':
		return c != 'I' && c != 'L' && c != 'O' && c != 'U'
	}
	return false
}
