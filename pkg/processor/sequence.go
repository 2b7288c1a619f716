package processor

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

var (
	ErrEmptySequence  = errors.New("empty sequence")
	ErrInvalidResidue = errors.New("invalid residue")
)

// IUPAC one-letter protein codes, ambiguity codes and the stop symbol.
const proteinAlphabet = "ACDEFGHIKLMNPQRSTVWYBJOUXZ*"

// NormalizeSequence drops whitespace and upper-cases residues.
func NormalizeSequence(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// ValidateSequence reports whether seq is a non-empty protein sequence.
func ValidateSequence(seq string) error {
	s := NormalizeSequence(seq)
	if s == "" {
		return ErrEmptySequence
	}
	for i, r := range s {
		if !strings.ContainsRune(proteinAlphabet, r) {
			return fmt.Errorf("%w %q at %d", ErrInvalidResidue, r, i+1)
		}
	}
	return nil
}

func checkSequence(_ context.Context, seq string) error {
	return ValidateSequence(seq)
}

// stem names files derived from a sequence: its first five residues plus a
// hash of the whole, so distinct sequences sharing a prefix never collide.
func stem(seq string) string {
	s := NormalizeSequence(seq)
	prefix := s
	if len(prefix) > 5 {
		prefix = prefix[:5]
	}
	prefix = strings.ReplaceAll(prefix, "*", "x")
	return fmt.Sprintf("%s_%08x", prefix, fingerprint(s))
}

func fingerprint(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
