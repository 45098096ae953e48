// Package coursecode generates short human-shareable join codes for courses.
//
// A code looks like "IBX-7F2AK3Q": a 3-letter prefix derived from the course
// name, a 4-character time-derived suffix and 3 random characters. The scheme
// is best-effort collision avoidance, not a collision-free allocator; callers
// retry on a unique-constraint violation.
package coursecode

import (
	"crypto/rand"
	"io"
	"math/big"
	"strings"
	"time"
	"unicode"
)

const (
	charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// PrefixFiller pads prefixes of names with fewer than three words.
	PrefixFiller = 'X'

	// MaxAttempts bounds the insert-retry loop at course creation.
	MaxAttempts = 6
)

// New generates a join code for the given course name.
func New(name string) string {
	return Prefix(name) + "-" + timeSuffix(time.Now()) + randomChars(3)
}

// Prefix derives the 3-letter code prefix from the initial letters of the
// course name's words, uppercased and padded with PrefixFiller.
func Prefix(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
		if b.Len() == 3 {
			break
		}
	}
	for b.Len() < 3 {
		b.WriteRune(PrefixFiller)
	}
	return b.String()
}

// timeSuffix encodes the current unix time in base 36 and keeps the last four
// characters, so codes generated in different seconds differ even when the
// random part collides.
func timeSuffix(now time.Time) string {
	s := strings.ToUpper(big.NewInt(now.Unix()).Text(36))
	if len(s) > 4 {
		s = s[len(s)-4:]
	}
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

// randReader is swapped out by tests exercising the fallback path.
var randReader io.Reader = rand.Reader

func randomChars(n int) string {
	code := make([]byte, n)
	for i := range code {
		randomIndex, err := rand.Int(randReader, big.NewInt(int64(len(charset))))
		if err != nil {
			// Codes are not secrets; if the system randomness source fails,
			// a clock-derived character keeps generation alive and the
			// unique index still catches collisions.
			code[i] = charset[int(time.Now().UnixNano()+int64(i))%len(charset)]
			continue
		}
		code[i] = charset[randomIndex.Int64()]
	}
	return string(code)
}
