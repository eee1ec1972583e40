package payment

import (
	"math/rand/v2"
	"strings"
)

const (
	idPrefix   = "pay"
	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 6
	visibleLen = 4
)

// GenerateID returns "pay" followed by 6 characters drawn uniformly from [a-z0-9].
// Uniqueness is not guaranteed; the receipt store rejects a reused id.
func GenerateID() string {
	var b strings.Builder
	b.Grow(len(idPrefix) + idLength)
	b.WriteString(idPrefix)
	for i := 0; i < idLength; i++ {
		b.WriteByte(idAlphabet[rand.IntN(len(idAlphabet))])
	}
	return b.String()
}

// MaskCard replaces all but the last 4 characters with 'x'.
// Inputs shorter than 4 characters are masked entirely.
func MaskCard(card string) string {
	if len(card) < visibleLen {
		return strings.Repeat("x", len(card))
	}
	return strings.Repeat("x", len(card)-visibleLen) + card[len(card)-visibleLen:]
}
