package checkout

import (
	"crypto/rand"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	numberPrefix    = "ORD-"
	timestampDigits = 8
	suffixDigits    = 3
	base36Alphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// bytes at or above the largest multiple of 36 are discarded so every digit is equally likely
	rejectFrom = 252
	maxReads   = 8
)

// NumberGenerator builds ORD-<8 base36 digits of the unix millisecond clock><3 random base36 digits>.
type NumberGenerator struct {
	now  func() time.Time
	rand io.Reader
}

func NewNumberGenerator() *NumberGenerator {
	return &NumberGenerator{now: time.Now, rand: rand.Reader}
}

func (g *NumberGenerator) Next() string {
	ts := strings.ToUpper(strconv.FormatInt(g.now().UnixMilli(), 36))
	if len(ts) < timestampDigits {
		ts = strings.Repeat("0", timestampDigits-len(ts)) + ts
	}
	ts = ts[len(ts)-timestampDigits:]

	var b strings.Builder
	b.Grow(len(numberPrefix) + timestampDigits + suffixDigits)
	b.WriteString(numberPrefix)
	b.WriteString(ts)
	b.Write(g.suffix())
	return b.String()
}

func (g *NumberGenerator) suffix() []byte {
	out := make([]byte, 0, suffixDigits)
	buf := make([]byte, 8)
	for reads := 0; len(out) < suffixDigits && reads < maxReads; reads++ {
		n, err := g.rand.Read(buf)
		for _, c := range buf[:n] {
			if c < rejectFrom && len(out) < suffixDigits {
				out = append(out, base36Alphabet[int(c)%len(base36Alphabet)])
			}
		}
		if err != nil {
			break
		}
	}
	// fall back to the nanosecond clock; the unique index still guards collisions
	for n := uint64(g.now().UnixNano()); len(out) < suffixDigits; n /= 36 {
		out = append(out, base36Alphabet[n%36])
	}
	return out
}
