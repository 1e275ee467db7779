// Package xid generates the human-readable transaction ids. Generation is
// behind an interface so orchestrators stay deterministic under test.
package xid

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

type Generator interface {
	Next(prefix string) string
}

// Random produces ids like INV-3F2A91C07B4D: the prefix followed by 12
// uppercase hex characters from a random UUID.
type Random struct{}

func (Random) Next(prefix string) string {
	id := uuid.New()
	return prefix + strings.ToUpper(hex.EncodeToString(id[:6]))
}

// Sequence hands out zero-padded incrementing suffixes for tests.
type Sequence struct {
	n atomic.Int64
}

func (s *Sequence) Next(prefix string) string {
	return fmt.Sprintf("%s%012d", prefix, s.n.Add(1))
}
