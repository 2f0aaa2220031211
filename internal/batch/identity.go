package batch

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces opaque item identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// SequenceGenerator issues prefix-1, prefix-2, ... and is safe for concurrent use.
type SequenceGenerator struct {
	prefix string
	next   atomic.Uint64
}

// NewSequenceGenerator returns a deterministic generator. An empty prefix
// becomes "item".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "item"
	}
	return &SequenceGenerator{prefix: prefix}
}

func (g *SequenceGenerator) NewID() string {
	return g.prefix + "-" + strconv.FormatUint(g.next.Add(1), 10)
}

const maxIDAttempts = 8

// issueID draws an id that has never been issued by this controller. A
// generator that keeps repeating itself falls back to UUIDs.
func (s *state) issueID(gen IDGenerator) ItemID {
	for range maxIDAttempts {
		id := ItemID(strings.TrimSpace(gen.NewID()))
		if id == "" {
			continue
		}
		if _, dup := s.issued[id]; dup {
			continue
		}
		s.issued[id] = struct{}{}
		return id
	}
	for {
		id := ItemID(uuid.NewString())
		if _, dup := s.issued[id]; !dup {
			s.issued[id] = struct{}{}
			return id
		}
	}
}
