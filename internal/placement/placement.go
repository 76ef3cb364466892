package placement

import (
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"durasim/internal/ring"
	"durasim/internal/storage"
)

// ErrCapacityExhausted is returned when fewer non-full nodes exist than the
// replication factor requires.
var ErrCapacityExhausted = errors.New("capacity exhausted")

// ErrUnknownMode is returned when parsing an unrecognized mode name.
var ErrUnknownMode = errors.New("unknown placement mode")

// Mode is a replica placement policy.
type Mode int

const (
	// Mirror places replicas on the first available nodes in order.
	Mirror Mode = iota
	// Random places replicas on a uniformly random subset of available nodes.
	Random
	// Ring places replicas on the record's consistent-hash preference list.
	Ring
)

var modeNames = map[Mode]string{
	Mirror: "mirror",
	Random: "random",
	Ring:   "ring",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMode parses a mode name, ignoring case and surrounding spaces.
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownMode, "%q (expected mirror, random or ring)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if _, ok := modeNames[m]; !ok {
		return nil, errors.Wrapf(ErrUnknownMode, "%d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Selector picks replica targets. The random source and ring are only
// consulted by the modes that need them.
type Selector struct {
	rand *rand.Rand
	ring *ring.Ring
}

// NewSelector creates a selector. src may be nil if Random is never used,
// and r may be nil if Ring is never used.
func NewSelector(src *rand.Rand, r *ring.Ring) *Selector {
	return &Selector{rand: src, ring: r}
}

// Select returns rf distinct node indices drawn from available, which
// lists the non-full nodes in store order.
func (s *Selector) Select(mode Mode, record storage.RecordID, available []int, rf int) ([]int, error) {
	if len(available) < rf {
		return nil, errors.Wrapf(ErrCapacityExhausted,
			"record %s needs %d replicas but only %d nodes have free space", record, rf, len(available))
	}

	switch mode {
	case Mirror:
		return slices.Clone(available[:rf]), nil
	case Random:
		return s.sample(available, rf)
	case Ring:
		return s.preferenceList(record, available, rf)
	default:
		return nil, errors.Wrapf(ErrUnknownMode, "%d", int(mode))
	}
}

// sample draws rf indices without replacement using a partial
// Fisher-Yates shuffle over a copy of available.
func (s *Selector) sample(available []int, rf int) ([]int, error) {
	if s.rand == nil {
		return nil, errors.AssertionFailedf("random placement without a random source")
	}
	pool := slices.Clone(available)
	for i := 0; i < rf; i++ {
		j := i + s.rand.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:rf], nil
}

func (s *Selector) preferenceList(record storage.RecordID, available []int, rf int) ([]int, error) {
	if s.ring == nil {
		return nil, errors.AssertionFailedf("ring placement without a ring")
	}
	free := make(map[int]bool, len(available))
	for _, idx := range available {
		free[idx] = true
	}

	nodes := s.ring.PreferenceList(record.String(), rf, func(n ring.Node) bool {
		return free[n.Index]
	})
	if len(nodes) < rf {
		return nil, errors.Wrapf(ErrCapacityExhausted,
			"record %s: ring yielded %d of %d replicas", record, len(nodes), rf)
	}

	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n.Index
	}
	return out, nil
}
