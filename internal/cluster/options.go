package cluster

import (
	"math/rand/v2"

	"go.uber.org/zap"
)

// Enumeration selects how failure sets are enumerated.
type Enumeration int

const (
	// Unordered visits every combination of failed nodes once.
	Unordered Enumeration = iota
	// Ordered visits every ordered tuple of failed nodes, so each failure
	// set is seen k! times. The percentage is the same as Unordered.
	Ordered
)

func (e Enumeration) String() string {
	switch e {
	case Unordered:
		return "unordered"
	case Ordered:
		return "ordered"
	default:
		return "unknown"
	}
}

// Observer receives placement and estimation events.
type Observer interface {
	RecordPlaced(replicas int)
	TrialCompleted(lost bool)
	EstimateCompleted(failureSetSize, percent int)
}

type nopObserver struct{}

func (nopObserver) RecordPlaced(int)           {}
func (nopObserver) TrialCompleted(bool)        {}
func (nopObserver) EstimateCompleted(int, int) {}

type options struct {
	rand        *rand.Rand
	logger      *zap.Logger
	observer    Observer
	vnodes      int
	enumeration Enumeration
}

// Option configures a ReplicatedStore.
type Option func(*options)

// WithRand sets the random source used by random placement.
func WithRand(src *rand.Rand) Option {
	return func(o *options) { o.rand = src }
}

// WithSeed seeds a PCG source for random placement.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.rand = NewRand(seed) }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithObserver sets the event observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithVNodes sets the virtual node count of the placement ring.
func WithVNodes(n int) Option {
	return func(o *options) { o.vnodes = n }
}

// WithEnumeration sets the failure set enumeration.
func WithEnumeration(e Enumeration) Option {
	return func(o *options) { o.enumeration = e }
}

// NewRand returns a deterministic random source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
