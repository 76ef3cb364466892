package cluster

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"durasim/internal/placement"
	"durasim/internal/ring"
	"durasim/internal/storage"
)

// ReplicatedStore owns a fixed, ordered set of nodes and the set of every
// record placed on them.
type ReplicatedStore struct {
	nodes       []*storage.Node
	known       map[storage.RecordID]struct{}
	selector    *placement.Selector
	enumeration Enumeration
	logger      *zap.Logger
	observer    Observer

	// union is scratch space reused by VerifyIntegrity.
	union map[storage.RecordID]struct{}
}

// New creates a store with nodeCount running nodes of nodeCapacity each.
func New(nodeCount, nodeCapacity int, opts ...Option) (*ReplicatedStore, error) {
	if nodeCount <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "node count must be positive, got %d", nodeCount)
	}
	if nodeCapacity <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "node capacity must be positive, got %d", nodeCapacity)
	}

	o := options{
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rand == nil {
		o.rand = NewRand(0)
	}

	nodes := make([]*storage.Node, nodeCount)
	ringNodes := make([]ring.Node, nodeCount)
	for i := range nodes {
		nodes[i] = storage.NewNode(nodeCapacity)
		ringNodes[i] = ring.Node{ID: fmt.Sprintf("node-%d", i), Index: i}
	}
	rng := ring.NewRing(o.vnodes)
	rng.SetNodes(ringNodes)

	return &ReplicatedStore{
		nodes:       nodes,
		known:       make(map[storage.RecordID]struct{}),
		selector:    placement.NewSelector(o.rand, rng),
		enumeration: o.enumeration,
		logger:      o.logger,
		observer:    o.observer,
		union:       make(map[storage.RecordID]struct{}),
	}, nil
}

// Store places rf replicas of record on distinct non-full nodes chosen by
// mode. On error the store is left unchanged.
func (s *ReplicatedStore) Store(record storage.RecordID, rf int, mode placement.Mode) error {
	if rf <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "replication factor must be positive, got %d", rf)
	}
	if _, exists := s.known[record]; exists {
		return errors.Wrapf(ErrDuplicateRecord, "record %s", record)
	}

	available := make([]int, 0, len(s.nodes))
	for i, n := range s.nodes {
		if !n.IsFull() {
			available = append(available, i)
		}
	}

	targets, err := s.selector.Select(mode, record, available, rf)
	if err != nil {
		if errors.Is(err, ErrCapacityExhausted) {
			err = errors.WithHint(err, capacityHint)
		}
		return err
	}

	for _, idx := range targets {
		if err := s.nodes[idx].Add(record); err != nil {
			return errors.NewAssertionErrorWithWrappedErrf(err, "placement selected node %d", idx)
		}
	}
	s.known[record] = struct{}{}

	if ce := s.logger.Check(zap.DebugLevel, "record placed"); ce != nil {
		ce.Write(
			zap.Stringer("record", record),
			zap.Stringer("mode", mode),
			zap.Ints("nodes", targets),
		)
	}
	s.observer.RecordPlaced(len(targets))
	return nil
}

// VerifyIntegrity reports whether the union of records on running nodes is
// exactly the set of stored records.
func (s *ReplicatedStore) VerifyIntegrity() bool {
	clear(s.union)
	for _, n := range s.nodes {
		if !n.Running() {
			continue
		}
		n.Each(func(id storage.RecordID) {
			s.union[id] = struct{}{}
		})
	}

	if len(s.union) != len(s.known) {
		return false
	}
	for id := range s.known {
		if _, ok := s.union[id]; !ok {
			return false
		}
	}
	return true
}

// RestoreAll starts every node.
func (s *ReplicatedStore) RestoreAll() {
	for _, n := range s.nodes {
		n.Start()
	}
}

// NodeCount returns the number of nodes.
func (s *ReplicatedStore) NodeCount() int {
	return len(s.nodes)
}

// RecordCount returns the number of stored records.
func (s *ReplicatedStore) RecordCount() int {
	return len(s.known)
}

// Node returns the node at index i.
func (s *ReplicatedStore) Node(i int) *storage.Node {
	return s.nodes[i]
}

// Replicas returns the indices of the nodes holding record, in node order.
func (s *ReplicatedStore) Replicas(record storage.RecordID) []int {
	var out []int
	for i, n := range s.nodes {
		if n.Contains(record) {
			out = append(out, i)
		}
	}
	return out
}
