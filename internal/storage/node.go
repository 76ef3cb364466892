package storage

import (
	"strconv"

	"github.com/cockroachdb/errors"
)

// ErrNodeFull is returned when a record is added to a node that already
// holds as many records as its capacity allows.
var ErrNodeFull = errors.New("node is full")

// RecordID identifies one unit of stored data. It carries no structure
// beyond identity.
type RecordID uint64

// String returns the decimal form of the id, used as a hashing key.
func (id RecordID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Node is a capacity-bounded set of record ids with a running flag.
// It is not safe for concurrent use.
type Node struct {
	capacity int
	stored   map[RecordID]struct{}
	running  bool
}

// NewNode creates a running, empty node.
func NewNode(capacity int) *Node {
	return &Node{
		capacity: capacity,
		stored:   make(map[RecordID]struct{}, capacity),
		running:  true,
	}
}

// Add stores id on the node. Adding an id the node already holds is a
// no-op. Adding a new id to a full node fails with ErrNodeFull and leaves
// the node unchanged.
func (n *Node) Add(id RecordID) error {
	if _, exists := n.stored[id]; exists {
		return nil
	}
	if n.IsFull() {
		return errors.Wrapf(ErrNodeFull, "cannot add record %s (capacity %d)", id, n.capacity)
	}
	n.stored[id] = struct{}{}
	return nil
}

// IsFull reports whether the node has reached its capacity.
func (n *Node) IsFull() bool {
	return len(n.stored) >= n.capacity
}

// Stop marks the node as failed. Its contents are kept.
func (n *Node) Stop() {
	n.running = false
}

// Start marks the node as running again.
func (n *Node) Start() {
	n.running = true
}

// Running reports whether the node is running.
func (n *Node) Running() bool {
	return n.running
}

// Capacity returns the maximum number of records the node may hold.
func (n *Node) Capacity() int {
	return n.capacity
}

// Len returns the number of records held.
func (n *Node) Len() int {
	return len(n.stored)
}

// Contains reports whether the node holds id, regardless of its state.
func (n *Node) Contains(id RecordID) bool {
	_, ok := n.stored[id]
	return ok
}

// Each calls fn for every record held by the node, in no particular order.
func (n *Node) Each(fn func(RecordID)) {
	for id := range n.stored {
		fn(id)
	}
}

// Records returns a copy of the ids held by the node.
func (n *Node) Records() []RecordID {
	out := make([]RecordID, 0, len(n.stored))
	for id := range n.stored {
		out = append(out, id)
	}
	return out
}
