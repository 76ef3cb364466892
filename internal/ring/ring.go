package ring

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
)

// DefaultVNodes is used when a non-positive virtual node count is given.
const DefaultVNodes = 128

// Node represents a physical node on the ring. Index is the node's
// position in the owning store.
type Node struct {
	ID    string
	Index int
}

// vnode represents a virtual node on the ring.
type vnode struct {
	hash   uint32
	nodeID string
}

// Ring implements consistent hashing with virtual nodes.
type Ring struct {
	mu            sync.RWMutex
	vnodesPerNode int
	vnodes        []vnode
	nodes         map[string]Node // nodeID -> Node
}

// NewRing creates a new consistent hashing ring.
func NewRing(vnodesPerNode int) *Ring {
	if vnodesPerNode <= 0 {
		vnodesPerNode = DefaultVNodes
	}
	return &Ring{
		vnodesPerNode: vnodesPerNode,
		vnodes:        make([]vnode, 0),
		nodes:         make(map[string]Node),
	}
}

// SetNodes rebuilds the ring with the given nodes.
// Same nodes in any order produce the same ring.
func (r *Ring) SetNodes(nodes []Node) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodes = make(map[string]Node, len(nodes))
	r.vnodes = make([]vnode, 0, len(nodes)*r.vnodesPerNode)

	for _, node := range nodes {
		r.nodes[node.ID] = node
		for i := 0; i < r.vnodesPerNode; i++ {
			vnodeID := fmt.Sprintf("%s-vnode-%d", node.ID, i)
			r.vnodes = append(r.vnodes, vnode{
				hash:   hashString(vnodeID),
				nodeID: node.ID,
			})
		}
	}

	// Hash collisions are broken by node id so the order is total.
	sort.Slice(r.vnodes, func(i, j int) bool {
		if r.vnodes[i].hash != r.vnodes[j].hash {
			return r.vnodes[i].hash < r.vnodes[j].hash
		}
		return r.vnodes[i].nodeID < r.vnodes[j].nodeID
	})
}

// PreferenceList returns up to k distinct nodes for key, walking the ring
// clockwise from the key's hash. When accept is non-nil, nodes it rejects
// are skipped and the walk continues past them.
func (r *Ring) PreferenceList(key string, k int, accept func(Node) bool) []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.vnodes) == 0 || k <= 0 {
		return []Node{}
	}

	keyHash := hashString(key)
	idx := sort.Search(len(r.vnodes), func(i int) bool {
		return r.vnodes[i].hash >= keyHash
	})

	// Wrap around if keyHash is greater than all vnodes
	if idx >= len(r.vnodes) {
		idx = 0
	}

	seen := make(map[string]bool)
	result := make([]Node, 0, k)

	for i := 0; i < len(r.vnodes) && len(result) < k; i++ {
		pos := (idx + i) % len(r.vnodes)
		nodeID := r.vnodes[pos].nodeID
		if seen[nodeID] {
			continue
		}
		seen[nodeID] = true
		node, exists := r.nodes[nodeID]
		if !exists || (accept != nil && !accept(node)) {
			continue
		}
		result = append(result, node)
	}

	return result
}

// Nodes returns all nodes in the ring ordered by Index.
func (r *Ring) Nodes() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]Node, 0, len(r.nodes))
	for _, node := range r.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Index < nodes[j].Index })
	return nodes
}

// VNodes returns the number of virtual nodes per physical node.
func (r *Ring) VNodes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.vnodesPerNode
}

// hashString computes a 32-bit FNV-1a hash of the string.
func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
