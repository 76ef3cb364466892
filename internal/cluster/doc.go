// Package cluster models a replicated store: a fixed set of capacity-bounded
// nodes, the placement of record replicas onto them, and an exhaustive
// estimator that stops every failure set of a given size and reports the
// percentage of failure sets that lose at least one record.
//
// A ReplicatedStore is not safe for concurrent use. Independent stores can
// be driven from separate goroutines.
package cluster
