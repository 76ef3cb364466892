// Package ring implements a consistent hashing ring with virtual nodes.
// It maps record keys to an ordered preference list of physical nodes and
// backs the ring placement mode, where a record's replicas go to the first
// non-full nodes clockwise from its hash.
package ring
