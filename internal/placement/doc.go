// Package placement decides which nodes receive a record's replicas.
// Mirror fills nodes left to right, Random draws a uniform subset from an
// explicit random source, and Ring follows the record's consistent-hash
// preference list.
package placement
