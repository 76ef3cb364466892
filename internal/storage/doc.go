// Package storage provides the capacity-bounded node that holds record
// replicas. A node tracks which records it stores and whether it is
// currently running; a stopped node keeps its contents so a restart
// recovers them.
package storage
