// Package simulation runs scenarios against freshly built replicated
// stores: a single estimate, a loss curve over every failure set size, or
// a sweep of independent scenarios executed in parallel.
package simulation
