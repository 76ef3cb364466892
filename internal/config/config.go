package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"

	"durasim/internal/placement"
)

// ErrInvalid marks configuration errors.
var ErrInvalid = errors.New("invalid configuration")

// Scenario is one parameter set for a simulation run.
type Scenario struct {
	Name string `yaml:"name,omitempty"`
	// Nodes is the number of storage nodes.
	Nodes int `yaml:"nodes"`
	// Capacity is the per-node record capacity. Zero means Nodes*Replication+1.
	Capacity int `yaml:"capacity,omitempty"`
	// Replication is the number of distinct nodes each record is copied onto.
	Replication int `yaml:"replication"`
	// Records is the number of records written before the estimate.
	Records int `yaml:"records"`
	// FailureSetSize is the number of nodes failed at once.
	FailureSetSize int            `yaml:"kill"`
	Mode           placement.Mode `yaml:"mode"`
	Seed           uint64         `yaml:"seed,omitempty"`
	// Ordered enumerates ordered failure tuples instead of combinations.
	Ordered bool `yaml:"ordered,omitempty"`
}

// Default returns the scenario the command line tool runs without flags.
func Default() Scenario {
	return Scenario{
		Nodes:          10,
		Replication:    2,
		Records:        100,
		FailureSetSize: 2,
		Mode:           placement.Mirror,
	}
}

// NodeCapacity returns the effective per-node capacity. The derived value
// keeps one spare slot per node so the last free slots do not all end up
// on a single node.
func (s Scenario) NodeCapacity() int {
	if s.Capacity > 0 {
		return s.Capacity
	}
	return s.Nodes*s.Replication + 1
}

// Validate checks sizes. The failure set size and the replication factor
// relative to the node count are checked by the store itself.
func (s Scenario) Validate() error {
	switch {
	case s.Nodes <= 0:
		return errors.Wrapf(ErrInvalid, "node count must be positive, got %d", s.Nodes)
	case s.Replication <= 0:
		return errors.Wrapf(ErrInvalid, "replication factor must be positive, got %d", s.Replication)
	case s.Records <= 0:
		return errors.Wrapf(ErrInvalid, "record count must be positive, got %d", s.Records)
	case s.Capacity < 0:
		return errors.Wrapf(ErrInvalid, "capacity must not be negative, got %d", s.Capacity)
	}
	return nil
}

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "loading %s", path)
	}
	return nil
}

// FromEnv overrides fields of base with DURASIM_* environment variables.
func FromEnv(base Scenario) (Scenario, error) {
	s := base
	ints := []struct {
		key string
		dst *int
	}{
		{"DURASIM_NODES", &s.Nodes},
		{"DURASIM_CAPACITY", &s.Capacity},
		{"DURASIM_REPLICATION", &s.Replication},
		{"DURASIM_RECORDS", &s.Records},
		{"DURASIM_KILL", &s.FailureSetSize},
	}
	for _, v := range ints {
		raw := os.Getenv(v.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Scenario{}, errors.Mark(errors.Wrapf(err, "%s", v.key), ErrInvalid)
		}
		*v.dst = n
	}

	if raw := os.Getenv("DURASIM_MODE"); raw != "" {
		m, err := placement.ParseMode(raw)
		if err != nil {
			return Scenario{}, errors.Mark(errors.Wrap(err, "DURASIM_MODE"), ErrInvalid)
		}
		s.Mode = m
	}
	if raw := os.Getenv("DURASIM_SEED"); raw != "" {
		seed, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return Scenario{}, errors.Mark(errors.Wrap(err, "DURASIM_SEED"), ErrInvalid)
		}
		s.Seed = seed
	}
	if raw := os.Getenv("DURASIM_ORDERED"); raw != "" {
		ordered, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return Scenario{}, errors.Mark(errors.Wrap(err, "DURASIM_ORDERED"), ErrInvalid)
		}
		s.Ordered = ordered
	}
	return s, nil
}

// ParseFailureSizes parses a comma-separated list of failure set sizes.
// Each item is a single size or an inclusive range:
// "1,2,5" or "0-3,8"
func ParseFailureSizes(str string) ([]int, error) {
	if strings.TrimSpace(str) == "" {
		return []int{}, nil
	}

	parts := strings.Split(str, ",")
	sizes := make([]int, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(part, "-")
		from, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, errors.Wrapf(ErrInvalid, "invalid failure set size: %s", part)
		}
		to := from
		if isRange {
			to, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || to < from {
				return nil, errors.Wrapf(ErrInvalid, "invalid failure set range: %s (expected lo-hi)", part)
			}
		}

		for k := from; k <= to; k++ {
			sizes = append(sizes, k)
		}
	}

	return sizes, nil
}
