package cluster

import (
	"github.com/cockroachdb/errors"

	"durasim/internal/placement"
)

var (
	// ErrCapacityExhausted is returned by Store when fewer non-full nodes
	// exist than the replication factor requires.
	ErrCapacityExhausted = placement.ErrCapacityExhausted

	// ErrInvalidFailureSetSize is returned by the estimator when the failure
	// set size is negative or exceeds the node count.
	ErrInvalidFailureSetSize = errors.New("invalid failure set size")

	// ErrInvalidConfig is returned for non-positive sizes.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDuplicateRecord is returned when a record is stored twice.
	ErrDuplicateRecord = errors.New("record already stored")
)

const capacityHint = "increase node capacity so that nodes*capacity covers records*replication with spare room"
