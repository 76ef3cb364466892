package placement

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"durasim/internal/ring"
	"durasim/internal/storage"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{input: "mirror", want: Mirror},
		{input: "RANDOM", want: Random},
		{input: " ring ", want: Ring},
		{input: "striped", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownMode))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMode_TextRoundTrip(t *testing.T) {
	for _, m := range []Mode{Mirror, Random, Ring} {
		b, err := m.MarshalText()
		require.NoError(t, err)

		var got Mode
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, m, got)
	}

	_, err := Mode(42).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "unknown", Mode(42).String())
}

func TestSelect_MirrorTakesPrefix(t *testing.T) {
	s := NewSelector(nil, nil)

	got, err := s.Select(Mirror, 1, []int{0, 1, 2, 3}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, got)

	// Once a prefix saturates, placement shifts right.
	got, err = s.Select(Mirror, 2, []int{2, 3, 5}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, got)
}

func TestSelect_CapacityExhausted(t *testing.T) {
	s := NewSelector(rand.New(rand.NewPCG(1, 1)), nil)

	for _, mode := range []Mode{Mirror, Random, Ring} {
		_, err := s.Select(mode, 9, []int{4}, 2)
		require.Error(t, err, mode.String())
		assert.True(t, errors.Is(err, ErrCapacityExhausted), mode.String())
	}
}

func TestSelect_RandomIsSeededAndDistinct(t *testing.T) {
	available := []int{0, 1, 2, 3, 4, 5, 6, 7}

	s1 := NewSelector(rand.New(rand.NewPCG(7, 7)), nil)
	s2 := NewSelector(rand.New(rand.NewPCG(7, 7)), nil)

	for i := 0; i < 100; i++ {
		a, err := s1.Select(Random, 0, available, 3)
		require.NoError(t, err)
		b, err := s2.Select(Random, 0, available, 3)
		require.NoError(t, err)

		assert.Equal(t, a, b)
		assert.Len(t, a, 3)
		seen := make(map[int]bool)
		for _, idx := range a {
			assert.False(t, seen[idx], "duplicate node %d", idx)
			assert.Contains(t, available, idx)
			seen[idx] = true
		}
	}
	// The caller's slice is never reordered.
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, available)
}

func TestSelect_RandomCoversAllNodes(t *testing.T) {
	s := NewSelector(rand.New(rand.NewPCG(3, 9)), nil)
	hits := make(map[int]int)

	for i := 0; i < 2000; i++ {
		got, err := s.Select(Random, 0, []int{0, 1, 2, 3}, 1)
		require.NoError(t, err)
		hits[got[0]]++
	}
	for idx := 0; idx < 4; idx++ {
		assert.Greater(t, hits[idx], 300, "node %d underused", idx)
	}
}

func TestSelect_RingRespectsAvailability(t *testing.T) {
	r := ring.NewRing(64)
	nodes := make([]ring.Node, 6)
	for i := range nodes {
		nodes[i] = ring.Node{ID: fmt.Sprintf("n%d", i), Index: i}
	}
	r.SetNodes(nodes)
	s := NewSelector(nil, r)

	available := []int{0, 2, 3, 5}
	for rec := 0; rec < 100; rec++ {
		got, err := s.Select(Ring, storage.RecordID(rec), available, 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.NotEqual(t, got[0], got[1])
		for _, idx := range got {
			assert.Contains(t, available, idx)
		}
	}
}

func TestSelect_MissingDependencies(t *testing.T) {
	s := NewSelector(nil, nil)

	_, err := s.Select(Random, 0, []int{0, 1}, 1)
	assert.Error(t, err)
	_, err = s.Select(Ring, 0, []int{0, 1}, 1)
	assert.Error(t, err)
	_, err = s.Select(Mode(9), 0, []int{0, 1}, 1)
	assert.True(t, errors.Is(err, ErrUnknownMode))
}
