package client

import (
	"math/rand/v2"
	"testing"

	"github.com/krau/remdit/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectServer_Empty(t *testing.T) {
	_, err := SelectServer(nil, NewRand())
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = SelectServer([]config.Server{{Addr: ""}, {Key: "k"}}, NewRand())
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestSelectServer_SkipsInvalid(t *testing.T) {
	servers := []config.Server{{Addr: ""}, {Addr: "only.example.com", Key: "k"}, {Addr: ""}}
	r := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		s, err := SelectServer(servers, r)
		require.NoError(t, err)
		assert.Equal(t, "only.example.com", s.Addr)
		assert.Equal(t, "k", s.Key)
	}
}

func TestSelectServer_Uniform(t *testing.T) {
	servers := []config.Server{{Addr: "a"}, {Addr: ""}, {Addr: "b"}, {Addr: "c"}, {Addr: "d"}}
	r := rand.New(rand.NewPCG(42, 7))
	const draws = 40000
	counts := map[string]int{}
	for range draws {
		s, err := SelectServer(servers, r)
		require.NoError(t, err)
		counts[s.Addr]++
	}
	require.Len(t, counts, 4)
	assert.NotContains(t, counts, "")

	// chi-square with 3 degrees of freedom, p = 0.001 critical value is 16.27
	expected := float64(draws) / 4
	var chi2 float64
	for _, n := range counts {
		d := float64(n) - expected
		chi2 += d * d / expected
	}
	assert.Less(t, chi2, 16.27, "counts: %v", counts)
}
