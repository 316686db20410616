package client

import (
	"fmt"
	"math/rand/v2"

	"github.com/krau/remdit/config"
)

// NewRand returns a generator seeded from OS entropy.
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// SelectServer picks one valid server uniformly at random using r.
func SelectServer(servers []config.Server, r *rand.Rand) (config.Server, error) {
	if len(servers) == 0 {
		return config.Server{}, fmt.Errorf("%w: no servers configured", ErrConfiguration)
	}
	valid := (&config.Config{Servers: servers}).ValidServers()
	if len(valid) == 0 {
		return config.Server{}, fmt.Errorf("%w: no valid servers found", ErrConfiguration)
	}
	return valid[r.IntN(len(valid))], nil
}
