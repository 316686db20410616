package config

// Set at build time with -ldflags "-X github.com/krau/remdit/config.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)
