package main

import (
	"os"

	"github.com/krau/remdit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
