package main

import (
	"os"

	"github.com/lazypower/llamadrama/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
