package main

import (
	"os"

	"github.com/obradorsoft/hornada/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
