package main

import (
	"os"

	"github.com/shipway/shipway/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
