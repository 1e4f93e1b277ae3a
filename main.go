package main

import (
	"os"

	"github.com/jobber-ai/jobber-core/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
