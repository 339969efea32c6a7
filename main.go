package main

import (
	"os"

	"github.com/oztrk/careerbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
