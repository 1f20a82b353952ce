package main

import (
	"os"

	"github.com/jobsweep/jobsweep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
