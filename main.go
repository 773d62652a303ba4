package main

import (
	"os"

	"github.com/SonJH7/status-allocation-berths/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
