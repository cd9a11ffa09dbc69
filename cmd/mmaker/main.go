package main

import (
	"os"

	"github.com/rustyeddy/marketmaker/cmd/mmaker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
