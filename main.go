package main

import (
	"os"

	"github.com/codeintake/codeintake/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
