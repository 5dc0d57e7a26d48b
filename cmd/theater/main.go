package main

import (
	"fmt"
	"os"

	"github.com/theater-rt/theater/cmd/theater/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
