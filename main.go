package main

import (
	"os"

	"github.com/evsched/evsched/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
