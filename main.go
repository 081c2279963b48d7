package main

import (
	"os"

	"github.com/talentgate/talentgate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
