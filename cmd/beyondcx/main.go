package main

import (
	"fmt"
	"os"

	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/cmd/beyondcx/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
