package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func printVersion() {
	fmt.Printf("speechstats %s\n", version)
}
