// Package main is the term-extractor CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/wilsonlichina/pdf-term-extractor/cmd/term-extractor/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
