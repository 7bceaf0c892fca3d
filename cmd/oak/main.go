// Package main provides the entry point for oak.
package main

import (
	"fmt"
	"os"

	"github.com/go-errors/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if stacked, ok := err.(*errors.Error); ok {
			fmt.Fprintln(os.Stderr, stacked.ErrorStack())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
