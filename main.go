package main

import (
	"fmt"
	"os"

	"vcptools/internal/cfg"
)

// main is the program entrypoint. All request/response traffic rides
// stdin/stdout; anything written here goes to stderr so the envelope
// stays clean.
func main() {
	if err := cfg.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
