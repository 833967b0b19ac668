package main

import (
	"fmt"
	"os"
)

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  mirvm [--debug] run <program.yaml>")
	fmt.Fprintln(os.Stderr, "  mirvm [--debug] <program.yaml>")
	fmt.Fprintln(os.Stderr, "  mirvm check <program.yaml>")
	fmt.Fprintln(os.Stderr, "  mirvm version")
}
