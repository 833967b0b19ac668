package main

import (
	"fmt"
	"os"
)

const cliToolVersion = "mirvm-cli 0.0.0-dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	debug, remaining, err := parseDebugFlag(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(remaining) == 0 {
		printUsage()
		return 1
	}

	switch remaining[0] {
	case "--help", "-h":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "run":
		return runEntry(remaining[1:], debug)
	case "check":
		return runCheck(remaining[1:])
	default:
		return runEntry(remaining, debug)
	}
}

func parseDebugFlag(args []string) (bool, []string, error) {
	debug := false
	var remaining []string
	for _, arg := range args {
		switch arg {
		case "--debug":
			debug = true
		default:
			remaining = append(remaining, arg)
		}
	}
	return debug, remaining, nil
}
