package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"mirvm/interpreter-go/pkg/driver"
	"mirvm/interpreter-go/pkg/interpreter"
	"mirvm/interpreter-go/pkg/layout"
)

func runEntry(args []string, debug bool) int {
	if len(args) != 1 {
		printUsage()
		return 1
	}
	prog, err := driver.LoadProgram(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := zap.NewNop()
	if debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer logger.Sync() //nolint:errcheck
	}

	opts := []interpreter.Option{
		interpreter.WithReporter(interpreter.NewZapReporter(logger)),
	}
	if prog.Limits.DetectorPeriod > 0 {
		opts = append(opts, interpreter.WithDetectorPeriod(prog.Limits.DetectorPeriod))
	}

	ec := interpreter.New(interpreter.ConstMachine{}, prog.Bodies, opts...)
	if err := ec.PushEntry(prog.Entry, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	maxSteps := prog.Limits.MaxSteps
	if maxSteps <= 0 {
		maxSteps = driver.DefaultMaxSteps
	}
	for steps := int64(0); ; steps++ {
		if steps >= maxSteps {
			fmt.Fprintf(os.Stderr, "evaluation exceeded %d steps\n", maxSteps)
			return 1
		}
		more, err := ec.Step()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if !more {
			break
		}
	}

	return printResult(ec)
}

func printResult(ec *interpreter.EvalContext) int {
	result, err := ec.Result()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if result.Layout.ZeroSized {
		fmt.Fprintln(os.Stdout, "()")
		return 0
	}
	scalar, err := ec.Memory().ReadScalar(result.Ptr, result.Layout.Size)
	if err != nil {
		fmt.Fprintf(os.Stdout, "%s (%d bytes)\n", result.Layout.Type, result.Layout.Size)
		return 0
	}
	fmt.Fprintln(os.Stdout, scalar)
	return 0
}

func runCheck(args []string) int {
	if len(args) != 1 {
		printUsage()
		return 1
	}
	prog, err := driver.LoadProgram(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for name, body := range prog.Bodies {
		for i, decl := range body.Locals {
			if _, err := layout.Of(decl.Type); err != nil {
				fmt.Fprintf(os.Stderr, "%s: local %d: %v\n", name, i, err)
				return 1
			}
		}
	}
	fmt.Fprintf(os.Stdout, "%d bodies ok\n", len(prog.Bodies))
	return 0
}
