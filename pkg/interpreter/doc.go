// Package interpreter executes control-flow-graph IR one instruction at a
// time. The entry point is EvalContext.Step, which performs exactly one
// unit of machine progress per call: one statement, or one terminator
// dispatched through the pluggable control-flow evaluator. A sampling
// loop detector converts suspected non-termination into a hard failure so
// compile-time evaluation cannot hang on a runaway program.
package interpreter
