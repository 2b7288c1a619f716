// Package solo contains single-value, synchronous ROP primitives that operate
// on Result[T]. These functions form the core building blocks for error-aware
// item processing without channels.
//
// Highlights:
// - Succeed/Fail/Cancel: construct Result[T]
// - Check: fail on a typed validation error
// - Map: transform successful values
// - Try/TryRecover: call a function (Out, error) and convert error (or panic) to failure
// - Finally: reduce to a concrete value via success/error/cancel handlers
package solo
