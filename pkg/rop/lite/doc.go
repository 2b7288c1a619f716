// Package lite provides lightweight channel-lifted helpers for bounded
// fan-out/fan-in work without custom cancellation routing.
//
// Common usage:
// - Turnout: run an engine over an input channel with a fixed number of lines
// - Settle: lift a func (Out, error) into an engine that never fails a line
//
// Results come out in completion order, never submission order.
package lite
