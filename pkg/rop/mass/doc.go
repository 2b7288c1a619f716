// Package mass implements per-item engines that lift solo primitives onto
// channels: each call runs in its own goroutine, races the caller's context
// and an optional per-item deadline, and settles into exactly one value.
//
// It is used by lite to build worker pools whose workers never die on a bad
// item.
package mass
