// Package core contains pipeline plumbing utilities: channel helpers, worker
// and per-item configuration via context, and the locomotive that drives a
// worker. It does not define business logic; instead it provides the
// scaffolding for packages like lite and mass to run work with bounded
// concurrency.
package core
