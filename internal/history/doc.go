// Package history exposes bounded, visitor-driven iteration over a
// repository's change history filtered by label names, together with a
// git-log-backed source and an in-memory source for composition and tests.
package history
