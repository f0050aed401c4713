// Package transform defines the message transformation contract used during
// repository migration: the mutable work context carrying the in-flight change
// description, the Transformation interface with explicit reversal support,
// and the validation error channel surfaced to callers.
package transform
