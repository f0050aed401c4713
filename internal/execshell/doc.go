// Package execshell executes git commands through a pluggable runner while
// logging command lifecycle events with structured metadata.
package execshell
