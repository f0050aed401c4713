// Package utils provides shared infrastructure for the refmap CLI: structured
// logger construction, Viper-backed configuration loading, and command context
// helpers reused across commands.
package utils
