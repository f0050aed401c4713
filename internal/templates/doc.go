// Package templates compiles human-authored template strings with named
// regex fragments into matchers and callback-driven replacers.
//
// A template such as "#${reference}" combined with the fragment
// {"reference": `\d+`} compiles to a pattern matching "#123" while tracking
// which capture group holds each named fragment. Replacers stream over an
// input string and splice in the callback's return value for every match.
package templates
