// Package refs rewrites textual references embedded in change descriptions so
// that references valid in an origin repository are replaced with their
// destination equivalents, resolving each reference through a memoized,
// bounded scan of the destination's labeled change history.
package refs
