package pathutils

import (
	"path/filepath"
	"strings"
)

// RepositoryPathSanitizer normalizes repository path inputs consistently across commands.
type RepositoryPathSanitizer struct {
	homeExpander *HomeExpander
}

// NewRepositoryPathSanitizer constructs a RepositoryPathSanitizer with default behavior.
func NewRepositoryPathSanitizer() *RepositoryPathSanitizer {
	return NewRepositoryPathSanitizerWithExpander(nil)
}

// NewRepositoryPathSanitizerWithExpander constructs a RepositoryPathSanitizer using the provided expander.
func NewRepositoryPathSanitizerWithExpander(homeExpander *HomeExpander) *RepositoryPathSanitizer {
	resolvedExpander := homeExpander
	if resolvedExpander == nil {
		resolvedExpander = NewHomeExpander()
	}
	return &RepositoryPathSanitizer{homeExpander: resolvedExpander}
}

// Sanitize trims whitespace, expands the user's home directory, and cleans the repository path.
func (sanitizer *RepositoryPathSanitizer) Sanitize(candidatePath string) string {
	trimmedCandidate := strings.TrimSpace(candidatePath)
	if len(trimmedCandidate) == 0 {
		return ""
	}

	var expander *HomeExpander
	if sanitizer != nil {
		expander = sanitizer.homeExpander
	}
	if expander == nil {
		expander = NewHomeExpander()
	}

	expandedPath := expander.Expand(trimmedCandidate)
	if len(expandedPath) == 0 {
		return ""
	}

	return filepath.Clean(expandedPath)
}
