package history

import "context"

// MemorySource serves a fixed list of changes in slice order.
type MemorySource struct {
	changes []Change
}

// NewMemorySource constructs a MemorySource over the provided changes.
func NewMemorySource(changes ...Change) *MemorySource {
	duplicatedChanges := make([]Change, len(changes))
	copy(duplicatedChanges, changes)
	return &MemorySource{changes: duplicatedChanges}
}

// VisitChangesWithAnyLabel walks the stored changes, skipping any without the
// requested labels, honoring the optional start reference.
func (source *MemorySource) VisitChangesWithAnyLabel(executionContext context.Context, startReference string, labelNames []string, visitor ChangeVisitor) error {
	started := len(startReference) == 0
	for _, change := range source.changes {
		if contextError := executionContext.Err(); contextError != nil {
			return RepoError{Operation: "memory history walk", Cause: contextError}
		}

		if !started {
			if change.Reference == startReference {
				started = true
			} else {
				continue
			}
		}

		selectedLabels := selectRequestedLabels(change, labelNames)
		if selectedLabels == nil {
			continue
		}

		if visitor(change, selectedLabels) == VisitTerminate {
			return nil
		}
	}
	return nil
}
