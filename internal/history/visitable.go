package history

import (
	"context"
	"fmt"
)

const (
	repoErrorTemplateConstant = "%s: %v"
)

// VisitResult instructs a history walk whether to keep going.
type VisitResult int

// Visitor decisions.
const (
	VisitContinue VisitResult = iota
	VisitTerminate
)

// Change describes one historical change in a repository.
type Change struct {
	// Reference identifies the change in origin-style form, for git the commit hash.
	Reference string
	// Labels holds every label attached to the change, keyed by label name.
	Labels map[string][]string
}

// ChangeVisitor inspects one change together with the values of the requested
// labels present on it. Returning VisitTerminate stops the walk.
type ChangeVisitor func(change Change, labelValues map[string][]string) VisitResult

// Visitable walks a repository's change history in the source's own order.
type Visitable interface {
	// VisitChangesWithAnyLabel invokes the visitor for every change carrying at
	// least one of the requested labels, starting from startReference when
	// non-empty, until the visitor terminates or history is exhausted.
	VisitChangesWithAnyLabel(executionContext context.Context, startReference string, labelNames []string, visitor ChangeVisitor) error
}

// RepoError reports an underlying repository access failure during a walk.
type RepoError struct {
	Operation string
	Cause     error
}

// Error describes the access failure.
func (repoError RepoError) Error() string {
	return fmt.Sprintf(repoErrorTemplateConstant, repoError.Operation, repoError.Cause)
}

// Unwrap exposes the underlying cause.
func (repoError RepoError) Unwrap() error {
	return repoError.Cause
}

func selectRequestedLabels(change Change, labelNames []string) map[string][]string {
	var selectedLabels map[string][]string
	for _, labelName := range labelNames {
		labelValues := change.Labels[labelName]
		if len(labelValues) == 0 {
			continue
		}
		if selectedLabels == nil {
			selectedLabels = make(map[string][]string, len(labelNames))
		}
		selectedLabels[labelName] = labelValues
	}
	return selectedLabels
}
