package transform

import (
	"context"
	"fmt"
	"strings"
)

const (
	noopDescriptionConstant              = "intentional noop"
	sequenceDescriptionTemplateConstant  = "sequence [%s]"
	sequenceDescriptionSeparatorConstant = ", "
)

// Transformation rewrites a work context and knows its own inverse.
type Transformation interface {
	// Transform applies the transformation to the work context.
	Transform(executionContext context.Context, work *Work) error
	// Reverse returns the transformation to run when migrating the other way.
	Reverse() Transformation
	// Describe renders a short human-readable summary.
	Describe() string
}

// IntentionalNoop leaves the work context untouched in either direction.
type IntentionalNoop struct{}

// Transform does nothing.
func (IntentionalNoop) Transform(context.Context, *Work) error {
	return nil
}

// Reverse of a noop is the noop itself.
func (noop IntentionalNoop) Reverse() Transformation {
	return noop
}

// Describe renders the noop summary.
func (IntentionalNoop) Describe() string {
	return noopDescriptionConstant
}

// ExplicitReversal pairs independent forward and reverse transformations,
// used when a transformation's automatic inverse would be unsound.
type ExplicitReversal struct {
	forward Transformation
	reverse Transformation
}

// NewExplicitReversal constructs an ExplicitReversal running forward when
// applied and reverse when inverted.
func NewExplicitReversal(forward Transformation, reverse Transformation) ExplicitReversal {
	return ExplicitReversal{forward: forward, reverse: reverse}
}

// Transform applies the forward transformation.
func (reversal ExplicitReversal) Transform(executionContext context.Context, work *Work) error {
	return reversal.forward.Transform(executionContext, work)
}

// Reverse swaps the pair.
func (reversal ExplicitReversal) Reverse() Transformation {
	return ExplicitReversal{forward: reversal.reverse, reverse: reversal.forward}
}

// Describe renders the forward transformation's summary.
func (reversal ExplicitReversal) Describe() string {
	return reversal.forward.Describe()
}

// Sequence runs transformations in order; its reverse runs each member's
// reverse in the opposite order.
type Sequence struct {
	transformations []Transformation
}

// NewSequence constructs a Sequence over the provided transformations.
func NewSequence(transformations ...Transformation) Sequence {
	duplicatedTransformations := make([]Transformation, len(transformations))
	copy(duplicatedTransformations, transformations)
	return Sequence{transformations: duplicatedTransformations}
}

// Transform applies every member in order, stopping at the first failure.
func (sequence Sequence) Transform(executionContext context.Context, work *Work) error {
	for _, transformation := range sequence.transformations {
		if transformError := transformation.Transform(executionContext, work); transformError != nil {
			return transformError
		}
	}
	return nil
}

// Reverse returns the reversed sequence of reversed members.
func (sequence Sequence) Reverse() Transformation {
	reversedTransformations := make([]Transformation, 0, len(sequence.transformations))
	for memberIndex := len(sequence.transformations) - 1; memberIndex >= 0; memberIndex-- {
		reversedTransformations = append(reversedTransformations, sequence.transformations[memberIndex].Reverse())
	}
	return Sequence{transformations: reversedTransformations}
}

// Describe renders the member summaries.
func (sequence Sequence) Describe() string {
	memberDescriptions := make([]string, 0, len(sequence.transformations))
	for _, transformation := range sequence.transformations {
		memberDescriptions = append(memberDescriptions, transformation.Describe())
	}
	return fmt.Sprintf(sequenceDescriptionTemplateConstant, strings.Join(memberDescriptions, sequenceDescriptionSeparatorConstant))
}
