package refs

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/pir8aye/refmap/internal/history"
	"github.com/pir8aye/refmap/internal/templates"
	"github.com/pir8aye/refmap/internal/transform"
)

const (
	// maxChangesToVisit bounds one resolution attempt against a destination
	// where the reference is absent.
	maxChangesToVisit = 5000

	referenceGroupNameConstant                 = "reference"
	reservedTokenConstant                      = "$1"
	fullMatchAnchorTemplateConstant            = `\A(?:%s)\z`
	describeTemplateConstant                   = "map-references %s to %s"
	reservedTokenCollisionTemplateConstant     = "destination format %q uses the reserved token %q"
	invalidReversePatternTemplateConstant      = "invalid reverse pattern %q: %v"
	historyUnsupportedMessageConstant          = "destination does not support reading change history"
	referenceLookupFailedMessageConstant       = "exception finding reference"
	shapeMismatchTemplateConstant              = "reference %s does not match regex '%s'"
	migratorConfigurationErrorTemplateConstant = "map-references configuration: %v"
	logMessageReferenceResolvedConstant        = "reference resolved"
	logFieldReferenceConstant                  = "reference"
	logFieldDestinationReferenceConstant       = "destination_reference"
)

// reservedTokenPattern locates the substitution token inside a rendered
// destination template. Escaping a literal occurrence is unsupported.
var reservedTokenPattern = regexp.MustCompile(`[$]1`)

// ConfigurationError reports a migrator that cannot be constructed.
type ConfigurationError struct {
	Cause error
}

// Error describes the construction failure.
func (configurationError ConfigurationError) Error() string {
	return fmt.Sprintf(migratorConfigurationErrorTemplateConstant, configurationError.Cause)
}

// Unwrap exposes the underlying cause.
func (configurationError ConfigurationError) Unwrap() error {
	return configurationError.Cause
}

// MigratorOptions captures the construction inputs for a Migrator.
type MigratorOptions struct {
	// BeforeTemplate describes how a reference looks in the origin, using the
	// "reference" group, for example "#${reference}".
	BeforeTemplate string
	// AfterTemplate describes how a reference looks in the destination.
	AfterTemplate string
	// ReferencePattern is the regex fragment matched by the "reference" group.
	ReferencePattern string
	// ReversePattern optionally constrains the shape of resolved destination
	// references; resolved values must fully match it.
	ReversePattern string
	// AdditionalLabels lists label names beyond the workflow's origin label
	// that may tag a reference in destination change metadata.
	AdditionalLabels []string
	// Logger receives resolution diagnostics; nil disables logging.
	Logger *zap.Logger
}

// Migrator adjusts textual references in change descriptions to match the
// destination repository. One Migrator may serve many Transform invocations;
// its resolution cache persists for the instance's lifetime and only grows.
type Migrator struct {
	before             *templates.CompiledTemplate
	after              *templates.CompiledTemplate
	reversePattern     *regexp.Regexp
	reversePatternText string
	additionalLabels   []string
	referenceGroup     int
	knownChanges       sync.Map
	logger             *zap.Logger
}

// NewMigrator compiles the configured templates and validates the
// configuration. Misconfiguration is caught here, before any transform runs.
func NewMigrator(options MigratorOptions) (*Migrator, error) {
	namedPatterns := map[string]string{referenceGroupNameConstant: options.ReferencePattern}

	beforeTemplate, beforeError := templates.Compile(options.BeforeTemplate, namedPatterns, false)
	if beforeError != nil {
		return nil, ConfigurationError{Cause: beforeError}
	}
	if unusedError := beforeTemplate.ValidateUnused(); unusedError != nil {
		return nil, ConfigurationError{Cause: unusedError}
	}

	afterTemplate, afterError := templates.Compile(options.AfterTemplate, namedPatterns, false)
	if afterError != nil {
		return nil, ConfigurationError{Cause: afterError}
	}
	if unusedError := afterTemplate.ValidateUnused(); unusedError != nil {
		return nil, ConfigurationError{Cause: unusedError}
	}

	if strings.Contains(options.AfterTemplate, reservedTokenConstant) {
		return nil, ConfigurationError{Cause: fmt.Errorf(reservedTokenCollisionTemplateConstant, options.AfterTemplate, reservedTokenConstant)}
	}

	var reversePattern *regexp.Regexp
	if len(options.ReversePattern) > 0 {
		compiledReversePattern, reverseError := regexp.Compile(fmt.Sprintf(fullMatchAnchorTemplateConstant, options.ReversePattern))
		if reverseError != nil {
			return nil, ConfigurationError{Cause: fmt.Errorf(invalidReversePatternTemplateConstant, options.ReversePattern, reverseError)}
		}
		reversePattern = compiledReversePattern
	}

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Migrator{
		before:             beforeTemplate,
		after:              afterTemplate,
		reversePattern:     reversePattern,
		reversePatternText: options.ReversePattern,
		additionalLabels:   append([]string(nil), options.AdditionalLabels...),
		referenceGroup:     beforeTemplate.GroupIndex(referenceGroupNameConstant),
		logger:             logger,
	}, nil
}

// Transform rewrites every origin-style reference in the work message that has
// a known destination equivalent. The message is committed back only when the
// rewritten text differs; the first validation failure observed during the
// pass is raised after the pass completes and suppresses the rewrite.
func (migrator *Migrator) Transform(executionContext context.Context, work *transform.Work) error {
	var firstFailure atomic.Pointer[transform.ValidationError]

	replacer, replacerError := migrator.before.CallbackReplacer(migrator.after, func(groupValues []string, destinationTemplate string) string {
		if len(groupValues) == 0 {
			return destinationTemplate
		}

		capturedReference := groupValues[migrator.referenceGroup]
		if len(capturedReference) == 0 {
			return groupValues[0]
		}

		destinationReference, resolveError := migrator.resolveReference(
			executionContext,
			capturedReference,
			work.MigrationInfo().OriginLabel(),
			work.MigrationInfo().DestinationVisitable(),
		)
		if resolveError != nil {
			firstFailure.CompareAndSwap(nil, resolveError)
			return groupValues[0]
		}
		if len(destinationReference) == 0 {
			return groupValues[0]
		}

		migrator.logger.Debug(
			logMessageReferenceResolvedConstant,
			zap.String(logFieldReferenceConstant, capturedReference),
			zap.String(logFieldDestinationReferenceConstant, destinationReference),
		)

		return reservedTokenPattern.ReplaceAllLiteralString(destinationTemplate, destinationReference)
	})
	if replacerError != nil {
		return transform.WrapValidationError(replacerError, referenceLookupFailedMessageConstant)
	}

	replaced := replacer.Replace(work.Message())

	if recordedFailure := firstFailure.Load(); recordedFailure != nil {
		return *recordedFailure
	}

	if replaced != work.Message() {
		work.SetMessage(replaced)
	}

	return nil
}

// Reverse declares the migrator unsupported backwards: the returned
// transformation is a no-op in the reverse direction and reapplies the
// migrator when inverted again.
func (migrator *Migrator) Reverse() transform.Transformation {
	return transform.NewExplicitReversal(transform.IntentionalNoop{}, migrator)
}

// Describe renders a short summary of the configured mapping.
func (migrator *Migrator) Describe() string {
	return fmt.Sprintf(describeTemplateConstant, migrator.before, migrator.after)
}

// resolveReference determines the destination equivalent of one captured
// reference: the memoized cache answers first, then a bounded scan of the
// destination history populates it. An empty result means no destination
// equivalent was located.
func (migrator *Migrator) resolveReference(executionContext context.Context, reference string, originLabel string, destinationHistory history.Visitable) (string, *transform.ValidationError) {
	if cachedReference, cached := migrator.knownChanges.Load(reference); cached {
		return cachedReference.(string), nil
	}

	if destinationHistory == nil {
		return "", validationFailure(transform.NewValidationError(historyUnsupportedMessageConstant))
	}

	labelNames := make([]string, 0, 1+len(migrator.additionalLabels))
	labelNames = append(labelNames, originLabel)
	labelNames = append(labelNames, migrator.additionalLabels...)

	var changesVisited atomic.Int64
	visitError := destinationHistory.VisitChangesWithAnyLabel(executionContext, "", labelNames, func(change history.Change, labelValues map[string][]string) history.VisitResult {
		for _, values := range labelValues {
			for _, labelValue := range values {
				migrator.knownChanges.LoadOrStore(labelValue, change.Reference)
				if labelValue == reference {
					return history.VisitTerminate
				}
			}
		}
		if changesVisited.Add(1) > maxChangesToVisit {
			return history.VisitTerminate
		}
		return history.VisitContinue
	})
	if visitError != nil {
		return "", validationFailure(transform.WrapValidationError(visitError, referenceLookupFailedMessageConstant))
	}

	resolvedReference, resolved := migrator.knownChanges.Load(reference)
	if !resolved {
		return "", nil
	}

	resolvedReferenceText := resolvedReference.(string)
	if migrator.reversePattern != nil && !migrator.reversePattern.MatchString(resolvedReferenceText) {
		return "", validationFailure(transform.NewValidationError(shapeMismatchTemplateConstant, resolvedReferenceText, migrator.reversePatternText))
	}

	return resolvedReferenceText, nil
}

func validationFailure(failure transform.ValidationError) *transform.ValidationError {
	return &failure
}
