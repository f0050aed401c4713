package templates

import "strings"

// ReplaceCallback computes the literal substitution for one match. Index 0 of
// groupValues holds the full match; subsequent indexes hold captured groups by
// position. The destination template arrives with group references already
// rewritten to positional form. Callbacks must tolerate concurrent invocation.
type ReplaceCallback func(groupValues []string, destinationTemplate string) string

// Replacer streams over an input string and substitutes every match of the
// compiled pattern with the callback's return value.
type Replacer struct {
	compiled            *CompiledTemplate
	destinationTemplate string
	callback            ReplaceCallback
}

// CallbackReplacer builds a Replacer that rewrites matches of the receiver
// using the destination template and the supplied callback.
func (compiled *CompiledTemplate) CallbackReplacer(destination *CompiledTemplate, callback ReplaceCallback) (*Replacer, error) {
	renderedTemplate, renderError := compiled.replacementTemplate(destination)
	if renderError != nil {
		return nil, renderError
	}

	return &Replacer{
		compiled:            compiled,
		destinationTemplate: renderedTemplate,
		callback:            callback,
	}, nil
}

// Replace substitutes every match of the pattern in the input string.
func (replacer *Replacer) Replace(input string) string {
	matchPositions := replacer.compiled.pattern.FindAllStringSubmatchIndex(input, -1)
	if len(matchPositions) == 0 {
		return input
	}

	var outputBuilder strings.Builder
	previousEnd := 0
	for _, matchPosition := range matchPositions {
		matchStart := matchPosition[0]
		matchEnd := matchPosition[1]
		outputBuilder.WriteString(input[previousEnd:matchStart])

		groupValues := make([]string, replacer.compiled.pattern.NumSubexp()+1)
		for groupIndex := 0; groupIndex <= replacer.compiled.pattern.NumSubexp(); groupIndex++ {
			startPosition := matchPosition[2*groupIndex]
			endPosition := matchPosition[2*groupIndex+1]
			if startPosition >= 0 && endPosition >= 0 {
				groupValues[groupIndex] = input[startPosition:endPosition]
			}
		}

		outputBuilder.WriteString(replacer.callback(groupValues, replacer.destinationTemplate))
		previousEnd = matchEnd
	}

	outputBuilder.WriteString(input[previousEnd:])
	return outputBuilder.String()
}
