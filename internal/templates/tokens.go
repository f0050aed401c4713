package templates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	interpolationSymbolConstant            = '$'
	interpolationOpenBraceConstant         = '{'
	interpolationCloseBraceConstant        = '}'
	templateErrorTemplateConstant          = "template %q: %s"
	danglingSymbolMessageConstant          = "dangling '$'; use '$$' for a literal dollar sign"
	unterminatedGroupMessageConstant       = "unterminated '${' group reference"
	emptyGroupReferenceMessageConstant     = "empty group reference"
	undeclaredGroupTemplateConstant        = "reference to undeclared group %q"
	repeatedGroupTemplateConstant          = "group %q used more than once"
	unusedGroupTemplateConstant            = "declared group %q is never referenced"
	invalidFragmentTemplateConstant        = "invalid pattern for group %q: %v"
	invalidPatternTemplateConstant         = "compiled pattern rejected: %v"
	unresolvableReferenceTemplateConstant  = "references group %q missing from the matching template"
	replacementGroupReferenceJoinConstant  = "$"
	identifierCharacterClassStringConstant = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_"
)

// TemplateError indicates a template string could not be compiled.
type TemplateError struct {
	Template string
	Message  string
}

// Error describes the compilation failure.
func (templateError TemplateError) Error() string {
	return fmt.Sprintf(templateErrorTemplateConstant, templateError.Template, templateError.Message)
}

type tokenKind int

const (
	tokenKindLiteral tokenKind = iota
	tokenKindGroupReference
)

type templateToken struct {
	kind  tokenKind
	value string
}

// CompiledTemplate couples a template string with the pattern it compiles to
// and the capture group index of every named fragment.
type CompiledTemplate struct {
	template      string
	tokens        []templateToken
	pattern       *regexp.Regexp
	namedPatterns map[string]string
	groupIndexes  map[string][]int
}

// Compile parses the template string, substitutes named fragments with capture
// groups, and produces a matcher. Referencing an undeclared fragment is an
// error, as is repeating a fragment unless allowRepeatedGroups is set.
func Compile(templateString string, namedPatterns map[string]string, allowRepeatedGroups bool) (*CompiledTemplate, error) {
	parsedTokens, parseError := parseTemplate(templateString)
	if parseError != nil {
		return nil, parseError
	}

	fragmentGroupCounts := make(map[string]int, len(namedPatterns))
	for fragmentName, fragmentPattern := range namedPatterns {
		fragmentExpression, fragmentError := regexp.Compile(fragmentPattern)
		if fragmentError != nil {
			return nil, TemplateError{Template: templateString, Message: fmt.Sprintf(invalidFragmentTemplateConstant, fragmentName, fragmentError)}
		}
		fragmentGroupCounts[fragmentName] = fragmentExpression.NumSubexp()
	}

	var patternBuilder strings.Builder
	groupIndexes := make(map[string][]int)
	nextGroupIndex := 1

	for _, parsedToken := range parsedTokens {
		switch parsedToken.kind {
		case tokenKindLiteral:
			patternBuilder.WriteString(regexp.QuoteMeta(parsedToken.value))
		case tokenKindGroupReference:
			fragmentPattern, fragmentDeclared := namedPatterns[parsedToken.value]
			if !fragmentDeclared {
				return nil, TemplateError{Template: templateString, Message: fmt.Sprintf(undeclaredGroupTemplateConstant, parsedToken.value)}
			}
			if len(groupIndexes[parsedToken.value]) > 0 && !allowRepeatedGroups {
				return nil, TemplateError{Template: templateString, Message: fmt.Sprintf(repeatedGroupTemplateConstant, parsedToken.value)}
			}
			groupIndexes[parsedToken.value] = append(groupIndexes[parsedToken.value], nextGroupIndex)
			patternBuilder.WriteString("(")
			patternBuilder.WriteString(fragmentPattern)
			patternBuilder.WriteString(")")
			nextGroupIndex += 1 + fragmentGroupCounts[parsedToken.value]
		}
	}

	compiledPattern, compileError := regexp.Compile(patternBuilder.String())
	if compileError != nil {
		return nil, TemplateError{Template: templateString, Message: fmt.Sprintf(invalidPatternTemplateConstant, compileError)}
	}

	duplicatedPatterns := make(map[string]string, len(namedPatterns))
	for fragmentName, fragmentPattern := range namedPatterns {
		duplicatedPatterns[fragmentName] = fragmentPattern
	}

	return &CompiledTemplate{
		template:      templateString,
		tokens:        parsedTokens,
		pattern:       compiledPattern,
		namedPatterns: duplicatedPatterns,
		groupIndexes:  groupIndexes,
	}, nil
}

func parseTemplate(templateString string) ([]templateToken, error) {
	var parsedTokens []templateToken
	var literalBuilder strings.Builder

	flushLiteral := func() {
		if literalBuilder.Len() > 0 {
			parsedTokens = append(parsedTokens, templateToken{kind: tokenKindLiteral, value: literalBuilder.String()})
			literalBuilder.Reset()
		}
	}

	characters := []rune(templateString)
	for characterIndex := 0; characterIndex < len(characters); characterIndex++ {
		character := characters[characterIndex]
		if character != interpolationSymbolConstant {
			literalBuilder.WriteRune(character)
			continue
		}

		if characterIndex+1 >= len(characters) {
			return nil, TemplateError{Template: templateString, Message: danglingSymbolMessageConstant}
		}

		nextCharacter := characters[characterIndex+1]
		if nextCharacter == interpolationSymbolConstant {
			literalBuilder.WriteRune(interpolationSymbolConstant)
			characterIndex++
			continue
		}

		if nextCharacter == interpolationOpenBraceConstant {
			closeIndex := -1
			for searchIndex := characterIndex + 2; searchIndex < len(characters); searchIndex++ {
				if characters[searchIndex] == interpolationCloseBraceConstant {
					closeIndex = searchIndex
					break
				}
			}
			if closeIndex == -1 {
				return nil, TemplateError{Template: templateString, Message: unterminatedGroupMessageConstant}
			}
			groupName := string(characters[characterIndex+2 : closeIndex])
			if len(groupName) == 0 {
				return nil, TemplateError{Template: templateString, Message: emptyGroupReferenceMessageConstant}
			}
			flushLiteral()
			parsedTokens = append(parsedTokens, templateToken{kind: tokenKindGroupReference, value: groupName})
			characterIndex = closeIndex
			continue
		}

		identifierEnd := characterIndex + 1
		for identifierEnd < len(characters) && strings.ContainsRune(identifierCharacterClassStringConstant, characters[identifierEnd]) {
			identifierEnd++
		}
		if identifierEnd == characterIndex+1 {
			return nil, TemplateError{Template: templateString, Message: danglingSymbolMessageConstant}
		}
		flushLiteral()
		parsedTokens = append(parsedTokens, templateToken{kind: tokenKindGroupReference, value: string(characters[characterIndex+1 : identifierEnd])})
		characterIndex = identifierEnd - 1
	}

	flushLiteral()
	return parsedTokens, nil
}

// Template returns the original template string.
func (compiled *CompiledTemplate) Template() string {
	return compiled.template
}

// String renders the template for diagnostics.
func (compiled *CompiledTemplate) String() string {
	return compiled.template
}

// GroupIndex returns the first capture group index recorded for the named
// fragment, or -1 when the template never references it.
func (compiled *CompiledTemplate) GroupIndex(groupName string) int {
	indexes := compiled.groupIndexes[groupName]
	if len(indexes) == 0 {
		return -1
	}
	return indexes[0]
}

// GroupCount returns the number of capture groups in the compiled pattern.
func (compiled *CompiledTemplate) GroupCount() int {
	return compiled.pattern.NumSubexp()
}

// ValidateUnused rejects declared fragments the template never references.
func (compiled *CompiledTemplate) ValidateUnused() error {
	for fragmentName := range compiled.namedPatterns {
		if len(compiled.groupIndexes[fragmentName]) == 0 {
			return TemplateError{Template: compiled.template, Message: fmt.Sprintf(unusedGroupTemplateConstant, fragmentName)}
		}
	}
	return nil
}

// replacementTemplate renders the other template with group references
// rewritten to positional references against the receiver's capture groups.
func (compiled *CompiledTemplate) replacementTemplate(other *CompiledTemplate) (string, error) {
	var renderedBuilder strings.Builder
	for _, otherToken := range other.tokens {
		switch otherToken.kind {
		case tokenKindLiteral:
			renderedBuilder.WriteString(otherToken.value)
		case tokenKindGroupReference:
			groupIndex := compiled.GroupIndex(otherToken.value)
			if groupIndex == -1 {
				return "", TemplateError{Template: other.template, Message: fmt.Sprintf(unresolvableReferenceTemplateConstant, otherToken.value)}
			}
			renderedBuilder.WriteString(replacementGroupReferenceJoinConstant)
			renderedBuilder.WriteString(strconv.Itoa(groupIndex))
		}
	}
	return renderedBuilder.String(), nil
}
