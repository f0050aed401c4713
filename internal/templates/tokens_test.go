package templates_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pir8aye/refmap/internal/templates"
)

const (
	testReferenceGroupNameConstant   = "reference"
	testReferenceFragmentConstant    = `\d+`
	testBeforeTemplateConstant       = "#${reference}"
	testBareBeforeTemplateConstant   = "#$reference"
	testAfterTemplateConstant        = "DEST-${reference}"
	testRenderedTemplateConstant     = "DEST-$1"
	testUndeclaredTemplateConstant   = "#${issue}"
	testRepeatedTemplateConstant     = "${reference}-${reference}"
	testDanglingTemplateConstant     = "trailing$"
	testUnterminatedTemplateConstant = "#${reference"
	testEmptyGroupTemplateConstant   = "#${}"
	testLiteralDollarTemplate        = "cost$$${reference}"
)

func referencePatterns() map[string]string {
	return map[string]string{testReferenceGroupNameConstant: testReferenceFragmentConstant}
}

func TestCompileValidation(testInstance *testing.T) {
	testCases := []struct {
		name                string
		template            string
		namedPatterns       map[string]string
		allowRepeatedGroups bool
		expectError         bool
	}{
		{
			name:          "BracedGroupReference",
			template:      testBeforeTemplateConstant,
			namedPatterns: referencePatterns(),
		},
		{
			name:          "BareGroupReference",
			template:      testBareBeforeTemplateConstant,
			namedPatterns: referencePatterns(),
		},
		{
			name:          "UndeclaredGroup",
			template:      testUndeclaredTemplateConstant,
			namedPatterns: referencePatterns(),
			expectError:   true,
		},
		{
			name:          "RepeatedGroupRejected",
			template:      testRepeatedTemplateConstant,
			namedPatterns: referencePatterns(),
			expectError:   true,
		},
		{
			name:                "RepeatedGroupAllowed",
			template:            testRepeatedTemplateConstant,
			namedPatterns:       referencePatterns(),
			allowRepeatedGroups: true,
		},
		{
			name:          "DanglingDollar",
			template:      testDanglingTemplateConstant,
			namedPatterns: referencePatterns(),
			expectError:   true,
		},
		{
			name:          "UnterminatedBrace",
			template:      testUnterminatedTemplateConstant,
			namedPatterns: referencePatterns(),
			expectError:   true,
		},
		{
			name:          "EmptyGroupReference",
			template:      testEmptyGroupTemplateConstant,
			namedPatterns: referencePatterns(),
			expectError:   true,
		},
		{
			name:          "InvalidFragmentPattern",
			template:      testBeforeTemplateConstant,
			namedPatterns: map[string]string{testReferenceGroupNameConstant: "("},
			expectError:   true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			compiled, compileError := templates.Compile(testCase.template, testCase.namedPatterns, testCase.allowRepeatedGroups)
			if testCase.expectError {
				require.Error(testInstance, compileError)
				require.IsType(testInstance, templates.TemplateError{}, compileError)
				return
			}
			require.NoError(testInstance, compileError)
			require.Equal(testInstance, 1, compiled.GroupIndex(testReferenceGroupNameConstant))
		})
	}
}

func TestValidateUnused(testInstance *testing.T) {
	namedPatterns := map[string]string{
		testReferenceGroupNameConstant: testReferenceFragmentConstant,
		"issue":                        `[A-Z]+-\d+`,
	}

	compiled, compileError := templates.Compile(testBeforeTemplateConstant, namedPatterns, false)
	require.NoError(testInstance, compileError)
	require.Error(testInstance, compiled.ValidateUnused())

	fullyReferenced, fullCompileError := templates.Compile("#${reference}/${issue}", namedPatterns, false)
	require.NoError(testInstance, fullCompileError)
	require.NoError(testInstance, fullyReferenced.ValidateUnused())
}

func TestGroupIndexAccountsForNestedFragmentGroups(testInstance *testing.T) {
	namedPatterns := map[string]string{
		"first":  `(\d)\d`,
		"second": `[a-z]+`,
	}

	compiled, compileError := templates.Compile("${first}-${second}", namedPatterns, false)
	require.NoError(testInstance, compileError)
	require.Equal(testInstance, 1, compiled.GroupIndex("first"))
	require.Equal(testInstance, 3, compiled.GroupIndex("second"))
	require.Equal(testInstance, -1, compiled.GroupIndex("absent"))
}

func TestCallbackReplacer(testInstance *testing.T) {
	before, beforeError := templates.Compile(testBareBeforeTemplateConstant, referencePatterns(), false)
	require.NoError(testInstance, beforeError)
	after, afterError := templates.Compile(testAfterTemplateConstant, referencePatterns(), false)
	require.NoError(testInstance, afterError)

	var observedTemplates []string
	var observedGroups [][]string
	replacer, replacerError := before.CallbackReplacer(after, func(groupValues []string, destinationTemplate string) string {
		observedTemplates = append(observedTemplates, destinationTemplate)
		observedGroups = append(observedGroups, append([]string(nil), groupValues...))
		return "[" + groupValues[1] + "]"
	})
	require.NoError(testInstance, replacerError)

	replaced := replacer.Replace("Fixes #123 and #456 today")
	require.Equal(testInstance, "Fixes [123] and [456] today", replaced)
	require.Equal(testInstance, []string{testRenderedTemplateConstant, testRenderedTemplateConstant}, observedTemplates)
	require.Equal(testInstance, []string{"#123", "123"}, observedGroups[0])
	require.Equal(testInstance, []string{"#456", "456"}, observedGroups[1])
}

func TestCallbackReplacerLeavesNonMatchingInputUntouched(testInstance *testing.T) {
	before, beforeError := templates.Compile(testBeforeTemplateConstant, referencePatterns(), false)
	require.NoError(testInstance, beforeError)
	after, afterError := templates.Compile(testAfterTemplateConstant, referencePatterns(), false)
	require.NoError(testInstance, afterError)

	invocationCount := 0
	replacer, replacerError := before.CallbackReplacer(after, func([]string, string) string {
		invocationCount++
		return ""
	})
	require.NoError(testInstance, replacerError)

	input := "no references here"
	require.Equal(testInstance, input, replacer.Replace(input))
	require.Zero(testInstance, invocationCount)
}

func TestLiteralDollarEscaping(testInstance *testing.T) {
	compiled, compileError := templates.Compile(testLiteralDollarTemplate, referencePatterns(), false)
	require.NoError(testInstance, compileError)

	after, afterError := templates.Compile(testAfterTemplateConstant, referencePatterns(), false)
	require.NoError(testInstance, afterError)

	replacer, replacerError := compiled.CallbackReplacer(after, func(groupValues []string, _ string) string {
		return "<" + groupValues[1] + ">"
	})
	require.NoError(testInstance, replacerError)
	require.Equal(testInstance, "price <42>", replacer.Replace("price cost$42"))
}

func TestCallbackReplacerRejectsUnresolvableDestination(testInstance *testing.T) {
	before, beforeError := templates.Compile(testBeforeTemplateConstant, referencePatterns(), false)
	require.NoError(testInstance, beforeError)

	destinationPatterns := map[string]string{
		testReferenceGroupNameConstant: testReferenceFragmentConstant,
		"issue":                        `[A-Z]+`,
	}
	destination, destinationError := templates.Compile("${issue}", destinationPatterns, false)
	require.NoError(testInstance, destinationError)

	_, replacerError := before.CallbackReplacer(destination, func([]string, string) string { return "" })
	require.Error(testInstance, replacerError)
	require.IsType(testInstance, templates.TemplateError{}, replacerError)
}
