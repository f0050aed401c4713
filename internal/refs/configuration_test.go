package refs_test

import (
	"testing"

	"github.com/go-viper/mapstructure/v2"
	"github.com/stretchr/testify/require"

	"github.com/pir8aye/refmap/internal/refs"
)

func TestDefaultCommandConfiguration(testInstance *testing.T) {
	configuration := refs.DefaultCommandConfiguration()
	require.Equal(testInstance, `[0-9]+`, configuration.ReferencePattern)
	require.Equal(testInstance, ".", configuration.DestinationPath)
}

func TestDefaultConfigurationValues(testInstance *testing.T) {
	defaults := refs.DefaultConfigurationValues("tools.map_references")
	require.Equal(testInstance, `[0-9]+`, defaults["tools.map_references.reference_pattern"])
	require.Equal(testInstance, ".", defaults["tools.map_references.destination"])
}

func TestCommandConfigurationSanitize(testInstance *testing.T) {
	testCases := []struct {
		name                  string
		configuration         refs.CommandConfiguration
		expectedConfiguration refs.CommandConfiguration
	}{
		{
			name: "TrimsWhitespace",
			configuration: refs.CommandConfiguration{
				BeforeTemplate:   "  #${reference} ",
				AfterTemplate:    " DEST-${reference}  ",
				ReferencePattern: ` \d+ `,
				ReversePattern:   " DEST-.* ",
				OriginLabel:      " Migrated-From ",
				DestinationPath:  "/workspace/destination",
				MessageFile:      " message.txt ",
			},
			expectedConfiguration: refs.CommandConfiguration{
				BeforeTemplate:   "#${reference}",
				AfterTemplate:    "DEST-${reference}",
				ReferencePattern: `\d+`,
				ReversePattern:   "DEST-.*",
				OriginLabel:      "Migrated-From",
				DestinationPath:  "/workspace/destination",
				MessageFile:      "message.txt",
			},
		},
		{
			name: "DeduplicatesLabels",
			configuration: refs.CommandConfiguration{
				AdditionalLabels: []string{" Closes ", "Fixes", "Closes", "  ", "Fixes"},
				DestinationPath:  ".",
			},
			expectedConfiguration: refs.CommandConfiguration{
				AdditionalLabels: []string{"Closes", "Fixes"},
				DestinationPath:  ".",
			},
		},
		{
			name: "DropsEmptyLabelList",
			configuration: refs.CommandConfiguration{
				AdditionalLabels: []string{"   "},
				DestinationPath:  ".",
			},
			expectedConfiguration: refs.CommandConfiguration{
				DestinationPath: ".",
			},
		},
		{
			name: "CleansDestinationPath",
			configuration: refs.CommandConfiguration{
				DestinationPath: " /workspace//destination/ ",
			},
			expectedConfiguration: refs.CommandConfiguration{
				DestinationPath: "/workspace/destination",
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedConfiguration, testCase.configuration.Sanitize())
		})
	}
}

func TestCommandConfigurationDecodesFromMap(testInstance *testing.T) {
	configurationValues := map[string]any{
		"before":            "#${reference}",
		"after":             "DEST-${reference}",
		"reference_pattern": `\d+`,
		"reverse_pattern":   `DEST-\d+`,
		"origin_label":      "Migrated-From",
		"additional_labels": []string{"Closes"},
		"destination":       "/workspace/destination",
		"message_file":      "message.txt",
		"write_in_place":    true,
	}

	var decodedConfiguration refs.CommandConfiguration
	require.NoError(testInstance, mapstructure.Decode(configurationValues, &decodedConfiguration))

	require.Equal(testInstance, refs.CommandConfiguration{
		BeforeTemplate:   "#${reference}",
		AfterTemplate:    "DEST-${reference}",
		ReferencePattern: `\d+`,
		ReversePattern:   `DEST-\d+`,
		OriginLabel:      "Migrated-From",
		AdditionalLabels: []string{"Closes"},
		DestinationPath:  "/workspace/destination",
		MessageFile:      "message.txt",
		WriteInPlace:     true,
	}, decodedConfiguration)
}
