package refs

import (
	"strings"

	pathutils "github.com/pir8aye/refmap/internal/utils/path"
)

const (
	referencePatternConfigurationKeySuffixConstant = ".reference_pattern"
	destinationConfigurationKeySuffixConstant      = ".destination"
	defaultReferencePatternConstant                = `[0-9]+`
	defaultDestinationPathConstant                 = "."
)

var configurationDestinationSanitizer = pathutils.NewRepositoryPathSanitizer()

// CommandConfiguration captures persisted configuration for reference mapping.
type CommandConfiguration struct {
	BeforeTemplate   string   `mapstructure:"before"`
	AfterTemplate    string   `mapstructure:"after"`
	ReferencePattern string   `mapstructure:"reference_pattern"`
	ReversePattern   string   `mapstructure:"reverse_pattern"`
	OriginLabel      string   `mapstructure:"origin_label"`
	AdditionalLabels []string `mapstructure:"additional_labels"`
	DestinationPath  string   `mapstructure:"destination"`
	MessageFile      string   `mapstructure:"message_file"`
	WriteInPlace     bool     `mapstructure:"write_in_place"`
}

// DefaultCommandConfiguration returns baseline configuration values for reference mapping.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		ReferencePattern: defaultReferencePatternConstant,
		DestinationPath:  defaultDestinationPathConstant,
	}
}

// DefaultConfigurationValues exposes configuration defaults keyed beneath the provided prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + referencePatternConfigurationKeySuffixConstant: defaultReferencePatternConstant,
		configurationKeyPrefix + destinationConfigurationKeySuffixConstant:      defaultDestinationPathConstant,
	}
}

// Sanitize trims configured values, expands the destination path, and removes empty labels.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.BeforeTemplate = strings.TrimSpace(configuration.BeforeTemplate)
	sanitized.AfterTemplate = strings.TrimSpace(configuration.AfterTemplate)
	sanitized.ReferencePattern = strings.TrimSpace(configuration.ReferencePattern)
	sanitized.ReversePattern = strings.TrimSpace(configuration.ReversePattern)
	sanitized.OriginLabel = strings.TrimSpace(configuration.OriginLabel)
	sanitized.AdditionalLabels = sanitizeLabelNames(configuration.AdditionalLabels)
	sanitized.DestinationPath = configurationDestinationSanitizer.Sanitize(configuration.DestinationPath)
	sanitized.MessageFile = strings.TrimSpace(configuration.MessageFile)
	return sanitized
}

// sanitizeLabelNames trims label names and drops empty or duplicate entries
// while preserving the configured order.
func sanitizeLabelNames(labelNames []string) []string {
	sanitizedNames := make([]string, 0, len(labelNames))
	seenNames := make(map[string]struct{}, len(labelNames))
	for _, labelName := range labelNames {
		trimmedName := strings.TrimSpace(labelName)
		if len(trimmedName) == 0 {
			continue
		}
		if _, alreadySeen := seenNames[trimmedName]; alreadySeen {
			continue
		}
		seenNames[trimmedName] = struct{}{}
		sanitizedNames = append(sanitizedNames, trimmedName)
	}
	if len(sanitizedNames) == 0 {
		return nil
	}
	return sanitizedNames
}
