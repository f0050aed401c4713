package refs

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pir8aye/refmap/internal/execshell"
	"github.com/pir8aye/refmap/internal/gitrepo"
	"github.com/pir8aye/refmap/internal/history"
	"github.com/pir8aye/refmap/internal/transform"
	"github.com/pir8aye/refmap/internal/utils"
)

const (
	commandUseConstant                           = "map-references"
	commandShortDescriptionConstant              = "Rewrite origin references in a change description"
	commandLongDescriptionConstant               = "map-references replaces references valid in the origin repository with their destination equivalents, resolving each one through the destination's labeled change history."
	beforeFlagNameConstant                       = "before"
	beforeFlagUsageConstant                      = "Template describing an origin reference, e.g. \"#${reference}\""
	afterFlagNameConstant                        = "after"
	afterFlagUsageConstant                       = "Template describing the destination reference, e.g. \"DEST-${reference}\""
	referencePatternFlagNameConstant             = "reference-pattern"
	referencePatternFlagUsageConstant            = "Regex fragment matched by the reference group"
	reversePatternFlagNameConstant               = "reverse-pattern"
	reversePatternFlagUsageConstant              = "Optional regex a resolved destination reference must fully match"
	originLabelFlagNameConstant                  = "origin-label"
	originLabelFlagUsageConstant                 = "Label name recording origin references in destination changes"
	additionalLabelFlagNameConstant              = "label"
	additionalLabelFlagUsageConstant             = "Additional label name to consult (repeatable)"
	destinationFlagNameConstant                  = "destination"
	destinationFlagUsageConstant                 = "Path to the destination repository worktree"
	messageFileFlagNameConstant                  = "message-file"
	messageFileFlagUsageConstant                 = "File holding the change description; omit to read standard input"
	writeInPlaceFlagNameConstant                 = "write"
	writeInPlaceFlagUsageConstant                = "Write the rewritten description back to the message file"
	requiredValueMessageConstant                 = "value required"
	beforeFieldNameConstant                      = "before"
	afterFieldNameConstant                       = "after"
	originLabelFieldNameConstant                 = "origin_label"
	destinationFieldNameConstant                 = "destination"
	messageFileRequiredForWriteMessageConstant   = "--write requires --message-file"
	destinationNotRepositoryTemplateConstant     = "destination %s is not a git repository"
	messageReadErrorTemplateConstant             = "unable to read change description: %w"
	messageWriteErrorTemplateConstant            = "unable to write change description: %w"
	transformFailedTemplateConstant              = "map-references failed: %w"
	defaultRemoteNameConstant                    = "origin"
	messageFilePermissionsConstant               = 0o644
	logMessageTransformCompletedConstant         = "Reference mapping completed"
	logMessageDestinationIdentityConstant        = "Destination repository resolved"
	logMessageDestinationIdentityUnknownConstant = "Destination remote identity unavailable"
	logFieldDestinationPathConstant              = "destination_path"
	logFieldDestinationOwnerConstant             = "destination_owner"
	logFieldDestinationRepositoryConstant        = "destination_repository"
	logFieldMessageChangedConstant               = "message_changed"
	logFieldMessageFileConstant                  = "message_file"
)

// InvalidInputError describes command option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", inputError.FieldName, inputError.Message)
}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the map-references Cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	Executor              gitrepo.GitExecutor
	ConfigurationProvider func() CommandConfiguration
	MessageInput          io.Reader
}

type commandOptions struct {
	configuration CommandConfiguration
	debugEnabled  bool
}

// Build constructs the map-references command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runMapReferences,
	}

	command.Flags().String(beforeFlagNameConstant, "", beforeFlagUsageConstant)
	command.Flags().String(afterFlagNameConstant, "", afterFlagUsageConstant)
	command.Flags().String(referencePatternFlagNameConstant, "", referencePatternFlagUsageConstant)
	command.Flags().String(reversePatternFlagNameConstant, "", reversePatternFlagUsageConstant)
	command.Flags().String(originLabelFlagNameConstant, "", originLabelFlagUsageConstant)
	command.Flags().StringSlice(additionalLabelFlagNameConstant, nil, additionalLabelFlagUsageConstant)
	command.Flags().String(destinationFlagNameConstant, "", destinationFlagUsageConstant)
	command.Flags().String(messageFileFlagNameConstant, "", messageFileFlagUsageConstant)
	command.Flags().Bool(writeInPlaceFlagNameConstant, false, writeInPlaceFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runMapReferences(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger(options.debugEnabled)

	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return executorError
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(executor)
	if managerError != nil {
		return managerError
	}

	isRepository, repositoryCheckError := repositoryManager.CheckIsRepository(command.Context(), options.configuration.DestinationPath)
	if repositoryCheckError != nil {
		return repositoryCheckError
	}
	if !isRepository {
		return fmt.Errorf(destinationNotRepositoryTemplateConstant, options.configuration.DestinationPath)
	}

	builder.logDestinationIdentity(command, logger, repositoryManager, options.configuration.DestinationPath)

	destinationHistory, historyError := history.NewGitSource(executor, options.configuration.DestinationPath)
	if historyError != nil {
		return historyError
	}

	migrator, migratorError := NewMigrator(MigratorOptions{
		BeforeTemplate:   options.configuration.BeforeTemplate,
		AfterTemplate:    options.configuration.AfterTemplate,
		ReferencePattern: options.configuration.ReferencePattern,
		ReversePattern:   options.configuration.ReversePattern,
		AdditionalLabels: options.configuration.AdditionalLabels,
		Logger:           logger,
	})
	if migratorError != nil {
		return migratorError
	}

	message, messageReadError := builder.readMessage(options.configuration.MessageFile, command)
	if messageReadError != nil {
		return fmt.Errorf(messageReadErrorTemplateConstant, messageReadError)
	}

	work := transform.NewWork(message, transform.NewMigrationInfo(options.configuration.OriginLabel, destinationHistory))
	if transformError := migrator.Transform(command.Context(), work); transformError != nil {
		return fmt.Errorf(transformFailedTemplateConstant, transformError)
	}

	if writeError := builder.writeMessage(options.configuration, command, work.Message()); writeError != nil {
		return fmt.Errorf(messageWriteErrorTemplateConstant, writeError)
	}

	logger.Info(
		logMessageTransformCompletedConstant,
		zap.String(logFieldDestinationPathConstant, options.configuration.DestinationPath),
		zap.Bool(logFieldMessageChangedConstant, work.Message() != message),
		zap.String(logFieldMessageFileConstant, options.configuration.MessageFile),
	)

	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (commandOptions, error) {
	configuration := builder.resolveConfiguration()

	if command != nil {
		flags := command.Flags()
		if flags.Changed(beforeFlagNameConstant) {
			configuration.BeforeTemplate, _ = flags.GetString(beforeFlagNameConstant)
		}
		if flags.Changed(afterFlagNameConstant) {
			configuration.AfterTemplate, _ = flags.GetString(afterFlagNameConstant)
		}
		if flags.Changed(referencePatternFlagNameConstant) {
			configuration.ReferencePattern, _ = flags.GetString(referencePatternFlagNameConstant)
		}
		if flags.Changed(reversePatternFlagNameConstant) {
			configuration.ReversePattern, _ = flags.GetString(reversePatternFlagNameConstant)
		}
		if flags.Changed(originLabelFlagNameConstant) {
			configuration.OriginLabel, _ = flags.GetString(originLabelFlagNameConstant)
		}
		if flags.Changed(additionalLabelFlagNameConstant) {
			configuration.AdditionalLabels, _ = flags.GetStringSlice(additionalLabelFlagNameConstant)
		}
		if flags.Changed(destinationFlagNameConstant) {
			configuration.DestinationPath, _ = flags.GetString(destinationFlagNameConstant)
		}
		if flags.Changed(messageFileFlagNameConstant) {
			configuration.MessageFile, _ = flags.GetString(messageFileFlagNameConstant)
		}
		if flags.Changed(writeInPlaceFlagNameConstant) {
			configuration.WriteInPlace, _ = flags.GetBool(writeInPlaceFlagNameConstant)
		}
	}

	configuration = configuration.Sanitize()

	if len(configuration.BeforeTemplate) == 0 {
		return commandOptions{}, InvalidInputError{FieldName: beforeFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(configuration.AfterTemplate) == 0 {
		return commandOptions{}, InvalidInputError{FieldName: afterFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(configuration.OriginLabel) == 0 {
		return commandOptions{}, InvalidInputError{FieldName: originLabelFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(configuration.DestinationPath) == 0 {
		return commandOptions{}, InvalidInputError{FieldName: destinationFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if configuration.WriteInPlace && len(configuration.MessageFile) == 0 {
		return commandOptions{}, InvalidInputError{FieldName: messageFileFlagNameConstant, Message: messageFileRequiredForWriteMessageConstant}
	}

	debugEnabled := false
	if command != nil {
		contextAccessor := utils.NewCommandContextAccessor()
		if logLevel, available := contextAccessor.LogLevel(command.Context()); available {
			if strings.EqualFold(logLevel, string(utils.LogLevelDebug)) {
				debugEnabled = true
			}
		}
	}

	return commandOptions{configuration: configuration, debugEnabled: debugEnabled}, nil
}

func (builder *CommandBuilder) resolveLogger(enableDebug bool) *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if enableDebug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (gitrepo.GitExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) readMessage(messageFile string, command *cobra.Command) (string, error) {
	if len(messageFile) > 0 {
		messageData, readError := os.ReadFile(messageFile)
		if readError != nil {
			return "", readError
		}
		return string(messageData), nil
	}

	messageInput := builder.MessageInput
	if messageInput == nil && command != nil {
		messageInput = command.InOrStdin()
	}
	messageData, readError := io.ReadAll(messageInput)
	if readError != nil {
		return "", readError
	}
	return string(messageData), nil
}

func (builder *CommandBuilder) writeMessage(configuration CommandConfiguration, command *cobra.Command, message string) error {
	if configuration.WriteInPlace {
		return os.WriteFile(configuration.MessageFile, []byte(message), messageFilePermissionsConstant)
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	_, writeError := io.WriteString(outputWriter, message)
	return writeError
}

func (builder *CommandBuilder) logDestinationIdentity(command *cobra.Command, logger *zap.Logger, repositoryManager *gitrepo.RepositoryManager, destinationPath string) {
	remoteURL, remoteError := repositoryManager.GetRemoteURL(command.Context(), destinationPath, defaultRemoteNameConstant)
	if remoteError != nil {
		logger.Debug(logMessageDestinationIdentityUnknownConstant, zap.String(logFieldDestinationPathConstant, destinationPath), zap.Error(remoteError))
		return
	}

	parsedRemote, parseError := gitrepo.ParseRemoteURL(remoteURL)
	if parseError != nil {
		logger.Debug(logMessageDestinationIdentityUnknownConstant, zap.String(logFieldDestinationPathConstant, destinationPath), zap.Error(parseError))
		return
	}

	logger.Info(
		logMessageDestinationIdentityConstant,
		zap.String(logFieldDestinationOwnerConstant, parsedRemote.Owner),
		zap.String(logFieldDestinationRepositoryConstant, parsedRemote.Repository),
	)
}
