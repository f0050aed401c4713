package history

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/pir8aye/refmap/internal/execshell"
)

const (
	gitLogSubcommandNameConstant        = "log"
	gitLogFormatFlagConstant            = "--format=%H%x01%B%x02"
	gitLogRecordSeparatorConstant       = "\x01"
	gitLogChangeSeparatorConstant       = "\x02"
	gitLogDefaultStartReferenceConstant = "HEAD"
	gitLogOperationNameConstant         = "git log"
	executorMissingMessageConstant      = "git executor not configured"
	repositoryPathMissingMessage        = "repository path not configured"
)

var (
	errExecutorMissing       = errors.New(executorMissingMessageConstant)
	errRepositoryPathMissing = errors.New(repositoryPathMissingMessage)

	labelLinePattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_-]*):[ \t]+(.+)$`)
)

// GitExecutor runs git commands on behalf of the history source.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// GitSource walks a local repository's history through git log, exposing
// commit message trailers of the form "Name: value" as labels and the commit
// hash as the change reference. Iteration order is git log order, newest
// change first.
type GitSource struct {
	executor       GitExecutor
	repositoryPath string
}

// NewGitSource constructs a GitSource for the repository at the provided path.
func NewGitSource(executor GitExecutor, repositoryPath string) (*GitSource, error) {
	if executor == nil {
		return nil, errExecutorMissing
	}
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		return nil, errRepositoryPathMissing
	}

	return &GitSource{executor: executor, repositoryPath: repositoryPath}, nil
}

// VisitChangesWithAnyLabel walks commits reachable from the start reference,
// invoking the visitor for every commit carrying any of the requested labels.
func (source *GitSource) VisitChangesWithAnyLabel(executionContext context.Context, startReference string, labelNames []string, visitor ChangeVisitor) error {
	resolvedStartReference := strings.TrimSpace(startReference)
	if len(resolvedStartReference) == 0 {
		resolvedStartReference = gitLogDefaultStartReferenceConstant
	}

	executionResult, executionError := source.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitLogSubcommandNameConstant, gitLogFormatFlagConstant, resolvedStartReference},
		WorkingDirectory: source.repositoryPath,
	})
	if executionError != nil {
		return RepoError{Operation: gitLogOperationNameConstant, Cause: executionError}
	}

	for _, changeRecord := range strings.Split(executionResult.StandardOutput, gitLogChangeSeparatorConstant) {
		trimmedRecord := strings.TrimLeft(changeRecord, "\n")
		if len(strings.TrimSpace(trimmedRecord)) == 0 {
			continue
		}

		separatorIndex := strings.Index(trimmedRecord, gitLogRecordSeparatorConstant)
		if separatorIndex == -1 {
			continue
		}

		change := Change{
			Reference: strings.TrimSpace(trimmedRecord[:separatorIndex]),
			Labels:    parseMessageLabels(trimmedRecord[separatorIndex+1:]),
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

func parseMessageLabels(message string) map[string][]string {
	var parsedLabels map[string][]string
	for _, messageLine := range strings.Split(message, "\n") {
		labelMatch := labelLinePattern.FindStringSubmatch(strings.TrimRight(messageLine, " \t\r"))
		if labelMatch == nil {
			continue
		}
		if parsedLabels == nil {
			parsedLabels = make(map[string][]string)
		}
		parsedLabels[labelMatch[1]] = append(parsedLabels[labelMatch[1]], strings.TrimSpace(labelMatch[2]))
	}
	return parsedLabels
}
