package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/pir8aye/refmap/internal/execshell"
)

const (
	gitExecutorMissingMessageConstant     = "git executor not configured"
	gitRevParseSubcommandNameConstant     = "rev-parse"
	gitWorkTreeFlagConstant               = "--is-inside-work-tree"
	gitRemoteSubcommandNameConstant       = "remote"
	gitRemoteGetURLSubcommandNameConstant = "get-url"
	workTreeConfirmationOutputConstant    = "true"
)

var errGitExecutorMissing = errors.New(gitExecutorMissingMessageConstant)

// GitExecutor runs git commands on behalf of the repository manager.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager answers questions about local git repositories through an executor.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager with the supplied executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, errGitExecutorMissing
	}
	return &RepositoryManager{executor: executor}, nil
}

// CheckIsRepository reports whether the provided path sits inside a git worktree.
func (manager *RepositoryManager) CheckIsRepository(executionContext context.Context, repositoryPath string) (bool, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandNameConstant, gitWorkTreeFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		var commandFailure execshell.CommandFailedError
		if errors.As(executionError, &commandFailure) {
			return false, nil
		}
		return false, executionError
	}

	return strings.TrimSpace(executionResult.StandardOutput) == workTreeConfirmationOutputConstant, nil
}

// GetRemoteURL reads the textual URL configured for the named remote.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandNameConstant, gitRemoteGetURLSubcommandNameConstant, remoteName},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", executionError
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}
