package history_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pir8aye/refmap/internal/execshell"
	"github.com/pir8aye/refmap/internal/history"
)

const (
	testOriginLabelNameConstant  = "Migrated-From"
	testFirstCommitHashConstant  = "aaa111"
	testSecondCommitHashConstant = "bbb222"
	testRepositoryPathConstant   = "/tmp/destination"
)

type stubGitExecutor struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.CommandDetails
}

func (executor *stubGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	return executor.executionResult, executor.executionError
}

func gitLogOutput() string {
	return testFirstCommitHashConstant + "\x01" +
		"Migrate widget\n\nMigrated-From: 123\nReviewed-By: someone\n" + "\x02\n" +
		testSecondCommitHashConstant + "\x01" +
		"Unrelated change\n\nno trailers here\n" + "\x02\n"
}

func TestNewGitSourceValidation(testInstance *testing.T) {
	testCases := []struct {
		name           string
		executor       history.GitExecutor
		repositoryPath string
		expectError    bool
	}{
		{name: "MissingExecutor", executor: nil, repositoryPath: testRepositoryPathConstant, expectError: true},
		{name: "MissingRepositoryPath", executor: &stubGitExecutor{}, repositoryPath: "  ", expectError: true},
		{name: "Valid", executor: &stubGitExecutor{}, repositoryPath: testRepositoryPathConstant},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			source, creationError := history.NewGitSource(testCase.executor, testCase.repositoryPath)
			if testCase.expectError {
				require.Error(testInstance, creationError)
				return
			}
			require.NoError(testInstance, creationError)
			require.NotNil(testInstance, source)
		})
	}
}

func TestGitSourceVisitsLabeledChangesOnly(testInstance *testing.T) {
	executor := &stubGitExecutor{executionResult: execshell.ExecutionResult{StandardOutput: gitLogOutput()}}
	source, creationError := history.NewGitSource(executor, testRepositoryPathConstant)
	require.NoError(testInstance, creationError)

	var visitedReferences []string
	var visitedLabelValues []map[string][]string
	visitError := source.VisitChangesWithAnyLabel(context.Background(), "", []string{testOriginLabelNameConstant}, func(change history.Change, labelValues map[string][]string) history.VisitResult {
		visitedReferences = append(visitedReferences, change.Reference)
		visitedLabelValues = append(visitedLabelValues, labelValues)
		return history.VisitContinue
	})

	require.NoError(testInstance, visitError)
	require.Equal(testInstance, []string{testFirstCommitHashConstant}, visitedReferences)
	require.Equal(testInstance, map[string][]string{testOriginLabelNameConstant: {"123"}}, visitedLabelValues[0])

	require.Len(testInstance, executor.recordedCommands, 1)
	require.Equal(testInstance, testRepositoryPathConstant, executor.recordedCommands[0].WorkingDirectory)
	require.Contains(testInstance, executor.recordedCommands[0].Arguments, "HEAD")
}

func TestGitSourceHonorsStartReference(testInstance *testing.T) {
	executor := &stubGitExecutor{executionResult: execshell.ExecutionResult{}}
	source, creationError := history.NewGitSource(executor, testRepositoryPathConstant)
	require.NoError(testInstance, creationError)

	visitError := source.VisitChangesWithAnyLabel(context.Background(), testSecondCommitHashConstant, []string{testOriginLabelNameConstant}, func(history.Change, map[string][]string) history.VisitResult {
		return history.VisitContinue
	})

	require.NoError(testInstance, visitError)
	require.Contains(testInstance, executor.recordedCommands[0].Arguments, testSecondCommitHashConstant)
}

func TestGitSourceWrapsExecutorFailures(testInstance *testing.T) {
	executorFailure := errors.New("fatal: not a git repository")
	executor := &stubGitExecutor{executionError: executorFailure}
	source, creationError := history.NewGitSource(executor, testRepositoryPathConstant)
	require.NoError(testInstance, creationError)

	visitError := source.VisitChangesWithAnyLabel(context.Background(), "", []string{testOriginLabelNameConstant}, func(history.Change, map[string][]string) history.VisitResult {
		return history.VisitContinue
	})

	require.Error(testInstance, visitError)
	var repoError history.RepoError
	require.ErrorAs(testInstance, visitError, &repoError)
	require.ErrorIs(testInstance, visitError, executorFailure)
}

func TestGitSourceTerminatesEarly(testInstance *testing.T) {
	output := gitLogOutput() +
		"ccc333\x01Another migration\n\nMigrated-From: 456\n\x02\n"
	executor := &stubGitExecutor{executionResult: execshell.ExecutionResult{StandardOutput: output}}
	source, creationError := history.NewGitSource(executor, testRepositoryPathConstant)
	require.NoError(testInstance, creationError)

	visitCount := 0
	visitError := source.VisitChangesWithAnyLabel(context.Background(), "", []string{testOriginLabelNameConstant}, func(history.Change, map[string][]string) history.VisitResult {
		visitCount++
		return history.VisitTerminate
	})

	require.NoError(testInstance, visitError)
	require.Equal(testInstance, 1, visitCount)
}

func TestMemorySourceSkipsUnlabeledChanges(testInstance *testing.T) {
	source := history.NewMemorySource(
		history.Change{Reference: testFirstCommitHashConstant, Labels: map[string][]string{testOriginLabelNameConstant: {"123"}}},
		history.Change{Reference: testSecondCommitHashConstant},
	)

	var visitedReferences []string
	visitError := source.VisitChangesWithAnyLabel(context.Background(), "", []string{testOriginLabelNameConstant}, func(change history.Change, labelValues map[string][]string) history.VisitResult {
		visitedReferences = append(visitedReferences, change.Reference)
		return history.VisitContinue
	})

	require.NoError(testInstance, visitError)
	require.Equal(testInstance, []string{testFirstCommitHashConstant}, visitedReferences)
}
