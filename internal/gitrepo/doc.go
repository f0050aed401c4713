// Package gitrepo contains helpers for interrogating Git repositories.
//
// It exposes RepositoryManager for confirming worktrees and reading remotes,
// along with remote URL parsing consumed by commands that need a structured
// repository identity.
package gitrepo
