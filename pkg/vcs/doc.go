// Package vcs wraps the version-control operations gpm performs on package
// repositories.
//
// [GoGit] does the work in-process with go-git. Three-way merges, git-flow
// and passthrough commands need the git binary, which is run with os/exec.
// Tests use the in-memory client in package vcstest.
package vcs
