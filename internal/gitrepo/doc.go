// Package gitrepo wraps the git operations the patch workflow performs.
//
// RepositoryManager mutates a working tree by running the git CLI through an
// executor, so every change is visible in command event logs. Inspector answers
// read-only questions (remotes, revisions, branches) with go-git without
// spawning processes. ParseRepositoryIdentifier and NormalizeRepositoryIdentifier
// reduce remote URLs to the owner/name form the GitHub API expects.
package gitrepo
