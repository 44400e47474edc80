// Package patcher regenerates the target branch from upstream and replays the patch queue.
//
// Service runs the workflow steps in a fixed order (identity, remote, fetch,
// snapshot, reset, strip CI configuration, apply, push) and stops at the first
// failure. Git mutations go through gitrepo.RepositoryManager so they appear in
// command event logs; remote, revision and branch lookups use the go-git backed
// gitrepo.Inspector. CommandBuilder exposes the workflow as the `patch` command.
package patcher
