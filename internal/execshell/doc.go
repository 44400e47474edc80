// Package execshell runs git and gh as child processes.
//
// ShellExecutor validates its collaborators, forwards every invocation to a
// CommandRunner and reports lifecycle events through an observer that either
// emits structured zap fields or human-readable sentences built by
// CommandMessageFormatter. OSCommandRunner is the os/exec backed runner.
package execshell
