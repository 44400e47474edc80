// Package ui renders the human-facing console output of the CLI tools.
//
// Console prints bordered panels, one-line banners and symbol-prefixed status
// lines to an io.Writer while diagnostic telemetry continues to flow through
// the zap loggers.
package ui
