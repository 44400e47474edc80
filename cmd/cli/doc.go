// Package cli constructs the nixpatch command-line interface, wiring the
// Cobra command hierarchy, configuration loader, and structured logging
// primitives. The root application carries both the patch and test-results
// commands; the standalone patcher and test-summary applications expose one
// command each as their root.
package cli
