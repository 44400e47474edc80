// Package utils exposes helpers shared by the patch and test-results commands.
//
// ConfigurationLoader layers embedded defaults, configuration files and
// environment variables through Viper. LoggerFactory builds the zap loggers
// used for diagnostics and human-readable command events.
package utils
