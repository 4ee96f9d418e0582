// Package logging provides a simple leveled logging interface for
// snapcapsule.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (index lookup misses, tool arguments)
//   - INFO: General operational messages (per-file repair outcomes)
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, the
// DEBUG flag, or at runtime with SetLevel.
package logging
