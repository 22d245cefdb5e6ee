//go:build !nodiagnostics

package logging

// DiagnosticsAvailable reports whether this build ships the zap-backed diagnostics.
const DiagnosticsAvailable = true
