//go:build nodiagnostics

package logging

// DiagnosticsAvailable is false in builds tagged nodiagnostics.
const DiagnosticsAvailable = false
