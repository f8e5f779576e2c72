// Package preflight runs environment checks for skillsmcp before it is
// registered with an MCP client.
//
// The package validates:
//   - The skill store exists and every domain passes validation
//   - The log directory is writable
//   - The usage database directory is writable when persistence is on
//   - Disk space for logs (minimum 10MB)
//   - File descriptor limits (minimum 256)
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, preflight.Target{SkillsDir: dir, LogDir: logs})
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
