// Package preflight provides readiness checks for the filesystem paths and
// external services vidnorm depends on.
//
// These checks run in two contexts:
//   - The run command calls RunAll before scanning. A failed required check
//     aborts the run before any file is touched.
//   - The CLI "vidnorm deps" command and the alert relay use individual check
//     functions (CheckSystemDeps, CheckEndpoint) to display health.
package preflight
