// Package internal contains helper utilities that are intentionally private to courseapp,
// currently refresh-token generation.
//
// # Sub-packages
//
//   - config: viper-backed loader for the courseappd process configuration
//   - flows: pure-function flow orchestrators for Engine session operations
//   - logging: logrus logger construction
//
// # What this package must NOT do
//
//   - Export types that appear in the public courseapp API.
//   - Be imported by any package outside the courseapp module.
package internal
