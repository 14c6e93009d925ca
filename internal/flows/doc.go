// Package flows contains pure-function orchestrators for the Engine's session operations.
//
// Each flow function (RunLogin, RunCreateSession, RunVerifySession, RunValidate)
// accepts a typed dependency struct and returns results without side-effects beyond
// those dependencies. This keeps the Engine type thin and lets every branch be
// tested with plain function fakes.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the document store, JWT manager, password
// hasher, audit dispatcher, and metrics. They do NOT own any of these resources;
// ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import courseapp (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency functions.
package flows
