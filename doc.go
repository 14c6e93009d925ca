// Package courseapp provides the authentication and enrollment engine of the course
// catalog service: bcrypt-hashed credentials, short-lived JWT access tokens, and
// long-lived opaque refresh tokens persisted as sessions inside the user document.
//
// Engine methods are safe to call from multiple goroutines after initialization
// through [Builder.Build]. User values returned by the Engine are per-call copies and
// must not be shared between concurrent requests.
//
// # Architecture boundaries
//
// courseapp is the public surface. It exposes [Engine], [Builder], [Config], the
// [User] and [Course] documents, and the [UserStore] / [CourseStore] interfaces that
// persistence adapters under store/ implement. Flow orchestration and token
// generation live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Import a concrete store, HTTP router, or database driver.
//   - Persist a plaintext password: [User.SetPassword] only stages a value that the
//     Engine hashes on the next save.
//   - Import any sub-package that re-imports courseapp (no import cycles).
//
// # Session model
//
// Refresh sessions are embedded in the user document and updated with a full-document
// replace. Concurrent session creation for the same user is last-write-wins.
package courseapp
