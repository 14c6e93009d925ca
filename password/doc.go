// Package password implements password hashing and verification with bcrypt.
//
// # Output format
//
// Hashes are standard modular-crypt bcrypt strings:
//
//	$2a$<cost>$<22-char salt><31-char hash>
//
// The [Bcrypt] hasher supports transparent cost upgrades: if the stored hash was
// produced with a lower cost, [Bcrypt.NeedsUpgrade] returns true so the caller
// can re-hash on the next successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. When a hash is computed (the
// pre-save hook on user documents) is decided by the engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Import any other CourseAppApi package.
//   - Log plaintext passwords.
package password
