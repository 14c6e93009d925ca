// Package middleware exposes the HTTP guards and CORS policy built on courseapp.Engine.
//
// # Guards
//
//   - [RequireAccess] validates the x-access-token header. No store access.
//   - [RequireSession] checks the _id and x-refresh-token headers against the user's
//     embedded sessions.
//
// A guard that admits a request binds an [Auth] to its context; handlers read it with
// [AuthFromContext]. Rejected requests get a 401 JSON body and never reach the handler.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Access the document store directly.
package middleware
