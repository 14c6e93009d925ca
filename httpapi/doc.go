// Package httpapi serves the course enrollment REST API on a chi router.
//
// Signup and login return the user document with the new tokens in the
// x-access-token and x-refresh-token response headers. GET
// /users/me/new-access-token is guarded by the refresh session; every other user and
// course route is guarded by the access token.
//
// Errors are JSON objects {"error": "...", "fields": {...}}. Input and persistence
// problems map to 400, credential problems to 401, unknown courses to 404 and
// uniqueness conflicts to 409.
package httpapi
