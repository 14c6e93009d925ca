// Package jwt issues and verifies the short-lived access token.
//
// Tokens carry only the user id (_id), iat and exp. Verification pins the
// configured HMAC algorithm and rejects anything else.
package jwt
