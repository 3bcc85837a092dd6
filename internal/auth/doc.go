// Package auth issues and verifies API tokens for Gray Logic Blink.
//
// There are no user accounts. An operator mints long-lived HS256 tokens
// with `graylogic-blink -token <subject> -role <role>`; the subject
// becomes the play source recorded for requests made with the token.
//
// Roles map to a fixed permission set:
//   - viewer: read patterns, playback state, and audit history
//   - operator: viewer plus play and stop
//   - admin: operator plus creating and deleting user patterns
package auth
