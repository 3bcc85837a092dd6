// Package api implements the HTTP REST API and WebSocket server for Gray Logic Blink.
//
// This package provides:
//   - REST endpoints for the pattern catalog and playback control
//   - WebSocket hub broadcasting catalog and playback changes
//   - Bearer JWT authentication with role-based permissions
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Endpoints
//
// All routes live under /api/v1:
//
//	GET    /health                 liveness and dropped fades, no auth
//	GET    /patterns               catalog in {id, name, pattern} form
//	POST   /patterns               create a user pattern
//	GET    /patterns/status        playing and queued patterns
//	POST   /patterns/play          play a name, id, or directive
//	POST   /patterns/stop          stop everything
//	GET    /patterns/config        runtime playback config
//	PUT    /patterns/config        replace runtime playback config
//	GET    /patterns/{id}          one pattern with playback state
//	PUT    /patterns/{id}          replace a user pattern
//	DELETE /patterns/{id}          delete a user pattern
//	POST   /patterns/{id}/stop     stop one pattern
//	GET    /audit                  audit trail (action, pattern_id, source, since)
//	GET    /ws                     WebSocket
//
// WebSocket clients subscribe to "patterns.changed" and get the current
// catalog and status at once, then again after every change.
//
// # Security
//
// With security.jwt.secret unset the API is open, which suits a desk light
// on a trusted LAN. With a secret set every protected route needs a token
// minted by "graylogic-blink -token <subject> -role <role>".
package api
