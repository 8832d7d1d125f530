// Package connection is the HTTP client healthqr-cli uses to talk to a
// running healthqr-server.
//
// Responses arrive in the server's envelope
// ({code, message, request_id, timestamp, data, details}); ParseResponse
// unwraps data on success and returns an *APIError otherwise.
package connection
