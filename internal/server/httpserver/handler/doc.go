// Package handler implements the Health QR Link HTTP API.
//
// Every JSON response uses the Response envelope. The scan endpoint
// (GET /patient/{id}?code=) answers with the generic messages from
// domain.ScanStatus and never explains why a code failed verification.
package handler
