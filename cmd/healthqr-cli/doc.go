// Package main provides the entry point for healthqr-cli.
//
// The CLI encodes, verifies and renders QR tokens offline, and talks
// to a healthqr-server to manage patients and resolve scan links:
//
//	healthqr-cli token encode P123456001
//	healthqr-cli token verify 'http://127.0.0.1:5080/patient/P123456001?code=...'
//	healthqr-cli patient register --name "Asha Rao" --blood-group O+
//	healthqr-cli scan P123456001 eyJwYXRpZW50SWQiOi...
//	healthqr-cli config set server https://health.example.org
package main
