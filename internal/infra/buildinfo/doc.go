// Package buildinfo exposes version information for the healthqr binaries.
//
// Values are injected at build time:
//
//	go build -ldflags "-X github.com/Saiguru2554/Health-Link-Qr/internal/infra/buildinfo.Version=v1.0.0"
//
// Fields left unset fall back to what the Go toolchain recorded in the binary.
package buildinfo
