// Package buildinfo exposes the version of the supplier portal binaries.
//
// Values are injected at build time via ldflags and fall back to the
// module build information embedded by the Go toolchain:
//
//	go build -ldflags "-X github.com/yndnr/supplier-portal/internal/infra/buildinfo.Version=v1.2.0"
package buildinfo
