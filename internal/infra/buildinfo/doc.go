// Package buildinfo reports the version of the running binary.
//
// Release builds inject values via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/mobsession-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Unset values fall back to the module and VCS data embedded by the Go
// toolchain.
package buildinfo
