// Package main provides the entry point for supplier-mockd.
//
// supplier-mockd is a local stand-in for the supplier management script
// endpoint. It serves POST /exec with the same envelope and error codes,
// backed by a YAML fixture, so supplier-cli can be developed and tested
// without the hosted deployment.
//
//	supplier-mockd --addr 127.0.0.1:5090 --fixture fixture.yaml --watch
//
// Configuration is layered from defaults, --config, SUPPLIER_MOCK_*
// environment variables and flags.
package main
