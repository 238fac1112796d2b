// Package tlsroots loads TLS material for both ends of the script endpoint
// connection.
//
//   - roots.go: client trust, the system pool plus an optional CA bundle
//   - reloader.go: server certificate that follows its files on disk
package tlsroots
