// Package output renders command results for supplier-cli.
//
//   - formatter.go: Formatter interface, format parsing, raw JSON handling
//   - table.go: aligned tables via text/tabwriter, with wide-only columns
//   - json.go, yaml.go: machine-readable output
//   - spinner.go: activity indicator while waiting on the endpoint
package output
