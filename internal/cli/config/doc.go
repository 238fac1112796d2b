// Package config holds the supplier CLI configuration (~/.supplier/config.yaml).
//
// Values are layered by internal/infra/confloader: flags over SUPPLIER_*
// environment variables over the file over Default().
package config
